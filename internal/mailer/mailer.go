package mailer

import (
	"context"
	"fmt"
	"net/mail"

	"github.com/go-playground/validator/v10"
)

// DefaultSubject is the subject line of the daily digest.
const DefaultSubject = "Tomorrow’s UNC free food / credit / merch"

// MailboxTag is the validation tag for an address with an optional display
// name, e.g. "Perks <digest@unc.edu>".
const MailboxTag = "mailbox"

var validate = NewValidator()

// NewValidator returns a validator with MailboxTag registered.
func NewValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation(MailboxTag, validMailbox); err != nil {
		panic(err)
	}
	return v
}

func validMailbox(fl validator.FieldLevel) bool {
	_, err := mail.ParseAddress(fl.Field().String())
	return err == nil
}

// Message is one outgoing email with HTML and plain-text bodies.
type Message struct {
	From    string   `validate:"required,mailbox"`
	To      []string `validate:"required,min=1,dive,mailbox"`
	Subject string   `validate:"required"`
	HTML    string   `validate:"required"`
	Text    string
}

// Validate checks that the message can be handed to a provider.
func (m Message) Validate() error {
	if err := validate.Struct(m); err != nil {
		return fmt.Errorf("invalid message: %w", err)
	}
	return nil
}

// Mailer sends a message and returns the provider-assigned id.
type Mailer interface {
	Send(ctx context.Context, msg Message) (string, error)
}
