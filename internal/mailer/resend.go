package mailer

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/resend/resend-go/v2"
)

// ResendMailer sends email through the Resend API.
type ResendMailer struct {
	client *resend.Client
}

// Option configures a ResendMailer.
type Option func(*ResendMailer) error

// WithBaseURL points the client at a different API root.
func WithBaseURL(raw string) Option {
	return func(m *ResendMailer) error {
		if !strings.HasSuffix(raw, "/") {
			raw += "/"
		}
		u, err := url.Parse(raw)
		if err != nil {
			return fmt.Errorf("parsing resend base URL: %w", err)
		}
		m.client.BaseURL = u
		return nil
	}
}

// NewResendMailer creates a mailer authenticated with apiKey.
func NewResendMailer(apiKey string, opts ...Option) (*ResendMailer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("missing Resend API key")
	}
	m := &ResendMailer{client: resend.NewClient(apiKey)}
	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Send posts the message once and returns the Resend email id.
func (m *ResendMailer) Send(ctx context.Context, msg Message) (string, error) {
	if err := msg.Validate(); err != nil {
		return "", err
	}

	resp, err := m.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    msg.From,
		To:      msg.To,
		Subject: msg.Subject,
		Html:    msg.HTML,
		Text:    msg.Text,
	})
	if err != nil {
		return "", fmt.Errorf("sending email to %d recipients: %w", len(msg.To), err)
	}
	return resp.Id, nil
}
