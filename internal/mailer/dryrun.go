package mailer

import (
	"context"
	"fmt"
	"io"
	"strings"
)

// DryRunID is the id returned for messages that were only printed.
const DryRunID = "dry-run"

// DryRunMailer prints what would be sent without sending it
type DryRunMailer struct {
	out  io.Writer
	HTML bool // print the HTML body instead of the text one
	Sent []Message
}

// NewDryRunMailer creates a new dry-run mailer writing to out
func NewDryRunMailer(out io.Writer) *DryRunMailer {
	return &DryRunMailer{out: out}
}

// Send prints the message that would be sent
func (m *DryRunMailer) Send(_ context.Context, msg Message) (string, error) {
	m.Sent = append(m.Sent, msg)

	body := msg.Text
	if m.HTML || body == "" {
		body = msg.HTML
	}

	fmt.Fprintf(m.out, "--- Email %d ---\n", len(m.Sent))
	fmt.Fprintf(m.out, "From: %s\n", msg.From)
	fmt.Fprintf(m.out, "To: %s\n", strings.Join(msg.To, ", "))
	fmt.Fprintf(m.out, "Subject: %s\n\n", msg.Subject)
	fmt.Fprintln(m.out, body)
	fmt.Fprintln(m.out)

	return DryRunID, nil
}
