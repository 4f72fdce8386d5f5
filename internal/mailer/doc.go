// Package mailer delivers rendered digests by email.
//
// ResendMailer sends through the Resend transactional email API and returns
// the provider's message id. DryRunMailer prints the message instead, for
// previews and tests. Neither retries; a failed send is returned to the caller.
package mailer
