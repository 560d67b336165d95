// Package mail sends transactional email (reset links, order invoices)
// over SMTP. Callers treat delivery as best-effort.
package mail

import (
	"fmt"
	"net/smtp"
)

type Mailer interface {
	Send(to, subject, body, htmlBody string) error
}

type SMTPMailer struct {
	Address  string // host:port
	Host     string
	From     string
	Password string
}

func (m *SMTPMailer) Send(to, subject, body, htmlBody string) error {
	contentType := "text/plain; charset=\"UTF-8\""
	content := body
	if htmlBody != "" {
		contentType = "text/html; charset=\"UTF-8\""
		content = htmlBody
	}

	message := fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-version: 1.0;\r\nContent-Type: %s;\r\n\r\n%s",
		m.From, to, subject, contentType, content,
	)

	auth := smtp.PlainAuth("", m.From, m.Password, m.Host)
	if err := smtp.SendMail(m.Address, auth, m.From, []string{to}, []byte(message)); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}
