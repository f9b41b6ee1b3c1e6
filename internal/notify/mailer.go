package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
)

// SMTPMailer sends plain-text notification mail over SMTP with PLAIN auth.
type SMTPMailer struct {
	addr string
	auth smtp.Auth
	from string
}

func NewSMTPMailer(host string, port int, username, password, from string) *SMTPMailer {
	return &SMTPMailer{
		addr: fmt.Sprintf("%s:%d", host, port),
		auth: smtp.PlainAuth("", username, password, host),
		from: from,
	}
}

func (m *SMTPMailer) Send(_ context.Context, to, subject string, payload []byte) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n", m.from, to, subject, payload)
	if err := smtp.SendMail(m.addr, m.auth, m.from, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("Send: %w", err)
	}
	return nil
}

// LogMailer stands in for SMTP in development and tests.
type LogMailer struct {
	Logger *slog.Logger
}

func (m *LogMailer) Send(_ context.Context, to, subject string, _ []byte) error {
	m.Logger.Info("notification mail", "to", to, "subject", subject)
	return nil
}
