// Package mailer sends outbound email over SMTP. All sends in this
// application are best effort: callers log and count failures rather than
// failing the request that triggered them.
package mailer

import (
	"context"
	"crypto/tls"
	"fmt"
	"net/smtp"
	"strings"

	"atelier/internal/config"
)

// Mailer delivers a single plain-text email.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// SMTPMailer sends mail through a configured SMTP relay.
type SMTPMailer struct {
	host     string
	port     string
	username string
	password string
	from     string
	fromName string
}

// NewSMTPMailer builds a mailer from config. When SMTP_HOST is unset it
// returns a NoopMailer so callers never have to branch on configuration.
func NewSMTPMailer(cfg *config.Config) Mailer {
	if cfg.SMTPHost == "" {
		return NoopMailer{}
	}
	return &SMTPMailer{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		username: cfg.SMTPUsername,
		password: cfg.SMTPPassword,
		from:     cfg.MailFrom,
		fromName: cfg.MailFromName,
	}
}

func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	raw := m.buildRaw(to, subject, body)
	addr := m.host + ":" + m.port
	auth := smtp.PlainAuth("", m.username, m.password, m.host)

	// Implicit TLS on 465, STARTTLS everywhere else.
	if m.port == "465" {
		return m.sendTLS(addr, auth, []string{to}, raw)
	}
	return smtp.SendMail(addr, auth, m.from, []string{to}, raw)
}

func (m *SMTPMailer) sendTLS(addr string, auth smtp.Auth, to []string, raw []byte) error {
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: m.host})
	if err != nil {
		return fmt.Errorf("mailer: TLS dial: %w", err)
	}
	client, err := smtp.NewClient(conn, m.host)
	if err != nil {
		return err
	}
	defer client.Quit()

	if err := client.Auth(auth); err != nil {
		return err
	}
	if err := client.Mail(m.from); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return err
		}
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	defer w.Close()
	_, err = w.Write(raw)
	return err
}

func (m *SMTPMailer) buildRaw(to, subject, body string) []byte {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("From: %s <%s>\r\n", m.fromName, m.from))
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}

// NoopMailer silently drops mail. Used when SMTP is not configured and in
// tests.
type NoopMailer struct{}

func (NoopMailer) Send(ctx context.Context, to, subject, body string) error {
	return nil
}
