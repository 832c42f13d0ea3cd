// Package mailer delivers notification emails over SMTP. It is only
// used by the queue consumer; the request path never waits on mail.
package mailer

import (
	"os"
	"strconv"

	"gopkg.in/gomail.v2"
)

// Mailer holds SMTP connection settings.
type Mailer struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// FromEnv builds a Mailer from SMTP_HOST, SMTP_PORT, SMTP_USERNAME,
// SMTP_PASSWORD and MAIL_FROM. It returns nil when no host is
// configured; callers then log the message instead of sending it, so a
// dev checkout works without a mail account.
func FromEnv() *Mailer {
	host := os.Getenv("SMTP_HOST")
	if host == "" {
		return nil
	}
	port := 587
	if p := os.Getenv("SMTP_PORT"); p != "" {
		if n, err := strconv.Atoi(p); err == nil {
			port = n
		}
	}
	from := os.Getenv("MAIL_FROM")
	if from == "" {
		from = "noreply@example.com"
	}
	return &Mailer{
		Host:     host,
		Port:     port,
		Username: os.Getenv("SMTP_USERNAME"),
		Password: os.Getenv("SMTP_PASSWORD"),
		From:     from,
	}
}

// Send delivers a single HTML email.
func (m *Mailer) Send(to, subject, htmlBody string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("To", to)
	msg.SetHeader("From", m.From)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", htmlBody)

	dialer := gomail.NewDialer(m.Host, m.Port, m.Username, m.Password)
	return dialer.DialAndSend(msg)
}
