// Package mailer sends purchase-order emails with PDF attachments over SMTP.
package mailer

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"mime"
	"net/smtp"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
)

// Config is bound from SMTP_* environment variables.
type Config struct {
	Host     string `envconfig:"HOST"`
	Port     int    `envconfig:"PORT" default:"587"`
	Username string `envconfig:"USERNAME"`
	Password string `envconfig:"PASSWORD"`
	From     string `envconfig:"FROM"`
}

// LoadConfig reads SMTP settings from the environment.
func LoadConfig() (Config, error) {
	var c Config
	if err := envconfig.Process("smtp", &c); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Configured reports whether enough is set to attempt delivery.
func (c Config) Configured() bool { return c.Host != "" && c.From != "" }

// Message is one outbound email with an optional attachment.
type Message struct {
	To             string
	Subject        string
	Body           string
	Attachment     []byte
	AttachmentName string
}

// Sender delivers messages. The SMTP implementation is swapped for a fake in
// tests and for the disabled stub when no SMTP host is configured.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// ErrNotConfigured is returned by the disabled sender so callers can surface
// a clear message instead of a connection failure.
var ErrNotConfigured = errors.New("smtp is not configured")

// Disabled is the no-op sender used when SMTP settings are absent.
type Disabled struct{}

func (Disabled) Send(ctx context.Context, msg Message) error { return ErrNotConfigured }

// SMTPSender delivers mail through a plain-auth SMTP relay.
type SMTPSender struct {
	cfg Config
	log *logrus.Logger
}

func NewSMTPSender(cfg Config, log *logrus.Logger) *SMTPSender {
	return &SMTPSender{cfg: cfg, log: log}
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if msg.To == "" {
		return errors.New("recipient address is required")
	}
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}
	payload := buildMessage(s.cfg.From, msg)

	// net/smtp has no context support; honor cancellation before dialing.
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := smtp.SendMail(addr, auth, s.cfg.From, []string{msg.To}, payload); err != nil {
		return fmt.Errorf("smtp send to %s: %w", msg.To, err)
	}
	s.log.WithFields(logrus.Fields{"to": msg.To, "subject": msg.Subject}).Info("email sent")
	return nil
}

const crlf = "\r\n"

// buildMessage assembles a multipart/mixed MIME message with the PDF (or any
// attachment) base64-encoded in the second part.
func buildMessage(from string, msg Message) []byte {
	var b strings.Builder
	boundary := "embpo-mixed-boundary"

	b.WriteString("From: " + from + crlf)
	b.WriteString("To: " + msg.To + crlf)
	b.WriteString("Subject: " + mime.QEncoding.Encode("utf-8", msg.Subject) + crlf)
	b.WriteString("MIME-Version: 1.0" + crlf)

	if len(msg.Attachment) == 0 {
		b.WriteString(`Content-Type: text/plain; charset="utf-8"` + crlf + crlf)
		b.WriteString(msg.Body + crlf)
		return []byte(b.String())
	}

	b.WriteString(`Content-Type: multipart/mixed; boundary="` + boundary + `"` + crlf + crlf)

	b.WriteString("--" + boundary + crlf)
	b.WriteString(`Content-Type: text/plain; charset="utf-8"` + crlf + crlf)
	b.WriteString(msg.Body + crlf)

	name := msg.AttachmentName
	if name == "" {
		name = "attachment.pdf"
	}
	b.WriteString("--" + boundary + crlf)
	b.WriteString("Content-Type: application/pdf" + crlf)
	b.WriteString("Content-Transfer-Encoding: base64" + crlf)
	b.WriteString(`Content-Disposition: attachment; filename="` + name + `"` + crlf + crlf)

	encoded := base64.StdEncoding.EncodeToString(msg.Attachment)
	for len(encoded) > 76 {
		b.WriteString(encoded[:76] + crlf)
		encoded = encoded[76:]
	}
	b.WriteString(encoded + crlf)
	b.WriteString("--" + boundary + "--" + crlf)
	return []byte(b.String())
}
