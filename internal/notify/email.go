package notify

import (
	"context"
	"database/sql"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/erazemk/trznica/internal/model"
	"github.com/erazemk/trznica/internal/store"
)

// SMTPConfig holds the SMTP relay settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Configured reports whether enough is set to reach a relay.
func (c SMTPConfig) Configured() bool {
	return c.Host != "" && c.Port > 0 && c.From != ""
}

// EmailSender sends plain-text mail through an SMTP relay.
type EmailSender struct {
	dialer *gomail.Dialer
	from   string
}

// NewEmailSender creates an EmailSender for cfg.
func NewEmailSender(cfg SMTPConfig) *EmailSender {
	return &EmailSender{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

// Send delivers msg, giving up when ctx is done. gomail has no context
// support, so an abandoned dial finishes in the background.
func (s *EmailSender) Send(ctx context.Context, msg Message) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Body)

	done := make(chan error, 1)
	go func() { done <- s.dialer.DialAndSend(m) }()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("sending email: %w", err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("sending email: %w", ctx.Err())
	}
}

// OutboxSender stands in for email when no relay is configured: it records
// the message as an undirected email notification.
type OutboxSender struct {
	DB *sql.DB
}

// Send stores msg in the outbox.
func (s *OutboxSender) Send(ctx context.Context, msg Message) error {
	_, err := store.CreateNotification(ctx, s.DB, nil, model.NotificationEmail,
		msg.Subject, msg.Body, map[string]any{"emailTo": msg.To})
	if err != nil {
		return fmt.Errorf("queueing email: %w", err)
	}
	return nil
}

// NewEmailTransport returns an SMTP sender when cfg is usable and the outbox
// otherwise.
func NewEmailTransport(cfg SMTPConfig, db *sql.DB) Sender {
	if cfg.Configured() {
		return NewEmailSender(cfg)
	}
	return &OutboxSender{DB: db}
}
