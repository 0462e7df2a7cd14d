// Package notify records in-app notifications and delivers best-effort
// email and push messages.
package notify

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/erazemk/trznica/internal/metrics"
	"github.com/erazemk/trznica/internal/model"
	"github.com/erazemk/trznica/internal/store"
)

// DefaultTimeout bounds each external delivery when none is configured.
const DefaultTimeout = 5 * time.Second

// Message is a single external delivery.
type Message struct {
	To      string
	Subject string
	Body    string
	Data    map[string]any
}

// Sender delivers a message over one external channel.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// Recipient is where external notifications for a user go. Empty fields skip
// the matching channel.
type Recipient struct {
	Email     string
	PushToken string
}

// Dispatcher creates in-app notifications and fans out external ones.
type Dispatcher struct {
	DB      *sql.DB
	Email   Sender
	Push    Sender
	Timeout time.Duration
}

// NotifyInApp persists a notification for userID. Only persistence failures
// are returned.
func (d *Dispatcher) NotifyInApp(ctx context.Context, userID, typ, title, message string, data map[string]any) (*model.Notification, error) {
	n, err := store.CreateNotification(ctx, d.DB, &userID, typ, title, message, data)
	metrics.RecordNotification("inapp", err)
	if err != nil {
		return nil, fmt.Errorf("notifying user %s: %w", userID, err)
	}
	return n, nil
}

// NotifyExternal sends subject and text to the recipient over email and push
// concurrently. Each leg is bounded by the dispatcher timeout. Failures are
// logged and counted, never returned.
func (d *Dispatcher) NotifyExternal(ctx context.Context, r Recipient, subject, text string, data map[string]any) {
	if err := d.dispatch(ctx, r, subject, text, data); err != nil {
		slog.Warn("external notification failed", "subject", subject, "error", err)
	}
}

// dispatch runs every applicable leg to completion and returns the first
// failure. A failing leg does not cancel the others.
func (d *Dispatcher) dispatch(ctx context.Context, r Recipient, subject, text string, data map[string]any) error {
	// Delivery outlives a cancelled request but not the timeout.
	ctx = context.WithoutCancel(ctx)

	var g errgroup.Group
	if r.Email != "" && d.Email != nil {
		g.Go(func() error {
			return d.deliver(ctx, "email", d.Email, Message{To: r.Email, Subject: subject, Body: text, Data: data})
		})
	}
	if r.PushToken != "" && d.Push != nil {
		g.Go(func() error {
			return d.deliver(ctx, "push", d.Push, Message{To: r.PushToken, Subject: subject, Body: text, Data: data})
		})
	}
	return g.Wait()
}

func (d *Dispatcher) deliver(ctx context.Context, channel string, s Sender, msg Message) error {
	timeout := d.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := s.Send(ctx, msg)
	metrics.RecordNotification(channel, err)
	if err != nil {
		return fmt.Errorf("sending %s: %w", channel, err)
	}
	slog.Debug("external notification sent", "channel", channel, "subject", msg.Subject)
	return nil
}
