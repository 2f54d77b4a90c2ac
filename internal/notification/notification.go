// Package notification delivers outbound messages. Delivery is best effort:
// a failed send is logged and never fails the financial operation behind it.
package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Sender delivers one message to one recipient address.
type Sender interface {
	Send(ctx context.Context, recipient, subject, body string) error
}

// Message is the payload published for the external dispatcher.
type Message struct {
	Recipient string    `json:"recipient"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	QueuedAt  time.Time `json:"queued_at"`
}

// RedisSender publishes messages on a Redis channel consumed by the email/SMS dispatcher.
type RedisSender struct {
	client  *redis.Client
	channel string
}

func NewRedisSender(client *redis.Client, channel string) *RedisSender {
	return &RedisSender{client: client, channel: channel}
}

func (s *RedisSender) Send(ctx context.Context, recipient, subject, body string) error {
	payload, err := json.Marshal(Message{
		Recipient: recipient,
		Subject:   subject,
		Body:      body,
		QueuedAt:  time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}

	if err := s.client.Publish(ctx, s.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish notification to %s: %w", s.channel, err)
	}
	return nil
}

// LogSender writes messages to the log. Used when no dispatcher is configured.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, recipient, subject, body string) error {
	s.logger.InfoContext(ctx, "notification",
		slog.String("recipient", recipient),
		slog.String("subject", subject),
		slog.Int("body_length", len(body)),
	)
	return nil
}

// Notifier wraps a Sender with the fire-and-forget contract.
type Notifier struct {
	sender Sender
	logger *slog.Logger
}

func NewNotifier(sender Sender, logger *slog.Logger) *Notifier {
	return &Notifier{sender: sender, logger: logger}
}

// Notify sends and reports whether delivery succeeded. Failures are logged only.
func (n *Notifier) Notify(ctx context.Context, recipient, subject, body string) bool {
	if n == nil || n.sender == nil {
		return false
	}
	if recipient == "" {
		n.logger.WarnContext(ctx, "notification skipped: no recipient", slog.String("subject", subject))
		return false
	}

	if err := n.sender.Send(ctx, recipient, subject, body); err != nil {
		n.logger.ErrorContext(ctx, "notification failed",
			slog.String("recipient", recipient),
			slog.String("subject", subject),
			slog.Any("error", err),
		)
		return false
	}
	return true
}
