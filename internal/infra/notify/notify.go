// Package notify delivers booking notices to residents. Delivery itself is
// left to downstream consumers; this service only publishes or logs them.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"condobook/internal/app/policies"
)

const DefaultTopic = "notifications.v1"

// Producer matches the broker publishers in infra/broker.
type Producer interface {
	Publish(ctx context.Context, topic string, key string, payload []byte, headers map[string]string) error
}

var ErrRecipientRequired = errors.New("notify: recipient required")

// Envelope is the message published for every notice.
type Envelope struct {
	To       string    `json:"to"`
	Template string    `json:"template"`
	Data     any       `json:"data"`
	SentAt   time.Time `json:"sent_at"`
}

// BrokerNotifier publishes notices keyed by recipient.
type BrokerNotifier struct {
	Producer Producer
	Topic    string
	Now      func() time.Time
}

func (n *BrokerNotifier) Send(ctx context.Context, to string, template string, data any) error {
	if strings.TrimSpace(to) == "" {
		return ErrRecipientRequired
	}
	now := time.Now
	if n.Now != nil {
		now = n.Now
	}
	payload, err := json.Marshal(Envelope{To: to, Template: template, Data: data, SentAt: now().UTC()})
	if err != nil {
		return err
	}
	topic := n.Topic
	if topic == "" {
		topic = DefaultTopic
	}
	return n.Producer.Publish(ctx, topic, to, payload, map[string]string{
		"content-type": "application/json",
		"template":     template,
	})
}

// LogNotifier writes notices to the log.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) Send(ctx context.Context, to string, template string, data any) error {
	if strings.TrimSpace(to) == "" {
		return ErrRecipientRequired
	}
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "notification", slog.String("to", to), slog.String("template", template), slog.Any("data", data))
	return nil
}

// LogPublisher stands in for a broker when none is configured.
type LogPublisher struct {
	Logger *slog.Logger
}

func (p LogPublisher) Publish(ctx context.Context, topic string, key string, payload []byte, headers map[string]string) error {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.DebugContext(ctx, "publish",
		slog.String("topic", topic),
		slog.String("key", key),
		slog.Int("bytes", len(payload)),
	)
	return nil
}

var (
	_ policies.Notifier = (*BrokerNotifier)(nil)
	_ policies.Notifier = LogNotifier{}
	_ Producer          = LogPublisher{}
)
