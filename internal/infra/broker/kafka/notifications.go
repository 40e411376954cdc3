package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/IBM/sarama"

	"shareit/internal/app/outbox"
	"shareit/internal/app/policies"
	"shareit/internal/domain/booking"
)

type cloudEvent struct {
	ID   string          `json:"id"`
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Inbox remembers which events a consumer has already handled.
type Inbox interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	Forget(ctx context.Context, eventID string) error
}

// NotificationSink hands notification events from the outbox topic to a publisher, such
// as the per-user feed. Other event types are acknowledged and ignored. With an Inbox,
// redelivered events are dropped.
type NotificationSink struct {
	Publisher policies.NotificationPublisher
	Inbox     Inbox
}

func (s NotificationSink) Handle(ctx context.Context, msg *sarama.ConsumerMessage) error {
	id, n, ok, err := decodeNotification(msg.Value)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPoisonMessage, err)
	}
	if !ok {
		return nil
	}
	if s.Inbox != nil && id != "" {
		seen, err := s.Inbox.Seen(ctx, id)
		if err != nil {
			return err
		}
		if seen {
			return nil
		}
	}
	if err := s.Publisher.Publish(ctx, n); err != nil {
		if s.Inbox != nil && id != "" {
			_ = s.Inbox.Forget(ctx, id)
		}
		return err
	}
	return nil
}

// DecodeNotification unwraps a CloudEvents envelope. ok is false for non-notification events.
func DecodeNotification(raw []byte) (booking.Notification, bool, error) {
	_, n, ok, err := decodeNotification(raw)
	return n, ok, err
}

func decodeNotification(raw []byte) (string, booking.Notification, bool, error) {
	var evt cloudEvent
	if err := json.Unmarshal(raw, &evt); err != nil {
		return "", booking.Notification{}, false, err
	}
	if !strings.HasPrefix(evt.Type, outbox.NotificationPrefix) {
		return evt.ID, booking.Notification{}, false, nil
	}
	var n booking.Notification
	if err := json.Unmarshal(evt.Data, &n); err != nil {
		return evt.ID, booking.Notification{}, false, err
	}
	if n.RecipientUID == "" {
		return evt.ID, booking.Notification{}, false, fmt.Errorf("event %s has no recipient", evt.ID)
	}
	return evt.ID, n, true, nil
}
