package policies

import (
	"context"

	"shareit/internal/domain/booking"
)

// NotificationPublisher delivers booking notifications to their recipients.
type NotificationPublisher interface {
	Publish(ctx context.Context, n booking.Notification) error
}

// NotificationFeed lists delivered notifications of a user, newest first.
type NotificationFeed interface {
	NotificationPublisher
	Recent(ctx context.Context, recipientUID string, limit int) ([]booking.Notification, error)
}
