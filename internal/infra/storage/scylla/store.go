package scylla

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/gocql/gocql"

	"shareit/internal/app/policies"
	"shareit/internal/domain/booking"
)

const (
	defaultFeedLimit = 20
	maxFeedLimit     = 100
)

var errSessionMissing = errors.New("scylla session not initialized")

// Store keeps the per-user notification feed.
type Store struct {
	session *gocql.Session
	logger  *slog.Logger
}

func NewStore(session *gocql.Session, logger *slog.Logger) *Store {
	return &Store{session: session, logger: logger}
}

// Publish appends n to its recipient's feed.
func (s *Store) Publish(ctx context.Context, n booking.Notification) error {
	if s.session == nil {
		return errSessionMissing
	}
	recipient := strings.TrimSpace(n.RecipientUID)
	if recipient == "" {
		return errors.New("scylla: notification without recipient")
	}
	at := n.At
	if at.IsZero() {
		at = time.Now()
	}
	err := s.session.
		Query(`INSERT INTO notifications (recipient_uid, created_at, booking_id, kind, actor_uid, title, text) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			recipient, at.UTC(), string(n.BookingID), string(n.Kind), n.ActorUID, n.Title, n.Text).
		WithContext(ctx).
		Consistency(gocql.Quorum).
		Exec()
	if err != nil {
		return err
	}
	if s.logger != nil {
		s.logger.Debug("notification stored", "recipient_uid", recipient, "booking_id", n.BookingID, "kind", n.Kind)
	}
	return nil
}

// Recent returns the newest notifications of a user.
func (s *Store) Recent(ctx context.Context, recipientUID string, limit int) ([]booking.Notification, error) {
	if s.session == nil {
		return nil, errSessionMissing
	}
	iter := s.session.
		Query(`SELECT recipient_uid, created_at, booking_id, kind, actor_uid, title, text FROM notifications WHERE recipient_uid = ? LIMIT ?`,
			strings.TrimSpace(recipientUID), feedLimit(limit)).
		WithContext(ctx).
		Consistency(gocql.One).
		Iter()

	out := make([]booking.Notification, 0)
	var (
		n         booking.Notification
		bookingID string
		kind      string
	)
	for iter.Scan(&n.RecipientUID, &n.At, &bookingID, &kind, &n.ActorUID, &n.Title, &n.Text) {
		n.BookingID = booking.BookingID(bookingID)
		n.Kind = booking.NotificationKind(kind)
		n.At = n.At.UTC()
		out = append(out, n)
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return out, nil
}

func feedLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultFeedLimit
	case limit > maxFeedLimit:
		return maxFeedLimit
	default:
		return limit
	}
}

var _ policies.NotificationFeed = (*Store)(nil)
