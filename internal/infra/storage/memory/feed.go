package memory

import (
	"context"
	"sort"
	"sync"

	"shareit/internal/app/policies"
	"shareit/internal/domain/booking"
)

const (
	defaultFeedLimit = 20
	maxFeedLimit     = 100
)

// Feed keeps delivered notifications per recipient for single-process deployments.
type Feed struct {
	mu    sync.Mutex
	byUID map[string][]booking.Notification
}

func NewFeed() *Feed {
	return &Feed{byUID: make(map[string][]booking.Notification)}
}

func (f *Feed) Publish(_ context.Context, n booking.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byUID[n.RecipientUID] = append(f.byUID[n.RecipientUID], n)
	return nil
}

func (f *Feed) Recent(_ context.Context, recipientUID string, limit int) ([]booking.Notification, error) {
	if limit <= 0 {
		limit = defaultFeedLimit
	}
	if limit > maxFeedLimit {
		limit = maxFeedLimit
	}
	f.mu.Lock()
	out := append([]booking.Notification(nil), f.byUID[recipientUID]...)
	f.mu.Unlock()
	sort.SliceStable(out, func(i, j int) bool { return out[i].At.After(out[j].At) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

var _ policies.NotificationFeed = (*Feed)(nil)
