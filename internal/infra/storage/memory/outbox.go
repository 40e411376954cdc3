package memory

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	appoutbox "shareit/internal/app/outbox"
	"shareit/internal/app/policies"
	"shareit/internal/domain/booking"
)

// Outbox keeps committed records in memory. Flush hands undelivered notifications to the
// publisher, which makes a single process deliver without a broker.
type Outbox struct {
	mu        sync.Mutex
	records   []appoutbox.EventRecord
	delivered int
	publisher policies.NotificationPublisher
}

func NewOutbox(publisher policies.NotificationPublisher) *Outbox {
	return &Outbox{publisher: publisher}
}

func (o *Outbox) append(records ...appoutbox.EventRecord) {
	if len(records) == 0 {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.records = append(o.records, records...)
}

// Add records outside any unit, visible immediately.
func (o *Outbox) Add(_ context.Context, record appoutbox.EventRecord) error {
	o.append(record)
	return nil
}

func (o *Outbox) Flush(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.publisher == nil {
		o.delivered = len(o.records)
		return nil
	}
	var errs []error
	for ; o.delivered < len(o.records); o.delivered++ {
		rec := o.records[o.delivered]
		if !rec.IsNotification() {
			continue
		}
		var n booking.Notification
		if err := json.Unmarshal(rec.Payload, &n); err != nil {
			errs = append(errs, err)
			continue
		}
		if err := o.publisher.Publish(ctx, n); err != nil {
			return errors.Join(append(errs, err)...)
		}
	}
	return errors.Join(errs...)
}

// Records returns a copy of everything committed so far.
func (o *Outbox) Records() []appoutbox.EventRecord {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]appoutbox.EventRecord(nil), o.records...)
}

// Notifications decodes the committed notification records in order.
func (o *Outbox) Notifications() []booking.Notification {
	var out []booking.Notification
	for _, rec := range o.Records() {
		if !rec.IsNotification() {
			continue
		}
		var n booking.Notification
		if json.Unmarshal(rec.Payload, &n) == nil {
			out = append(out, n)
		}
	}
	return out
}

// unitOutbox stages records until the unit commits.
type unitOutbox struct{ u *Unit }

func (o unitOutbox) Add(_ context.Context, record appoutbox.EventRecord) error {
	if err := o.u.writable(); err != nil {
		return err
	}
	o.u.records = append(o.u.records, record)
	return nil
}

func (o unitOutbox) Flush(context.Context) error { return nil }

var (
	_ appoutbox.Outbox = (*Outbox)(nil)
	_ appoutbox.Outbox = unitOutbox{}
)
