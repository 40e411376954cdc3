package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	appoutbox "shareit/internal/app/outbox"
	"shareit/internal/app/uow"
	infraoutbox "shareit/internal/infra/outbox"
)

// unitOutbox writes records in the unit's transaction.
type unitOutbox struct {
	tx       pgx.Tx
	readOnly bool
}

func (o unitOutbox) Add(ctx context.Context, rec appoutbox.EventRecord) error {
	if o.readOnly {
		return uow.ErrReadOnly
	}
	headers, err := json.Marshal(rec.Headers)
	if err != nil {
		return err
	}
	_, err = o.tx.Exec(ctx, `INSERT INTO outbox (id, name, aggregate, payload, headers, occurred_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		rec.ID, rec.Name, rec.Aggregate, rec.Payload, headers, rec.OccurredAt)
	return err
}

func (o unitOutbox) Flush(context.Context) error { return nil }

// OutboxQueue lets the outbox worker relay records stored in Postgres.
type OutboxQueue struct {
	Pool *pgxpool.Pool
}

func (q OutboxQueue) Claim(ctx context.Context, workerID string, staleAfter time.Duration) (*infraoutbox.EventDocument, error) {
	row := q.Pool.QueryRow(ctx, `
UPDATE outbox SET state = 'CLAIMED', claimed_by = $1, claimed_at = now()
WHERE id = (
	SELECT id FROM outbox
	WHERE (state IN ('NEW', 'FAILED') AND next_attempt_at <= now())
	   OR (state = 'CLAIMED' AND claimed_at <= now() - $2::interval)
	ORDER BY next_attempt_at
	LIMIT 1
	FOR UPDATE SKIP LOCKED
)
RETURNING id, name, aggregate, payload, headers, occurred_at, attempts`, workerID, staleAfter)

	var (
		doc     infraoutbox.EventDocument
		headers []byte
	)
	err := row.Scan(&doc.ID, &doc.Name, &doc.Aggregate, &doc.Payload, &headers, &doc.OccurredAt, &doc.Attempts)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(headers, &doc.Headers); err != nil {
		return nil, err
	}
	doc.ClaimedBy = workerID
	return &doc, nil
}

func (q OutboxQueue) MarkSent(ctx context.Context, id string) error {
	_, err := q.Pool.Exec(ctx, `UPDATE outbox SET state = 'SENT', sent_at = now() WHERE id = $1`, id)
	return err
}

func (q OutboxQueue) MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error {
	_, err := q.Pool.Exec(ctx, `UPDATE outbox SET state = 'FAILED', next_attempt_at = $2, last_error = $3, attempts = attempts + 1 WHERE id = $1`,
		id, next, errMsg)
	return err
}

var (
	_ appoutbox.Outbox  = unitOutbox{}
	_ infraoutbox.Queue = OutboxQueue{}
)
