package outbox

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	otelx "github.com/md-rashed-zaman/glamflow/libs/otel"
)

// Repository reads and writes outbox_events. Every method runs inside the
// caller's transaction.
type Repository struct{}

func NewRepository() *Repository {
	return &Repository{}
}

// Insert stores evt with the trace context of ctx so the publisher can
// continue the trace.
func (r *Repository) Insert(ctx context.Context, tx pgx.Tx, evt Event) error {
	tc := otelx.CaptureTraceContext(ctx)
	_, err := tx.Exec(ctx, `
		INSERT INTO outbox_events (event_id, aggregate_type, aggregate_id, event_type, payload, traceparent, tracestate)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, evt.ID, evt.AggregateType, evt.AggregateID, evt.EventType, evt.Payload, tc.Parent, tc.State)
	return err
}

type Record struct {
	ID          int64
	EventID     string
	AggregateID string
	EventType   string
	Payload     []byte
	Trace       otelx.TraceContext
	CreatedAt   time.Time
}

// FetchUnpublished locks up to limit pending rows; concurrent publishers skip
// rows another one holds.
func (r *Repository) FetchUnpublished(ctx context.Context, tx pgx.Tx, limit int) ([]Record, error) {
	rows, err := tx.Query(ctx, `
		SELECT id, event_id::text, aggregate_id, event_type, payload, traceparent, tracestate, created_at
		FROM outbox_events
		WHERE published_at IS NULL
		ORDER BY id
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.EventID, &rec.AggregateID, &rec.EventType, &rec.Payload, &rec.Trace.Parent, &rec.Trace.State, &rec.CreatedAt); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (r *Repository) MarkPublished(ctx context.Context, tx pgx.Tx, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := tx.Exec(ctx, `UPDATE outbox_events SET published_at = now() WHERE id = ANY($1)`, ids)
	return err
}
