package event

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carepath/carepath/internal/platform/db"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

func (r *repoPG) conn(ctx context.Context) querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func (r *repoPG) Insert(ctx context.Context, e *Event) error {
	e.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO event (id, type, payload)
		VALUES ($1, $2, $3)`,
		e.ID, e.Type, e.Payload,
	)
	return err
}

func (r *repoPG) ClaimBatch(ctx context.Context, eventType string, limit int) ([]*Event, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, type, payload, processed_at, backoff_until, error_message, created_at
		FROM event
		WHERE type = $1
		  AND processed_at IS NULL
		  AND (backoff_until IS NULL OR backoff_until < now())
		ORDER BY created_at
		LIMIT $2
		FOR UPDATE SKIP LOCKED`, eventType, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.Type, &e.Payload, &e.ProcessedAt,
			&e.BackoffUntil, &e.ErrorMessage, &e.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, &e)
	}
	return events, rows.Err()
}

func (r *repoPG) MarkProcessed(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE event
		SET processed_at = now(), backoff_until = NULL, error_message = NULL
		WHERE id = $1`, id)
	return err
}

func (r *repoPG) MarkFailed(ctx context.Context, id uuid.UUID, message string, backoffUntil time.Time) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE event
		SET error_message = $2, backoff_until = $3
		WHERE id = $1`, id, message, backoffUntil)
	return err
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Event, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT count(*) FROM event`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, type, payload, processed_at, backoff_until, error_message, created_at
		FROM event
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var events []*Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.Type, &e.Payload, &e.ProcessedAt,
			&e.BackoffUntil, &e.ErrorMessage, &e.CreatedAt); err != nil {
			return nil, 0, err
		}
		events = append(events, &e)
	}
	return events, total, rows.Err()
}
