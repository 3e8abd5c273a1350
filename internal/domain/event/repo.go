package event

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Repository interface {
	Insert(ctx context.Context, e *Event) error
	// ClaimBatch selects up to limit unprocessed events of the given
	// type whose backoff has elapsed, locking the returned rows for
	// the duration of the surrounding transaction and skipping rows a
	// concurrent claimer already holds. Must be called inside a unit
	// of work.
	ClaimBatch(ctx context.Context, eventType string, limit int) ([]*Event, error)
	MarkProcessed(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, message string, backoffUntil time.Time) error
	List(ctx context.Context, limit, offset int) ([]*Event, int, error)
}
