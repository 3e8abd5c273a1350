package event

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/carepath/carepath/internal/platform/db"
)

// HandlerFunc processes one claimed event. An error does not abort the
// batch; it is recorded on the event together with a backoff.
type HandlerFunc func(ctx context.Context, e *Event) error

const defaultBatchSize = 50

// Queue is the append-only event log with lock-and-skip draining.
// Any component may enqueue; independent workers drain per type.
type Queue struct {
	repo       Repository
	runTx      db.TxRunner
	retryDelay time.Duration
	logger     zerolog.Logger
}

func NewQueue(repo Repository, runTx db.TxRunner, retryDelay time.Duration, logger zerolog.Logger) *Queue {
	if retryDelay <= 0 {
		retryDelay = 60 * time.Second
	}
	return &Queue{repo: repo, runTx: runTx, retryDelay: retryDelay, logger: logger}
}

// Enqueue appends one event. The payload is marshalled to JSON.
func (q *Queue) Enqueue(ctx context.Context, eventType string, payload interface{}) (uuid.UUID, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return uuid.Nil, err
	}
	e := &Event{Type: eventType, Payload: raw}
	if err := q.repo.Insert(ctx, e); err != nil {
		return uuid.Nil, err
	}
	return e.ID, nil
}

// Drain claims a batch of pending events of one type inside a single
// unit of work and runs handler on each. Claimed rows stay locked
// until the transaction ends, so concurrent drainers of the same type
// never observe the same event. A handler failure is recorded on that
// event (error message plus a fixed retry backoff) and the rest of the
// batch still runs. Returns the number of successfully handled events.
func (q *Queue) Drain(ctx context.Context, eventType string, handler HandlerFunc) (int, error) {
	processed := 0
	err := q.runTx(ctx, func(ctx context.Context) error {
		events, err := q.repo.ClaimBatch(ctx, eventType, defaultBatchSize)
		if err != nil {
			return err
		}
		for _, e := range events {
			if herr := handler(ctx, e); herr != nil {
				q.logger.Warn().
					Str("event_id", e.ID.String()).
					Str("event_type", e.Type).
					Err(herr).
					Msg("event handler failed, backing off")
				if err := q.repo.MarkFailed(ctx, e.ID, herr.Error(), time.Now().Add(q.retryDelay)); err != nil {
					return err
				}
				continue
			}
			if err := q.repo.MarkProcessed(ctx, e.ID); err != nil {
				return err
			}
			processed++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return processed, nil
}

// List exposes the raw log for operational inspection.
func (q *Queue) List(ctx context.Context, limit, offset int) ([]*Event, int, error) {
	return q.repo.List(ctx, limit, offset)
}

// Worker drains one event type on a fixed poll interval until its
// context is cancelled. Several workers may run for the same type;
// row claiming keeps them from double-processing.
type Worker struct {
	queue     *Queue
	eventType string
	handler   HandlerFunc
	interval  time.Duration
	logger    zerolog.Logger
}

func NewWorker(queue *Queue, eventType string, handler HandlerFunc, interval time.Duration, logger zerolog.Logger) *Worker {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Worker{
		queue:     queue,
		eventType: eventType,
		handler:   handler,
		interval:  interval,
		logger:    logger.With().Str("event_type", eventType).Logger(),
	}
}

// Run blocks until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) {
	w.logger.Info().Dur("interval", w.interval).Msg("event worker started")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("event worker stopped")
			return
		case <-ticker.C:
			n, err := w.queue.Drain(ctx, w.eventType, w.handler)
			if err != nil {
				w.logger.Error().Err(err).Msg("drain failed")
				continue
			}
			if n > 0 {
				w.logger.Debug().Int("processed", n).Msg("drained events")
			}
		}
	}
}
