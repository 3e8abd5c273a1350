package event

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event is one row of the append-only event log. Rows are never
// deleted; only the claiming worker mutates them, on success or
// failure of its handler.
type Event struct {
	ID           uuid.UUID       `db:"id" json:"id"`
	Type         string          `db:"type" json:"type"`
	Payload      json.RawMessage `db:"payload" json:"payload"`
	ProcessedAt  *time.Time      `db:"processed_at" json:"processed_at"`
	BackoffUntil *time.Time      `db:"backoff_until" json:"backoff_until"`
	ErrorMessage *string         `db:"error_message" json:"error_message"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
}
