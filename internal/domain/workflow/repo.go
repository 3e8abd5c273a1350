package workflow

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	// InsertCompletion appends a step completion. A record that already
	// exists for (workflow, instance, step) is left untouched and is
	// not an error; concurrent duplicate calls create exactly one row.
	InsertCompletion(ctx context.Context, rec *StepCompletionRecord) error
	ListCompletions(ctx context.Context, workflow string, instanceID uuid.UUID) ([]*StepCompletionRecord, error)
}
