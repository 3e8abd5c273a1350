package workflow

import (
	"context"

	"github.com/google/uuid"

	"github.com/carepath/carepath/internal/platform/errs"
)

// Service sequences the intake, encounter and doctor-review workflows.
// All three share the same completion discipline; only their step lists
// differ.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// RecordCompletion idempotently records that a step was completed for
// one workflow instance. A step the definition does not declare is
// rejected before any mutation.
func (s *Service) RecordCompletion(ctx context.Context, def *Definition, instanceID uuid.UUID, step, completedBy string) error {
	if !def.Contains(step) {
		return errs.Validationf("workflow %s has no step %q", def.Name(), step)
	}
	return s.repo.InsertCompletion(ctx, &StepCompletionRecord{
		Workflow:    def.Name(),
		InstanceID:  instanceID,
		Step:        step,
		CompletedBy: completedBy,
	})
}

// SubmitStep records a non-terminal step and returns the updated
// progress so the caller can route the user onward. The terminal step
// must go through Finalize.
func (s *Service) SubmitStep(ctx context.Context, def *Definition, instanceID uuid.UUID, step, completedBy string) (*Progress, error) {
	if step == def.Terminal() {
		return nil, errs.Validationf("step %q closes the %s workflow; finalize instead", step, def.Name())
	}
	if err := s.RecordCompletion(ctx, def, instanceID, step, completedBy); err != nil {
		return nil, err
	}
	return s.Progress(ctx, def, instanceID)
}

// Finalize records the terminal step, guarding that every prior step
// is complete. The precondition error names the first missing step so
// the caller can redirect there.
func (s *Service) Finalize(ctx context.Context, def *Definition, instanceID uuid.UUID, completedBy string) error {
	records, err := s.repo.ListCompletions(ctx, def.Name(), instanceID)
	if err != nil {
		return err
	}
	if err := AssertAllPriorCompleted(def, completedSet(records)); err != nil {
		return err
	}
	return s.RecordCompletion(ctx, def, instanceID, def.Terminal(), completedBy)
}

// Progress reports the completed steps and the next incomplete step of
// one workflow instance.
func (s *Service) Progress(ctx context.Context, def *Definition, instanceID uuid.UUID) (*Progress, error) {
	records, err := s.repo.ListCompletions(ctx, def.Name(), instanceID)
	if err != nil {
		return nil, err
	}
	progress := &Progress{Workflow: def.Name(), Completed: records}
	next, ok := FirstIncompleteStep(def, completedSet(records))
	if ok {
		progress.NextStep = next
		return progress, nil
	}
	progress.Complete = true
	return progress, nil
}
