package workflow

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/carepath/carepath/internal/platform/errs"
)

type mockRepo struct {
	records []*StepCompletionRecord
}

func (m *mockRepo) InsertCompletion(_ context.Context, rec *StepCompletionRecord) error {
	for _, r := range m.records {
		if r.Workflow == rec.Workflow && r.InstanceID == rec.InstanceID && r.Step == rec.Step {
			return nil
		}
	}
	cp := *rec
	cp.ID = uuid.New()
	cp.CompletedAt = time.Now()
	m.records = append(m.records, &cp)
	return nil
}

func (m *mockRepo) ListCompletions(_ context.Context, workflow string, instanceID uuid.UUID) ([]*StepCompletionRecord, error) {
	var out []*StepCompletionRecord
	for _, r := range m.records {
		if r.Workflow == workflow && r.InstanceID == instanceID {
			out = append(out, r)
		}
	}
	return out, nil
}

func TestSubmitStep(t *testing.T) {
	repo := &mockRepo{}
	svc := NewService(repo)
	instance := uuid.New()

	progress, err := svc.SubmitStep(context.Background(), Intake, instance, "registration", "nurse-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if progress.NextStep != "vitals" {
		t.Errorf("expected next step vitals, got %s", progress.NextStep)
	}
	if progress.Complete {
		t.Error("workflow must not be complete after one step")
	}
}

func TestSubmitStep_UnknownStep(t *testing.T) {
	svc := NewService(&mockRepo{})
	_, err := svc.SubmitStep(context.Background(), Intake, uuid.New(), "biopsy", "nurse-1")
	if errs.KindOf(err) != errs.KindValidation {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestSubmitStep_RejectsTerminal(t *testing.T) {
	svc := NewService(&mockRepo{})
	_, err := svc.SubmitStep(context.Background(), Intake, uuid.New(), "summary", "nurse-1")
	if errs.KindOf(err) != errs.KindValidation {
		t.Errorf("expected validation error for terminal step, got %v", err)
	}
}

func TestRecordCompletion_Idempotent(t *testing.T) {
	repo := &mockRepo{}
	svc := NewService(repo)
	instance := uuid.New()

	for i := 0; i < 3; i++ {
		if err := svc.RecordCompletion(context.Background(), Intake, instance, "vitals", "nurse-1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if len(repo.records) != 1 {
		t.Errorf("expected exactly one record, got %d", len(repo.records))
	}
}

func TestFinalize_MissingStepRedirects(t *testing.T) {
	repo := &mockRepo{}
	svc := NewService(repo)
	instance := uuid.New()
	ctx := context.Background()

	if _, err := svc.SubmitStep(ctx, Encounter, instance, "triage", "doc-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.SubmitStep(ctx, Encounter, instance, "findings", "doc-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := svc.Finalize(ctx, Encounter, instance, "doc-1")
	if errs.KindOf(err) != errs.KindPrecondition {
		t.Fatalf("expected precondition error, got %v", err)
	}
	if errs.MissingStep(err) != "examinations" {
		t.Errorf("expected redirect to examinations, got %s", errs.MissingStep(err))
	}
}

func TestFinalize(t *testing.T) {
	repo := &mockRepo{}
	svc := NewService(repo)
	instance := uuid.New()
	ctx := context.Background()

	for _, step := range []string{"chart-review", "orders-review"} {
		if _, err := svc.SubmitStep(ctx, DoctorReview, instance, step, "doc-1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if err := svc.Finalize(ctx, DoctorReview, instance, "doc-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	progress, err := svc.Progress(ctx, DoctorReview, instance)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !progress.Complete {
		t.Error("expected workflow complete after finalize")
	}
	if progress.NextStep != "" {
		t.Errorf("expected no next step, got %s", progress.NextStep)
	}
	if len(progress.Completed) != 3 {
		t.Errorf("expected 3 completions, got %d", len(progress.Completed))
	}
}
