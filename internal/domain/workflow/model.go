package workflow

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Definition is an ordered, immutable list of step identifiers plus the
// terminal step closing the workflow. Definitions are constructed once
// at startup and passed by reference; they are never mutated.
type Definition struct {
	name     string
	steps    []string
	terminal string
}

// NewDefinition validates and builds a workflow definition. The
// terminal step must be the last declared step.
func NewDefinition(name string, steps []string) (*Definition, error) {
	if name == "" {
		return nil, fmt.Errorf("workflow name is required")
	}
	if len(steps) < 2 {
		return nil, fmt.Errorf("workflow %s needs at least two steps", name)
	}
	seen := make(map[string]bool, len(steps))
	for _, s := range steps {
		if s == "" {
			return nil, fmt.Errorf("workflow %s has an empty step id", name)
		}
		if seen[s] {
			return nil, fmt.Errorf("workflow %s declares step %q twice", name, s)
		}
		seen[s] = true
	}
	return &Definition{
		name:     name,
		steps:    append([]string(nil), steps...),
		terminal: steps[len(steps)-1],
	}, nil
}

func mustDefinition(name string, steps []string) *Definition {
	def, err := NewDefinition(name, steps)
	if err != nil {
		panic(err)
	}
	return def
}

func (d *Definition) Name() string { return d.name }

// Steps returns a copy of the declared step order.
func (d *Definition) Steps() []string { return append([]string(nil), d.steps...) }

// Terminal returns the step that closes the workflow. It is reached
// explicitly, never reported as incomplete.
func (d *Definition) Terminal() string { return d.terminal }

// Contains reports whether step is declared by this definition.
func (d *Definition) Contains(step string) bool {
	for _, s := range d.steps {
		if s == step {
			return true
		}
	}
	return false
}

// The three clinical workflows. The step lists are static
// configuration; changing them changes sequencing for every instance
// of that workflow type.
var (
	Intake = mustDefinition("intake", []string{
		"registration", "vitals", "history", "examinations", "summary",
	})
	Encounter = mustDefinition("encounter", []string{
		"triage", "examinations", "findings", "disposition", "close",
	})
	DoctorReview = mustDefinition("doctor-review", []string{
		"chart-review", "orders-review", "sign-off",
	})
)

// Definitions indexes the built-in workflows by name.
func Definitions() map[string]*Definition {
	return map[string]*Definition{
		Intake.Name():       Intake,
		Encounter.Name():    Encounter,
		DoctorReview.Name(): DoctorReview,
	}
}

// StepCompletionRecord maps to the workflow_step_completion table.
// Rows are append-only and unique per (workflow, instance, step).
type StepCompletionRecord struct {
	ID          uuid.UUID `db:"id" json:"id"`
	Workflow    string    `db:"workflow" json:"workflow"`
	InstanceID  uuid.UUID `db:"instance_id" json:"instance_id"`
	Step        string    `db:"step" json:"step"`
	CompletedBy string    `db:"completed_by" json:"completed_by"`
	CompletedAt time.Time `db:"completed_at" json:"completed_at"`
}

// Progress summarises one workflow instance: which steps are done and
// which step the user should be routed to next.
type Progress struct {
	Workflow  string                  `json:"workflow"`
	Completed []*StepCompletionRecord `json:"completed"`
	NextStep  string                  `json:"next_step,omitempty"`
	Complete  bool                    `json:"complete"`
}
