package workflow

import "github.com/carepath/carepath/internal/platform/errs"

// FirstIncompleteStep returns the first step in the definition's order
// that is not present in completed, ignoring the terminal step: the
// terminal step is reached explicitly, not reported as pending work.
// The second return is false iff every non-terminal step is completed.
func FirstIncompleteStep(def *Definition, completed map[string]bool) (string, bool) {
	for _, step := range def.steps {
		if step == def.terminal {
			continue
		}
		if !completed[step] {
			return step, true
		}
	}
	return "", false
}

// AssertAllPriorCompleted guards a terminal action such as closing a
// visit or signing off a review. It fails with a precondition error
// naming the first missing non-terminal step.
func AssertAllPriorCompleted(def *Definition, completed map[string]bool) error {
	if step, ok := FirstIncompleteStep(def, completed); ok {
		return errs.Precondition(step)
	}
	return nil
}

func completedSet(records []*StepCompletionRecord) map[string]bool {
	set := make(map[string]bool, len(records))
	for _, r := range records {
		set[r.Step] = true
	}
	return set
}
