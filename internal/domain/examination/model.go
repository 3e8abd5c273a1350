package examination

import (
	"time"

	"github.com/google/uuid"
)

// CatalogEntry is static reference data describing one examination the
// system knows about. The catalog is seeded externally and read-only
// here; canonical_order fixes the global display and processing order.
type CatalogEntry struct {
	Name           string `db:"name" json:"name"`
	CanonicalOrder int    `db:"canonical_order" json:"canonical_order"`
	NavigationPath string `db:"navigation_path" json:"navigation_path"`
	Tab            string `db:"tab" json:"tab"`
	Page           string `db:"page" json:"page"`
}

// Patient is the demographic snapshot the recommender rules evaluate.
type Patient struct {
	Gender   string `json:"gender"`
	AgeYears int    `json:"age_years"`
}

// Encounter is the visit-context snapshot the recommender rules
// evaluate.
type Encounter struct {
	Reason string `json:"reason"`
}

// PatientExamination is one persisted examination for one encounter.
// A row exists only once a user has explicitly selected, skipped or
// completed the examination; recommended-but-untouched examinations
// are synthesized at read time and never stored.
type PatientExamination struct {
	ID          uuid.UUID `db:"id" json:"id"`
	PatientID   uuid.UUID `db:"patient_id" json:"patient_id"`
	EncounterID uuid.UUID `db:"encounter_id" json:"encounter_id"`
	Name        string    `db:"name" json:"name"`
	Completed   bool      `db:"completed" json:"completed"`
	Skipped     bool      `db:"skipped" json:"skipped"`
	// Ordered means referred out for an order, not sorted.
	Ordered   bool      `db:"ordered" json:"ordered"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// PlannedExamination is one entry of the merged read-path view:
// either an existing PatientExamination row annotated with whether the
// rules still recommend it, or a virtual entry for a recommended
// examination nobody has touched yet.
type PlannedExamination struct {
	ID          *uuid.UUID `json:"id,omitempty"`
	Name        string     `json:"name"`
	Completed   bool       `json:"completed"`
	Skipped     bool       `json:"skipped"`
	Ordered     bool       `json:"ordered"`
	Recommended bool       `json:"recommended"`
}

// Selection is the full desired examination set for one encounter as
// submitted by the user. Submission semantics are full replace: names
// absent from both lists are removed.
type Selection struct {
	DuringEncounter []string `json:"during_encounter"`
	Orders          []string `json:"orders"`
}
