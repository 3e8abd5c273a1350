package finding

import (
	"time"

	"github.com/google/uuid"
)

// Finding is one coded clinical observation attached to a persisted
// patient examination. Identity is stable across edits: resubmitting a
// finding with the same id updates it in place.
type Finding struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	ExaminationID uuid.UUID  `db:"patient_examination_id" json:"patient_examination_id"`
	ConceptID     string     `db:"concept_id" json:"concept_id"`
	Notes         string     `db:"notes" json:"notes"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	BodySites     []BodySite `db:"-" json:"body_sites"`
}

// BodySite is a coded anatomical location scoped to its parent
// finding. Same lifecycle discipline as the finding itself.
type BodySite struct {
	ID        uuid.UUID `db:"id" json:"id"`
	FindingID uuid.UUID `db:"finding_id" json:"finding_id"`
	ConceptID string    `db:"concept_id" json:"concept_id"`
}

// SubmittedFinding is the write-path form of a finding. A nil ID asks
// the server to generate one; a supplied ID addresses an existing row.
type SubmittedFinding struct {
	ID        *uuid.UUID          `json:"id"`
	ConceptID string              `json:"concept_id"`
	Term      string              `json:"term"`
	Notes     string              `json:"notes"`
	BodySites []SubmittedBodySite `json:"body_sites"`
}

type SubmittedBodySite struct {
	ID        *uuid.UUID `json:"id"`
	ConceptID string     `json:"concept_id"`
	Term      string     `json:"term"`
}
