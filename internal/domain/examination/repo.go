package examination

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	ListCatalog(ctx context.Context) ([]*CatalogEntry, error)
	ListByEncounter(ctx context.Context, patientID, encounterID uuid.UUID) ([]*PatientExamination, error)
	// ApplySelection replaces the persisted set for one encounter:
	// rows whose name is in neither list are deleted, missing names are
	// inserted (duringEncounter with ordered=false, orders with
	// ordered=true), rows whose name survives are left untouched so
	// their completed/skipped flags persist across resubmission.
	ApplySelection(ctx context.Context, patientID, encounterID uuid.UUID, duringEncounter, orders []string) error
	Get(ctx context.Context, id uuid.UUID) (*PatientExamination, error)
	SetCompleted(ctx context.Context, id uuid.UUID, completed bool) error
	SetSkipped(ctx context.Context, id uuid.UUID, skipped bool) error
}
