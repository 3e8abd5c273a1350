package examination

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/carepath/carepath/internal/platform/db"
	"github.com/carepath/carepath/internal/platform/errs"
)

// Enqueuer is satisfied by the event queue; reconciliation emits a
// notification event inside the same unit of work.
type Enqueuer interface {
	Enqueue(ctx context.Context, eventType string, payload interface{}) (uuid.UUID, error)
}

// EventExaminationReconciled is emitted after every successful
// reconciliation.
const EventExaminationReconciled = "examination.reconciled"

type Service struct {
	repo   Repository
	runTx  db.TxRunner
	events Enqueuer
}

func NewService(repo Repository, runTx db.TxRunner, events Enqueuer) *Service {
	return &Service{repo: repo, runTx: runTx, events: events}
}

// Catalog lists the examination reference data in canonical order.
func (s *Service) Catalog(ctx context.Context) ([]*CatalogEntry, error) {
	return s.repo.ListCatalog(ctx)
}

// Plan merges the rule-recommended examinations with the persisted
// rows for one encounter. Recommended names without a row become
// virtual entries; existing rows are annotated with whether the rules
// still recommend them. The result is sorted by catalog order, names
// missing from the catalog last by name.
func (s *Service) Plan(ctx context.Context, patientID, encounterID uuid.UUID, p Patient, e Encounter) ([]*PlannedExamination, error) {
	recommended := Recommend(p, e)

	rows, err := s.repo.ListByEncounter(ctx, patientID, encounterID)
	if err != nil {
		return nil, err
	}
	catalog, err := s.repo.ListCatalog(ctx)
	if err != nil {
		return nil, err
	}

	planned := make([]*PlannedExamination, 0, len(rows)+len(recommended))
	persisted := make(map[string]bool, len(rows))
	for _, row := range rows {
		persisted[row.Name] = true
		id := row.ID
		_, rec := recommended[row.Name]
		planned = append(planned, &PlannedExamination{
			ID:          &id,
			Name:        row.Name,
			Completed:   row.Completed,
			Skipped:     row.Skipped,
			Ordered:     row.Ordered,
			Recommended: rec,
		})
	}
	for name := range recommended {
		if !persisted[name] {
			planned = append(planned, &PlannedExamination{Name: name, Recommended: true})
		}
	}

	order := make(map[string]int, len(catalog))
	for _, entry := range catalog {
		order[entry.Name] = entry.CanonicalOrder
	}
	sort.SliceStable(planned, func(i, j int) bool {
		oi, iKnown := order[planned[i].Name]
		oj, jKnown := order[planned[j].Name]
		switch {
		case iKnown && jKnown:
			return oi < oj
		case iKnown:
			return true
		case jKnown:
			return false
		default:
			return planned[i].Name < planned[j].Name
		}
	})
	return planned, nil
}

// Reconcile replaces the persisted examination set for one encounter
// with the submitted selection. A name listed in both groups is
// treated as an order. Every name must exist in the catalog; a failed
// validation leaves the persisted set untouched. The delete and
// inserts commit or abort together.
func (s *Service) Reconcile(ctx context.Context, patientID, encounterID uuid.UUID, sel Selection) error {
	orders := dedupe(sel.Orders)
	inOrders := make(map[string]bool, len(orders))
	for _, name := range orders {
		inOrders[name] = true
	}
	during := make([]string, 0, len(sel.DuringEncounter))
	for _, name := range dedupe(sel.DuringEncounter) {
		if !inOrders[name] {
			during = append(during, name)
		}
	}

	catalog, err := s.repo.ListCatalog(ctx)
	if err != nil {
		return err
	}
	known := make(map[string]bool, len(catalog))
	for _, entry := range catalog {
		known[entry.Name] = true
	}
	for _, name := range append(append([]string{}, during...), orders...) {
		if name == "" {
			return errs.Validationf("examination name must not be empty")
		}
		if !known[name] {
			return errs.Validationf("unknown examination %q", name)
		}
	}

	return s.runTx(ctx, func(ctx context.Context) error {
		if err := s.repo.ApplySelection(ctx, patientID, encounterID, during, orders); err != nil {
			return err
		}
		_, err := s.events.Enqueue(ctx, EventExaminationReconciled, map[string]interface{}{
			"patient_id":       patientID,
			"encounter_id":     encounterID,
			"during_encounter": during,
			"orders":           orders,
		})
		return err
	})
}

// MarkCompleted flags one persisted examination as done.
func (s *Service) MarkCompleted(ctx context.Context, id uuid.UUID) error {
	return s.repo.SetCompleted(ctx, id, true)
}

// MarkSkipped flags one persisted examination as skipped.
func (s *Service) MarkSkipped(ctx context.Context, id uuid.UUID) error {
	return s.repo.SetSkipped(ctx, id, true)
}

func dedupe(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}
