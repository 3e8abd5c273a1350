package finding

import (
	"context"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/carepath/carepath/internal/platform/db"
	"github.com/carepath/carepath/internal/platform/errs"
)

// ConceptCache is the slice of the concept service the reconciler
// needs: insert-if-absent caching of (concept id, term) pairs.
type ConceptCache interface {
	Ensure(ctx context.Context, conceptID, term string) error
}

// ExaminationMarker flips the completed flag on the parent
// examination once its findings are recorded.
type ExaminationMarker interface {
	SetCompleted(ctx context.Context, id uuid.UUID, completed bool) error
}

// Enqueuer is satisfied by the event queue.
type Enqueuer interface {
	Enqueue(ctx context.Context, eventType string, payload interface{}) (uuid.UUID, error)
}

// EventFindingReconciled is emitted after every successful findings
// reconciliation.
const EventFindingReconciled = "finding.reconciled"

type Service struct {
	repo     Repository
	concepts ConceptCache
	exams    ExaminationMarker
	runTx    db.TxRunner
	events   Enqueuer
}

func NewService(repo Repository, concepts ConceptCache, exams ExaminationMarker, runTx db.TxRunner, events Enqueuer) *Service {
	return &Service{repo: repo, concepts: concepts, exams: exams, runTx: runTx, events: events}
}

// List returns one examination's findings with their body sites.
func (s *Service) List(ctx context.Context, examinationID uuid.UUID) ([]*Finding, error) {
	return s.repo.ListByExamination(ctx, examinationID)
}

// Reconcile replaces one examination's finding set with the submission.
// Findings (and body sites) absent from the submission are deleted;
// the rest are upserted in place by id, ids generated where the caller
// supplied none. Every referenced concept is cached first, all
// concepts concurrently; the row mutations then commit atomically and
// the parent examination is marked completed. Resubmitting the same
// set is a no-op apart from timestamps.
func (s *Service) Reconcile(ctx context.Context, examinationID uuid.UUID, submitted []SubmittedFinding) ([]*Finding, error) {
	findings := make([]*Finding, 0, len(submitted))
	for i, sf := range submitted {
		if sf.ConceptID == "" {
			return nil, errs.Validationf("finding %d has no concept id", i)
		}
		f := &Finding{
			ID:            orGenerate(sf.ID),
			ExaminationID: examinationID,
			ConceptID:     sf.ConceptID,
			Notes:         sf.Notes,
			BodySites:     make([]BodySite, 0, len(sf.BodySites)),
		}
		for j, sb := range sf.BodySites {
			if sb.ConceptID == "" {
				return nil, errs.Validationf("finding %d body site %d has no concept id", i, j)
			}
			f.BodySites = append(f.BodySites, BodySite{
				ID:        orGenerate(sb.ID),
				FindingID: f.ID,
				ConceptID: sb.ConceptID,
			})
		}
		findings = append(findings, f)
	}

	// Cache population is idempotent and append-only, so it runs
	// before the transaction; a later rollback leaves only harmless
	// extra cache entries.
	if err := s.cacheConcepts(ctx, submitted); err != nil {
		return nil, err
	}

	err := s.runTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Apply(ctx, examinationID, findings); err != nil {
			return err
		}
		if err := s.exams.SetCompleted(ctx, examinationID, true); err != nil {
			return err
		}
		_, err := s.events.Enqueue(ctx, EventFindingReconciled, map[string]interface{}{
			"patient_examination_id": examinationID,
			"finding_count":          len(findings),
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return findings, nil
}

func (s *Service) cacheConcepts(ctx context.Context, submitted []SubmittedFinding) error {
	type ref struct{ id, term string }
	seen := make(map[string]bool)
	var refs []ref
	add := func(id, term string) {
		if !seen[id] {
			seen[id] = true
			refs = append(refs, ref{id, term})
		}
	}
	for _, sf := range submitted {
		add(sf.ConceptID, sf.Term)
		for _, sb := range sf.BodySites {
			add(sb.ConceptID, sb.Term)
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, r := range refs {
		r := r
		g.Go(func() error {
			return s.concepts.Ensure(ctx, r.id, r.term)
		})
	}
	return g.Wait()
}

func orGenerate(id *uuid.UUID) uuid.UUID {
	if id != nil && *id != uuid.Nil {
		return *id
	}
	return uuid.New()
}
