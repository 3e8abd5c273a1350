package finding

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carepath/carepath/internal/platform/db"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

func (r *repoPG) conn(ctx context.Context) querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func (r *repoPG) ListByExamination(ctx context.Context, examinationID uuid.UUID) ([]*Finding, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, patient_examination_id, concept_id, notes, created_at
		FROM examination_finding
		WHERE patient_examination_id = $1
		ORDER BY created_at`, examinationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var findings []*Finding
	byID := make(map[uuid.UUID]*Finding)
	for rows.Next() {
		var f Finding
		if err := rows.Scan(&f.ID, &f.ExaminationID, &f.ConceptID, &f.Notes, &f.CreatedAt); err != nil {
			return nil, err
		}
		f.BodySites = []BodySite{}
		findings = append(findings, &f)
		byID[f.ID] = &f
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(findings) == 0 {
		return findings, nil
	}

	ids := make([]uuid.UUID, 0, len(findings))
	for id := range byID {
		ids = append(ids, id)
	}
	siteRows, err := r.conn(ctx).Query(ctx, `
		SELECT id, finding_id, concept_id
		FROM finding_body_site
		WHERE finding_id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer siteRows.Close()

	for siteRows.Next() {
		var s BodySite
		if err := siteRows.Scan(&s.ID, &s.FindingID, &s.ConceptID); err != nil {
			return nil, err
		}
		if f, ok := byID[s.FindingID]; ok {
			f.BodySites = append(f.BodySites, s)
		}
	}
	return findings, siteRows.Err()
}

// Apply pipelines the whole diff as one batch. Finding upserts are
// queued before body-site inserts so a new finding row exists when its
// sites reference it; stale-row deletes touch disjoint rows from the
// upserts and their position in the batch does not matter.
func (r *repoPG) Apply(ctx context.Context, examinationID uuid.UUID, findings []*Finding) error {
	keep := make([]uuid.UUID, 0, len(findings))
	for _, f := range findings {
		keep = append(keep, f.ID)
	}

	b := &pgx.Batch{}
	b.Queue(`
		DELETE FROM examination_finding
		WHERE patient_examination_id = $1 AND id != ALL($2)`,
		examinationID, keep)
	for _, f := range findings {
		b.Queue(`
			INSERT INTO examination_finding (id, patient_examination_id, concept_id, notes)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (id) DO UPDATE SET concept_id = $3, notes = $4`,
			f.ID, examinationID, f.ConceptID, f.Notes)
	}
	for _, f := range findings {
		keepSites := make([]uuid.UUID, 0, len(f.BodySites))
		for _, s := range f.BodySites {
			keepSites = append(keepSites, s.ID)
		}
		b.Queue(`
			DELETE FROM finding_body_site
			WHERE finding_id = $1 AND id != ALL($2)`,
			f.ID, keepSites)
		for _, s := range f.BodySites {
			b.Queue(`
				INSERT INTO finding_body_site (id, finding_id, concept_id)
				VALUES ($1, $2, $3)
				ON CONFLICT (id) DO UPDATE SET concept_id = $3`,
				s.ID, f.ID, s.ConceptID)
		}
	}

	results := r.conn(ctx).SendBatch(ctx, b)
	for i := 0; i < b.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()
			return err
		}
	}
	return results.Close()
}
