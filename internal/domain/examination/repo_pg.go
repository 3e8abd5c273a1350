package examination

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carepath/carepath/internal/platform/db"
	"github.com/carepath/carepath/internal/platform/errs"
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

func (r *repoPG) ListCatalog(ctx context.Context) ([]*CatalogEntry, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT name, canonical_order, navigation_path, tab, page
		FROM examination_catalog
		ORDER BY canonical_order`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*CatalogEntry
	for rows.Next() {
		var e CatalogEntry
		if err := rows.Scan(&e.Name, &e.CanonicalOrder, &e.NavigationPath, &e.Tab, &e.Page); err != nil {
			return nil, err
		}
		entries = append(entries, &e)
	}
	return entries, rows.Err()
}

func (r *repoPG) ListByEncounter(ctx context.Context, patientID, encounterID uuid.UUID) ([]*PatientExamination, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, patient_id, encounter_id, name, completed, skipped, ordered, created_at
		FROM patient_examination
		WHERE patient_id = $1 AND encounter_id = $2
		ORDER BY created_at`, patientID, encounterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var exams []*PatientExamination
	for rows.Next() {
		var e PatientExamination
		if err := rows.Scan(&e.ID, &e.PatientID, &e.EncounterID, &e.Name,
			&e.Completed, &e.Skipped, &e.Ordered, &e.CreatedAt); err != nil {
			return nil, err
		}
		exams = append(exams, &e)
	}
	return exams, rows.Err()
}

// ApplySelection pipelines the delete and the inserts as one batch on
// the transaction's connection. The operations touch disjoint row sets
// so their relative order within the batch does not matter.
func (r *repoPG) ApplySelection(ctx context.Context, patientID, encounterID uuid.UUID, duringEncounter, orders []string) error {
	keep := make([]string, 0, len(duringEncounter)+len(orders))
	keep = append(keep, duringEncounter...)
	keep = append(keep, orders...)

	const insertSQL = `
		INSERT INTO patient_examination (id, patient_id, encounter_id, name, ordered)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (patient_id, encounter_id, name) DO NOTHING`

	b := &pgx.Batch{}
	b.Queue(`
		DELETE FROM patient_examination
		WHERE patient_id = $1 AND encounter_id = $2 AND name != ALL($3)`,
		patientID, encounterID, keep)
	for _, name := range duringEncounter {
		b.Queue(insertSQL, uuid.New(), patientID, encounterID, name, false)
	}
	for _, name := range orders {
		b.Queue(insertSQL, uuid.New(), patientID, encounterID, name, true)
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

func (r *repoPG) Get(ctx context.Context, id uuid.UUID) (*PatientExamination, error) {
	var e PatientExamination
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT id, patient_id, encounter_id, name, completed, skipped, ordered, created_at
		FROM patient_examination WHERE id = $1`, id).
		Scan(&e.ID, &e.PatientID, &e.EncounterID, &e.Name,
			&e.Completed, &e.Skipped, &e.Ordered, &e.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.NotFoundf("examination %s not found", id)
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *repoPG) SetCompleted(ctx context.Context, id uuid.UUID, completed bool) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE patient_examination SET completed = $2 WHERE id = $1`, id, completed)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.NotFoundf("examination %s not found", id)
	}
	return nil
}

func (r *repoPG) SetSkipped(ctx context.Context, id uuid.UUID, skipped bool) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE patient_examination SET skipped = $2 WHERE id = $1`, id, skipped)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.NotFoundf("examination %s not found", id)
	}
	return nil
}
