package workflow

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
}

func (r *repoPG) conn(ctx context.Context) querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func (r *repoPG) InsertCompletion(ctx context.Context, rec *StepCompletionRecord) error {
	rec.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO workflow_step_completion (id, workflow, instance_id, step, completed_by)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (workflow, instance_id, step) DO NOTHING`,
		rec.ID, rec.Workflow, rec.InstanceID, rec.Step, rec.CompletedBy,
	)
	return err
}

func (r *repoPG) ListCompletions(ctx context.Context, workflow string, instanceID uuid.UUID) ([]*StepCompletionRecord, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, workflow, instance_id, step, completed_by, completed_at
		FROM workflow_step_completion
		WHERE workflow = $1 AND instance_id = $2
		ORDER BY completed_at`, workflow, instanceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*StepCompletionRecord
	for rows.Next() {
		var rec StepCompletionRecord
		if err := rows.Scan(&rec.ID, &rec.Workflow, &rec.InstanceID, &rec.Step, &rec.CompletedBy, &rec.CompletedAt); err != nil {
			return nil, err
		}
		records = append(records, &rec)
	}
	return records, rows.Err()
}
