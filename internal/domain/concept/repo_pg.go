package concept

import (
	"context"
	"errors"

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
}

func (r *repoPG) conn(ctx context.Context) querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func (r *repoPG) InsertIfAbsent(ctx context.Context, conceptID, term string) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO concept_cache (concept_id, english_term)
		VALUES ($1, $2)
		ON CONFLICT (concept_id) DO NOTHING`,
		conceptID, term,
	)
	return err
}

func (r *repoPG) Get(ctx context.Context, conceptID string) (*CacheEntry, error) {
	var e CacheEntry
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT concept_id, english_term, created_at
		FROM concept_cache WHERE concept_id = $1`, conceptID,
	).Scan(&e.ConceptID, &e.EnglishTerm, &e.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errs.NotFoundf("concept %s not cached", conceptID)
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*CacheEntry, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM concept_cache`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT concept_id, english_term, created_at
		FROM concept_cache ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var entries []*CacheEntry
	for rows.Next() {
		var e CacheEntry
		if err := rows.Scan(&e.ConceptID, &e.EnglishTerm, &e.CreatedAt); err != nil {
			return nil, 0, err
		}
		entries = append(entries, &e)
	}
	return entries, total, rows.Err()
}
