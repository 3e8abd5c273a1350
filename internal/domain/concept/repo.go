package concept

import "context"

type Repository interface {
	// InsertIfAbsent records the concept unless it is already cached.
	// Existing entries keep their term.
	InsertIfAbsent(ctx context.Context, conceptID, term string) error
	Get(ctx context.Context, conceptID string) (*CacheEntry, error)
	List(ctx context.Context, limit, offset int) ([]*CacheEntry, int, error)
}
