package finding

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	// ListByExamination returns the findings of one examination with
	// their body sites attached.
	ListByExamination(ctx context.Context, examinationID uuid.UUID) ([]*Finding, error)
	// Apply replaces the examination's finding set: findings whose id
	// is not in the submitted set are deleted (their body sites
	// cascade), submitted findings are upserted by id, and each
	// finding's body sites get the same treatment scoped to their
	// parent. All rows carry final ids when Apply is called.
	Apply(ctx context.Context, examinationID uuid.UUID, findings []*Finding) error
}
