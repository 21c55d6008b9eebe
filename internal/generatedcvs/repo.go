package generatedcvs

import (
	"context"
	"time"
)

// Repo defines persistence operations for generated CVs.
type Repo interface {
	Create(ctx context.Context, cv GeneratedCV) error
	GetByID(ctx context.Context, ownerID, id string) (GeneratedCV, error)
	ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]GeneratedCV, error)
	// SoftDelete marks the record deleted. Deleted records are invisible to
	// GetByID and ListByOwner.
	SoftDelete(ctx context.Context, ownerID, id string, at time.Time) error
}
