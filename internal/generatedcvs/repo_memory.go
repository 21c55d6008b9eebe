package generatedcvs

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo stores generated CVs in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu      sync.RWMutex
	byID    map[string]GeneratedCV
	byOwner map[string][]string
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		byID:    make(map[string]GeneratedCV),
		byOwner: make(map[string][]string),
	}
}

// Create stores the generated CV.
func (r *MemoryRepo) Create(ctx context.Context, cv GeneratedCV) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byID[cv.ID]; !exists {
		r.byOwner[cv.OwnerID] = append(r.byOwner[cv.OwnerID], cv.ID)
	}
	r.byID[cv.ID] = cv
	return nil
}

// GetByID returns a generated CV by ID for an owner.
func (r *MemoryRepo) GetByID(ctx context.Context, ownerID, id string) (GeneratedCV, error) {
	if err := ctx.Err(); err != nil {
		return GeneratedCV{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	cv, ok := r.byID[id]
	if !ok || cv.DeletedAt != nil {
		return GeneratedCV{}, ErrNotFound
	}
	if cv.OwnerID != ownerID {
		return GeneratedCV{}, ErrForbidden
	}
	return cv, nil
}

// ListByOwner returns generated CVs for an owner, newest first, with limit/offset.
func (r *MemoryRepo) ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]GeneratedCV, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if offset < 0 {
		offset = 0
	}
	if limit < 0 {
		limit = 0
	}

	r.mu.RLock()
	owned := make([]GeneratedCV, 0, len(r.byOwner[ownerID]))
	for _, id := range r.byOwner[ownerID] {
		if cv := r.byID[id]; cv.DeletedAt == nil {
			owned = append(owned, cv)
		}
	}
	r.mu.RUnlock()

	if len(owned) == 0 || offset >= len(owned) {
		return []GeneratedCV{}, nil
	}

	sort.SliceStable(owned, func(i, j int) bool {
		return owned[i].CreatedAt.After(owned[j].CreatedAt)
	})

	end := len(owned)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return owned[offset:end], nil
}

// SoftDelete stamps DeletedAt on the owner's record.
func (r *MemoryRepo) SoftDelete(ctx context.Context, ownerID, id string, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cv, ok := r.byID[id]
	if !ok || cv.DeletedAt != nil || cv.OwnerID != ownerID {
		return ErrNotFound
	}
	cv.DeletedAt = &at
	r.byID[id] = cv
	return nil
}

var _ Repo = (*MemoryRepo)(nil)
