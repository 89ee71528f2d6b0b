package photos

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo stores photos in memory and is safe for concurrent use.
type MemoryRepo struct {
	mu   sync.RWMutex
	byID map[string]Photo
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byID: make(map[string]Photo)}
}

// Create stores the photo.
func (r *MemoryRepo) Create(ctx context.Context, photo Photo) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if photo.AnalysisStatus == "" {
		photo.AnalysisStatus = AnalysisPending
	}
	r.byID[photo.ID] = photo
	return nil
}

// GetByID returns a photo owned by the user.
func (r *MemoryRepo) GetByID(ctx context.Context, userID, photoID string) (Photo, error) {
	if err := ctx.Err(); err != nil {
		return Photo{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	photo, ok := r.byID[photoID]
	if !ok || photo.UserID != userID {
		return Photo{}, ErrNotFound
	}
	return photo, nil
}

// ListByUser returns the user's photos, newest first.
func (r *MemoryRepo) ListByUser(ctx context.Context, userID string) ([]Photo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Photo, 0)
	for _, p := range r.byID {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// ListAnalysisCandidates returns analysis-eligible photos, newest first.
func (r *MemoryRepo) ListAnalysisCandidates(ctx context.Context, userID string) ([]Photo, error) {
	all, err := r.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]Photo, 0, len(all))
	for _, p := range all {
		if p.AnalysisEligible() {
			out = append(out, p)
		}
	}
	return out, nil
}

// SetAnalysisStatus advances a photo's analysis status.
func (r *MemoryRepo) SetAnalysisStatus(ctx context.Context, photoID, status, errorMessage string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	photo, ok := r.byID[photoID]
	if !ok {
		return ErrNotFound
	}
	photo.AnalysisStatus = status
	photo.AnalysisError = errorMessage
	photo.UpdatedAt = time.Now().UTC()
	r.byID[photoID] = photo
	return nil
}

var _ Repo = (*MemoryRepo)(nil)
