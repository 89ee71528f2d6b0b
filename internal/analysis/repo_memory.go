package analysis

import (
	"context"
	"sync"
)

// MemoryRepo is an in-memory Repo for tests and local development.
type MemoryRepo struct {
	mu      sync.RWMutex
	reports []*Report
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{}
}

func (r *MemoryRepo) Create(ctx context.Context, report *Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *report
	r.reports = append(r.reports, &clone)
	return nil
}

func (r *MemoryRepo) LatestByUser(ctx context.Context, userID string) (*Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var latest *Report
	for _, report := range r.reports {
		if report.UserID != userID {
			continue
		}
		if latest == nil || report.CreatedAt.After(latest.CreatedAt) {
			latest = report
		}
	}
	if latest == nil {
		return nil, ErrNotFound
	}
	clone := *latest
	return &clone, nil
}

func (r *MemoryRepo) ListAdminBlocks(ctx context.Context) ([]map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var blocks []map[string]any
	for _, report := range r.reports {
		if admin, ok := report.Result["admin"].(map[string]any); ok {
			blocks = append(blocks, admin)
		}
	}
	return blocks, nil
}

var _ Repo = (*MemoryRepo)(nil)
