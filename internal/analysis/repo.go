package analysis

import "context"

// Repo persists analysis reports. Reports are immutable once created.
type Repo interface {
	Create(ctx context.Context, report *Report) error
	LatestByUser(ctx context.Context, userID string) (*Report, error)
	// ListAdminBlocks returns the admin block of every stored report, for
	// the dashboard aggregation.
	ListAdminBlocks(ctx context.Context) ([]map[string]any, error)
}
