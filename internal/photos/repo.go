package photos

import "context"

// Repo defines persistence operations for photos.
type Repo interface {
	Create(ctx context.Context, photo Photo) error
	GetByID(ctx context.Context, userID, photoID string) (Photo, error)
	ListByUser(ctx context.Context, userID string) ([]Photo, error)
	// ListAnalysisCandidates returns analysis-eligible photos for the user,
	// newest first.
	ListAnalysisCandidates(ctx context.Context, userID string) ([]Photo, error)
	// SetAnalysisStatus advances a photo's analysis status and records the
	// error message (empty clears it).
	SetAnalysisStatus(ctx context.Context, photoID, status, errorMessage string) error
}
