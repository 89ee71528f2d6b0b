package analysis

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"leakscan-backend/internal/llm"
	"leakscan-backend/internal/photos"
)

type staticLLMClient struct {
	resp  string
	err   error
	calls int
}

func (s *staticLLMClient) Generate(ctx context.Context, prompt string) (string, error) {
	_ = ctx
	_ = prompt
	s.calls++
	return s.resp, s.err
}

type failingReportsRepo struct{}

func (failingReportsRepo) Create(ctx context.Context, report *Report) error {
	return errors.New("disk full")
}

func (failingReportsRepo) LatestByUser(ctx context.Context, userID string) (*Report, error) {
	return nil, ErrNotFound
}

func (failingReportsRepo) ListAdminBlocks(ctx context.Context) ([]map[string]any, error) {
	return nil, nil
}

func setupService(t *testing.T, client llm.Client) (*Service, *photos.MemoryRepo, *MemoryRepo) {
	t.Helper()
	photoRepo := photos.NewMemoryRepo()
	reportRepo := NewMemoryRepo()
	gateway := &llm.Gateway{Inner: client, Model: "gpt-4o-mini"}
	svc := NewService(photoRepo, reportRepo, gateway, NewExtractor(DefaultSignalConfig()), IdentityNameFilter{})
	return svc, photoRepo, reportRepo
}

func addReadyPhoto(t *testing.T, repo *photos.MemoryRepo, userID, id, text string) {
	t.Helper()
	now := time.Now().UTC()
	err := repo.Create(context.Background(), photos.Photo{
		ID:             id,
		UserID:         userID,
		OCRStatus:      photos.OCRDone,
		ExtractedText:  text,
		AnalysisStatus: photos.AnalysisPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	if err != nil {
		t.Fatalf("create photo: %v", err)
	}
}

func TestRunProducesReport(t *testing.T) {
	client := &staticLLMClient{resp: `{"short_summary": "You mostly chat with your mom around 14:30."}`}
	svc, photoRepo, _ := setupService(t, client)
	addReadyPhoto(t, photoRepo, "user-1", "photo-1", "mom: see you at 14:30!")

	result, err := svc.Run(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.FallbackUsed {
		t.Fatal("FallbackUsed = true on the happy path")
	}
	if result.ShortSummary != "You mostly chat with your mom around 14:30." {
		t.Fatalf("summary = %q", result.ShortSummary)
	}
	if client.calls != 1 {
		t.Fatalf("llm calls = %d, want 1", client.calls)
	}

	report, err := svc.Latest(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if report.ID != result.ReportID {
		t.Fatalf("report id = %s, want %s", report.ID, result.ReportID)
	}
	if err := ValidateResult(report.Result); err != nil {
		t.Fatalf("persisted report fails validation: %v", err)
	}

	photo, err := photoRepo.GetByID(context.Background(), "user-1", "photo-1")
	if err != nil {
		t.Fatalf("get photo: %v", err)
	}
	if photo.AnalysisStatus != photos.AnalysisCompleted {
		t.Fatalf("photo status = %s, want %s", photo.AnalysisStatus, photos.AnalysisCompleted)
	}
}

func TestRunFallsBackOnModelFailure(t *testing.T) {
	client := &staticLLMClient{err: fmt.Errorf("%w: boom", llm.ErrAPIFailure)}
	svc, photoRepo, _ := setupService(t, client)
	addReadyPhoto(t, photoRepo, "user-1", "photo-1", "some text at 09:15")

	result, err := svc.Run(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !result.FallbackUsed {
		t.Fatal("FallbackUsed = false after model failure")
	}
	if result.ShortSummary != FallbackSummary {
		t.Fatalf("summary = %q, want the fallback sentence", result.ShortSummary)
	}

	photo, _ := photoRepo.GetByID(context.Background(), "user-1", "photo-1")
	if photo.AnalysisStatus != photos.AnalysisFallbackUsed {
		t.Fatalf("photo status = %s, want %s", photo.AnalysisStatus, photos.AnalysisFallbackUsed)
	}

	// Metrics are still computed and valid despite the model failure.
	report, err := svc.Latest(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if err := ValidateResult(report.Result); err != nil {
		t.Fatalf("fallback report fails validation: %v", err)
	}
}

func TestRunFallsBackOnUnparseableOutput(t *testing.T) {
	client := &staticLLMClient{resp: "I'm sorry, I can't help with JSON today."}
	svc, photoRepo, _ := setupService(t, client)
	addReadyPhoto(t, photoRepo, "user-1", "photo-1", "text")

	result, err := svc.Run(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !result.FallbackUsed || result.ShortSummary != FallbackSummary {
		t.Fatalf("result = %+v, want fallback", result)
	}
}

func TestRunNothingToAnalyze(t *testing.T) {
	svc, photoRepo, _ := setupService(t, &staticLLMClient{resp: `{"short_summary": "x"}`})

	if _, err := svc.Run(context.Background(), "user-1"); !errors.Is(err, ErrNothingToAnalyze) {
		t.Fatalf("err = %v, want ErrNothingToAnalyze", err)
	}

	// A photo without finished OCR is not a candidate either.
	now := time.Now().UTC()
	_ = photoRepo.Create(context.Background(), photos.Photo{
		ID:             "photo-1",
		UserID:         "user-1",
		OCRStatus:      photos.OCRExtracting,
		AnalysisStatus: photos.AnalysisPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	if _, err := svc.Run(context.Background(), "user-1"); !errors.Is(err, ErrNothingToAnalyze) {
		t.Fatalf("err = %v, want ErrNothingToAnalyze", err)
	}

	// An empty run leaves no cooldown: as soon as an eligible photo shows
	// up the next run starts right away.
	addReadyPhoto(t, photoRepo, "user-1", "photo-2", "mom: see you at 14:30")
	if _, err := svc.Run(context.Background(), "user-1"); err != nil {
		t.Fatalf("Run right after empty run: %v", err)
	}
}

func TestRunRejectsWithinLockWindow(t *testing.T) {
	svc, photoRepo, _ := setupService(t, &staticLLMClient{resp: `{"short_summary": "x"}`})
	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.locks.now = func() time.Time { return current }
	addReadyPhoto(t, photoRepo, "user-1", "photo-1", "text")

	if _, err := svc.Run(context.Background(), "user-1"); err != nil {
		t.Fatalf("first Run: %v", err)
	}

	current = current.Add(5 * time.Second)
	_, err := svc.Run(context.Background(), "user-1")
	if !errors.Is(err, ErrRunInProgress) {
		t.Fatalf("err = %v, want ErrRunInProgress", err)
	}
	var inProgress *RunInProgressError
	if !errors.As(err, &inProgress) {
		t.Fatalf("err = %T, want *RunInProgressError", err)
	}
	if inProgress.RetryAfter != 25*time.Second {
		t.Fatalf("RetryAfter = %s, want 25s", inProgress.RetryAfter)
	}

	// After the window a new run starts; a fresh photo makes it eligible.
	current = current.Add(26 * time.Second)
	addReadyPhoto(t, photoRepo, "user-1", "photo-2", "more text")
	if _, err := svc.Run(context.Background(), "user-1"); err != nil {
		t.Fatalf("Run after window: %v", err)
	}
}

func TestRunLockIsPerUser(t *testing.T) {
	svc, photoRepo, _ := setupService(t, &staticLLMClient{resp: `{"short_summary": "x"}`})
	addReadyPhoto(t, photoRepo, "user-1", "photo-1", "text one")
	addReadyPhoto(t, photoRepo, "user-2", "photo-2", "text two")

	if _, err := svc.Run(context.Background(), "user-1"); err != nil {
		t.Fatalf("Run user-1: %v", err)
	}
	if _, err := svc.Run(context.Background(), "user-2"); err != nil {
		t.Fatalf("Run user-2: %v", err)
	}
}

func TestRunPersistFailureMarksPhotosError(t *testing.T) {
	client := &staticLLMClient{resp: `{"short_summary": "x"}`}
	photoRepo := photos.NewMemoryRepo()
	gateway := &llm.Gateway{Inner: client, Model: "gpt-4o-mini"}
	svc := NewService(photoRepo, failingReportsRepo{}, gateway, NewExtractor(DefaultSignalConfig()), IdentityNameFilter{})
	addReadyPhoto(t, photoRepo, "user-1", "photo-1", "text")

	if _, err := svc.Run(context.Background(), "user-1"); err == nil {
		t.Fatal("Run succeeded despite persistence failure")
	}

	photo, _ := photoRepo.GetByID(context.Background(), "user-1", "photo-1")
	if photo.AnalysisStatus != photos.AnalysisError {
		t.Fatalf("photo status = %s, want %s", photo.AnalysisStatus, photos.AnalysisError)
	}
	if photo.AnalysisError == "" {
		t.Fatal("photo analysis error message is empty")
	}
}

func TestSelectWithinBudgetCaps(t *testing.T) {
	var candidates []photos.Photo
	for i := 0; i < 30; i++ {
		candidates = append(candidates, photos.Photo{
			ID:            fmt.Sprintf("photo-%d", i),
			ExtractedText: "short",
		})
	}
	selected := selectWithinBudget(candidates)
	if len(selected) != maxPhotosPerRun {
		t.Fatalf("selected = %d, want %d", len(selected), maxPhotosPerRun)
	}

	big := photos.Photo{ID: "big", ExtractedText: string(make([]byte, runTextBudget+1000))}
	small := photos.Photo{ID: "small", ExtractedText: "tiny"}
	selected = selectWithinBudget([]photos.Photo{big, small})
	if len(selected) != 1 || selected[0].ID != "big" {
		t.Fatalf("selected = %v, want only the oversized first photo", selected)
	}

	selected = selectWithinBudget([]photos.Photo{small, big})
	if len(selected) != 1 || selected[0].ID != "small" {
		t.Fatalf("selected = %v, want budget to stop before the big photo", selected)
	}
}
