package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"leakscan-backend/internal/llm"
	"leakscan-backend/internal/photos"
	"leakscan-backend/internal/shared/metrics"
	"leakscan-backend/internal/shared/telemetry"
)

const (
	// Selection caps for one run.
	maxPhotosPerRun = 20
	runTextBudget   = 8000

	// LockWindow is the minimum spacing between run starts per user.
	LockWindow = 30 * time.Second
)

// RunInProgressError rejects a run while another is in flight or too recent.
type RunInProgressError struct {
	RetryAfter time.Duration
}

func (e *RunInProgressError) Error() string {
	return fmt.Sprintf("analysis run already in progress, retry in %s", e.RetryAfter.Round(time.Second))
}

func (e *RunInProgressError) Is(target error) bool {
	return target == ErrRunInProgress
}

// Service orchestrates the privacy-leak pipeline: select eligible photos,
// compute signal metrics, obtain a model summary, validate and persist the
// combined report, and advance per-photo progress along the way.
type Service struct {
	photos     photos.Repo
	reports    Repo
	gateway    *llm.Gateway
	extractor  *Extractor
	nameFilter NameFilter
	locks      *runLocks
	now        func() time.Time
}

func NewService(photoRepo photos.Repo, reportRepo Repo, gateway *llm.Gateway, extractor *Extractor, nameFilter NameFilter) *Service {
	return &Service{
		photos:     photoRepo,
		reports:    reportRepo,
		gateway:    gateway,
		extractor:  extractor,
		nameFilter: nameFilter,
		locks:      newRunLocks(LockWindow),
		now:        time.Now,
	}
}

// Run executes one synchronous analysis run for the user.
func (s *Service) Run(ctx context.Context, userID string) (result *RunResult, err error) {
	ok, retryAfter := s.locks.Acquire(userID)
	if !ok {
		return nil, &RunInProgressError{RetryAfter: retryAfter}
	}
	defer func() {
		// An empty run changed nothing, so no cooldown applies.
		if errors.Is(err, ErrNothingToAnalyze) {
			s.locks.Abandon(userID)
			return
		}
		s.locks.Release(userID)
	}()

	candidates, err := s.photos.ListAnalysisCandidates(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}
	if len(candidates) == 0 {
		return nil, ErrNothingToAnalyze
	}

	metrics.IncAnalysisStarted()
	started := s.now()
	defer func() {
		metrics.ObserveAnalysisDurationMs(float64(s.now().Sub(started).Milliseconds()))
		if err != nil {
			metrics.IncAnalysisFailed()
		} else {
			metrics.IncAnalysisCompleted()
		}
	}()

	for _, photo := range candidates {
		s.setStatus(ctx, userID, photo.ID, photos.AnalysisQueued, "")
	}

	selected := selectWithinBudget(candidates)
	photoIDs := make([]string, len(selected))
	for i, photo := range selected {
		photoIDs[i] = photo.ID
	}
	metrics.AddPhotosAnalyzed(len(photoIDs))

	defer func() {
		if r := recover(); r != nil {
			s.markAll(ctx, userID, photoIDs, photos.AnalysisError, fmt.Sprintf("run aborted: %v", r))
			result = nil
			err = fmt.Errorf("analysis run panic: %v", r)
		}
	}()

	s.markAll(ctx, userID, photoIDs, photos.AnalysisProcessing, "")

	texts := make([]string, len(selected))
	for i, photo := range selected {
		texts[i] = photo.ExtractedText
	}
	signals := s.extractor.Extract(texts)
	nameCandidates := s.extractor.NameCandidates(texts)
	if s.nameFilter != nil && len(nameCandidates) > 0 {
		if n, ferr := s.nameFilter.FilterPersonNames(ctx, nameCandidates); ferr == nil {
			signals.SocialContextLeakage.NameEntities = n
		} else {
			telemetry.Warn("analysis.name_filter_failed", map[string]any{
				"user_id": userID,
				"error":   ferr.Error(),
			})
		}
	}

	s.markAll(ctx, userID, photoIDs, photos.AnalysisSentToLLM, "")

	summary, fallbackUsed := s.generateSummary(ctx, userID, texts, nameCandidates)
	if fallbackUsed {
		s.markAll(ctx, userID, photoIDs, photos.AnalysisLLMFailed, "")
	}

	body := s.assembleResult(userID, summary, signals)

	s.markAll(ctx, userID, photoIDs, photos.AnalysisFinalizing, "")

	report := &Report{
		ID:           uuid.NewString(),
		UserID:       userID,
		Model:        s.gateway.Model,
		ShortSummary: summary,
		Result:       body,
		PhotoIDs:     photoIDs,
		CreatedAt:    s.now().UTC(),
	}
	if perr := s.reports.Create(ctx, report); perr != nil {
		s.markAll(ctx, userID, photoIDs, photos.AnalysisError, ErrPersistFailed.Error())
		telemetry.Error("analysis.persist_failed", map[string]any{
			"user_id": userID,
			"error":   perr.Error(),
		})
		return nil, fmt.Errorf("%w: %v", ErrPersistFailed, perr)
	}

	final := photos.AnalysisCompleted
	if fallbackUsed {
		final = photos.AnalysisFallbackUsed
	}
	s.markAll(ctx, userID, photoIDs, final, "")

	telemetry.Info("analysis.completed", map[string]any{
		"user_id":       userID,
		"report_id":     report.ID,
		"photos":        len(photoIDs),
		"fallback_used": fallbackUsed,
	})
	return &RunResult{
		ReportID:     report.ID,
		PhotoIDs:     photoIDs,
		ShortSummary: summary,
		FallbackUsed: fallbackUsed,
	}, nil
}

// Latest returns the user's most recent report.
func (s *Service) Latest(ctx context.Context, userID string) (*Report, error) {
	return s.reports.LatestByUser(ctx, userID)
}

// AdminDashboard aggregates the admin blocks of all stored reports.
func (s *Service) AdminDashboard(ctx context.Context) (AdminMetrics, error) {
	blocks, err := s.reports.ListAdminBlocks(ctx)
	if err != nil {
		return AdminMetrics{}, fmt.Errorf("list admin blocks: %w", err)
	}
	return AggregateAdmin(blocks), nil
}

// generateSummary calls the model and validates its output. Any failure on
// this path is recoverable: the fixed fallback sentence is used instead and
// the run continues.
func (s *Service) generateSummary(ctx context.Context, userID string, texts, nameCandidates []string) (string, bool) {
	prompt := BuildFinalSummaryPrompt(texts, s.extractor.TimeTokens(texts), nameCandidates)
	raw, err := s.gateway.Generate(ctx, prompt)
	if err != nil {
		telemetry.Warn("analysis.llm_failed", map[string]any{
			"user_id": userID,
			"error":   err.Error(),
		})
		return FallbackSummary, true
	}
	summary, err := SummaryFromOutput(raw)
	if err != nil {
		telemetry.Warn("analysis.summary_invalid", map[string]any{
			"user_id": userID,
			"error":   err.Error(),
		})
		return FallbackSummary, true
	}
	return summary, false
}

// assembleResult builds the final report body and validates it. On schema
// violation the admin block is replaced wholesale with zeros rather than
// shipping partially wrong numbers.
func (s *Service) assembleResult(userID, summary string, signals AdminMetrics) map[string]any {
	admin, err := toJSONValue(signals)
	if err == nil {
		body := map[string]any{
			"user":  map[string]any{"short_summary": summary},
			"admin": admin,
		}
		if verr := ValidateResult(body); verr == nil {
			return body
		} else {
			err = verr
		}
	}
	telemetry.Error("analysis.report_invalid", map[string]any{
		"user_id": userID,
		"error":   err.Error(),
	})
	zero, _ := toJSONValue(ZeroAdminMetrics())
	return map[string]any{
		"user":  map[string]any{"short_summary": summary},
		"admin": zero,
	}
}

// selectWithinBudget keeps the newest photos that fit the per-run caps. The
// first candidate is always kept so a single long text still gets analyzed.
func selectWithinBudget(candidates []photos.Photo) []photos.Photo {
	var selected []photos.Photo
	used := 0
	for _, photo := range candidates {
		if len(selected) >= maxPhotosPerRun {
			break
		}
		size := len(photo.ExtractedText)
		if len(selected) > 0 && used+size > runTextBudget {
			break
		}
		selected = append(selected, photo)
		used += size
	}
	return selected
}

func (s *Service) markAll(ctx context.Context, userID string, photoIDs []string, status, errorMessage string) {
	for _, id := range photoIDs {
		s.setStatus(ctx, userID, id, status, errorMessage)
	}
}

const maxStoredErrorLen = 500

// sanitizeError flattens an error message to a single bounded line before it
// is written to a photo row.
func sanitizeError(message string) string {
	message = strings.Join(strings.Fields(message), " ")
	if len(message) > maxStoredErrorLen {
		message = message[:maxStoredErrorLen]
	}
	return message
}

// setStatus advances one photo and logs the transition. Status writes are
// best effort except the final persist, which has its own error path.
func (s *Service) setStatus(ctx context.Context, userID, photoID, status, errorMessage string) {
	errorMessage = sanitizeError(errorMessage)
	if err := s.photos.SetAnalysisStatus(ctx, photoID, status, errorMessage); err != nil {
		telemetry.Warn("analysis.status_update_failed", map[string]any{
			"user_id":  userID,
			"photo_id": photoID,
			"status":   status,
			"error":    err.Error(),
		})
		return
	}
	telemetry.Info("analysis.status", map[string]any{
		"user_id":  userID,
		"photo_id": photoID,
		"status":   status,
	})
}
