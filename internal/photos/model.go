package photos

import (
	"errors"
	"time"
)

// OCR lifecycle, owned by the external extraction subsystem.
const (
	OCRUploaded   = "uploaded"
	OCRReceived   = "received"
	OCRExtracting = "extracting"
	OCRDone       = "done"
	OCRError      = "error"
)

// Analysis lifecycle, advanced by the privacy-leak pipeline.
const (
	AnalysisPending      = "pending"
	AnalysisQueued       = "queued"
	AnalysisProcessing   = "processing"
	AnalysisSentToLLM    = "sent_to_llm"
	AnalysisFinalizing   = "finalizing"
	AnalysisCompleted    = "completed"
	AnalysisFallbackUsed = "fallback_used"
	AnalysisLLMFailed    = "llm_failed"
	AnalysisError        = "error"
)

// ErrNotFound is returned when a photo does not exist for the user.
var ErrNotFound = errors.New("photo not found")

// Photo is one uploaded screenshot with its OCR outcome and analysis progress.
type Photo struct {
	ID             string    `json:"id"`
	UserID         string    `json:"userId"`
	OCRStatus      string    `json:"ocrStatus"`
	ExtractedText  string    `json:"extractedText,omitempty"`
	OCRError       string    `json:"ocrError,omitempty"`
	AnalysisStatus string    `json:"analysisStatus"`
	AnalysisError  string    `json:"analysisError,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// AnalysisEligible reports whether this photo can enter an analysis run.
func (p Photo) AnalysisEligible() bool {
	if p.OCRStatus != OCRDone || p.ExtractedText == "" {
		return false
	}
	switch p.AnalysisStatus {
	case AnalysisPending, AnalysisQueued, AnalysisError, "":
		return true
	default:
		return false
	}
}
