package analysis

import "time"

// FallbackSummary replaces the model summary when no usable one was produced.
const FallbackSummary = "We could not generate a summary for these screenshots. The privacy signal metrics below were still computed."

// Report is one immutable privacy-leak analysis result for a user.
type Report struct {
	ID           string         `json:"id"`
	UserID       string         `json:"userId"`
	Model        string         `json:"model"`
	ShortSummary string         `json:"shortSummary"`
	Result       map[string]any `json:"resultJson"`
	PhotoIDs     []string       `json:"photoIds"`
	CreatedAt    time.Time      `json:"createdAt"`
}

// RunResult is what a completed pipeline run reports to the caller.
type RunResult struct {
	ReportID     string   `json:"reportId"`
	PhotoIDs     []string `json:"photoIds"`
	ShortSummary string   `json:"shortSummary"`
	FallbackUsed bool     `json:"fallbackUsed"`
}
