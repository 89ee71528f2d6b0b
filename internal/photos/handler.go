package photos

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"leakscan-backend/internal/shared/server/middleware"
	"leakscan-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the photos repo.
type Handler struct {
	Repo Repo
}

// NewHandler constructs a Handler.
func NewHandler(repo Repo) *Handler {
	return &Handler{Repo: repo}
}

// RegisterRoutes attaches photo routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/photos", h.ingest)
	rg.GET("/photos", h.list)
	rg.GET("/photos/:id/progress", h.progress)
}

type ingestRequest struct {
	OCRStatus     string `json:"ocrStatus"`
	ExtractedText string `json:"extractedText"`
	OCRError      string `json:"ocrError"`
}

// ingest records a screenshot with the OCR outcome the extraction subsystem
// produced for it.
func (h *Handler) ingest(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	var req ingestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	if req.OCRStatus == "" {
		req.OCRStatus = OCRUploaded
	}
	switch req.OCRStatus {
	case OCRUploaded, OCRReceived, OCRExtracting, OCRDone, OCRError:
	default:
		respond.Error(c, http.StatusBadRequest, "validation_error", "unknown ocrStatus", []map[string]string{
			{"field": "ocrStatus", "issue": "unknown value"},
		})
		return
	}

	now := time.Now().UTC()
	photo := Photo{
		ID:             uuid.NewString(),
		UserID:         userID,
		OCRStatus:      req.OCRStatus,
		ExtractedText:  req.ExtractedText,
		OCRError:       req.OCRError,
		AnalysisStatus: AnalysisPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := h.Repo.Create(c.Request.Context(), photo); err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to store photo", nil)
		return
	}

	respond.Created(c, gin.H{
		"id":             photo.ID,
		"ocrStatus":      photo.OCRStatus,
		"analysisStatus": photo.AnalysisStatus,
	})
}

func (h *Handler) list(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	items, err := h.Repo.ListByUser(c.Request.Context(), userID)
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to list photos", nil)
		return
	}

	resp := make([]gin.H, 0, len(items))
	for _, photo := range items {
		resp = append(resp, gin.H{
			"id":             photo.ID,
			"ocrStatus":      photo.OCRStatus,
			"analysisStatus": photo.AnalysisStatus,
			"createdAt":      photo.CreatedAt,
		})
	}
	respond.JSON(c, http.StatusOK, resp)
}

// progress exposes both phase trackers for one photo.
func (h *Handler) progress(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)
	photoID := c.Param("id")
	if photoID == "" {
		respond.Error(c, http.StatusBadRequest, "validation_error", "photo id is required", nil)
		return
	}

	photo, err := h.Repo.GetByID(c.Request.Context(), userID, photoID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "photo not found", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch photo", nil)
		}
		return
	}

	respond.JSON(c, http.StatusOK, gin.H{
		"photoId":        photo.ID,
		"ocrStatus":      photo.OCRStatus,
		"ocrError":       photo.OCRError,
		"analysisStatus": photo.AnalysisStatus,
		"analysisError":  photo.AnalysisError,
		"terminal":       isTerminal(photo.AnalysisStatus),
		"updatedAt":      photo.UpdatedAt,
	})
}

func isTerminal(status string) bool {
	switch status {
	case AnalysisCompleted, AnalysisFallbackUsed, AnalysisError:
		return true
	default:
		return false
	}
}
