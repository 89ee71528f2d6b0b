package analysis

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"leakscan-backend/internal/shared/server/middleware"
	"leakscan-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the analysis service.
type Handler struct {
	Svc *Service
}

// NewHandler constructs a Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{Svc: svc}
}

// RegisterRoutes attaches analysis routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/analysis/run", h.run)
	rg.GET("/analysis/latest", h.latest)
	rg.GET("/admin/dashboard", h.adminDashboard)
}

func (h *Handler) run(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	result, err := h.Svc.Run(c.Request.Context(), userID)
	if err != nil {
		var inProgress *RunInProgressError
		switch {
		case errors.As(err, &inProgress):
			retryAfter := int(inProgress.RetryAfter.Round(time.Second).Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", fmt.Sprintf("%d", retryAfter))
			respond.Error(c, http.StatusConflict, "run_in_progress", "an analysis run is already in progress", []map[string]string{
				{"field": "retryAfterSeconds", "issue": fmt.Sprintf("%d", retryAfter)},
			})
		case errors.Is(err, ErrNothingToAnalyze):
			respond.JSON(c, http.StatusOK, gin.H{"status": "nothing_to_analyze"})
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "analysis run failed", nil)
		}
		return
	}

	respond.JSON(c, http.StatusAccepted, result)
}

func (h *Handler) latest(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	report, err := h.Svc.Latest(c.Request.Context(), userID)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			respond.Error(c, http.StatusNotFound, "not_found", "no report yet", nil)
		default:
			respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to fetch report", nil)
		}
		return
	}

	respond.JSON(c, http.StatusOK, gin.H{
		"id":           report.ID,
		"model":        report.Model,
		"shortSummary": report.ShortSummary,
		"result":       report.Result,
		"photoIds":     report.PhotoIDs,
		"createdAt":    report.CreatedAt,
	})
}

func (h *Handler) adminDashboard(c *gin.Context) {
	metrics, err := h.Svc.AdminDashboard(c.Request.Context())
	if err != nil {
		respond.Error(c, http.StatusInternalServerError, "internal_error", "failed to build dashboard", nil)
		return
	}
	respond.JSON(c, http.StatusOK, metrics)
}
