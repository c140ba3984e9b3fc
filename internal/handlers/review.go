package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/dmgolubev/riskgate/internal/logger"
	"github.com/dmgolubev/riskgate/internal/models"
)

// ReviewQueue defines the interface that the review repository must
// implement.
type ReviewQueue interface {
	List(ctx context.Context, limit int64) ([]models.SuspiciousEntry, error)
	Resolve(ctx context.Context) (*models.SuspiciousEntry, error)
}

// ReviewListResponse represents the pending review queue
// swagger:model ReviewListResponse
type ReviewListResponse struct {
	// Pending entries, oldest first
	Entries []models.SuspiciousEntry `json:"entries"`
}

// ReviewErrorResponse represents an error response for review endpoints
// swagger:model ReviewErrorResponse
type ReviewErrorResponse struct {
	// Error message
	// default: Internal server error
	Error string `json:"error"`
}

// NewReviewListHandler returns an HTTP handler listing pending review
// entries.
// @Summary List pending review entries
// @Description Returns up to limit flagged transactions awaiting triage, oldest first.
// @Tags review
// @Produce json
// @Param limit query int false "Maximum entries to return (default 50)"
// @Success 200 {object} handlers.ReviewListResponse "Pending entries"
// @Failure 500 {object} handlers.ReviewErrorResponse "Dependency failure"
// @Router /review [get]
// @Security BearerAuth
func NewReviewListHandler(queue ReviewQueue) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		w.Header().Set("Content-Type", "application/json")

		var limit int64
		if raw := r.URL.Query().Get("limit"); raw != "" {
			parsed, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || parsed <= 0 {
				w.WriteHeader(http.StatusBadRequest)
				json.NewEncoder(w).Encode(ReviewErrorResponse{Error: "limit must be a positive integer"})
				return
			}
			limit = parsed
		}

		entries, err := queue.List(ctx, limit)
		if err != nil {
			logger.Log.Errorw("failed to list review queue", "error", err)
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(ReviewErrorResponse{Error: "Internal server error"})
			return
		}

		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(ReviewListResponse{Entries: entries})
	}
}

// NewReviewResolveHandler returns an HTTP handler that consumes the oldest
// pending entry.
// @Summary Resolve the oldest review entry
// @Description Pops the oldest flagged transaction from the queue and returns it. 204 when the queue is empty.
// @Tags review
// @Produce json
// @Success 200 {object} models.SuspiciousEntry "The resolved entry"
// @Success 204 "Queue empty"
// @Failure 500 {object} handlers.ReviewErrorResponse "Dependency failure"
// @Router /review/resolve [post]
// @Security BearerAuth
func NewReviewResolveHandler(queue ReviewQueue) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		entry, err := queue.Resolve(ctx)
		if err != nil {
			logger.Log.Errorw("failed to resolve review entry", "error", err)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(ReviewErrorResponse{Error: "Internal server error"})
			return
		}

		if entry == nil {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(entry)
	}
}
