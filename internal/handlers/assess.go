package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/dmgolubev/riskgate/internal/logger"
	"github.com/dmgolubev/riskgate/internal/models"
)

// RiskEvaluator defines the interface that the service must implement.
type RiskEvaluator interface {
	Evaluate(ctx context.Context, req models.AssessmentRequest) (*models.RiskAssessment, models.Decision, error)
}

// AssessRequest represents the JSON body for a risk assessment
// swagger:model AssessRequest
type AssessRequest struct {
	// Booking identifier
	// required: true
	// default: bk-20250615-001
	BookingID string `json:"bookingId"`

	// Tour identifier from the catalog
	// required: true
	// default: morning-tour
	TourID string `json:"tourId"`

	// Transaction amount in whole currency units
	// required: true
	// default: 800000
	Amount *float64 `json:"amount"`

	// Buyer email
	// required: true
	// default: buyer@example.com
	Email string `json:"email"`

	// Optional user identifier; email partitions history when absent
	UserID string `json:"userId,omitempty"`
}

// AssessResponse represents a completed risk assessment
// swagger:model AssessResponse
type AssessResponse struct {
	// Routing decision taken for the transaction
	// default: allowed
	Decision models.Decision `json:"decision"`

	// The computed assessment
	Assessment models.RiskAssessment `json:"assessment"`
}

// AssessValidationErrorResponse reports which required fields were present
// swagger:model AssessValidationErrorResponse
type AssessValidationErrorResponse struct {
	// Error message
	// default: Missing required fields
	Error string `json:"error"`

	// Per-field presence map
	Fields map[string]bool `json:"fields"`
}

// AssessErrorResponse represents an error response for assessment
// swagger:model AssessErrorResponse
type AssessErrorResponse struct {
	// Error message
	// default: Internal server error
	Error string `json:"error"`
}

// NewAssessHandler returns an HTTP handler that scores a transaction and
// routes it.
// @Summary Assess transaction risk
// @Description Computes the rule-based risk score for a booking transaction. Critical scores are rejected; high scores are allowed but queued for review.
// @Tags risk
// @Accept json
// @Produce json
// @Param request body handlers.AssessRequest true "Assessment Request"
// @Success 200 {object} handlers.AssessResponse "Transaction allowed (possibly flagged for review)"
// @Failure 400 {object} handlers.AssessResponse "Transaction blocked by critical risk score"
// @Failure 500 {object} handlers.AssessErrorResponse "Dependency failure"
// @Router /risk/assess [post]
func NewAssessHandler(svc RiskEvaluator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		w.Header().Set("Content-Type", "application/json")

		var req AssessRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Log.Warnw("failed to decode assess request", "error", err)
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(AssessErrorResponse{Error: "Invalid request body"})
			return
		}

		fields := map[string]bool{
			"bookingId": req.BookingID != "",
			"tourId":    req.TourID != "",
			"amount":    req.Amount != nil,
			"email":     req.Email != "",
		}
		for _, present := range fields {
			if !present {
				logger.Log.Warnw("assess request missing required fields", "fields", fields)
				w.WriteHeader(http.StatusBadRequest)
				json.NewEncoder(w).Encode(AssessValidationErrorResponse{
					Error:  "Missing required fields",
					Fields: fields,
				})
				return
			}
		}

		assessment, decision, err := svc.Evaluate(ctx, models.AssessmentRequest{
			BookingID: req.BookingID,
			TourID:    req.TourID,
			Amount:    *req.Amount,
			Email:     req.Email,
			IP:        clientIP(r),
			UserID:    req.UserID,
		})
		if err != nil {
			logger.Log.Errorw("risk evaluation failed", "booking_id", req.BookingID, "error", err)
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(AssessErrorResponse{Error: "Internal server error"})
			return
		}

		status := http.StatusOK
		if decision == models.DecisionBlock {
			status = http.StatusBadRequest
		}

		w.WriteHeader(status)
		json.NewEncoder(w).Encode(AssessResponse{
			Decision:   decision,
			Assessment: *assessment,
		})
	}
}
