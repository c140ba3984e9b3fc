package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/dmgolubev/riskgate/internal/logger"
	"github.com/dmgolubev/riskgate/internal/models"
)

// VelocityChecker defines the interface that the service must implement.
type VelocityChecker interface {
	CheckVelocity(ctx context.Context, req models.VelocityCheckRequest) (models.VelocityResult, error)
}

// VelocityCheckRequestBody represents the JSON body for a velocity check
// swagger:model VelocityCheckRequestBody
type VelocityCheckRequestBody struct {
	// Buyer email
	// required: true
	// default: buyer@example.com
	Email string `json:"email"`

	// Transaction amount in whole currency units
	// required: true
	// default: 800000
	Amount *float64 `json:"amount"`

	// Optional client IP override; the connection address is used when absent
	IP string `json:"ip,omitempty"`
}

// VelocityErrorResponse represents an error response for a velocity check
// swagger:model VelocityErrorResponse
type VelocityErrorResponse struct {
	// Error message
	// default: Invalid request body
	Error string `json:"error"`
}

// NewVelocityHandler returns an HTTP handler for the pre-commit velocity
// check.
// @Summary Check transaction velocity
// @Description Enforces per-email and per-IP amount/frequency ceilings. The response decision is final; counter-store failures surface as 500.
// @Tags velocity
// @Accept json
// @Produce json
// @Param request body handlers.VelocityCheckRequestBody true "Velocity Check Request"
// @Success 200 {object} models.VelocityResult "Allow/deny decision"
// @Failure 400 {object} handlers.VelocityErrorResponse "Invalid request"
// @Failure 500 {object} handlers.VelocityErrorResponse "Dependency failure"
// @Router /velocity/check [post]
func NewVelocityHandler(svc VelocityChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		w.Header().Set("Content-Type", "application/json")

		var body VelocityCheckRequestBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			logger.Log.Warnw("failed to decode velocity request", "error", err)
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(VelocityErrorResponse{Error: "Invalid request body"})
			return
		}

		if body.Email == "" || body.Amount == nil {
			logger.Log.Warnw("velocity request missing required fields", "email", body.Email)
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(VelocityErrorResponse{Error: "email and amount are required"})
			return
		}

		ip := body.IP
		if ip == "" {
			ip = clientIP(r)
		}

		result, err := svc.CheckVelocity(ctx, models.VelocityCheckRequest{
			IP:     ip,
			Email:  body.Email,
			Amount: *body.Amount,
		})
		if err != nil {
			logger.Log.Errorw("velocity check failed", "email", body.Email, "error", err)
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(VelocityErrorResponse{Error: "Internal server error"})
			return
		}

		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(result)
	}
}
