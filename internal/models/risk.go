package models

// Decision is the routing outcome of a risk evaluation.
type Decision string

const (
	DecisionAllow  Decision = "allowed"        // below the review threshold
	DecisionReview Decision = "pending_review" // allowed but queued for human triage
	DecisionBlock  Decision = "blocked"        // at or above the critical threshold
)

// RiskAssessment is the explainable outcome of scoring a transaction.
// Computed fresh per request and never persisted on its own.
// swagger:model RiskAssessment
type RiskAssessment struct {
	// Total risk score, clamped to [0, 100]
	// example: 45
	Score int `json:"score"`

	// Human-readable names of every triggered heuristic
	// example: ["unusual_amount","multiple_bookings"]
	Factors []string `json:"factors"`

	// One sub-object per triggered heuristic, for audit and debugging
	Details map[string]any `json:"details"`
}
