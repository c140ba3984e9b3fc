package models

// VelocityCheckRequest represents a single purchase attempt evaluated against
// the velocity ceilings. It is built per request and never persisted as a
// whole; its fields only feed counter keys.
type VelocityCheckRequest struct {
	IP        string  `json:"ip"`        // IP is the client address used as a rate-limit partition key.
	Email     string  `json:"email"`     // Email is the buyer address used as a rate-limit partition key.
	Amount    float64 `json:"amount"`    // Amount is the transaction amount in whole currency units.
	Timestamp int64   `json:"timestamp"` // Timestamp is the attempt time in epoch milliseconds.
}

// VelocityResult is the allow/deny decision of the velocity limiter.
type VelocityResult struct {
	Allowed bool   `json:"allowed"`          // Allowed reports whether the attempt passed every ceiling.
	Reason  string `json:"reason,omitempty"` // Reason names the first ceiling that rejected the attempt.
}
