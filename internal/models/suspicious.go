package models

// SuspiciousEntry is a flagged transaction appended to the review queue for
// asynchronous human triage. Entries are append-only; they are consumed and
// removed only by the review workflow.
type SuspiciousEntry struct {
	EntryID   string  `json:"entry_id"`             // EntryID is a unique identifier for the queue entry.
	BookingID string  `json:"booking_id,omitempty"` // BookingID is set when the flag came from the risk scorer.
	TourID    string  `json:"tour_id,omitempty"`    // TourID is set when the flag came from the risk scorer.
	UserID    string  `json:"user_id,omitempty"`    // UserID is the history partition key, when known.
	IP        string  `json:"ip"`                   // IP of the flagged attempt.
	Email     string  `json:"email"`                // Email of the flagged attempt.
	Amount    float64 `json:"amount"`               // Amount of the flagged attempt.
	Reason    string  `json:"reason"`               // Reason names the rule that flagged the attempt.
	Status    string  `json:"status"`               // Status is "pending_review" until a reviewer resolves it.
	FlaggedAt int64   `json:"flagged_at"`           // FlaggedAt is the flag time in epoch milliseconds.
}
