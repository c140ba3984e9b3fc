package models

// TransactionHistoryRecord is the durable per-user audit record appended to
// the Counter Store on every risk evaluation. The booking-frequency heuristic
// counts these records per (user, tour) on future calls.
type TransactionHistoryRecord struct {
	BookingID   string   `json:"booking_id"`   // BookingID identifies the evaluated booking attempt.
	TourID      string   `json:"tour_id"`      // TourID identifies the booked tour.
	UserID      string   `json:"user_id"`      // UserID is the history partition key.
	Email       string   `json:"email"`        // Email of the buyer.
	IP          string   `json:"ip"`           // IP of the attempt.
	Amount      float64  `json:"amount"`       // Amount in whole currency units.
	RiskScore   int      `json:"risk_score"`   // RiskScore computed for this attempt.
	RiskFactors []string `json:"risk_factors"` // RiskFactors triggered for this attempt.
	Decision    Decision `json:"decision"`     // Decision taken for this attempt.
	Timestamp   int64    `json:"timestamp"`    // Timestamp in epoch milliseconds; also the sorted-set score.
}
