package models

// AssessmentRequest carries the transaction fields evaluated by the risk
// scorer. UserID is optional; when empty the email partitions the booking
// history instead.
type AssessmentRequest struct {
	BookingID string  `json:"booking_id"`
	TourID    string  `json:"tour_id"`
	Amount    float64 `json:"amount"`
	Email     string  `json:"email"`
	IP        string  `json:"ip"`
	UserID    string  `json:"user_id,omitempty"`
}
