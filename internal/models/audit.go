package models

import (
	"time"

	"github.com/google/uuid"
)

// RiskAuditRecord is a row in the relational risk-audit table, written
// best-effort alongside the Counter Store history record.
type RiskAuditRecord struct {
	AuditID   uuid.UUID `json:"audit_id" db:"audit_id"`
	BookingID string    `json:"booking_id" db:"booking_id"`
	TourID    string    `json:"tour_id" db:"tour_id"`
	UserID    string    `json:"user_id" db:"user_id"`
	Email     string    `json:"email" db:"email"`
	IP        string    `json:"ip" db:"ip"`
	Amount    float64   `json:"amount" db:"amount"`
	Score     int       `json:"score" db:"score"`
	Factors   []string  `json:"factors" db:"-"`
	Decision  Decision  `json:"decision" db:"decision"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
