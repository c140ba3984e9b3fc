package repositories

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/dmgolubev/riskgate/internal/logger"
	"github.com/dmgolubev/riskgate/internal/models"
)

// RiskAuditRepository writes risk-assessment audit rows to Postgres. The
// relational trail complements the counter-store history set; callers treat
// it as best-effort.
type RiskAuditRepository struct {
	db *sqlx.DB
}

func NewRiskAuditRepository(db *sqlx.DB) *RiskAuditRepository {
	return &RiskAuditRepository{db: db}
}

// Save inserts one audit row. Triggered factors are stored comma-joined.
func (r *RiskAuditRepository) Save(ctx context.Context, rec models.RiskAuditRecord) error {
	query := `
		INSERT INTO risk_audit (audit_id, booking_id, tour_id, user_id, email, ip, amount, score, factors, decision, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())
	`
	args := []any{
		rec.AuditID, rec.BookingID, rec.TourID, rec.UserID, rec.Email, rec.IP,
		rec.Amount, rec.Score, strings.Join(rec.Factors, ","), string(rec.Decision),
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	var rowsAffected int64
	if res != nil {
		rowsAffected, _ = res.RowsAffected()
	}

	// Log with query in single line
	logger.Log.Infow("risk audit save",
		"query", strings.Join(strings.Fields(query), " "),
		"booking_id", rec.BookingID,
		"score", rec.Score,
		"result", rowsAffected,
		"error", err,
	)

	return err
}
