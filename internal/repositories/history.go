package repositories

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/dmgolubev/riskgate/internal/logger"
	"github.com/dmgolubev/riskgate/internal/models"
)

// HistoryRepository is the time-ordered booking history per (user, tour) in
// the counter store. The booking-frequency heuristic counts its members; the
// record timestamp doubles as the sorted-set score.
type HistoryRepository struct {
	client *redis.Client
}

// NewHistoryRepository creates a new repository instance.
func NewHistoryRepository(client *redis.Client) *HistoryRepository {
	return &HistoryRepository{client: client}
}

func historyKey(userID, tourID string) string {
	return fmt.Sprintf("history:%s:%s", userID, tourID)
}

// Append adds a history record to the user's sorted set.
func (r *HistoryRepository) Append(ctx context.Context, rec models.TransactionHistoryRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		logger.Log.Errorw("failed to marshal history record", "booking_id", rec.BookingID, "error", err)
		return err
	}

	key := historyKey(rec.UserID, rec.TourID)
	err = r.client.ZAdd(ctx, key, redis.Z{
		Score:  float64(rec.Timestamp),
		Member: data,
	}).Err()

	logger.Log.Infow("history append",
		"key", key,
		"booking_id", rec.BookingID,
		"risk_score", rec.RiskScore,
		"error", err,
	)

	return err
}

// CountBookings returns the all-time number of history records for the
// (user, tour) pair.
func (r *HistoryRepository) CountBookings(ctx context.Context, userID, tourID string) (int64, error) {
	key := historyKey(userID, tourID)

	count, err := r.client.ZCard(ctx, key).Result()

	logger.Log.Infow("history count",
		"key", key,
		"count", count,
		"error", err,
	)

	return count, err
}
