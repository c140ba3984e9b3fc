package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmgolubev/riskgate/internal/logger"
)

const (
	// hourlyWindowTTL is the fixed expiry applied to an hourly counter on its
	// first write.
	hourlyWindowTTL = 3600 * time.Second

	// dailyKeyTTL is store hygiene only. The daily window itself rolls over
	// through a fresh key per UTC date, so this TTL never shortens a window.
	dailyKeyTTL = 48 * time.Hour
)

// VelocityCounterRepository maintains the per-identifier, per-time-bucket
// velocity counters in Redis. Every mutation is a single atomic store
// operation; there is no client-side read-modify-write.
type VelocityCounterRepository struct {
	client *redis.Client
}

// NewVelocityCounterRepository creates a new repository instance.
func NewVelocityCounterRepository(client *redis.Client) *VelocityCounterRepository {
	return &VelocityCounterRepository{client: client}
}

// dateBucket formats the UTC calendar-date key suffix.
func dateBucket(at time.Time) string {
	return at.UTC().Format("2006-01-02")
}

// hourBucket formats the UTC hour-of-day key suffix.
func hourBucket(at time.Time) string {
	return at.UTC().Format("15")
}

// AddDailyAmount atomically adds amount to the email's daily amount total and
// returns the post-increment value.
func (r *VelocityCounterRepository) AddDailyAmount(ctx context.Context, email string, at time.Time, amount float64) (float64, error) {
	key := fmt.Sprintf("velocity:amount:daily:%s:%s", email, dateBucket(at))

	total, err := r.client.IncrByFloat(ctx, key, amount).Result()
	if err == nil && total == amount {
		// first write of this window
		r.client.Expire(ctx, key, dailyKeyTTL)
	}

	logger.Log.Infow("daily amount counter",
		"key", key,
		"amount", amount,
		"total", total,
		"error", err,
	)

	return total, err
}

// HourlyCount reads the email's current hourly transaction count without
// incrementing it. A missing key reads as zero.
func (r *VelocityCounterRepository) HourlyCount(ctx context.Context, email string, at time.Time) (int64, error) {
	key := fmt.Sprintf("velocity:count:hourly:%s:%s:%s", email, dateBucket(at), hourBucket(at))

	count, err := r.client.Get(ctx, key).Int64()
	if err == redis.Nil {
		return 0, nil
	}

	logger.Log.Infow("hourly counter read",
		"key", key,
		"count", count,
		"error", err,
	)

	return count, err
}

// IncrementHourlyCount atomically increments the email's hourly transaction
// count, setting the fixed window expiry on first write.
func (r *VelocityCounterRepository) IncrementHourlyCount(ctx context.Context, email string, at time.Time) error {
	key := fmt.Sprintf("velocity:count:hourly:%s:%s:%s", email, dateBucket(at), hourBucket(at))

	count, err := r.client.Incr(ctx, key).Result()
	if err == nil && count == 1 {
		r.client.Expire(ctx, key, hourlyWindowTTL)
	}

	logger.Log.Infow("hourly counter increment",
		"key", key,
		"count", count,
		"error", err,
	)

	return err
}

// IncrementDailyEmailCount atomically increments the email's daily transaction
// count and returns the post-increment value.
func (r *VelocityCounterRepository) IncrementDailyEmailCount(ctx context.Context, email string, at time.Time) (int64, error) {
	key := fmt.Sprintf("velocity:count:daily:email:%s:%s", email, dateBucket(at))
	return r.incrementDaily(ctx, key)
}

// IncrementDailyIPCount atomically increments the IP's daily transaction count
// and returns the post-increment value.
func (r *VelocityCounterRepository) IncrementDailyIPCount(ctx context.Context, ip string, at time.Time) (int64, error) {
	key := fmt.Sprintf("velocity:count:daily:ip:%s:%s", ip, dateBucket(at))
	return r.incrementDaily(ctx, key)
}

func (r *VelocityCounterRepository) incrementDaily(ctx context.Context, key string) (int64, error) {
	count, err := r.client.Incr(ctx, key).Result()
	if err == nil && count == 1 {
		r.client.Expire(ctx, key, dailyKeyTTL)
	}

	logger.Log.Infow("daily counter increment",
		"key", key,
		"count", count,
		"error", err,
	)

	return count, err
}
