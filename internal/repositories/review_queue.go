package repositories

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"github.com/dmgolubev/riskgate/internal/logger"
	"github.com/dmgolubev/riskgate/internal/models"
)

// reviewQueueKey is the named review list in the counter store.
const reviewQueueKey = "review:queue"

// ReviewQueueRepository is the durable append-only queue of flagged
// transactions awaiting human triage. RPUSH is atomic, so concurrent engine
// instances never lose entries.
type ReviewQueueRepository struct {
	client *redis.Client
}

// NewReviewQueueRepository creates a new repository instance.
func NewReviewQueueRepository(client *redis.Client) *ReviewQueueRepository {
	return &ReviewQueueRepository{client: client}
}

// Enqueue appends a serialized entry to the tail of the review list.
func (r *ReviewQueueRepository) Enqueue(ctx context.Context, entry models.SuspiciousEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		logger.Log.Errorw("failed to marshal suspicious entry", "entry_id", entry.EntryID, "error", err)
		return err
	}

	err = r.client.RPush(ctx, reviewQueueKey, data).Err()

	logger.Log.Infow("review queue append",
		"key", reviewQueueKey,
		"entry_id", entry.EntryID,
		"reason", entry.Reason,
		"error", err,
	)

	return err
}

// List returns up to limit entries from the head of the queue without
// removing them.
func (r *ReviewQueueRepository) List(ctx context.Context, limit int64) ([]models.SuspiciousEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	raw, err := r.client.LRange(ctx, reviewQueueKey, 0, limit-1).Result()
	if err != nil {
		logger.Log.Errorw("failed to read review queue", "key", reviewQueueKey, "error", err)
		return nil, err
	}

	entries := make([]models.SuspiciousEntry, 0, len(raw))
	for _, item := range raw {
		var entry models.SuspiciousEntry
		if err := json.Unmarshal([]byte(item), &entry); err != nil {
			logger.Log.Errorw("skipping malformed review queue entry", "key", reviewQueueKey, "error", err)
			continue
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

// Resolve pops the oldest entry from the queue. Returns nil when the queue is
// empty.
func (r *ReviewQueueRepository) Resolve(ctx context.Context) (*models.SuspiciousEntry, error) {
	raw, err := r.client.LPop(ctx, reviewQueueKey).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		logger.Log.Errorw("failed to pop review queue", "key", reviewQueueKey, "error", err)
		return nil, err
	}

	var entry models.SuspiciousEntry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		logger.Log.Errorw("failed to unmarshal review queue entry", "key", reviewQueueKey, "error", err)
		return nil, err
	}

	return &entry, nil
}
