package services

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	"github.com/dmgolubev/riskgate/internal/logger"
	"github.com/dmgolubev/riskgate/internal/models"
)

// KafkaWriter defines a Kafka writer abstraction.
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error // Writes messages to Kafka
	Close() error                                                   // Closes the Kafka writer
}

// alertPayload is the message published to the alert topic.
type alertPayload struct {
	models.SuspiciousEntry
	AlertReason string `json:"alert_reason"`
}

// AlertService publishes flagged/blocked events to the alert sink. Delivery
// is observability, not correctness: failures are logged and swallowed and
// never reach the caller's decision path.
type AlertService struct {
	writer KafkaWriter
}

// NewAlertService creates a new AlertService.
func NewAlertService(writer KafkaWriter) *AlertService {
	return &AlertService{writer: writer}
}

// Dispatch publishes one alert, keyed by the flagged email.
func (s *AlertService) Dispatch(ctx context.Context, entry models.SuspiciousEntry, reason string) {
	if s.writer == nil {
		logger.Log.Warnw("alert writer not configured, skipping dispatch", "entry_id", entry.EntryID)
		return
	}

	data, err := json.Marshal(alertPayload{SuspiciousEntry: entry, AlertReason: reason})
	if err != nil {
		logger.Log.Errorw("failed to marshal alert", "entry_id", entry.EntryID, "error", err)
		return
	}

	msg := kafka.Message{
		Key:   []byte(entry.Email),
		Value: data,
	}

	if err := s.writer.WriteMessages(ctx, msg); err != nil {
		logger.Log.Errorw("failed to publish alert", "entry_id", entry.EntryID, "reason", reason, "error", err)
	} else {
		logger.Log.Infow("alert published", "entry_id", entry.EntryID, "reason", reason)
	}
}
