package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dmgolubev/riskgate/internal/logger"
	"github.com/dmgolubev/riskgate/internal/models"
)

// Rejection reasons surfaced to callers. These are the machine-readable
// decision strings; they never carry internal key names or store errors.
const (
	ReasonAmountTooHigh = "amount too high"
	ReasonDailyLimit    = "daily limit exceeded"
	ReasonHourlyLimit   = "too many per hour"
	ReasonEmailDaily    = "too many for this email today"
	ReasonIPDaily       = "too many from this IP today"

	reasonSuspiciousAmount = "suspicious amount"
)

// StatusPendingReview is the initial status of every review-queue entry.
const StatusPendingReview = "pending_review"

// VelocityConfig holds the transaction ceilings. The struct is immutable
// after construction; every field has a default from DefaultVelocityConfig.
type VelocityConfig struct {
	MaxAmountPerTransaction       float64
	MaxDailyAmount                float64
	MaxTransactionsPerHour        int64
	MaxTransactionsPerDayPerEmail int64
	MaxTransactionsPerDayPerIP    int64
	SuspiciousAmountThreshold     float64
}

// DefaultVelocityConfig returns the default ceilings, in whole currency units.
func DefaultVelocityConfig() VelocityConfig {
	return VelocityConfig{
		MaxAmountPerTransaction:       50_000_000,
		MaxDailyAmount:                100_000_000,
		MaxTransactionsPerHour:        5,
		MaxTransactionsPerDayPerEmail: 10,
		MaxTransactionsPerDayPerIP:    20,
		SuspiciousAmountThreshold:     30_000_000,
	}
}

// VelocityCounters defines the counter-store operations the limiter needs.
// Every increment is atomic and returns the post-increment value.
type VelocityCounters interface {
	AddDailyAmount(ctx context.Context, email string, at time.Time, amount float64) (float64, error)
	HourlyCount(ctx context.Context, email string, at time.Time) (int64, error)
	IncrementHourlyCount(ctx context.Context, email string, at time.Time) error
	IncrementDailyEmailCount(ctx context.Context, email string, at time.Time) (int64, error)
	IncrementDailyIPCount(ctx context.Context, ip string, at time.Time) (int64, error)
}

// ReviewEnqueuer appends flagged transactions to the durable review queue.
type ReviewEnqueuer interface {
	Enqueue(ctx context.Context, entry models.SuspiciousEntry) error
}

// AlertDispatcher sends best-effort notifications on flagged or blocked
// events. Implementations must never propagate delivery failures.
type AlertDispatcher interface {
	Dispatch(ctx context.Context, entry models.SuspiciousEntry, reason string)
}

// VelocityService enforces hard ceilings on transaction amount and frequency
// per identifier. It holds no mutable state; all cross-request state lives in
// the counter store.
type VelocityService struct {
	cfg      VelocityConfig
	counters VelocityCounters
	queue    ReviewEnqueuer
	alerts   AlertDispatcher
	now      func() time.Time
}

// NewVelocityService creates a new VelocityService.
func NewVelocityService(cfg VelocityConfig, counters VelocityCounters, queue ReviewEnqueuer, alerts AlertDispatcher) *VelocityService {
	return &VelocityService{
		cfg:      cfg,
		counters: counters,
		queue:    queue,
		alerts:   alerts,
		now:      time.Now,
	}
}

// CheckVelocity runs the ordered ceiling checks. The first failing check
// short-circuits; increments already performed by earlier steps are not
// rolled back, so counters reflect attempted volume, not just allowed volume.
// Any counter-store error is fatal for the request; there is no
// allow-by-default fallback.
func (s *VelocityService) CheckVelocity(ctx context.Context, req models.VelocityCheckRequest) (models.VelocityResult, error) {
	at := s.now()
	if req.Timestamp > 0 {
		at = time.UnixMilli(req.Timestamp)
	} else {
		req.Timestamp = at.UnixMilli()
	}

	// Flag-only threshold. It never blocks by itself and fires regardless of
	// what the blocking checks below decide.
	if req.Amount >= s.cfg.SuspiciousAmountThreshold {
		if err := s.flag(ctx, req, reasonSuspiciousAmount, at); err != nil {
			return models.VelocityResult{}, err
		}
	}

	// Per-transaction amount ceiling. Fails fast before any counter is
	// touched.
	if req.Amount > s.cfg.MaxAmountPerTransaction {
		if err := s.flag(ctx, req, ReasonAmountTooHigh, at); err != nil {
			return models.VelocityResult{}, err
		}
		logger.Log.Warnw("velocity rejection", "reason", ReasonAmountTooHigh, "email", req.Email, "amount", req.Amount)
		return models.VelocityResult{Allowed: false, Reason: ReasonAmountTooHigh}, nil
	}

	// Daily amount ceiling, compared post-increment. The increment stands
	// even when the check rejects.
	dailyTotal, err := s.counters.AddDailyAmount(ctx, req.Email, at, req.Amount)
	if err != nil {
		logger.Log.Errorw("failed to increment daily amount", "email", req.Email, "error", err)
		return models.VelocityResult{}, err
	}
	if dailyTotal > s.cfg.MaxDailyAmount {
		if err := s.flag(ctx, req, ReasonDailyLimit, at); err != nil {
			return models.VelocityResult{}, err
		}
		logger.Log.Warnw("velocity rejection", "reason", ReasonDailyLimit, "email", req.Email, "daily_total", dailyTotal)
		return models.VelocityResult{Allowed: false, Reason: ReasonDailyLimit}, nil
	}

	// Hourly frequency ceiling, read-only at this point.
	hourlyCount, err := s.counters.HourlyCount(ctx, req.Email, at)
	if err != nil {
		logger.Log.Errorw("failed to read hourly count", "email", req.Email, "error", err)
		return models.VelocityResult{}, err
	}
	if hourlyCount >= s.cfg.MaxTransactionsPerHour {
		if err := s.flag(ctx, req, ReasonHourlyLimit, at); err != nil {
			return models.VelocityResult{}, err
		}
		logger.Log.Warnw("velocity rejection", "reason", ReasonHourlyLimit, "email", req.Email, "hourly_count", hourlyCount)
		return models.VelocityResult{Allowed: false, Reason: ReasonHourlyLimit}, nil
	}

	// Daily frequency ceilings for both identifiers. The two increments are
	// independent namespaces; both happen before either ceiling is compared.
	emailCount, err := s.counters.IncrementDailyEmailCount(ctx, req.Email, at)
	if err != nil {
		logger.Log.Errorw("failed to increment daily email count", "email", req.Email, "error", err)
		return models.VelocityResult{}, err
	}
	ipCount, err := s.counters.IncrementDailyIPCount(ctx, req.IP, at)
	if err != nil {
		logger.Log.Errorw("failed to increment daily ip count", "ip", req.IP, "error", err)
		return models.VelocityResult{}, err
	}
	if emailCount > s.cfg.MaxTransactionsPerDayPerEmail {
		if err := s.flag(ctx, req, ReasonEmailDaily, at); err != nil {
			return models.VelocityResult{}, err
		}
		logger.Log.Warnw("velocity rejection", "reason", ReasonEmailDaily, "email", req.Email, "daily_count", emailCount)
		return models.VelocityResult{Allowed: false, Reason: ReasonEmailDaily}, nil
	}
	if ipCount > s.cfg.MaxTransactionsPerDayPerIP {
		if err := s.flag(ctx, req, ReasonIPDaily, at); err != nil {
			return models.VelocityResult{}, err
		}
		logger.Log.Warnw("velocity rejection", "reason", ReasonIPDaily, "ip", req.IP, "daily_count", ipCount)
		return models.VelocityResult{Allowed: false, Reason: ReasonIPDaily}, nil
	}

	if err := s.counters.IncrementHourlyCount(ctx, req.Email, at); err != nil {
		logger.Log.Errorw("failed to increment hourly count", "email", req.Email, "error", err)
		return models.VelocityResult{}, err
	}

	return models.VelocityResult{Allowed: true}, nil
}

// flag appends a review-queue entry and dispatches an alert. A queue failure
// is a counter-store failure and propagates; alert delivery never does.
func (s *VelocityService) flag(ctx context.Context, req models.VelocityCheckRequest, reason string, at time.Time) error {
	entry := models.SuspiciousEntry{
		EntryID:   uuid.NewString(),
		IP:        req.IP,
		Email:     req.Email,
		Amount:    req.Amount,
		Reason:    reason,
		Status:    StatusPendingReview,
		FlaggedAt: at.UnixMilli(),
	}

	if err := s.queue.Enqueue(ctx, entry); err != nil {
		logger.Log.Errorw("failed to enqueue suspicious entry", "reason", reason, "email", req.Email, "error", err)
		return err
	}

	s.alerts.Dispatch(ctx, entry, reason)
	return nil
}
