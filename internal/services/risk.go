package services

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/dmgolubev/riskgate/internal/logger"
	"github.com/dmgolubev/riskgate/internal/models"
)

// Routing thresholds, closed on the lower bound.
const (
	HighRiskThreshold     = 60 // allowed but queued for review
	CriticalRiskThreshold = 80 // rejected outright
)

// Per-heuristic score contributions.
const (
	scoreUnusualAmount    = 25
	scoreMultipleBookings = 20
	scoreUnusualHour      = 15
	scoreUnusualCountry   = 25

	maxRiskScore = 100
)

// Human-readable factor names carried in RiskAssessment.Factors.
const (
	FactorUnusualAmount    = "unusual_amount"
	FactorMultipleBookings = "multiple_bookings"
	FactorUnusualHour      = "unusual_hour"
	FactorUnusualCountry   = "unusual_country"
)

const (
	// frequentBookingCount triggers the frequency heuristic.
	frequentBookingCount = 3

	// Business hours are [6, 22] server-local; anything outside is unusual.
	earliestUsualHour = 6
	latestUsualHour   = 22
)

// TourPriceRange is the expected price interval of a catalog tour, in whole
// currency units.
type TourPriceRange struct {
	Min float64
	Max float64
}

// DefaultTourCatalog returns the static tour price catalog.
func DefaultTourCatalog() map[string]TourPriceRange {
	return map[string]TourPriceRange{
		"morning-tour":        {Min: 400_000, Max: 1_200_000},
		"sunset-cruise":       {Min: 800_000, Max: 2_500_000},
		"island-hopping":      {Min: 1_500_000, Max: 4_000_000},
		"city-walk":           {Min: 150_000, Max: 600_000},
		"trekking-expedition": {Min: 2_000_000, Max: 6_000_000},
	}
}

// DefaultAllowedCountries returns the fixed set of permitted booking origins.
func DefaultAllowedCountries() map[string]struct{} {
	allowed := map[string]struct{}{}
	for _, c := range []string{"VN", "TH", "SG", "MY", "JP", "KR", "AU", "US", "GB", "DE", "FR"} {
		allowed[c] = struct{}{}
	}
	return allowed
}

// BookingHistory is the per-user booking history in the counter store.
type BookingHistory interface {
	CountBookings(ctx context.Context, userID, tourID string) (int64, error)
	Append(ctx context.Context, rec models.TransactionHistoryRecord) error
}

// CountryResolver resolves an IP to a country code. Lookups are advisory and
// may fail; the scorer fails open.
type CountryResolver interface {
	ResolveCountry(ctx context.Context, ip string) (string, error)
}

// AuditWriter persists risk-assessment rows to the relational audit trail.
type AuditWriter interface {
	Save(ctx context.Context, rec models.RiskAuditRecord) error
}

// RiskService produces a deterministic, explainable risk score from four
// independent heuristics and routes the transaction on the result.
type RiskService struct {
	catalog organizedCatalog
	history BookingHistory
	geo     CountryResolver
	queue   ReviewEnqueuer
	alerts  AlertDispatcher
	audit   AuditWriter
	now     func() time.Time
}

type organizedCatalog struct {
	tours   map[string]TourPriceRange
	allowed map[string]struct{}
}

// NewRiskService creates a new RiskService. Nil catalog or allow-list fall
// back to the defaults.
func NewRiskService(
	tours map[string]TourPriceRange,
	allowedCountries map[string]struct{},
	history BookingHistory,
	geo CountryResolver,
	queue ReviewEnqueuer,
	alerts AlertDispatcher,
	audit AuditWriter,
) *RiskService {
	if tours == nil {
		tours = DefaultTourCatalog()
	}
	if allowedCountries == nil {
		allowedCountries = DefaultAllowedCountries()
	}
	return &RiskService{
		catalog: organizedCatalog{tours: tours, allowed: allowedCountries},
		history: history,
		geo:     geo,
		queue:   queue,
		alerts:  alerts,
		audit:   audit,
		now:     time.Now,
	}
}

// Assess computes the additive risk score for a transaction. Factor order is
// irrelevant to the total; the total is clamped at 100. Counter-store errors
// are fatal; geolocation errors are not (the heuristic reads as not
// triggered and the failure is recorded in Details).
func (s *RiskService) Assess(ctx context.Context, req models.AssessmentRequest) (*models.RiskAssessment, error) {
	assessment := &models.RiskAssessment{
		Factors: []string{},
		Details: map[string]any{},
	}

	if unusual, detail := s.checkAmountPlausibility(req.TourID, req.Amount); unusual {
		s.addFactor(assessment, FactorUnusualAmount, scoreUnusualAmount, detail)
	}

	count, err := s.history.CountBookings(ctx, historyUser(req), req.TourID)
	if err != nil {
		logger.Log.Errorw("failed to count prior bookings", "booking_id", req.BookingID, "error", err)
		return nil, err
	}
	if count >= frequentBookingCount {
		s.addFactor(assessment, FactorMultipleBookings, scoreMultipleBookings, map[string]any{
			"previous_bookings": count,
		})
	}

	if hour := s.now().Hour(); hour < earliestUsualHour || hour > latestUsualHour {
		s.addFactor(assessment, FactorUnusualHour, scoreUnusualHour, map[string]any{
			"hour": hour,
		})
	}

	country, err := s.geo.ResolveCountry(ctx, req.IP)
	if err != nil {
		// advisory lookup: fail open, keep the error visible for audit
		assessment.Details["geo_lookup_error"] = err.Error()
		logger.Log.Warnw("geolocation unavailable, skipping geography heuristic", "ip", req.IP, "error", err)
	} else if _, ok := s.catalog.allowed[country]; !ok {
		s.addFactor(assessment, FactorUnusualCountry, scoreUnusualCountry, map[string]any{
			"country": country,
		})
	}

	if assessment.Score > maxRiskScore {
		assessment.Score = maxRiskScore
	}

	return assessment, nil
}

// Evaluate assesses the transaction and applies the routing policy:
// score >= 80 blocks, 60..79 allows with a review-queue entry, below 60
// allows silently. Every path appends a history record; the relational audit
// row is best-effort.
func (s *RiskService) Evaluate(ctx context.Context, req models.AssessmentRequest) (*models.RiskAssessment, models.Decision, error) {
	assessment, err := s.Assess(ctx, req)
	if err != nil {
		return nil, "", err
	}

	decision := models.DecisionAllow
	switch {
	case assessment.Score >= CriticalRiskThreshold:
		decision = models.DecisionBlock
	case assessment.Score >= HighRiskThreshold:
		decision = models.DecisionReview
	}

	at := s.now()

	switch decision {
	case models.DecisionBlock:
		logger.Log.Errorw("critical risk transaction blocked",
			"booking_id", req.BookingID,
			"tour_id", req.TourID,
			"email", req.Email,
			"ip", req.IP,
			"amount", req.Amount,
			"score", assessment.Score,
			"factors", assessment.Factors,
		)
		s.alerts.Dispatch(ctx, s.suspiciousEntry(req, "critical risk score", at), "critical risk score")

	case models.DecisionReview:
		entry := s.suspiciousEntry(req, "high risk score", at)
		if err := s.queue.Enqueue(ctx, entry); err != nil {
			return nil, "", err
		}
		s.alerts.Dispatch(ctx, entry, "high risk score")
	}

	rec := models.TransactionHistoryRecord{
		BookingID:   req.BookingID,
		TourID:      req.TourID,
		UserID:      historyUser(req),
		Email:       req.Email,
		IP:          req.IP,
		Amount:      req.Amount,
		RiskScore:   assessment.Score,
		RiskFactors: assessment.Factors,
		Decision:    decision,
		Timestamp:   at.UnixMilli(),
	}
	if err := s.history.Append(ctx, rec); err != nil {
		logger.Log.Errorw("failed to append history record", "booking_id", req.BookingID, "error", err)
		return nil, "", err
	}

	if s.audit != nil {
		auditRec := models.RiskAuditRecord{
			AuditID:   uuid.New(),
			BookingID: req.BookingID,
			TourID:    req.TourID,
			UserID:    historyUser(req),
			Email:     req.Email,
			IP:        req.IP,
			Amount:    req.Amount,
			Score:     assessment.Score,
			Factors:   assessment.Factors,
			Decision:  decision,
			CreatedAt: at,
		}
		if err := s.audit.Save(ctx, auditRec); err != nil {
			// best-effort trail, same policy class as alert delivery
			logger.Log.Errorw("failed to save risk audit row", "booking_id", req.BookingID, "error", err)
		}
	}

	return assessment, decision, nil
}

// checkAmountPlausibility flags fractional amounts, unknown tours, and
// amounts outside the tour's expected price range. The detail payload carries
// the signed deviation from the range bound, or 0.
func (s *RiskService) checkAmountPlausibility(tourID string, amount float64) (bool, map[string]any) {
	detail := map[string]any{
		"amount":    amount,
		"deviation": 0.0,
	}

	if amount != math.Trunc(amount) {
		detail["fractional"] = true
		return true, detail
	}

	rng, ok := s.catalog.tours[tourID]
	if !ok {
		detail["unknown_tour"] = true
		return true, detail
	}

	if amount < rng.Min || amount > rng.Max {
		if amount < rng.Min {
			detail["deviation"] = amount - rng.Min
		} else {
			detail["deviation"] = amount - rng.Max
		}
		return true, detail
	}

	return false, nil
}

func (s *RiskService) addFactor(a *models.RiskAssessment, name string, weight int, detail map[string]any) {
	a.Score += weight
	a.Factors = append(a.Factors, name)
	a.Details[name] = detail
}

func (s *RiskService) suspiciousEntry(req models.AssessmentRequest, reason string, at time.Time) models.SuspiciousEntry {
	return models.SuspiciousEntry{
		EntryID:   uuid.NewString(),
		BookingID: req.BookingID,
		TourID:    req.TourID,
		UserID:    historyUser(req),
		IP:        req.IP,
		Email:     req.Email,
		Amount:    req.Amount,
		Reason:    reason,
		Status:    StatusPendingReview,
		FlaggedAt: at.UnixMilli(),
	}
}

// historyUser picks the history partition key: explicit user ID when present,
// otherwise the email.
func historyUser(req models.AssessmentRequest) string {
	if req.UserID != "" {
		return req.UserID
	}
	return req.Email
}
