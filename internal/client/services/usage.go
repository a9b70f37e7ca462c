package services

import (
	"context"
	"fmt"
	"time"

	"github.com/avlasov/paperdock/internal/client/models"
	"github.com/avlasov/paperdock/internal/client/repositories/usage"
	"github.com/avlasov/paperdock/internal/common"
	"github.com/avlasov/paperdock/internal/logging"
)

// Monthly call thresholds for the metered AI feature.
const (
	usageSoftLimit100 = 100
	usageSoftLimit200 = 200
	usageHardLimit    = 300
)

// usageRetention is how long ledger rows are kept before the periodic sweep
// removes them.
const usageRetention = 60 * 24 * time.Hour

// Per-token prices in USD, fixed client-side so cost estimation works offline
// and stays deterministic.
const (
	costPerInputToken  = 0.000003
	costPerOutputToken = 0.000015
)

// EstimateCostUsd computes the cost of one AI invocation from its token
// counts. Pure function; the ledger stores its result at log time and never
// recomputes it.
func EstimateCostUsd(inputTokens, outputTokens int64) float64 {
	if inputTokens < 0 {
		inputTokens = 0
	}
	if outputTokens < 0 {
		outputTokens = 0
	}
	return float64(inputTokens)*costPerInputToken + float64(outputTokens)*costPerOutputToken
}

// UsageService accounts metered AI invocations and derives the rate-limit
// tier from the current calendar month's call count.
type UsageService struct {
	ledger usage.Repository
	log    logging.Logger
	now    func() time.Time
}

func NewUsageService(ledger usage.Repository, log logging.Logger) *UsageService {
	return &UsageService{ledger: ledger, log: log, now: time.Now}
}

// LogUsage appends one invocation to the ledger and returns its id. Cost and
// subscription month are derived once, at log time.
func (s *UsageService) LogUsage(ctx context.Context, feature models.AiFeature, inputTokens, outputTokens int64, success bool, sub models.SubscriptionType) (int64, error) {
	now := s.now()
	id, err := s.ledger.Insert(ctx, models.AiUsageLog{
		Timestamp:         now,
		FeatureType:       feature,
		InputTokens:       inputTokens,
		OutputTokens:      outputTokens,
		EstimatedCostUsd:  EstimateCostUsd(inputTokens, outputTokens),
		Success:           success,
		SubscriptionMonth: now.Format("2006-01"),
		SubscriptionType:  sub,
	})
	if err != nil {
		return 0, fmt.Errorf("log usage: %w", err)
	}
	return id, nil
}

// CheckUsageLimit derives the tier from this month's call count.
func (s *UsageService) CheckUsageLimit(ctx context.Context) (models.UsageLimitStatus, error) {
	count, err := s.monthCount(ctx)
	if err != nil {
		return models.UsageWithinLimits, err
	}
	switch {
	case count >= usageHardLimit:
		return models.UsageHardLimitReached, nil
	case count >= usageSoftLimit200:
		return models.UsageSoft200, nil
	case count >= usageSoftLimit100:
		return models.UsageSoft100, nil
	default:
		return models.UsageWithinLimits, nil
	}
}

// EnsureWithinLimit returns common.ErrUsageLimitReached once the hard limit
// is hit, for callers gating an invocation.
func (s *UsageService) EnsureWithinLimit(ctx context.Context) error {
	status, err := s.CheckUsageLimit(ctx)
	if err != nil {
		return err
	}
	if status == models.UsageHardLimitReached {
		return common.ErrUsageLimitReached
	}
	return nil
}

// RemainingCalls reports how many invocations are left this month, clamped
// to [0, 300].
func (s *UsageService) RemainingCalls(ctx context.Context) (int64, error) {
	count, err := s.monthCount(ctx)
	if err != nil {
		return 0, err
	}
	remaining := int64(usageHardLimit) - count
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// LimitUsagePercentage reports how much of the monthly budget is spent,
// clamped to [0, 100].
func (s *UsageService) LimitUsagePercentage(ctx context.Context) (float64, error) {
	count, err := s.monthCount(ctx)
	if err != nil {
		return 0, err
	}
	pct := float64(count) / float64(usageHardLimit) * 100
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	return pct, nil
}

// MonthLogs returns the current month's ledger rows, oldest first.
func (s *UsageService) MonthLogs(ctx context.Context) ([]models.AiUsageLog, error) {
	return s.ledger.ListForMonth(ctx, s.now().Format("2006-01"))
}

// CleanupOldLogs purges ledger rows past the retention window and reports
// how many went away. Safe to run repeatedly; a second sweep is a no-op.
func (s *UsageService) CleanupOldLogs(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-usageRetention).UnixMilli()
	n, err := s.ledger.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("cleanup usage logs: %w", err)
	}
	if n > 0 {
		s.log.Info(ctx, "usage ledger purged", "rows", n)
	}
	return n, nil
}

func (s *UsageService) monthCount(ctx context.Context) (int64, error) {
	count, err := s.ledger.CountForMonth(ctx, s.now().Format("2006-01"))
	if err != nil {
		return 0, fmt.Errorf("count usage: %w", err)
	}
	return count, nil
}
