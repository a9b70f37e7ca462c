package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avlasov/paperdock/internal/client/models"
	"github.com/avlasov/paperdock/internal/client/repositories/usage"
	"github.com/avlasov/paperdock/internal/common"
)

func newUsageService(t *testing.T, now time.Time) (*UsageService, usage.Repository) {
	t.Helper()
	db := setupDB(t)
	repo := usage.NewSQLiteRepository(db)
	svc := NewUsageService(repo, nopLogger())
	svc.now = func() time.Time { return now }
	return svc, repo
}

func logN(t *testing.T, svc *UsageService, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		_, err := svc.LogUsage(context.Background(), models.FeatureTagSuggestion, 100, 20, true, models.SubscriptionFree)
		require.NoError(t, err)
	}
}

func TestEstimateCostUsd(t *testing.T) {
	assert.InDelta(t, 0.0, EstimateCostUsd(0, 0), 1e-12)
	assert.InDelta(t, 1_000_000*0.000003, EstimateCostUsd(1_000_000, 0), 1e-9)
	assert.InDelta(t, 0.000003*500+0.000015*200, EstimateCostUsd(500, 200), 1e-12)
	// negative counts never produce negative cost
	assert.InDelta(t, 0.0, EstimateCostUsd(-5, -5), 1e-12)
}

func TestLogUsage_StampsMonthAndCostAtLogTime(t *testing.T) {
	now := time.Date(2026, 8, 30, 9, 30, 0, 0, time.UTC)
	svc, repo := newUsageService(t, now)
	ctx := context.Background()

	id, err := svc.LogUsage(ctx, models.FeatureTitleSuggestion, 1200, 80, true, models.SubscriptionPaid)
	require.NoError(t, err)
	assert.Positive(t, id)

	rows, err := repo.ListForMonth(ctx, "2026-08")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "2026-08", rows[0].SubscriptionMonth)
	assert.Equal(t, models.FeatureTitleSuggestion, rows[0].FeatureType)
	assert.InDelta(t, EstimateCostUsd(1200, 80), rows[0].EstimatedCostUsd, 1e-12)
	assert.Equal(t, models.SubscriptionPaid, rows[0].SubscriptionType)
}

func TestCheckUsageLimit_Thresholds(t *testing.T) {
	cases := []struct {
		count int
		want  models.UsageLimitStatus
	}{
		{0, models.UsageWithinLimits},
		{99, models.UsageWithinLimits},
		{100, models.UsageSoft100},
		{199, models.UsageSoft100},
		{200, models.UsageSoft200},
		{299, models.UsageSoft200},
		{300, models.UsageHardLimitReached},
		{301, models.UsageHardLimitReached},
	}

	for _, tc := range cases {
		t.Run(tc.want.String(), func(t *testing.T) {
			svc, _ := newUsageService(t, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC))
			logN(t, svc, tc.count)

			got, err := svc.CheckUsageLimit(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tc.want, got, "count=%d", tc.count)
		})
	}
}

func TestRemainingCalls_NeverNegative(t *testing.T) {
	svc, _ := newUsageService(t, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC))
	logN(t, svc, 305)

	remaining, err := svc.RemainingCalls(context.Background())
	require.NoError(t, err)
	assert.Zero(t, remaining)

	pct, err := svc.LimitUsagePercentage(context.Background())
	require.NoError(t, err)
	assert.Equal(t, float64(100), pct)

	err = svc.EnsureWithinLimit(context.Background())
	assert.ErrorIs(t, err, common.ErrUsageLimitReached)
}

func TestLimitUsagePercentage_PartialBudget(t *testing.T) {
	svc, _ := newUsageService(t, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC))
	logN(t, svc, 75)

	pct, err := svc.LimitUsagePercentage(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 25.0, pct, 1e-9)

	remaining, err := svc.RemainingCalls(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(225), remaining)
}

func TestMonthBoundary_CountResets(t *testing.T) {
	svc, _ := newUsageService(t, time.Date(2026, 7, 31, 23, 59, 0, 0, time.UTC))
	logN(t, svc, 150)

	// same ledger, next month
	svc.now = func() time.Time { return time.Date(2026, 8, 1, 0, 1, 0, 0, time.UTC) }

	got, err := svc.CheckUsageLimit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.UsageWithinLimits, got)
}

func TestCleanupOldLogs_SecondSweepIsNoop(t *testing.T) {
	start := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	svc, _ := newUsageService(t, start)
	logN(t, svc, 3)

	// jump past the retention window and add one fresh row
	now := start.Add(90 * 24 * time.Hour)
	svc.now = func() time.Time { return now }
	logN(t, svc, 1)

	n, err := svc.CleanupOldLogs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	n, err = svc.CleanupOldLogs(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}
