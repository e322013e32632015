package aggregator_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BahreHailemariam/Real-Time-Supply-Chain-Analytics-Pipeline/internal/aggregator"
	"github.com/BahreHailemariam/Real-Time-Supply-Chain-Analytics-Pipeline/internal/domain"
	"github.com/BahreHailemariam/Real-Time-Supply-Chain-Analytics-Pipeline/internal/logger"
)

type fakeRepository struct {
	orders     []domain.OrderRow
	ordersErr  error
	replaceErr error

	replaced [][]domain.KPI
}

func (f *fakeRepository) AllOrders(_ context.Context) ([]domain.OrderRow, error) {
	return f.orders, f.ordersErr
}

func (f *fakeRepository) ReplaceKPIs(_ context.Context, kpis []domain.KPI) error {
	if f.replaceErr != nil {
		return f.replaceErr
	}
	f.replaced = append(f.replaced, kpis)
	return nil
}

func order(hours float64, flagged bool) domain.OrderRow {
	return domain.OrderRow{
		OrderID:               "ORD-1",
		Warehouse:             "Addis Central",
		Quantity:              1,
		DeliveryDurationHours: hours,
		QualityFlagged:        flagged,
	}
}

func kpiValues(t *testing.T, kpis []domain.KPI) (onTimePct, avgHours *float64) {
	t.Helper()
	require.Len(t, kpis, 2)
	for _, kpi := range kpis {
		switch kpi.Metric {
		case domain.MetricOnTimePct:
			onTimePct = kpi.Value
		case domain.MetricAvgDeliveryHours:
			avgHours = kpi.Value
		default:
			t.Fatalf("unexpected metric %q", kpi.Metric)
		}
	}
	return onTimePct, avgHours
}

func TestAggregator_ComputesKPIsOverValidOrders(t *testing.T) {
	repo := &fakeRepository{orders: []domain.OrderRow{
		order(10, false),
		order(30, false),
	}}

	agg := aggregator.New(repo, 24, logger.NewNop())
	replaced, err := agg.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, replaced)

	require.Len(t, repo.replaced, 1)
	onTimePct, avgHours := kpiValues(t, repo.replaced[0])
	require.NotNil(t, onTimePct)
	require.NotNil(t, avgHours)
	assert.InDelta(t, 0.5, *onTimePct, 1e-9)
	assert.InDelta(t, 20.0, *avgHours, 1e-9)
}

func TestAggregator_FlaggedOrdersExcluded(t *testing.T) {
	repo := &fakeRepository{orders: []domain.OrderRow{
		order(12, false),
		order(-24, true),
	}}

	agg := aggregator.New(repo, 24, logger.NewNop())
	replaced, err := agg.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, replaced)

	onTimePct, avgHours := kpiValues(t, repo.replaced[0])
	require.NotNil(t, onTimePct)
	require.NotNil(t, avgHours)
	assert.InDelta(t, 1.0, *onTimePct, 1e-9)
	assert.InDelta(t, 12.0, *avgHours, 1e-9)
}

func TestAggregator_AllFlaggedWritesNulls(t *testing.T) {
	repo := &fakeRepository{orders: []domain.OrderRow{
		order(-5, true),
		order(-1, true),
	}}

	agg := aggregator.New(repo, 24, logger.NewNop())
	replaced, err := agg.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, replaced)

	onTimePct, avgHours := kpiValues(t, repo.replaced[0])
	assert.Nil(t, onTimePct)
	assert.Nil(t, avgHours)
}

func TestAggregator_NoOrdersKeepsPreviousSnapshot(t *testing.T) {
	repo := &fakeRepository{}

	agg := aggregator.New(repo, 24, logger.NewNop())
	replaced, err := agg.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, replaced)
	assert.Empty(t, repo.replaced)
}

func TestAggregator_ExactThresholdCountsOnTime(t *testing.T) {
	repo := &fakeRepository{orders: []domain.OrderRow{order(24, false)}}

	agg := aggregator.New(repo, 24, logger.NewNop())
	_, err := agg.Run(context.Background())
	require.NoError(t, err)

	onTimePct, _ := kpiValues(t, repo.replaced[0])
	require.NotNil(t, onTimePct)
	assert.InDelta(t, 1.0, *onTimePct, 1e-9)
}

func TestAggregator_ZeroThresholdFallsBackToDefault(t *testing.T) {
	repo := &fakeRepository{orders: []domain.OrderRow{order(20, false)}}

	agg := aggregator.New(repo, 0, logger.NewNop())
	_, err := agg.Run(context.Background())
	require.NoError(t, err)

	onTimePct, _ := kpiValues(t, repo.replaced[0])
	require.NotNil(t, onTimePct)
	assert.InDelta(t, 1.0, *onTimePct, 1e-9)
}

func TestAggregator_PropagatesRepositoryErrors(t *testing.T) {
	queryErr := errors.New("database is locked")
	repo := &fakeRepository{ordersErr: queryErr}

	agg := aggregator.New(repo, 24, logger.NewNop())
	replaced, err := agg.Run(context.Background())
	require.ErrorIs(t, err, queryErr)
	assert.False(t, replaced)
}
