// Package aggregator recomputes the KPI snapshot from the accumulated
// warehouse history. Every metric is independently recomputed over the
// full orders table on each run; there is no incremental state.
package aggregator

import (
	"context"

	"github.com/BahreHailemariam/Real-Time-Supply-Chain-Analytics-Pipeline/internal/domain"
	"github.com/BahreHailemariam/Real-Time-Supply-Chain-Analytics-Pipeline/internal/logger"
)

// DefaultOnTimeThresholdHours is the delivery duration at or under which
// an order counts as on time.
const DefaultOnTimeThresholdHours = 24.0

// Repository is the warehouse surface the aggregator needs.
type Repository interface {
	AllOrders(ctx context.Context) ([]domain.OrderRow, error)
	ReplaceKPIs(ctx context.Context, kpis []domain.KPI) error
}

// Aggregator derives the KPI table from the orders table.
type Aggregator struct {
	repo           Repository
	thresholdHours float64
	log            logger.Logger
}

// New creates an aggregator. A zero or negative threshold falls back to
// the default.
func New(repo Repository, thresholdHours float64, log logger.Logger) *Aggregator {
	if thresholdHours <= 0 {
		thresholdHours = DefaultOnTimeThresholdHours
	}
	return &Aggregator{
		repo:           repo,
		thresholdHours: thresholdHours,
		log:            log,
	}
}

// Run recomputes on_time_pct and avg_delivery_hours over all orders with
// a valid (unflagged) delivery duration and atomically replaces the KPI
// table. It reports whether the table was replaced.
//
// With no orders in the warehouse at all the run is a no-op: the KPI
// table keeps its last valid snapshot rather than being reset just
// because this cycle saw no data. A warehouse that has never held an
// order therefore reads as an absent snapshot, not as NULL metrics;
// NULLs are reserved for the case where orders exist but none are
// valid, so a division by zero is never possible.
func (a *Aggregator) Run(ctx context.Context) (bool, error) {
	orders, queryErr := a.repo.AllOrders(ctx)
	if queryErr != nil {
		return false, queryErr
	}

	if len(orders) == 0 {
		a.log.Info("No orders in warehouse, keeping previous KPI snapshot")
		return false, nil
	}

	var (
		valid  int
		onTime int
		total  float64
	)
	for _, order := range orders {
		if order.QualityFlagged {
			continue
		}
		valid++
		total += order.DeliveryDurationHours
		if order.DeliveryDurationHours <= a.thresholdHours {
			onTime++
		}
	}

	var onTimePct, avgHours *float64
	if valid > 0 {
		pct := float64(onTime) / float64(valid)
		avg := total / float64(valid)
		onTimePct, avgHours = &pct, &avg
	}

	kpis := []domain.KPI{
		{Metric: domain.MetricOnTimePct, Value: onTimePct},
		{Metric: domain.MetricAvgDeliveryHours, Value: avgHours},
	}

	if replaceErr := a.repo.ReplaceKPIs(ctx, kpis); replaceErr != nil {
		return false, replaceErr
	}

	a.log.Info("KPI snapshot replaced",
		logger.Int("orders", len(orders)),
		logger.Int("valid", valid),
		logger.Int("on_time", onTime),
	)

	return true, nil
}
