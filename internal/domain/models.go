// Package domain contains the core domain models for the supply chain
// analytics pipeline.
package domain

import (
	"fmt"
	"strconv"
	"time"
)

// RecordKind identifies the schema family of a batch. The set is closed:
// adding a kind is a deliberate code change, never an inferred guess.
type RecordKind string

const (
	// KindOrderEvent is a batch of order lifecycle records.
	KindOrderEvent RecordKind = "order_event"
	// KindDensityEvent is a batch of route density measurements.
	KindDensityEvent RecordKind = "density_event"
)

// validKinds maps every recognised RecordKind value to true for O(1) lookup.
var validKinds = map[RecordKind]bool{
	KindOrderEvent:   true,
	KindDensityEvent: true,
}

// kindCount is the number of record kinds (used for pre-allocation).
const kindCount = 2

// AllKinds returns all record kinds in a stable order.
func AllKinds() []RecordKind {
	kinds := make([]RecordKind, 0, kindCount)
	kinds = append(kinds, KindOrderEvent, KindDensityEvent)
	return kinds
}

// IsValid reports whether k is a recognised record kind.
func (k RecordKind) IsValid() bool {
	return validKinds[k]
}

// IdentifyingColumn returns the column whose presence marks a batch as
// belonging to this kind.
func (k RecordKind) IdentifyingColumn() string {
	switch k {
	case KindOrderEvent:
		return ColumnOrderID
	case KindDensityEvent:
		return ColumnRouteID
	default:
		return ""
	}
}

// Column names shared across the pipeline stages.
const (
	ColumnOrderID          = "order_id"
	ColumnWarehouse        = "warehouse"
	ColumnQuantity         = "quantity"
	ColumnOrderPlacedAt    = "order_placed_at"
	ColumnDeliveredAt      = "delivered_at"
	ColumnDeliveryDuration = "delivery_duration_hours"
	ColumnQualityFlag      = "quality_flag"
	ColumnTimestamp        = "timestamp"
	ColumnRouteID          = "route_id"
	ColumnVehiclesPerKM    = "vehicles_per_km"
)

// CleanedColumns returns the canonical column set of a cleaned batch of
// this kind, in storage order.
func (k RecordKind) CleanedColumns() []string {
	switch k {
	case KindOrderEvent:
		return []string{
			ColumnOrderID, ColumnWarehouse, ColumnQuantity,
			ColumnOrderPlacedAt, ColumnDeliveredAt,
			ColumnDeliveryDuration, ColumnQualityFlag,
		}
	case KindDensityEvent:
		return []string{ColumnTimestamp, ColumnRouteID, ColumnVehiclesPerKM}
	default:
		return nil
	}
}

// TimestampColumns returns the raw columns of this kind that must parse
// as timestamps during cleaning.
func (k RecordKind) TimestampColumns() []string {
	switch k {
	case KindOrderEvent:
		return []string{ColumnOrderPlacedAt, ColumnDeliveredAt}
	case KindDensityEvent:
		return []string{ColumnTimestamp}
	default:
		return nil
	}
}

// TimeFormat is the canonical temporal representation used in cleaned
// batches and warehouse tables.
const TimeFormat = time.RFC3339

// Batch is an immutable ordered sequence of tabular records sharing one
// schema, identified by its origin file name.
type Batch struct {
	Name      string
	Header    []string
	Rows      [][]string
	ArrivedAt time.Time
}

// CleanedBatch is a batch after classification, normalization and
// derived-field computation. Its name derives deterministically from the
// source batch so a re-run recognises already-processed batches.
type CleanedBatch struct {
	Name       string
	SourceName string
	Kind       RecordKind
	Header     []string
	Rows       [][]string
}

// CleanedName returns the processed-store name for a source batch.
func CleanedName(source string) string {
	return "cleaned_" + source
}

// OrderRow is one typed order event row from a cleaned batch.
type OrderRow struct {
	OrderID               string
	Warehouse             string
	Quantity              int
	OrderPlacedAt         time.Time
	DeliveredAt           time.Time
	DeliveryDurationHours float64
	QualityFlagged        bool
}

// DensityRow is one typed route density row from a cleaned batch.
type DensityRow struct {
	Timestamp     time.Time
	RouteID       string
	VehiclesPerKM float64
}

// OrderRows decodes the rows of a cleaned order batch into typed records.
// The header must already match KindOrderEvent.CleanedColumns().
func OrderRows(header []string, rows [][]string) ([]OrderRow, error) {
	idx, idxErr := columnIndex(header, KindOrderEvent.CleanedColumns())
	if idxErr != nil {
		return nil, idxErr
	}

	out := make([]OrderRow, 0, len(rows))
	for i, row := range rows {
		quantity, qtyErr := strconv.Atoi(row[idx[ColumnQuantity]])
		if qtyErr != nil {
			return nil, fmt.Errorf("row %d: parse quantity: %w", i, qtyErr)
		}

		placedAt, placedErr := time.Parse(TimeFormat, row[idx[ColumnOrderPlacedAt]])
		if placedErr != nil {
			return nil, fmt.Errorf("row %d: parse %s: %w", i, ColumnOrderPlacedAt, placedErr)
		}

		deliveredAt, deliveredErr := time.Parse(TimeFormat, row[idx[ColumnDeliveredAt]])
		if deliveredErr != nil {
			return nil, fmt.Errorf("row %d: parse %s: %w", i, ColumnDeliveredAt, deliveredErr)
		}

		duration, durationErr := strconv.ParseFloat(row[idx[ColumnDeliveryDuration]], 64)
		if durationErr != nil {
			return nil, fmt.Errorf("row %d: parse %s: %w", i, ColumnDeliveryDuration, durationErr)
		}

		out = append(out, OrderRow{
			OrderID:               row[idx[ColumnOrderID]],
			Warehouse:             row[idx[ColumnWarehouse]],
			Quantity:              quantity,
			OrderPlacedAt:         placedAt,
			DeliveredAt:           deliveredAt,
			DeliveryDurationHours: duration,
			QualityFlagged:        row[idx[ColumnQualityFlag]] == "true",
		})
	}

	return out, nil
}

// DensityRows decodes the rows of a cleaned density batch into typed records.
func DensityRows(header []string, rows [][]string) ([]DensityRow, error) {
	idx, idxErr := columnIndex(header, KindDensityEvent.CleanedColumns())
	if idxErr != nil {
		return nil, idxErr
	}

	out := make([]DensityRow, 0, len(rows))
	for i, row := range rows {
		ts, tsErr := time.Parse(TimeFormat, row[idx[ColumnTimestamp]])
		if tsErr != nil {
			return nil, fmt.Errorf("row %d: parse %s: %w", i, ColumnTimestamp, tsErr)
		}

		density, densityErr := strconv.ParseFloat(row[idx[ColumnVehiclesPerKM]], 64)
		if densityErr != nil {
			return nil, fmt.Errorf("row %d: parse %s: %w", i, ColumnVehiclesPerKM, densityErr)
		}

		out = append(out, DensityRow{
			Timestamp:     ts,
			RouteID:       row[idx[ColumnRouteID]],
			VehiclesPerKM: density,
		})
	}

	return out, nil
}

// columnIndex maps each wanted column to its position in header.
func columnIndex(header, wanted []string) (map[string]int, error) {
	positions := make(map[string]int, len(header))
	for i, col := range header {
		positions[col] = i
	}

	idx := make(map[string]int, len(wanted))
	for _, col := range wanted {
		pos, ok := positions[col]
		if !ok {
			return nil, fmt.Errorf("missing column %q", col)
		}
		idx[col] = pos
	}

	return idx, nil
}

// Metric names written by the aggregator.
const (
	// MetricOnTimePct is the fraction of valid orders delivered within
	// the on-time threshold.
	MetricOnTimePct = "on_time_pct"
	// MetricAvgDeliveryHours is the mean delivery duration of valid orders.
	MetricAvgDeliveryHours = "avg_delivery_hours"
)

// KPI is one named scalar metric. A nil Value means the metric is
// undefined (for example, no valid orders yet).
type KPI struct {
	Metric string   `json:"metric"`
	Value  *float64 `json:"value"`
}
