// Package cleaner normalizes classified batches and attaches derived
// fields. Cleaning is pure: reading and writing batches is the sweeper's
// responsibility.
package cleaner

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/BahreHailemariam/Real-Time-Supply-Chain-Analytics-Pipeline/internal/domain"
)

// timeLayouts are the accepted inbound timestamp layouts, tried in order.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Clean produces a cleaned batch from a classified one: column names are
// trimmed, every timestamp field is parsed into the canonical
// representation, and kind-specific derived fields are computed.
//
// Any unparseable timestamp rejects the whole batch with a
// domain.MalformedTimestampError naming the offending column and row; a
// single bad row must not be silently coerced.
func Clean(batch *domain.Batch, kind domain.RecordKind) (*domain.CleanedBatch, error) {
	if !kind.IsValid() {
		return nil, fmt.Errorf("clean %s: unrecognised kind %q", batch.Name, kind)
	}

	header := make([]string, len(batch.Header))
	for i, col := range batch.Header {
		header[i] = strings.TrimSpace(col)
	}

	var (
		rows     [][]string
		cleanErr error
	)

	switch kind {
	case domain.KindOrderEvent:
		rows, cleanErr = cleanOrderRows(header, batch.Rows)
	case domain.KindDensityEvent:
		rows, cleanErr = cleanDensityRows(header, batch.Rows)
	}
	if cleanErr != nil {
		return nil, fmt.Errorf("clean %s: %w", batch.Name, cleanErr)
	}

	return &domain.CleanedBatch{
		Name:       domain.CleanedName(batch.Name),
		SourceName: batch.Name,
		Kind:       kind,
		Header:     kind.CleanedColumns(),
		Rows:       rows,
	}, nil
}

// cleanOrderRows normalizes order event rows and computes
// delivery_duration_hours. A negative duration means an upstream clock or
// data error: the row is kept but marked with the quality flag so
// downstream consumers can apply their own policy.
func cleanOrderRows(header []string, raw [][]string) ([][]string, error) {
	idx, idxErr := requireColumns(header, []string{
		domain.ColumnOrderID, domain.ColumnWarehouse, domain.ColumnQuantity,
		domain.ColumnOrderPlacedAt, domain.ColumnDeliveredAt,
	})
	if idxErr != nil {
		return nil, idxErr
	}

	rows := make([][]string, 0, len(raw))
	for i, row := range raw {
		placedAt, placedErr := parseTimestamp(row[idx[domain.ColumnOrderPlacedAt]])
		if placedErr != nil {
			return nil, &domain.MalformedTimestampError{
				Column: domain.ColumnOrderPlacedAt,
				Row:    i + 1,
				Value:  row[idx[domain.ColumnOrderPlacedAt]],
			}
		}

		deliveredAt, deliveredErr := parseTimestamp(row[idx[domain.ColumnDeliveredAt]])
		if deliveredErr != nil {
			return nil, &domain.MalformedTimestampError{
				Column: domain.ColumnDeliveredAt,
				Row:    i + 1,
				Value:  row[idx[domain.ColumnDeliveredAt]],
			}
		}

		quantity := strings.TrimSpace(row[idx[domain.ColumnQuantity]])
		if _, qtyErr := strconv.Atoi(quantity); qtyErr != nil {
			return nil, fmt.Errorf("row %d: quantity %q is not an integer", i+1, quantity)
		}

		durationHours := deliveredAt.Sub(placedAt).Hours()
		flagged := durationHours < 0

		rows = append(rows, []string{
			strings.TrimSpace(row[idx[domain.ColumnOrderID]]),
			strings.TrimSpace(row[idx[domain.ColumnWarehouse]]),
			quantity,
			placedAt.UTC().Format(domain.TimeFormat),
			deliveredAt.UTC().Format(domain.TimeFormat),
			strconv.FormatFloat(durationHours, 'f', -1, 64),
			strconv.FormatBool(flagged),
		})
	}

	return rows, nil
}

// cleanDensityRows normalizes route density rows. Density events carry no
// natural key and no derived fields.
func cleanDensityRows(header []string, raw [][]string) ([][]string, error) {
	idx, idxErr := requireColumns(header, []string{
		domain.ColumnTimestamp, domain.ColumnRouteID, domain.ColumnVehiclesPerKM,
	})
	if idxErr != nil {
		return nil, idxErr
	}

	rows := make([][]string, 0, len(raw))
	for i, row := range raw {
		ts, tsErr := parseTimestamp(row[idx[domain.ColumnTimestamp]])
		if tsErr != nil {
			return nil, &domain.MalformedTimestampError{
				Column: domain.ColumnTimestamp,
				Row:    i + 1,
				Value:  row[idx[domain.ColumnTimestamp]],
			}
		}

		density := strings.TrimSpace(row[idx[domain.ColumnVehiclesPerKM]])
		if _, densityErr := strconv.ParseFloat(density, 64); densityErr != nil {
			return nil, fmt.Errorf("row %d: %s %q is not numeric", i+1, domain.ColumnVehiclesPerKM, density)
		}

		rows = append(rows, []string{
			ts.UTC().Format(domain.TimeFormat),
			strings.TrimSpace(row[idx[domain.ColumnRouteID]]),
			density,
		})
	}

	return rows, nil
}

// parseTimestamp tries the accepted layouts in order.
func parseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", value)
}

// requireColumns maps each wanted column to its header position.
func requireColumns(header, wanted []string) (map[string]int, error) {
	positions := make(map[string]int, len(header))
	for i, col := range header {
		positions[col] = i
	}

	idx := make(map[string]int, len(wanted))
	missing := make([]string, 0)
	for _, col := range wanted {
		pos, ok := positions[col]
		if !ok {
			missing = append(missing, col)
			continue
		}
		idx[col] = pos
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("missing columns [%s]", strings.Join(missing, ", "))
	}

	return idx, nil
}
