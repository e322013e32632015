package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/BahreHailemariam/Real-Time-Supply-Chain-Analytics-Pipeline/internal/domain"
)

// Repository handles all warehouse table operations.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a repository over the given database handle.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Ping checks database connectivity.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// UpsertOrders writes order rows keyed by order_id in one transaction.
// An existing row with the same key is replaced, which supports
// correcting late-arriving delivery confirmations and makes reloading an
// overlapping batch safe under retries. Duplicates within the slice
// resolve to the last-seen row.
func (r *Repository) UpsertOrders(ctx context.Context, rows []domain.OrderRow) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	tx, txErr := r.db.BeginTx(ctx, nil)
	if txErr != nil {
		return 0, fmt.Errorf("begin orders tx: %w", txErr)
	}
	defer tx.Rollback()

	const query = `
		INSERT INTO orders
			(order_id, warehouse, quantity, order_placed_at, delivered_at, delivery_duration_hours, quality_flag)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (order_id) DO UPDATE SET
			warehouse               = excluded.warehouse,
			quantity                = excluded.quantity,
			order_placed_at         = excluded.order_placed_at,
			delivered_at            = excluded.delivered_at,
			delivery_duration_hours = excluded.delivery_duration_hours,
			quality_flag            = excluded.quality_flag
	`

	stmt, prepErr := tx.PrepareContext(ctx, query)
	if prepErr != nil {
		return 0, fmt.Errorf("prepare orders upsert: %w", prepErr)
	}
	defer stmt.Close()

	for _, row := range rows {
		_, execErr := stmt.ExecContext(ctx,
			row.OrderID,
			row.Warehouse,
			row.Quantity,
			row.OrderPlacedAt.UTC().Format(domain.TimeFormat),
			row.DeliveredAt.UTC().Format(domain.TimeFormat),
			row.DeliveryDurationHours,
			row.QualityFlagged,
		)
		if execErr != nil {
			return 0, fmt.Errorf("upsert order %s: %w", row.OrderID, execErr)
		}
	}

	if commitErr := tx.Commit(); commitErr != nil {
		return 0, fmt.Errorf("commit orders tx: %w", commitErr)
	}

	return len(rows), nil
}

// AppendDensity appends route density rows in one transaction. Density
// events have no natural key and are never deduplicated.
func (r *Repository) AppendDensity(ctx context.Context, rows []domain.DensityRow) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	tx, txErr := r.db.BeginTx(ctx, nil)
	if txErr != nil {
		return 0, fmt.Errorf("begin density tx: %w", txErr)
	}
	defer tx.Rollback()

	const query = `
		INSERT INTO route_density (timestamp, route_id, vehicles_per_km)
		VALUES (?, ?, ?)
	`

	stmt, prepErr := tx.PrepareContext(ctx, query)
	if prepErr != nil {
		return 0, fmt.Errorf("prepare density insert: %w", prepErr)
	}
	defer stmt.Close()

	for _, row := range rows {
		_, execErr := stmt.ExecContext(ctx,
			row.Timestamp.UTC().Format(domain.TimeFormat),
			row.RouteID,
			row.VehiclesPerKM,
		)
		if execErr != nil {
			return 0, fmt.Errorf("append density row: %w", execErr)
		}
	}

	if commitErr := tx.Commit(); commitErr != nil {
		return 0, fmt.Errorf("commit density tx: %w", commitErr)
	}

	return len(rows), nil
}

// AllOrders returns the full orders table. The aggregator recomputes
// every KPI from scratch over this scan; fine at current volumes.
func (r *Repository) AllOrders(ctx context.Context) ([]domain.OrderRow, error) {
	const query = `
		SELECT order_id, warehouse, quantity, order_placed_at, delivered_at,
		       delivery_duration_hours, quality_flag
		FROM orders
	`

	rows, queryErr := r.db.QueryContext(ctx, query)
	if queryErr != nil {
		return nil, fmt.Errorf("query orders: %w", queryErr)
	}
	defer rows.Close()

	return scanOrders(rows)
}

// RecentOrders returns the most recently placed orders, newest first.
func (r *Repository) RecentOrders(ctx context.Context, limit int) ([]domain.OrderRow, error) {
	const query = `
		SELECT order_id, warehouse, quantity, order_placed_at, delivered_at,
		       delivery_duration_hours, quality_flag
		FROM orders
		ORDER BY order_placed_at DESC
		LIMIT ?
	`

	rows, queryErr := r.db.QueryContext(ctx, query, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("query recent orders: %w", queryErr)
	}
	defer rows.Close()

	return scanOrders(rows)
}

func scanOrders(rows *sql.Rows) ([]domain.OrderRow, error) {
	var out []domain.OrderRow
	for rows.Next() {
		var (
			row                   domain.OrderRow
			placedAt, deliveredAt string
		)
		if scanErr := rows.Scan(
			&row.OrderID, &row.Warehouse, &row.Quantity,
			&placedAt, &deliveredAt,
			&row.DeliveryDurationHours, &row.QualityFlagged,
		); scanErr != nil {
			return nil, fmt.Errorf("scan order row: %w", scanErr)
		}

		var parseErr error
		if row.OrderPlacedAt, parseErr = time.Parse(domain.TimeFormat, placedAt); parseErr != nil {
			return nil, fmt.Errorf("parse order_placed_at: %w", parseErr)
		}
		if row.DeliveredAt, parseErr = time.Parse(domain.TimeFormat, deliveredAt); parseErr != nil {
			return nil, fmt.Errorf("parse delivered_at: %w", parseErr)
		}

		out = append(out, row)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("order rows: %w", rowsErr)
	}

	return out, nil
}

// CountDensity returns the number of route density rows.
func (r *Repository) CountDensity(ctx context.Context) (int, error) {
	var count int
	if scanErr := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM route_density`).Scan(&count); scanErr != nil {
		return 0, fmt.Errorf("count density rows: %w", scanErr)
	}
	return count, nil
}

// ReplaceKPIs replaces the KPI table wholesale in one transaction, so
// concurrent readers observe either the previous complete snapshot or
// the next one, never a partial or empty table.
func (r *Repository) ReplaceKPIs(ctx context.Context, kpis []domain.KPI) error {
	tx, txErr := r.db.BeginTx(ctx, nil)
	if txErr != nil {
		return fmt.Errorf("begin kpis tx: %w", txErr)
	}
	defer tx.Rollback()

	if _, deleteErr := tx.ExecContext(ctx, `DELETE FROM kpis`); deleteErr != nil {
		return fmt.Errorf("clear kpis: %w", deleteErr)
	}

	const query = `INSERT INTO kpis (metric, value) VALUES (?, ?)`
	for _, kpi := range kpis {
		var value any
		if kpi.Value != nil {
			value = *kpi.Value
		}
		if _, insertErr := tx.ExecContext(ctx, query, kpi.Metric, value); insertErr != nil {
			return fmt.Errorf("insert kpi %s: %w", kpi.Metric, insertErr)
		}
	}

	if commitErr := tx.Commit(); commitErr != nil {
		return fmt.Errorf("commit kpis tx: %w", commitErr)
	}

	return nil
}

// ListKPIs returns the current KPI snapshot.
func (r *Repository) ListKPIs(ctx context.Context) ([]domain.KPI, error) {
	rows, queryErr := r.db.QueryContext(ctx, `SELECT metric, value FROM kpis ORDER BY metric`)
	if queryErr != nil {
		return nil, fmt.Errorf("query kpis: %w", queryErr)
	}
	defer rows.Close()

	var out []domain.KPI
	for rows.Next() {
		var (
			kpi   domain.KPI
			value sql.NullFloat64
		)
		if scanErr := rows.Scan(&kpi.Metric, &value); scanErr != nil {
			return nil, fmt.Errorf("scan kpi row: %w", scanErr)
		}
		if value.Valid {
			v := value.Float64
			kpi.Value = &v
		}
		out = append(out, kpi)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("kpi rows: %w", rowsErr)
	}

	return out, nil
}
