//nolint:testpackage // Loader tests share the repository test harness
package warehouse

import (
	"context"

	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BahreHailemariam/Real-Time-Supply-Chain-Analytics-Pipeline/internal/domain"
	"github.com/BahreHailemariam/Real-Time-Supply-Chain-Analytics-Pipeline/internal/intake"
	"github.com/BahreHailemariam/Real-Time-Supply-Chain-Analytics-Pipeline/internal/logger"
)

func newProcessedStore(t *testing.T) *intake.FileStore {
	t.Helper()
	store, err := intake.NewFileStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func writeCleanedOrders(t *testing.T, store *intake.FileStore, name string, rows [][]string) {
	t.Helper()
	require.NoError(t, store.WriteBatch(name, domain.KindOrderEvent.CleanedColumns(), rows))
}

func TestLoader_LoadsOrderBatchAndRemovesIt(t *testing.T) {
	repo := newTestRepository(t)
	store := newProcessedStore(t)

	writeCleanedOrders(t, store, "cleaned_orders_msg_1.csv", [][]string{
		{"ORD-1", "Addis Central", "10", "2025-06-01T08:00:00Z", "2025-06-01T18:00:00Z", "10", "false"},
		{"ORD-2", "Adama East", "4", "2025-06-01T09:00:00Z", "2025-06-02T15:00:00Z", "30", "false"},
	})

	loader := NewLoader(store, repo, false, logger.NewNop())
	report, err := loader.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.BatchesLoaded)
	assert.Equal(t, 2, report.RowsLoaded)
	assert.Equal(t, 0, report.Failed)

	orders, queryErr := repo.AllOrders(context.Background())
	require.NoError(t, queryErr)
	assert.Len(t, orders, 2)

	// Removed from processed only after the commit.
	names, _ := store.List()
	assert.Empty(t, names)
}

func TestLoader_RetainKeepsProcessedBatches(t *testing.T) {
	repo := newTestRepository(t)
	store := newProcessedStore(t)

	writeCleanedOrders(t, store, "cleaned_orders_msg_1.csv", [][]string{
		{"ORD-1", "Addis Central", "10", "2025-06-01T08:00:00Z", "2025-06-01T18:00:00Z", "10", "false"},
	})

	loader := NewLoader(store, repo, true, logger.NewNop())
	_, err := loader.Run(context.Background())
	require.NoError(t, err)

	names, _ := store.List()
	assert.Equal(t, []string{"cleaned_orders_msg_1.csv"}, names)
}

func TestLoader_SchemaMismatchFailsOnlyThatBatch(t *testing.T) {
	repo := newTestRepository(t)
	store := newProcessedStore(t)

	// A drifted order batch missing the derived columns.
	require.NoError(t, store.WriteBatch("cleaned_orders_old.csv",
		[]string{"order_id", "warehouse", "quantity"},
		[][]string{{"ORD-9", "Addis Central", "1"}},
	))
	writeCleanedOrders(t, store, "cleaned_orders_msg_1.csv", [][]string{
		{"ORD-1", "Addis Central", "10", "2025-06-01T08:00:00Z", "2025-06-01T18:00:00Z", "10", "false"},
	})

	loader := NewLoader(store, repo, false, logger.NewNop())
	report, err := loader.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, report.BatchesLoaded)
	assert.Equal(t, 1, report.Failed)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, "cleaned_orders_old.csv", report.Failures[0].Batch)
	assert.Contains(t, report.Failures[0].Reason, "schema mismatch")

	// The drifted batch stays in the processed store for remediation.
	names, _ := store.List()
	assert.Equal(t, []string{"cleaned_orders_old.csv"}, names)

	orders, queryErr := repo.AllOrders(context.Background())
	require.NoError(t, queryErr)
	assert.Len(t, orders, 1)
}

func TestLoader_UnexpectedExtraColumnFailsBatch(t *testing.T) {
	repo := newTestRepository(t)
	store := newProcessedStore(t)

	// An upstream contract change grew the cleaned order schema.
	header := append(domain.KindOrderEvent.CleanedColumns(), "region")
	require.NoError(t, store.WriteBatch("cleaned_orders_msg_1.csv", header, [][]string{
		{"ORD-1", "Addis Central", "10", "2025-06-01T08:00:00Z", "2025-06-01T18:00:00Z", "10", "false", "north"},
	}))

	loader := NewLoader(store, repo, false, logger.NewNop())
	report, err := loader.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, report.BatchesLoaded)
	assert.Equal(t, 1, report.Failed)
	require.Len(t, report.Failures, 1)
	assert.Contains(t, report.Failures[0].Reason, "unexpected columns [region]")

	names, _ := store.List()
	assert.Equal(t, []string{"cleaned_orders_msg_1.csv"}, names)

	orders, queryErr := repo.AllOrders(context.Background())
	require.NoError(t, queryErr)
	assert.Empty(t, orders)
}

func TestLoader_LoadsDensityBatch(t *testing.T) {
	repo := newTestRepository(t)
	store := newProcessedStore(t)

	require.NoError(t, store.WriteBatch("cleaned_route_density_msg_1.csv",
		domain.KindDensityEvent.CleanedColumns(),
		[][]string{
			{"2025-06-01T08:00:00Z", "RT-01", "14.2"},
			{"2025-06-01T09:00:00Z", "RT-02", "9.8"},
		},
	))

	loader := NewLoader(store, repo, false, logger.NewNop())
	report, err := loader.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, report.RowsLoaded)

	count, countErr := repo.CountDensity(context.Background())
	require.NoError(t, countErr)
	assert.Equal(t, 2, count)
}

func TestLoader_EmptyProcessedStoreIsNoOp(t *testing.T) {
	repo := newTestRepository(t)
	store := newProcessedStore(t)

	loader := NewLoader(store, repo, false, logger.NewNop())
	report, err := loader.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, report.BatchesLoaded)
	assert.Equal(t, 0, report.RowsLoaded)
}
