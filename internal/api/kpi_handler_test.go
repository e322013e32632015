package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BahreHailemariam/Real-Time-Supply-Chain-Analytics-Pipeline/internal/api"
	"github.com/BahreHailemariam/Real-Time-Supply-Chain-Analytics-Pipeline/internal/domain"
)

type stubReader struct {
	kpis    []domain.KPI
	kpisErr error

	orders    []domain.OrderRow
	ordersErr error
	gotLimit  int
}

func (s *stubReader) ListKPIs(_ context.Context) ([]domain.KPI, error) {
	return s.kpis, s.kpisErr
}

func (s *stubReader) RecentOrders(_ context.Context, limit int) ([]domain.OrderRow, error) {
	s.gotLimit = limit
	return s.orders, s.ordersErr
}

func newTestRouter(reader *stubReader) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	api.SetupRoutes(router, api.NewKPIHandler(reader))
	return router
}

func doRequest(router *gin.Engine, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	router.ServeHTTP(w, req)
	return w
}

func floatPtr(v float64) *float64 { return &v }

func TestGetKPIs_ReturnsSnapshot(t *testing.T) {
	reader := &stubReader{kpis: []domain.KPI{
		{Metric: domain.MetricAvgDeliveryHours, Value: floatPtr(20)},
		{Metric: domain.MetricOnTimePct, Value: floatPtr(0.5)},
	}}

	w := doRequest(newTestRouter(reader), "/api/v1/kpis")
	require.Equal(t, http.StatusOK, w.Code)

	var resp api.KPIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.KPIs, 2)
	assert.Equal(t, domain.MetricAvgDeliveryHours, resp.KPIs[0].Metric)
	require.NotNil(t, resp.KPIs[0].Value)
	assert.InDelta(t, 20.0, *resp.KPIs[0].Value, 1e-9)
	assert.False(t, resp.GeneratedAt.IsZero())
}

func TestGetKPIs_UndefinedMetricSerializesAsNull(t *testing.T) {
	reader := &stubReader{kpis: []domain.KPI{
		{Metric: domain.MetricOnTimePct, Value: nil},
	}}

	w := doRequest(newTestRouter(reader), "/api/v1/kpis")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"value":null`)
}

func TestGetKPIs_EmptyWarehouseReturnsEmptyList(t *testing.T) {
	w := doRequest(newTestRouter(&stubReader{}), "/api/v1/kpis")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"kpis":[]`)
}

func TestGetKPIs_QueryErrorReturns500(t *testing.T) {
	reader := &stubReader{kpisErr: errors.New("database is locked")}

	w := doRequest(newTestRouter(reader), "/api/v1/kpis")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "database is locked")
}

func TestGetRecentOrders_DefaultLimit(t *testing.T) {
	placed := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	reader := &stubReader{orders: []domain.OrderRow{{
		OrderID:               "ORD-1",
		Warehouse:             "Addis Central",
		Quantity:              10,
		OrderPlacedAt:         placed,
		DeliveredAt:           placed.Add(10 * time.Hour),
		DeliveryDurationHours: 10,
	}}}

	w := doRequest(newTestRouter(reader), "/api/v1/orders/recent")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 50, reader.gotLimit)

	var resp api.RecentOrdersResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Orders, 1)
	assert.Equal(t, "ORD-1", resp.Orders[0].OrderID)
	assert.InDelta(t, 10.0, resp.Orders[0].DeliveryDurationHours, 1e-9)
}

func TestGetRecentOrders_LimitValidation(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		wantCode int
		wantLim  int
	}{
		{name: "explicit limit", query: "?limit=5", wantCode: http.StatusOK, wantLim: 5},
		{name: "max limit", query: "?limit=500", wantCode: http.StatusOK, wantLim: 500},
		{name: "zero", query: "?limit=0", wantCode: http.StatusBadRequest},
		{name: "negative", query: "?limit=-1", wantCode: http.StatusBadRequest},
		{name: "too large", query: "?limit=501", wantCode: http.StatusBadRequest},
		{name: "not a number", query: "?limit=abc", wantCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := &stubReader{}
			w := doRequest(newTestRouter(reader), "/api/v1/orders/recent"+tt.query)
			assert.Equal(t, tt.wantCode, w.Code)
			if tt.wantCode == http.StatusOK {
				assert.Equal(t, tt.wantLim, reader.gotLimit)
			}
		})
	}
}

func TestGetRecentOrders_EmptyWarehouse(t *testing.T) {
	w := doRequest(newTestRouter(&stubReader{}), "/api/v1/orders/recent")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"orders":[]`)
}
