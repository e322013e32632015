// Package api provides the read-side HTTP handlers for dashboards and
// external collaborators. The API never writes: the pipeline is the sole
// warehouse writer.
package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/BahreHailemariam/Real-Time-Supply-Chain-Analytics-Pipeline/internal/domain"
)

// Default and maximum row counts for the recent-orders endpoint.
const (
	defaultRecentLimit = 50
	maxRecentLimit     = 500
)

// WarehouseReader is the read surface the handlers need.
type WarehouseReader interface {
	ListKPIs(ctx context.Context) ([]domain.KPI, error)
	RecentOrders(ctx context.Context, limit int) ([]domain.OrderRow, error)
}

// KPIHandler serves derived metrics and recent warehouse rows.
type KPIHandler struct {
	repo WarehouseReader
}

// NewKPIHandler creates a new KPI handler.
func NewKPIHandler(repo WarehouseReader) *KPIHandler {
	return &KPIHandler{repo: repo}
}

// KPIResponse is the payload for the KPI endpoint.
type KPIResponse struct {
	KPIs        []domain.KPI `json:"kpis"`
	GeneratedAt time.Time    `json:"generated_at"`
}

// OrderResponse is one order row in the recent-orders payload.
type OrderResponse struct {
	OrderID               string    `json:"order_id"`
	Warehouse             string    `json:"warehouse"`
	Quantity              int       `json:"quantity"`
	OrderPlacedAt         time.Time `json:"order_placed_at"`
	DeliveredAt           time.Time `json:"delivered_at"`
	DeliveryDurationHours float64   `json:"delivery_duration_hours"`
	QualityFlagged        bool      `json:"quality_flagged"`
}

// RecentOrdersResponse is the payload for the recent-orders endpoint.
type RecentOrdersResponse struct {
	Orders      []OrderResponse `json:"orders"`
	GeneratedAt time.Time       `json:"generated_at"`
}

// GetKPIs handles GET /api/v1/kpis. Undefined metrics serialize as JSON
// null values.
func (h *KPIHandler) GetKPIs(c *gin.Context) {
	kpis, queryErr := h.repo.ListKPIs(c.Request.Context())
	if queryErr != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": queryErr.Error()})
		return
	}

	if kpis == nil {
		kpis = []domain.KPI{}
	}

	c.JSON(http.StatusOK, KPIResponse{
		KPIs:        kpis,
		GeneratedAt: time.Now().UTC(),
	})
}

// GetRecentOrders handles GET /api/v1/orders/recent?limit=N.
func (h *KPIHandler) GetRecentOrders(c *gin.Context) {
	limit := defaultRecentLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, parseErr := strconv.Atoi(raw)
		if parseErr != nil || parsed < 1 || parsed > maxRecentLimit {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "limit must be an integer between 1 and " + strconv.Itoa(maxRecentLimit),
			})
			return
		}
		limit = parsed
	}

	orders, queryErr := h.repo.RecentOrders(c.Request.Context(), limit)
	if queryErr != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": queryErr.Error()})
		return
	}

	out := make([]OrderResponse, 0, len(orders))
	for _, order := range orders {
		out = append(out, OrderResponse{
			OrderID:               order.OrderID,
			Warehouse:             order.Warehouse,
			Quantity:              order.Quantity,
			OrderPlacedAt:         order.OrderPlacedAt,
			DeliveredAt:           order.DeliveredAt,
			DeliveryDurationHours: order.DeliveryDurationHours,
			QualityFlagged:        order.QualityFlagged,
		})
	}

	c.JSON(http.StatusOK, RecentOrdersResponse{
		Orders:      out,
		GeneratedAt: time.Now().UTC(),
	})
}
