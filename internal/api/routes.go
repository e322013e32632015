package api

import (
	"github.com/gin-gonic/gin"
)

// SetupRoutes configures the read API routes. All endpoints are
// read-only; the warehouse is written exclusively by the ETL pipeline.
func SetupRoutes(router *gin.Engine, kpiHandler *KPIHandler) {
	v1 := router.Group("/api/v1")

	v1.GET("/kpis", kpiHandler.GetKPIs)
	v1.GET("/orders/recent", kpiHandler.GetRecentOrders)
}
