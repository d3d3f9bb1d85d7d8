package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/tailorly-api/config"
	"github.com/kendall-kelly/tailorly-api/services"
)

// GetDashboardStats handles GET /api/v1/admin/stats.
func GetDashboardStats(c *gin.Context) {
	stats, err := services.NewAdminService(config.GetDB()).Stats(c.Request.Context())
	if err != nil {
		respondError(c, err, "stats")
		return
	}
	respondOK(c, http.StatusOK, stats)
}
