package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"license-service/internal/services"
)

// StatsHandler handles usage stats ingestion and retrieval
type StatsHandler struct {
	statsService *services.StatsService
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(statsService *services.StatsService) *StatsHandler {
	return &StatsHandler{statsService: statsService}
}

// Report ingests a usage report from a booking app instance. The license key
// in the payload is the credential; this endpoint is not admin-authenticated.
// @Summary Report usage stats
// @Description Upserts an organization's usage snapshot and bumps its heartbeat
// @Tags stats
// @Accept json
// @Produce json
// @Param request body services.ReportStatsRequest true "Stats report"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/stats/report [post]
func (h *StatsHandler) Report(c *gin.Context) {
	var req services.ReportStatsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, "license_key and stats are required", err)
		return
	}

	stats, err := h.statsService.Report(c.Request.Context(), &req)
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Stats updated", gin.H{"last_updated": stats.LastUpdated})
}

// Get returns usage stats, for one organization or all
// @Summary Get usage stats
// @Description Returns one organization's stats when organizationId is given, all otherwise
// @Tags stats
// @Produce json
// @Param organizationId query string false "Organization ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/stats/report [get]
func (h *StatsHandler) Get(c *gin.Context) {
	if orgIDStr := c.Query("organizationId"); orgIDStr != "" {
		orgID, err := uuid.Parse(orgIDStr)
		if err != nil {
			ErrorResponse(c, http.StatusBadRequest, "Invalid organization ID", err)
			return
		}
		stats, err := h.statsService.GetForOrganization(c.Request.Context(), orgID)
		if err != nil {
			ServiceErrorResponse(c, err)
			return
		}
		SuccessResponse(c, http.StatusOK, "Stats retrieved", gin.H{"stats": stats})
		return
	}

	stats, err := h.statsService.ListAll(c.Request.Context())
	if err != nil {
		ServiceErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "Stats retrieved", gin.H{"stats": stats})
}
