package handlers

import (
	"net/http"
	"strings"

	"github.com/leadplay/campaign-services-backend/internal/database/repository"
	"github.com/leadplay/campaign-services-backend/internal/models"
	"github.com/leadplay/campaign-services-backend/internal/services"
	"github.com/leadplay/campaign-services-backend/internal/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type IntegrationHandler struct {
	integrationService *services.IntegrationService
}

func NewIntegrationHandler(db *gorm.DB) *IntegrationHandler {
	integrationRepo := repository.NewIntegrationRepository(db)
	syncLogRepo := repository.NewSyncLogRepository(db)

	return &IntegrationHandler{
		integrationService: services.NewIntegrationService(integrationRepo, syncLogRepo),
	}
}

// ConnectIntegration godoc
// @Summary Connect a CRM integration
// @Description Store credentials for a CRM provider; replaces any existing connection for the same provider
// @Tags integrations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.ConnectIntegrationRequest true "Connect integration request"
// @Success 201 {object} models.IntegrationResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/integrations [post]
func (h *IntegrationHandler) ConnectIntegration(c *gin.Context) {
	orgID := c.MustGet("organization_id").(string)

	var req models.ConnectIntegrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	response, err := h.integrationService.Connect(orgID, &req)
	if err != nil {
		if strings.Contains(err.Error(), "unsupported provider") || strings.Contains(err.Error(), "credential") {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to connect integration", "details": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, response)
}

// GetIntegrations godoc
// @Summary List CRM integrations
// @Description List all CRM integrations of the authenticated user's organization
// @Tags integrations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.IntegrationResponse
// @Failure 401 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/integrations [get]
func (h *IntegrationHandler) GetIntegrations(c *gin.Context) {
	orgID := c.MustGet("organization_id").(string)

	integrations, err := h.integrationService.GetByOrganization(orgID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get integrations", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, integrations)
}

// DisconnectIntegration godoc
// @Summary Disconnect a CRM integration
// @Description Stop syncing leads to the given integration
// @Tags integrations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Integration ID"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/integrations/{id} [delete]
func (h *IntegrationHandler) DisconnectIntegration(c *gin.Context) {
	orgID := c.MustGet("organization_id").(string)
	integrationID := c.Param("id")

	if err := h.integrationService.Disconnect(orgID, integrationID); err != nil {
		if strings.Contains(err.Error(), "not found") {
			c.JSON(http.StatusNotFound, gin.H{"error": "Integration not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to disconnect integration", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Integration disconnected successfully"})
}

// GetSyncLogs godoc
// @Summary List sync logs of an integration
// @Description List per-participation sync outcomes for an integration, newest first
// @Tags integrations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Integration ID"
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 20, max 200)"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/integrations/{id}/sync-logs [get]
func (h *IntegrationHandler) GetSyncLogs(c *gin.Context) {
	orgID := c.MustGet("organization_id").(string)
	integrationID := c.Param("id")

	page, pageSize := utils.ParsePaginationFromQuery(c.Query("page"), c.Query("page_size"))
	page, pageSize = utils.ValidateAndNormalizePagination(page, pageSize)
	offset := utils.CalculateOffset(page, pageSize)

	logs, total, err := h.integrationService.GetSyncLogs(orgID, integrationID, offset, pageSize)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			c.JSON(http.StatusNotFound, gin.H{"error": "Integration not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get sync logs", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sync_logs":  logs,
		"pagination": utils.CalculatePaginationInfo(int(total), page, pageSize),
	})
}
