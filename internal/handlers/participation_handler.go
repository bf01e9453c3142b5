package handlers

import (
	"net/http"

	"github.com/leadplay/campaign-services-backend/internal/database/repository"
	"github.com/leadplay/campaign-services-backend/internal/models"
	"github.com/leadplay/campaign-services-backend/internal/services"
	"github.com/leadplay/campaign-services-backend/internal/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type ParticipationHandler struct {
	campaignService      *services.CampaignService
	participationService *services.ParticipationService
}

func NewParticipationHandler(db *gorm.DB, syncService *services.CRMSyncService) *ParticipationHandler {
	campaignRepo := repository.NewCampaignRepository(db)
	participationRepo := repository.NewParticipationRepository(db)
	blockedRepo := repository.NewBlockedParticipationRepository(db)

	return &ParticipationHandler{
		campaignService:      services.NewCampaignService(campaignRepo, participationRepo, blockedRepo),
		participationService: services.NewParticipationService(participationRepo, campaignRepo, syncService),
	}
}

// GetParticipations godoc
// @Summary List participations of a campaign
// @Description List participations of a campaign with pagination, newest first
// @Tags participations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Campaign ID"
// @Param page query int false "Page number (default 1)"
// @Param page_size query int false "Page size (default 20, max 200)"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/campaigns/{id}/participations [get]
func (h *ParticipationHandler) GetParticipations(c *gin.Context) {
	orgID := c.MustGet("organization_id").(string)
	campaignID := c.Param("id")

	if _, err := h.campaignService.GetCampaign(orgID, campaignID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Campaign not found"})
		return
	}

	page, pageSize := utils.ParsePaginationFromQuery(c.Query("page"), c.Query("page_size"))
	page, pageSize = utils.ValidateAndNormalizePagination(page, pageSize)
	offset := utils.CalculateOffset(page, pageSize)

	participations, total, err := h.participationService.GetByCampaign(campaignID, offset, pageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get participations", "details": err.Error()})
		return
	}

	responses := make([]*models.ParticipationResponse, 0, len(participations))
	for _, p := range participations {
		responses = append(responses, h.participationService.ToResponse(p))
	}

	c.JSON(http.StatusOK, gin.H{
		"participations": responses,
		"pagination":     utils.CalculatePaginationInfo(int(total), page, pageSize),
	})
}
