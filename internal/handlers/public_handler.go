package handlers

import (
	"errors"
	"net/http"

	"github.com/leadplay/campaign-services-backend/internal/database/repository"
	"github.com/leadplay/campaign-services-backend/internal/models"
	"github.com/leadplay/campaign-services-backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// PublicHandler serves the unauthenticated participation-page endpoints.
// Everything here is keyed by campaign slug and only works against
// published campaigns.
type PublicHandler struct {
	campaignService      *services.CampaignService
	validationService    *services.ValidationService
	participationService *services.ParticipationService
}

func NewPublicHandler(db *gorm.DB, syncService *services.CRMSyncService) *PublicHandler {
	campaignRepo := repository.NewCampaignRepository(db)
	participationRepo := repository.NewParticipationRepository(db)
	blockedRepo := repository.NewBlockedParticipationRepository(db)

	return &PublicHandler{
		campaignService:      services.NewCampaignService(campaignRepo, participationRepo, blockedRepo),
		validationService:    services.NewValidationService(participationRepo, blockedRepo, nil),
		participationService: services.NewParticipationService(participationRepo, campaignRepo, syncService),
	}
}

// GetCampaign godoc
// @Summary Get a published campaign
// @Description Get the public shape of a published campaign by slug
// @Tags public
// @Accept json
// @Produce json
// @Param slug path string true "Campaign slug"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/public/campaigns/{slug} [get]
func (h *PublicHandler) GetCampaign(c *gin.Context) {
	campaign, err := h.campaignService.GetPublishedBySlug(c.Param("slug"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Campaign not found"})
		return
	}

	// Public shape only: no counters, no organization internals
	c.JSON(http.StatusOK, gin.H{
		"id":        campaign.ID,
		"name":      campaign.Name,
		"slug":      campaign.Slug,
		"game_type": campaign.GameType,
		"config":    campaign.Config,
	})
}

// TrackView godoc
// @Summary Track a campaign page view
// @Description Increment the view counter of a published campaign
// @Tags public
// @Accept json
// @Produce json
// @Param slug path string true "Campaign slug"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/public/campaigns/{slug}/view [post]
func (h *PublicHandler) TrackView(c *gin.Context) {
	if err := h.campaignService.TrackView(c.Param("slug")); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Campaign not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "ok"})
}

// ValidateParticipation godoc
// @Summary Validate a participation attempt
// @Description Check de-duplication rules before the visitor plays the game
// @Tags public
// @Accept json
// @Produce json
// @Param slug path string true "Campaign slug"
// @Param request body models.ValidateParticipationRequest true "Validation signals"
// @Success 200 {object} models.ValidateParticipationResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/public/campaigns/{slug}/validate [post]
func (h *PublicHandler) ValidateParticipation(c *gin.Context) {
	campaign, err := h.campaignService.GetPublishedBySlug(c.Param("slug"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Campaign not found"})
		return
	}

	var req models.ValidateParticipationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	// The browser cannot know its own public address; fill it in server-side
	if req.IPAddress == "" {
		req.IPAddress = c.ClientIP()
	}

	response, err := h.validationService.Validate(campaign.ID, &req)
	if err != nil {
		// Validator is fail-open; an error here means fail-open was disabled
		logrus.Errorf("Validation failed for campaign %s: %v", campaign.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to validate participation"})
		return
	}

	c.JSON(http.StatusOK, response)
}

// Participate godoc
// @Summary Record a participation
// @Description Validate the attempt and, when allowed, durably record the participation
// @Tags public
// @Accept json
// @Produce json
// @Param slug path string true "Campaign slug"
// @Param request body models.RecordParticipationRequest true "Participation payload"
// @Success 201 {object} models.RecordParticipationResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 409 {object} models.RecordParticipationResponse
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/public/campaigns/{slug}/participate [post]
func (h *PublicHandler) Participate(c *gin.Context) {
	campaign, err := h.campaignService.GetPublishedBySlug(c.Param("slug"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Campaign not found"})
		return
	}

	var req models.RecordParticipationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	if req.IPAddress == "" {
		req.IPAddress = c.ClientIP()
	}

	decision, err := h.validationService.Validate(campaign.ID, &models.ValidateParticipationRequest{
		Email:             req.Email,
		IPAddress:         req.IPAddress,
		DeviceFingerprint: req.DeviceFingerprint,
	})
	if err != nil {
		logrus.Errorf("Validation failed for campaign %s: %v", campaign.ID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to validate participation"})
		return
	}

	if !decision.Allowed {
		c.JSON(http.StatusConflict, models.RecordParticipationResponse{
			Allowed:     false,
			BlockReason: decision.BlockReason,
		})
		return
	}

	participation, err := h.participationService.Record(campaign, &req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record participation", "details": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, models.RecordParticipationResponse{
		Allowed:   true,
		ID:        participation.ID,
		AttemptID: participation.AttemptID,
		Result:    participation.Result,
	})
}

// UpdateResult godoc
// @Summary Set the game result of a participation
// @Description Move a pending participation to win or lose, keyed by attempt_id
// @Tags public
// @Accept json
// @Produce json
// @Param slug path string true "Campaign slug"
// @Param request body models.UpdateResultRequest true "Result payload"
// @Success 200 {object} models.ParticipationResponse
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Failure 500 {object} map[string]interface{}
// @Router /api/v1/public/campaigns/{slug}/result [post]
func (h *PublicHandler) UpdateResult(c *gin.Context) {
	campaign, err := h.campaignService.GetPublishedBySlug(c.Param("slug"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Campaign not found"})
		return
	}

	var req models.UpdateResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "details": err.Error()})
		return
	}

	// The attempt must belong to the campaign named in the URL
	existing, err := h.participationService.GetByAttemptID(req.AttemptID)
	if err != nil || existing.CampaignID != campaign.ID {
		c.JSON(http.StatusNotFound, gin.H{"error": "Participation not found"})
		return
	}

	participation, err := h.participationService.UpdateResult(&req)
	if err != nil {
		if errors.Is(err, services.ErrResultAlreadySet) {
			c.JSON(http.StatusConflict, gin.H{"error": "Result already set"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update result", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, h.participationService.ToResponse(participation))
}
