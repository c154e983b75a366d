package api

import (
	"errors"
	"net/http"
	"time"

	"familyquestboard/internal/middleware"
	"familyquestboard/internal/model"
	"familyquestboard/internal/service"
	"familyquestboard/pkg/auth"
	"familyquestboard/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type campaignRoutes struct {
	cs service.CampaignServiceI
	a  *auth.FamilyAuth
}

func NewCampaignRoutes(handler *gin.RouterGroup, cs service.CampaignServiceI, a *auth.FamilyAuth, authz *middleware.Authorization) {
	r := &campaignRoutes{cs: cs, a: a}

	h := handler.Group("/campaigns")
	h.Use(a.FamilyAuthMiddleware())
	{
		h.GET("/:campaign_id", r.GetCampaign)

		parent := h.Group("")
		parent.Use(authz.ParentOnly())
		{
			parent.POST("", r.CreateCampaign)
			parent.POST("/:campaign_id/steps", r.AddStep)
		}
	}

	steps := handler.Group("/steps")
	steps.Use(a.FamilyAuthMiddleware())
	{
		steps.POST("/:step_id/complete", r.CompleteStep)
		steps.POST("/:step_id/undo", authz.ParentOnly(), r.UndoStep)
	}
}

type StepRequest struct {
	Title      string     `json:"title"`
	AssigneeID uuid.UUID  `json:"assignee_id"`
	SkillID    *uuid.UUID `json:"skill_id,omitempty"`
	XPReward   int        `json:"xp_reward"`
	GoldReward int        `json:"gold_reward"`
}

type CreateCampaignRequest struct {
	Title string        `json:"title"`
	Steps []StepRequest `json:"steps"`
}

type StepResponse struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	StepOrder   int        `json:"step_order"`
	AssigneeID  uuid.UUID  `json:"assignee_id"`
	SkillID     *uuid.UUID `json:"skill_id,omitempty"`
	XPReward    int        `json:"xp_reward"`
	GoldReward  int        `json:"gold_reward"`
	Status      string     `json:"status"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

type CampaignResponse struct {
	ID     uuid.UUID      `json:"id"`
	Title  string         `json:"title"`
	Status string         `json:"status"`
	Steps  []StepResponse `json:"steps"`
}

func stepToResponse(step *model.CampaignStep) StepResponse {
	return StepResponse{
		ID:          step.ID,
		Title:       step.Title,
		StepOrder:   step.StepOrder,
		AssigneeID:  step.AssigneeID,
		SkillID:     step.SkillID,
		XPReward:    step.XPReward,
		GoldReward:  step.GoldReward,
		Status:      string(step.Status),
		CompletedAt: step.CompletedAt,
	}
}

func (r *campaignRoutes) CreateCampaign(c *gin.Context) {
	log := logger.Logger()

	familyID, ok := auth.FamilyFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req CreateCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind campaign request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	campaign := &model.Campaign{
		FamilyID: familyID,
		Title:    req.Title,
	}
	steps := make([]*model.CampaignStep, len(req.Steps))
	for i, s := range req.Steps {
		steps[i] = &model.CampaignStep{
			Title:      s.Title,
			StepOrder:  i + 1,
			AssigneeID: s.AssigneeID,
			SkillID:    s.SkillID,
			XPReward:   s.XPReward,
			GoldReward: s.GoldReward,
		}
	}

	if err := r.cs.CreateCampaign(c.Request.Context(), campaign, steps); err != nil {
		log.Error("failed to create campaign", zap.Error(err))
		if errors.Is(err, service.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create campaign"})
		return
	}

	response := CampaignResponse{
		ID:     campaign.ID,
		Title:  campaign.Title,
		Status: string(campaign.Status),
		Steps:  make([]StepResponse, len(steps)),
	}
	for i, s := range steps {
		response.Steps[i] = stepToResponse(s)
	}

	c.JSON(http.StatusCreated, response)
}

func (r *campaignRoutes) GetCampaign(c *gin.Context) {
	log := logger.Logger()

	campaignID, err := uuid.Parse(c.Param("campaign_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid campaign_id"})
		return
	}

	campaign, steps, err := r.cs.GetCampaign(c.Request.Context(), campaignID)
	if err != nil {
		log.Error("failed to get campaign", zap.Error(err))
		if errors.Is(err, service.ErrCampaignNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "campaign not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get campaign"})
		return
	}

	response := CampaignResponse{
		ID:     campaign.ID,
		Title:  campaign.Title,
		Status: string(campaign.Status),
		Steps:  make([]StepResponse, len(steps)),
	}
	for i, s := range steps {
		response.Steps[i] = stepToResponse(s)
	}

	c.JSON(http.StatusOK, response)
}

func (r *campaignRoutes) AddStep(c *gin.Context) {
	log := logger.Logger()

	campaignID, err := uuid.Parse(c.Param("campaign_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid campaign_id"})
		return
	}

	var req StepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind step request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	step := &model.CampaignStep{
		CampaignID: campaignID,
		Title:      req.Title,
		AssigneeID: req.AssigneeID,
		SkillID:    req.SkillID,
		XPReward:   req.XPReward,
		GoldReward: req.GoldReward,
	}

	if err := r.cs.AddStep(c.Request.Context(), step); err != nil {
		log.Error("failed to add campaign step", zap.Error(err))
		switch {
		case errors.Is(err, service.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrCampaignNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "campaign not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to add campaign step"})
		}
		return
	}

	c.JSON(http.StatusCreated, stepToResponse(step))
}

func (r *campaignRoutes) CompleteStep(c *gin.Context) {
	log := logger.Logger()

	stepID, err := uuid.Parse(c.Param("step_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid step_id"})
		return
	}

	entry, err := r.cs.CompleteStep(c.Request.Context(), stepID)
	if err != nil {
		log.Error("failed to complete campaign step", zap.Error(err))
		switch {
		case errors.Is(err, service.ErrStepNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "step not found"})
		case errors.Is(err, service.ErrStepLocked):
			c.JSON(http.StatusConflict, gin.H{"error": "step is locked; complete earlier steps first"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to complete step"})
		}
		return
	}

	if entry == nil {
		c.JSON(http.StatusOK, gin.H{"already_completed": true})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"already_completed": false,
		"reward":            ledgerEntryToResponse(entry),
	})
}

func (r *campaignRoutes) UndoStep(c *gin.Context) {
	log := logger.Logger()

	stepID, err := uuid.Parse(c.Param("step_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid step_id"})
		return
	}

	if err := r.cs.UndoStep(c.Request.Context(), stepID); err != nil {
		log.Error("failed to undo campaign step", zap.Error(err))
		switch {
		case errors.Is(err, service.ErrStepNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "step not found"})
		case errors.Is(err, service.ErrStepNotDone):
			c.JSON(http.StatusConflict, gin.H{"error": "step is not done"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to undo step"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{})
}
