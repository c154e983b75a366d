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

const dateLayout = "2006-01-02"

type questRoutes struct {
	qs service.QuestServiceI
	ss service.SettlementServiceI
	a  *auth.FamilyAuth
}

func NewQuestRoutes(handler *gin.RouterGroup, qs service.QuestServiceI, ss service.SettlementServiceI, a *auth.FamilyAuth, authz *middleware.Authorization) {
	r := &questRoutes{qs: qs, ss: ss, a: a}
	h := handler.Group("/quests")
	h.Use(a.FamilyAuthMiddleware())
	{
		h.GET("", r.ListQuests)
		h.GET("/today", r.TodayBoard)
		h.POST("/:quest_id/complete", r.CompleteQuest)

		parent := h.Group("")
		parent.Use(authz.ParentOnly())
		{
			parent.POST("", r.CreateQuest)
			parent.PATCH("/:quest_id", r.UpdateQuest)
			parent.DELETE("/:quest_id", r.DeleteQuest)
		}
	}
}

type RecurrenceRequest struct {
	Kind         string     `json:"kind"`
	DaysOfWeek   []int      `json:"days_of_week,omitempty"`
	TimesPerDay  int        `json:"times_per_day,omitempty"`
	IntervalDays int        `json:"interval_days,omitempty"`
	AnchorDate   *time.Time `json:"anchor_date,omitempty"`
}

type QuestRequest struct {
	Title               string            `json:"title"`
	Kind                string            `json:"kind"`
	AssignedCharacterID *uuid.UUID        `json:"assigned_character_id,omitempty"`
	SkillID             *uuid.UUID        `json:"skill_id,omitempty"`
	XPReward            int               `json:"xp_reward"`
	GoldReward          int               `json:"gold_reward"`
	Recurrence          RecurrenceRequest `json:"recurrence"`
	RitualBlock         string            `json:"ritual_block,omitempty"`
	Active              *bool             `json:"active,omitempty"`
	CampaignID          *uuid.UUID        `json:"campaign_id,omitempty"`
	StepOrder           *int              `json:"step_order,omitempty"`
}

type QuestResponse struct {
	ID                  uuid.UUID         `json:"id"`
	Title               string            `json:"title"`
	Kind                string            `json:"kind"`
	AssignedCharacterID *uuid.UUID        `json:"assigned_character_id,omitempty"`
	SkillID             *uuid.UUID        `json:"skill_id,omitempty"`
	XPReward            int               `json:"xp_reward"`
	GoldReward          int               `json:"gold_reward"`
	Recurrence          RecurrenceRequest `json:"recurrence"`
	RitualBlock         string            `json:"ritual_block,omitempty"`
	Active              bool              `json:"active"`
	StreakCount         int               `json:"streak_count"`
	LastCompletedAt     *time.Time        `json:"last_completed_at,omitempty"`
	CampaignID          *uuid.UUID        `json:"campaign_id,omitempty"`
	CreatedAt           time.Time         `json:"created_at"`
}

type OccurrenceResponse struct {
	ID          uuid.UUID  `json:"id"`
	QuestID     uuid.UUID  `json:"quest_id"`
	CharacterID *uuid.UUID `json:"character_id,omitempty"`
	DueDate     string     `json:"due_date"`
	Slot        int        `json:"slot"`
	Status      string     `json:"status"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

func (req *QuestRequest) toModel(familyID uuid.UUID) *model.QuestDefinition {
	active := true
	if req.Active != nil {
		active = *req.Active
	}

	days := make([]time.Weekday, len(req.Recurrence.DaysOfWeek))
	for i, d := range req.Recurrence.DaysOfWeek {
		days[i] = time.Weekday(d)
	}

	return &model.QuestDefinition{
		FamilyID:            familyID,
		Title:               req.Title,
		Kind:                model.QuestKind(req.Kind),
		AssignedCharacterID: req.AssignedCharacterID,
		SkillID:             req.SkillID,
		XPReward:            req.XPReward,
		GoldReward:          req.GoldReward,
		Recurrence: model.Recurrence{
			Kind:         model.RecurrenceKind(req.Recurrence.Kind),
			DaysOfWeek:   days,
			TimesPerDay:  req.Recurrence.TimesPerDay,
			IntervalDays: req.Recurrence.IntervalDays,
			AnchorDate:   req.Recurrence.AnchorDate,
		},
		RitualBlock: model.RitualBlock(req.RitualBlock),
		Active:      active,
		CampaignID:  req.CampaignID,
		StepOrder:   req.StepOrder,
	}
}

func questToResponse(q *model.QuestDefinition) QuestResponse {
	days := make([]int, len(q.Recurrence.DaysOfWeek))
	for i, d := range q.Recurrence.DaysOfWeek {
		days[i] = int(d)
	}

	return QuestResponse{
		ID:                  q.ID,
		Title:               q.Title,
		Kind:                string(q.Kind),
		AssignedCharacterID: q.AssignedCharacterID,
		SkillID:             q.SkillID,
		XPReward:            q.XPReward,
		GoldReward:          q.GoldReward,
		Recurrence: RecurrenceRequest{
			Kind:         string(q.Recurrence.Kind),
			DaysOfWeek:   days,
			TimesPerDay:  q.Recurrence.TimesPerDay,
			IntervalDays: q.Recurrence.IntervalDays,
			AnchorDate:   q.Recurrence.AnchorDate,
		},
		RitualBlock:     string(q.RitualBlock),
		Active:          q.Active,
		StreakCount:     q.StreakCount,
		LastCompletedAt: q.LastCompletedAt,
		CampaignID:      q.CampaignID,
		CreatedAt:       q.CreatedAt,
	}
}

func occurrenceToResponse(occ model.Occurrence) OccurrenceResponse {
	return OccurrenceResponse{
		ID:          occ.ID,
		QuestID:     occ.QuestID,
		CharacterID: occ.CharacterID,
		DueDate:     occ.DueDate.Format(dateLayout),
		Slot:        occ.Slot,
		Status:      string(occ.Status),
		CompletedAt: occ.CompletedAt,
	}
}

func (r *questRoutes) CreateQuest(c *gin.Context) {
	log := logger.Logger()

	familyID, ok := auth.FamilyFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req QuestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind quest request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	quest := req.toModel(familyID)
	if err := r.qs.CreateQuest(c.Request.Context(), quest); err != nil {
		log.Error("failed to create quest", zap.Error(err))
		if errors.Is(err, service.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create quest"})
		return
	}

	c.JSON(http.StatusCreated, questToResponse(quest))
}

func (r *questRoutes) UpdateQuest(c *gin.Context) {
	log := logger.Logger()

	questID, err := uuid.Parse(c.Param("quest_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid quest_id"})
		return
	}

	familyID, _ := auth.FamilyFromContext(c)

	existing, err := r.qs.GetQuestByID(c.Request.Context(), questID)
	if err != nil {
		log.Error("failed to get quest", zap.Error(err))
		if errors.Is(err, service.ErrQuestNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "quest not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get quest"})
		return
	}

	var req QuestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind quest request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	quest := req.toModel(familyID)
	quest.ID = questID
	quest.StreakCount = existing.StreakCount
	quest.LastCompletedAt = existing.LastCompletedAt
	quest.CreatedAt = existing.CreatedAt

	if err := r.qs.UpdateQuest(c.Request.Context(), quest); err != nil {
		log.Error("failed to update quest", zap.Error(err))
		switch {
		case errors.Is(err, service.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrQuestNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "quest not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update quest"})
		}
		return
	}

	c.JSON(http.StatusOK, questToResponse(quest))
}

func (r *questRoutes) DeleteQuest(c *gin.Context) {
	log := logger.Logger()

	questID, err := uuid.Parse(c.Param("quest_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid quest_id"})
		return
	}

	if err := r.qs.DeleteQuest(c.Request.Context(), questID); err != nil {
		log.Error("failed to delete quest", zap.Error(err))
		if errors.Is(err, service.ErrQuestNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "quest not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete quest"})
		return
	}

	c.JSON(http.StatusOK, gin.H{})
}

func (r *questRoutes) ListQuests(c *gin.Context) {
	log := logger.Logger()

	familyID, ok := auth.FamilyFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	filter := service.QuestFilter{
		Kind:       model.QuestKind(c.Query("kind")),
		Block:      model.RitualBlock(c.Query("block")),
		Guild:      c.Query("guild") == "true",
		ActiveOnly: c.Query("active") == "true",
	}
	if v := c.Query("character_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid character_id"})
			return
		}
		filter.CharacterID = &id
	}
	if v := c.Query("campaign_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid campaign_id"})
			return
		}
		filter.CampaignID = &id
	}

	quests, err := r.qs.ListQuests(c.Request.Context(), familyID, filter)
	if err != nil {
		log.Error("failed to list quests", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list quests"})
		return
	}

	response := make([]QuestResponse, len(quests))
	for i, q := range quests {
		response[i] = questToResponse(q)
	}

	c.JSON(http.StatusOK, response)
}

func (r *questRoutes) TodayBoard(c *gin.Context) {
	log := logger.Logger()

	familyID, ok := auth.FamilyFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	board, err := r.qs.TodayBoard(c.Request.Context(), familyID, time.Now().UTC())
	if err != nil {
		log.Error("failed to build today board", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build today board"})
		return
	}

	response := make([]OccurrenceResponse, len(board))
	for i, occ := range board {
		response[i] = occurrenceToResponse(occ)
	}

	c.JSON(http.StatusOK, response)
}

type CompleteQuestRequest struct {
	DueDate string `json:"due_date"` // YYYY-MM-DD, defaults to today
	Slot    int    `json:"slot"`     // defaults to 1
}

type LedgerEntryResponse struct {
	ID           uuid.UUID  `json:"id"`
	CharacterID  uuid.UUID  `json:"character_id"`
	SkillID      *uuid.UUID `json:"skill_id,omitempty"`
	XP           int        `json:"xp"`
	Gold         int        `json:"gold"`
	Source       string     `json:"source"`
	SourceStepID *uuid.UUID `json:"source_step_id,omitempty"`
	Note         string     `json:"note,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

func ledgerEntryToResponse(entry *model.LedgerEntry) LedgerEntryResponse {
	return LedgerEntryResponse{
		ID:           entry.ID,
		CharacterID:  entry.CharacterID,
		SkillID:      entry.SkillID,
		XP:           entry.XP,
		Gold:         entry.Gold,
		Source:       string(entry.Source),
		SourceStepID: entry.SourceStepID,
		Note:         entry.Note,
		CreatedAt:    entry.CreatedAt,
	}
}

func (r *questRoutes) CompleteQuest(c *gin.Context) {
	log := logger.Logger()

	questID, err := uuid.Parse(c.Param("quest_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid quest_id"})
		return
	}

	characterID, ok := auth.CharacterFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	// body is optional; an empty POST completes today's first slot
	var req CompleteQuestRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			log.Error("failed to bind completion request", zap.Error(err))
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
	}

	dueDate := time.Now().UTC()
	if req.DueDate != "" {
		dueDate, err = time.Parse(dateLayout, req.DueDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid due_date"})
			return
		}
	}

	entry, err := r.ss.Complete(c.Request.Context(), questID, characterID, dueDate, req.Slot)
	if err != nil {
		log.Error("failed to complete quest", zap.Error(err))
		switch {
		case errors.Is(err, service.ErrQuestNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "quest not found"})
		case errors.Is(err, service.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to complete quest"})
		}
		return
	}

	if entry == nil {
		// already settled earlier, nothing was written
		c.JSON(http.StatusOK, gin.H{"already_completed": true})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"already_completed": false,
		"reward":            ledgerEntryToResponse(entry),
	})
}
