package api

import (
	"errors"
	"net/http"
	"time"

	"familyquestboard/internal/gamestate"
	"familyquestboard/internal/model"
	"familyquestboard/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// localRoutes serves one family straight off the gamestate store when the
// app runs without a database. The device is the trust boundary, so there is
// no token auth; the route shapes mirror the remote surface.
type localRoutes struct {
	store *gamestate.Store
}

func NewLocalRoutes(handler *gin.RouterGroup, store *gamestate.Store) {
	r := &localRoutes{store: store}

	handler.GET("/state", r.GetState)
	handler.POST("/characters", r.AddCharacter)
	handler.POST("/characters/:character_id/purchase", r.Purchase)
	handler.POST("/characters/:character_id/grant", r.Grant)
	handler.POST("/quests", r.AddQuest)
	handler.POST("/occurrences/:occurrence_id/complete", r.CompleteOccurrence)
	handler.POST("/campaigns", r.AddCampaign)
	handler.POST("/steps/:step_id/complete", r.CompleteStep)
	handler.POST("/steps/:step_id/undo", r.UndoStep)
}

type LocalStateResponse struct {
	Quests      []QuestResponse       `json:"quests"`
	Occurrences []OccurrenceResponse  `json:"occurrences"`
	Characters  []CharacterResponse   `json:"characters"`
	Ledger      []LedgerEntryResponse `json:"ledger"`
	Campaigns   []CampaignResponse    `json:"campaigns"`
}

func stateToResponse(s gamestate.State) LocalStateResponse {
	out := LocalStateResponse{
		Quests:      make([]QuestResponse, len(s.Quests)),
		Occurrences: make([]OccurrenceResponse, len(s.Occurrences)),
		Characters:  make([]CharacterResponse, len(s.Characters)),
		Ledger:      make([]LedgerEntryResponse, len(s.Ledger)),
		Campaigns:   make([]CampaignResponse, 0, len(s.Campaigns)),
	}
	for i := range s.Quests {
		out.Quests[i] = questToResponse(&s.Quests[i])
	}
	for i, occ := range s.Occurrences {
		out.Occurrences[i] = occurrenceToResponse(occ)
	}
	for i := range s.Characters {
		out.Characters[i] = characterToResponse(&s.Characters[i])
	}
	for i := range s.Ledger {
		out.Ledger[i] = ledgerEntryToResponse(&s.Ledger[i])
	}
	for _, c := range s.Campaigns {
		cr := CampaignResponse{
			ID:     c.ID,
			Title:  c.Title,
			Status: string(c.Status),
			Steps:  []StepResponse{},
		}
		for i := range s.Steps {
			if s.Steps[i].CampaignID == c.ID {
				cr.Steps = append(cr.Steps, stepToResponse(&s.Steps[i]))
			}
		}
		out.Campaigns = append(out.Campaigns, cr)
	}
	return out
}

func (r *localRoutes) dispatch(c *gin.Context, action gamestate.Action) {
	log := logger.Logger()

	state, err := r.store.Dispatch(action)
	if err != nil {
		log.Error("failed to apply action", zap.Error(err))
		switch {
		case errors.Is(err, gamestate.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, gamestate.ErrInsufficientGold):
			c.JSON(http.StatusConflict, gin.H{"error": "not enough gold"})
		case errors.Is(err, gamestate.ErrStepLocked):
			c.JSON(http.StatusConflict, gin.H{"error": "step is locked; complete earlier steps first"})
		case errors.Is(err, gamestate.ErrStepNotDone):
			c.JSON(http.StatusConflict, gin.H{"error": "step is not done"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to apply action"})
		}
		return
	}

	c.JSON(http.StatusOK, stateToResponse(state))
}

// GetState rolls the materialization window forward and returns the whole
// board. The dashboard polls this on load, which keeps occurrences fresh
// without a scheduler.
func (r *localRoutes) GetState(c *gin.Context) {
	r.dispatch(c, gamestate.ActionRefresh{Today: time.Now().UTC()})
}

func (r *localRoutes) AddCharacter(c *gin.Context) {
	var req CharacterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	r.dispatch(c, gamestate.ActionAddCharacter{
		Character: model.Character{
			Name:      req.Name,
			Role:      req.Role,
			IsKid:     req.IsKid,
			CreatedAt: time.Now().UTC(),
		},
	})
}

func (r *localRoutes) AddQuest(c *gin.Context) {
	var req QuestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	quest := req.toModel(uuid.Nil)
	quest.CreatedAt = time.Now().UTC()
	r.dispatch(c, gamestate.ActionAddQuest{
		Quest: *quest,
		Today: time.Now().UTC(),
	})
}

type LocalCompleteRequest struct {
	CharacterID uuid.UUID `json:"character_id"`
}

func (r *localRoutes) CompleteOccurrence(c *gin.Context) {
	occurrenceID, err := uuid.Parse(c.Param("occurrence_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid occurrence_id"})
		return
	}

	var req LocalCompleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	r.dispatch(c, gamestate.ActionCompleteOccurrence{
		OccurrenceID: occurrenceID,
		CharacterID:  req.CharacterID,
		Now:          time.Now().UTC(),
	})
}

func (r *localRoutes) Purchase(c *gin.Context) {
	characterID, err := uuid.Parse(c.Param("character_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid character_id"})
		return
	}

	var req PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if req.Cost <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "purchase cost must be positive"})
		return
	}

	r.dispatch(c, gamestate.ActionPurchase{
		CharacterID: characterID,
		Cost:        req.Cost,
		Note:        req.Note,
		Now:         time.Now().UTC(),
	})
}

func (r *localRoutes) Grant(c *gin.Context) {
	characterID, err := uuid.Parse(c.Param("character_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid character_id"})
		return
	}

	var req GrantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	r.dispatch(c, gamestate.ActionGrant{
		CharacterID: characterID,
		XP:          req.XP,
		Gold:        req.Gold,
		Note:        req.Note,
		Now:         time.Now().UTC(),
	})
}

func (r *localRoutes) AddCampaign(c *gin.Context) {
	var req CreateCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	steps := make([]model.CampaignStep, len(req.Steps))
	for i, s := range req.Steps {
		steps[i] = model.CampaignStep{
			Title:      s.Title,
			AssigneeID: s.AssigneeID,
			SkillID:    s.SkillID,
			XPReward:   s.XPReward,
			GoldReward: s.GoldReward,
		}
	}

	r.dispatch(c, gamestate.ActionAddCampaign{
		Campaign: model.Campaign{Title: req.Title},
		Steps:    steps,
	})
}

func (r *localRoutes) CompleteStep(c *gin.Context) {
	stepID, err := uuid.Parse(c.Param("step_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid step_id"})
		return
	}

	r.dispatch(c, gamestate.ActionCompleteStep{
		StepID: stepID,
		Now:    time.Now().UTC(),
	})
}

func (r *localRoutes) UndoStep(c *gin.Context) {
	stepID, err := uuid.Parse(c.Param("step_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid step_id"})
		return
	}

	r.dispatch(c, gamestate.ActionUndoStep{StepID: stepID})
}
