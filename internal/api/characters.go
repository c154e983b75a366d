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

type characterRoutes struct {
	cs service.CharacterServiceI
	a  *auth.FamilyAuth
}

func NewCharacterRoutes(handler *gin.RouterGroup, cs service.CharacterServiceI, a *auth.FamilyAuth, authz *middleware.Authorization) {
	r := &characterRoutes{cs: cs, a: a}

	h := handler.Group("/characters")
	h.Use(a.FamilyAuthMiddleware())
	{
		h.GET("", r.ListCharacters)
		h.GET("/:character_id", r.GetCharacter)
		h.POST("/:character_id/purchase", r.Purchase)

		parent := h.Group("")
		parent.Use(authz.ParentOnly())
		{
			parent.POST("", r.CreateCharacter)
			parent.POST("/:character_id/grant", r.Grant)
		}
	}

	ledger := handler.Group("/ledger")
	ledger.Use(a.FamilyAuthMiddleware())
	{
		ledger.GET("", r.FamilyLedger)
		ledger.GET("/:character_id", r.Ledger)
	}
}

type CharacterRequest struct {
	Name  string `json:"name"`
	Role  string `json:"role,omitempty"`
	IsKid bool   `json:"is_kid"`
}

type CharacterResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Role      string    `json:"role,omitempty"`
	IsKid     bool      `json:"is_kid"`
	Gold      int       `json:"gold"`
	CreatedAt time.Time `json:"created_at"`
}

func characterToResponse(ch *model.Character) CharacterResponse {
	return CharacterResponse{
		ID:        ch.ID,
		Name:      ch.Name,
		Role:      ch.Role,
		IsKid:     ch.IsKid,
		Gold:      ch.Gold,
		CreatedAt: ch.CreatedAt,
	}
}

func (r *characterRoutes) CreateCharacter(c *gin.Context) {
	log := logger.Logger()

	familyID, ok := auth.FamilyFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req CharacterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind character request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	character := &model.Character{
		FamilyID: familyID,
		Name:     req.Name,
		Role:     req.Role,
		IsKid:    req.IsKid,
	}

	if err := r.cs.CreateCharacter(c.Request.Context(), character); err != nil {
		log.Error("failed to create character", zap.Error(err))
		if errors.Is(err, service.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create character"})
		return
	}

	c.JSON(http.StatusCreated, characterToResponse(character))
}

func (r *characterRoutes) GetCharacter(c *gin.Context) {
	log := logger.Logger()

	characterID, err := uuid.Parse(c.Param("character_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid character_id"})
		return
	}

	character, err := r.cs.GetCharacter(c.Request.Context(), characterID)
	if err != nil {
		log.Error("failed to get character", zap.Error(err))
		if errors.Is(err, service.ErrCharacterNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "character not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get character"})
		return
	}

	c.JSON(http.StatusOK, characterToResponse(character))
}

func (r *characterRoutes) ListCharacters(c *gin.Context) {
	log := logger.Logger()

	familyID, ok := auth.FamilyFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	characters, err := r.cs.ListCharacters(c.Request.Context(), familyID)
	if err != nil {
		log.Error("failed to list characters", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list characters"})
		return
	}

	response := make([]CharacterResponse, len(characters))
	for i, ch := range characters {
		response[i] = characterToResponse(ch)
	}

	c.JSON(http.StatusOK, response)
}

func (r *characterRoutes) Ledger(c *gin.Context) {
	log := logger.Logger()

	characterID, err := uuid.Parse(c.Param("character_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid character_id"})
		return
	}

	entries, err := r.cs.Ledger(c.Request.Context(), characterID)
	if err != nil {
		log.Error("failed to list ledger", zap.Error(err))
		if errors.Is(err, service.ErrCharacterNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "character not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list ledger"})
		return
	}

	response := make([]LedgerEntryResponse, len(entries))
	for i, entry := range entries {
		response[i] = ledgerEntryToResponse(entry)
	}

	c.JSON(http.StatusOK, response)
}

func (r *characterRoutes) FamilyLedger(c *gin.Context) {
	log := logger.Logger()

	familyID, ok := auth.FamilyFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	entries, err := r.cs.FamilyLedger(c.Request.Context(), familyID)
	if err != nil {
		log.Error("failed to list family ledger", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list family ledger"})
		return
	}

	response := make([]LedgerEntryResponse, len(entries))
	for i, entry := range entries {
		response[i] = ledgerEntryToResponse(entry)
	}

	c.JSON(http.StatusOK, response)
}

type PurchaseRequest struct {
	Cost int    `json:"cost"`
	Note string `json:"note"`
}

func (r *characterRoutes) Purchase(c *gin.Context) {
	log := logger.Logger()

	characterID, err := uuid.Parse(c.Param("character_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid character_id"})
		return
	}

	var req PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind purchase request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	entry, err := r.cs.Purchase(c.Request.Context(), characterID, req.Cost, req.Note)
	if err != nil {
		log.Error("failed to purchase", zap.Error(err))
		switch {
		case errors.Is(err, service.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrCharacterNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "character not found"})
		case errors.Is(err, service.ErrInsufficientGold):
			c.JSON(http.StatusConflict, gin.H{"error": "not enough gold"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to purchase"})
		}
		return
	}

	c.JSON(http.StatusOK, ledgerEntryToResponse(entry))
}

type GrantRequest struct {
	XP      int        `json:"xp"`
	Gold    int        `json:"gold"`
	SkillID *uuid.UUID `json:"skill_id,omitempty"`
	Note    string     `json:"note"`
}

func (r *characterRoutes) Grant(c *gin.Context) {
	log := logger.Logger()

	characterID, err := uuid.Parse(c.Param("character_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid character_id"})
		return
	}

	var req GrantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Error("failed to bind grant request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	entry, err := r.cs.Grant(c.Request.Context(), characterID, req.XP, req.Gold, req.SkillID, req.Note)
	if err != nil {
		log.Error("failed to grant reward", zap.Error(err))
		switch {
		case errors.Is(err, service.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrCharacterNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "character not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to grant reward"})
		}
		return
	}

	c.JSON(http.StatusOK, ledgerEntryToResponse(entry))
}
