package middleware

import (
	"net/http"

	"familyquestboard/internal/service"
	"familyquestboard/pkg/auth"
	"familyquestboard/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
)

type Authorization struct {
	characterService service.CharacterServiceI
}

func NewAuthorization(characterService service.CharacterServiceI) *Authorization {
	return &Authorization{
		characterService: characterService,
	}
}

// ParentOnly gates endpoints that change definitions or hand out rewards.
// Kid characters can complete quests but cannot create them, grant gold or
// undo campaign steps.
func (a *Authorization) ParentOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logger.Logger()

		characterID, ok := auth.CharacterFromContext(c)
		if !ok {
			log.Error("character id not found in context")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		character, err := a.characterService.GetCharacter(c.Request.Context(), characterID)
		if err != nil {
			log.Error("failed to get character data", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "character not found"})
			return
		}

		if character.IsKid {
			log.Info("kid attempted a parent-only endpoint",
				zap.String("character_id", characterID.String()))
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "parent access required"})
			return
		}

		c.Set("is_parent", true)
		c.Next()
	}
}
