package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"familyquestboard/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const expTime = 30 * 24 * time.Hour

const (
	ContextFamilyID    = "family_id"
	ContextCharacterID = "character_id"
)

var (
	ErrMalformedToken = errors.New("malformed token")
	ErrBadSignature   = errors.New("token signature mismatch")
	ErrTokenExpired   = errors.New("token expired")
)

// FamilyAuth issues and verifies signed bearer tokens scoped to one family
// member. A token carries the family id, the acting character id and the
// issue time; the signature is an HMAC over those three fields.
type FamilyAuth struct {
	secret    []byte
	debugMode bool
}

func NewFamilyAuth(secret string, debugMode bool) *FamilyAuth {
	return &FamilyAuth{
		secret:    []byte(secret),
		debugMode: debugMode,
	}
}

// TokenData is the verified identity carried by a request.
type TokenData struct {
	FamilyID    uuid.UUID
	CharacterID uuid.UUID
	IssuedAt    time.Time
}

func (a *FamilyAuth) IssueToken(familyID, characterID uuid.UUID, issuedAt time.Time) string {
	payload := fmt.Sprintf("%s:%s:%d", familyID, characterID, issuedAt.Unix())
	sig := a.sign(payload)
	return base64.RawURLEncoding.EncodeToString([]byte(payload)) + "." + sig
}

func (a *FamilyAuth) VerifyToken(token string) (*TokenData, error) {
	encoded, sig, found := strings.Cut(token, ".")
	if !found {
		return nil, ErrMalformedToken
	}

	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, ErrMalformedToken
	}
	payload := string(raw)

	if !hmac.Equal([]byte(a.sign(payload)), []byte(sig)) {
		return nil, ErrBadSignature
	}

	parts := strings.Split(payload, ":")
	if len(parts) != 3 {
		return nil, ErrMalformedToken
	}

	familyID, err := uuid.Parse(parts[0])
	if err != nil {
		return nil, ErrMalformedToken
	}
	characterID, err := uuid.Parse(parts[1])
	if err != nil {
		return nil, ErrMalformedToken
	}
	issuedUnix, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil {
		return nil, ErrMalformedToken
	}

	issuedAt := time.Unix(issuedUnix, 0)
	if !a.debugMode && time.Since(issuedAt) > expTime {
		return nil, ErrTokenExpired
	}

	return &TokenData{
		FamilyID:    familyID,
		CharacterID: characterID,
		IssuedAt:    issuedAt,
	}, nil
}

func (a *FamilyAuth) sign(payload string) string {
	mac := hmac.New(sha256.New, a.secret)
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

// FamilyAuthMiddleware verifies the bearer token and stores the family and
// acting character ids on the request context.
func (a *FamilyAuth) FamilyAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logger.Logger()

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			log.Info("missing authorization header")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization header is required"})
			return
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			log.Info("invalid authorization header format")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format"})
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		data, err := a.VerifyToken(token)
		if err != nil {
			log.Info("invalid family token", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(ContextFamilyID, data.FamilyID)
		c.Set(ContextCharacterID, data.CharacterID)
		c.Next()
	}
}

// FamilyFromContext returns the authenticated family id set by the middleware.
func FamilyFromContext(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(ContextFamilyID)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}

// CharacterFromContext returns the acting character id set by the middleware.
func CharacterFromContext(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(ContextCharacterID)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}
