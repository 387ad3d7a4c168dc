package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/iilkane/Legerity/common/auth"
	apperrors "github.com/iilkane/Legerity/common/errors"
)

const (
	UserContextKey = "userID"
	UserIDHeader   = "X-User-ID"
)

// AuthMiddleware resolves the caller from a Bearer access token. When
// trustGateway is set, an X-User-ID header from the upstream gateway is
// accepted instead of a token.
func AuthMiddleware(tokens *auth.TokenParser, trustGateway bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := resolveUser(c, tokens, trustGateway)
		if err != nil {
			appErr := apperrors.New(apperrors.ErrUnauthorized.Code, apperrors.KindUnauthorized, "Unauthorized", err)
			c.AbortWithStatusJSON(appErr.Code, appErr)
			return
		}
		c.Set(UserContextKey, userID)
		c.Next()
	}
}

func resolveUser(c *gin.Context, tokens *auth.TokenParser, trustGateway bool) (uuid.UUID, error) {
	if header := c.GetHeader("Authorization"); header != "" {
		if tokens == nil || !tokens.Enabled() {
			return uuid.Nil, errors.New("token authentication is not configured")
		}
		tokenStr, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || tokenStr == "" {
			return uuid.Nil, errors.New("malformed authorization header")
		}
		claims, err := tokens.ParseAndValidateToken(tokenStr, "access")
		if err != nil {
			return uuid.Nil, err
		}
		return auth.UserID(claims)
	}

	if trustGateway {
		if raw := c.GetHeader(UserIDHeader); raw != "" {
			return uuid.Parse(raw)
		}
	}
	return uuid.Nil, errors.New("missing credentials")
}

func GetUserID(c *gin.Context) (uuid.UUID, error) {
	if val, ok := c.Get(UserContextKey); ok {
		if id, ok := val.(uuid.UUID); ok && id != uuid.Nil {
			return id, nil
		}
	}
	return uuid.Nil, apperrors.New(apperrors.ErrUnauthorized.Code, apperrors.KindUnauthorized, "Unauthorized", nil)
}
