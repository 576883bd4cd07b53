package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"bakery-shop-backend/internal/dto"
	"bakery-shop-backend/internal/service"
)

const identityKey = "identity"

// AuthMiddleware resolves the bearer token to an identity and stores it in
// the gin context.
func AuthMiddleware(verifier service.TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.Fail("Not authorized to access this route"))
			return
		}

		id, err := verifier.Verify(c.Request.Context(), token)
		if errors.Is(err, service.ErrUnauthorized) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.Fail("Not authorized to access this route"))
			return
		}
		if err != nil {
			zctx.From(c.Request.Context()).Error("Token verification failed", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, dto.Fail("Server Error"))
			return
		}

		c.Set(identityKey, id)
		c.Request = c.Request.WithContext(zctx.With(c.Request.Context(), zap.String("user_id", id.UserID)))
		c.Next()
	}
}

// Identity returns the caller stored by AuthMiddleware.
func Identity(c *gin.Context) service.Identity {
	id, _ := c.Get(identityKey)
	v, _ := id.(service.Identity)
	return v
}

func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
