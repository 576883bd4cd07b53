package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"bakery-shop-backend/internal/dto"
)

// AdminOnly must run after AuthMiddleware.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := Identity(c)
		if !id.IsAdmin() {
			role := string(id.Role)
			if role == "" {
				role = "unknown"
			}
			c.AbortWithStatusJSON(http.StatusForbidden,
				dto.Fail(fmt.Sprintf("User role %s is not authorized to access this route", role)))
			return
		}
		c.Next()
	}
}
