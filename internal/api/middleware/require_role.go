package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/eventflow/eventflow/internal/models"
	"github.com/eventflow/eventflow/internal/nav"
	"github.com/eventflow/eventflow/internal/utils"
)

func RequireRole(allowed ...models.Role) gin.HandlerFunc {
	allow := map[models.Role]struct{}{}
	for _, a := range allowed {
		allow[a] = struct{}{}
	}

	return func(c *gin.Context) {
		v, ok := c.Get("role")
		s, _ := v.(string)
		role := models.Role(strings.ToLower(strings.TrimSpace(s)))

		if !ok || role == "" {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"code":    utils.CodeForbidden,
				"message": "forbidden",
			})
			return
		}

		if _, ok := allow[role]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"code":    utils.CodeForbidden,
				"message": "forbidden",
			})
			return
		}

		c.Next()
	}
}

// RequireSection guards a route with the same table that drives navigation.
func RequireSection(s nav.Section) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, _ := c.Get("role")
		str, _ := v.(string)
		role := models.Role(strings.ToLower(strings.TrimSpace(str)))

		if !nav.CanAccess(role, s) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"code":    utils.CodeForbidden,
				"message": "forbidden",
			})
			return
		}
		c.Next()
	}
}
