package middlewares

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/order-platform/utils"
)

// RoleCheck lets only the listed roles through. Run it after OptionalAuth.
func RoleCheck(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := Claims(c)
		if !ok {
			utils.RespondError(c, http.StatusUnauthorized, fmt.Errorf("unauthorized"))
			c.Abort()
			return
		}

		for _, role := range roles {
			if claims.Role == role {
				c.Next()
				return
			}
		}

		utils.RespondError(c, http.StatusForbidden, utils.Unauthorized("%v access required", roles))
		c.Abort()
	}
}
