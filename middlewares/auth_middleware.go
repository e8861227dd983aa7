package middlewares

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/order-platform/utils"
)

const ClaimsKey = "claims"

// Claims returns the verified token claims of the request, if any.
func Claims(c *gin.Context) (*utils.CustomClaims, bool) {
	value, exists := c.Get(ClaimsKey)
	if !exists {
		return nil, false
	}
	claims, ok := value.(*utils.CustomClaims)
	return claims, ok
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

// OptionalAuth verifies a bearer token when one is sent. Guests pass through
// without claims; a bad token is rejected rather than treated as a guest.
func OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.Next()
			return
		}

		tokenString := bearerToken(c)
		if tokenString == "" {
			utils.RespondError(c, http.StatusUnauthorized, errors.New("format token tidak valid"))
			c.Abort()
			return
		}

		claims, err := utils.ParseToken(tokenString)
		if err != nil || claims.UserID == "" {
			utils.RespondError(c, http.StatusUnauthorized, errors.New("invalid or expired token"))
			c.Abort()
			return
		}

		c.Set(ClaimsKey, claims)
		c.Set("user_id", claims.UserID)
		c.Set("role", claims.Role)
		c.Next()
	}
}

// RequireKitchenStaff only lets owner, staff, chef and admin tokens through.
func RequireKitchenStaff() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := Claims(c)
		if !ok {
			utils.RespondError(c, http.StatusUnauthorized, errors.New("token tidak ditemukan"))
			c.Abort()
			return
		}
		if !claims.IsKitchenStaff() {
			utils.RespondError(c, http.StatusForbidden, utils.Unauthorized("kitchen staff access required"))
			c.Abort()
			return
		}
		c.Next()
	}
}

// RestaurantScope checks the :restaurant_id path parameter against the token.
func RestaurantScope() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := Claims(c)
		if !ok || !claims.CanAccessRestaurant(c.Param("restaurant_id")) {
			utils.RespondError(c, http.StatusForbidden, utils.Unauthorized("no access to this restaurant"))
			c.Abort()
			return
		}
		c.Next()
	}
}
