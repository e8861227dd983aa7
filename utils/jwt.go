package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	RoleCustomer = "customer"
	RoleOwner    = "owner"
	RoleStaff    = "staff"
	RoleChef     = "chef"
	RoleAdmin    = "admin"
)

var JWTSecret = []byte("TestSecretKeyAUTH1945")

// SetJWTSecret is called once from config; tokens are issued by the auth service.
func SetJWTSecret(secret string) {
	if secret != "" {
		JWTSecret = []byte(secret)
	}
}

type CustomClaims struct {
	UserID       string `json:"user_id"`
	Role         string `json:"role"`
	RestaurantID string `json:"restaurant_id,omitempty"`
	jwt.RegisteredClaims
}

// IsKitchenStaff reports whether the claims may work the kitchen display.
func (c *CustomClaims) IsKitchenStaff() bool {
	switch c.Role {
	case RoleOwner, RoleStaff, RoleChef, RoleAdmin:
		return true
	}
	return false
}

// CanAccessRestaurant checks the tenant scope of a staff token. Admins are unscoped.
func (c *CustomClaims) CanAccessRestaurant(restaurantID string) bool {
	if c.Role == RoleAdmin {
		return true
	}
	return c.IsKitchenStaff() && c.RestaurantID == restaurantID
}

func GenerateToken(userID, role, restaurantID string, ttl time.Duration) (string, error) {
	claims := &CustomClaims{
		UserID:       userID,
		Role:         role,
		RestaurantID: restaurantID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "OrderPlatform",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(JWTSecret)
}

func ParseToken(tokenString string) (*CustomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return JWTSecret, nil
	})

	if err != nil || !token.Valid {
		return nil, errors.New("invalid or expired token")
	}

	claims, ok := token.Claims.(*CustomClaims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}

	return claims, nil
}
