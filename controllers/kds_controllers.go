package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/yeremiapane/order-platform/kds"
	"github.com/yeremiapane/order-platform/middlewares"
	"github.com/yeremiapane/order-platform/utils"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // origin sudah dibatasi oleh CORS dan token
	},
}

type KDSController struct {
	Hub *kds.Hub
}

func NewKDSController(hub *kds.Hub) *KDSController {
	return &KDSController{Hub: hub}
}

// KDSHandler -> GET /kds/ws?token=&restaurant_id=
func (kc *KDSController) KDSHandler(c *gin.Context) {
	claims, ok := middlewares.Claims(c)
	if !ok {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	restaurantID := c.Query("restaurant_id")
	if restaurantID == "" {
		restaurantID = claims.RestaurantID
	}
	all := claims.Role == utils.RoleAdmin && c.Query("restaurant_id") == ""
	if !all && !claims.CanAccessRestaurant(restaurantID) {
		c.AbortWithStatus(http.StatusForbidden)
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		utils.ErrorLogger.WithError(err).Error("websocket upgrade failed")
		return
	}

	kc.Hub.RegisterClient(ws, claims.Role, restaurantID, all)

	// layar hanya menerima; baca sampai koneksi putus
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			break
		}
	}

	kc.Hub.UnregisterClient(ws)
}
