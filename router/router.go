package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/order-platform/controllers"
	"github.com/yeremiapane/order-platform/kds"
	"github.com/yeremiapane/order-platform/middlewares"
	"github.com/yeremiapane/order-platform/services"
	"github.com/yeremiapane/order-platform/utils"
)

type Dependencies struct {
	Orders      *services.OrderService
	Restaurants controllers.RestaurantRegistry
	Hub         *kds.Hub
	CORSOrigins []string
	// RateLimitPerSecond 0 (RATE_LIMIT_PER_SECOND=0) disables the limiter, as tests do.
	RateLimitPerSecond float64
}

func SetupRouter(deps Dependencies) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares(deps.CORSOrigins))
	r.Use(middlewares.LoggerMiddleware())
	if deps.RateLimitPerSecond > 0 {
		burst := int(deps.RateLimitPerSecond)
		if burst < 1 {
			burst = 1
		}
		r.Use(middlewares.NewRateLimiter(deps.RateLimitPerSecond, burst).RateLimit())
	}

	orderCtrl := controllers.NewOrderController(deps.Orders)
	restaurantCtrl := controllers.NewRestaurantController(deps.Restaurants)
	kdsCtrl := controllers.NewKDSController(deps.Hub)

	// ----------------------------------------------------------------
	//                      PUBLIC ROUTES
	// ----------------------------------------------------------------
	r.GET("/ping", func(c *gin.Context) {
		resp := gin.H{"message": "pong"}
		if deps.Hub != nil {
			resp["kds_clients"] = deps.Hub.ClientCount()
		}
		c.JSON(200, resp)
	})

	// Endpoint KDS WebSocket, token lewat query string
	r.GET("/kds/ws", middlewares.WebSocketAuthMiddleware(), kdsCtrl.KDSHandler)

	// -- GUEST / CUSTOMER --
	// token opsional: customer login atau guest dengan email+phone
	public := r.Group("/")
	public.Use(middlewares.OptionalAuth())
	{
		public.POST("/orders", orderCtrl.CreateOrder)
		public.GET("/orders/:order_id", orderCtrl.GetOrderByID)
		public.POST("/orders/:order_id/cancel", orderCtrl.CancelOrder)
	}

	// ----------------------------------------------------------------
	//                      KITCHEN STAFF ROUTES
	// ----------------------------------------------------------------
	staff := r.Group("/")
	staff.Use(middlewares.OptionalAuth(), middlewares.RequireKitchenStaff())
	{
		staff.PATCH("/orders/:order_id/status", orderCtrl.UpdateOrderStatus)
		staff.GET("/restaurants/:restaurant_id", restaurantCtrl.GetRestaurant)
		staff.POST("/restaurants", middlewares.RoleCheck(utils.RoleAdmin), restaurantCtrl.CreateRestaurant)

		scoped := staff.Group("/restaurants/:restaurant_id")
		scoped.Use(middlewares.RestaurantScope())
		scoped.GET("/orders", orderCtrl.ListRestaurantOrders)
		scoped.GET("/kitchen", orderCtrl.GetKitchenDisplay)
	}

	return r
}
