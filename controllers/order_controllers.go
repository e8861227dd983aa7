package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/order-platform/middlewares"
	"github.com/yeremiapane/order-platform/models"
	"github.com/yeremiapane/order-platform/services"
	"github.com/yeremiapane/order-platform/utils"
)

type OrderController struct {
	Orders *services.OrderService
}

func NewOrderController(orders *services.OrderService) *OrderController {
	return &OrderController{Orders: orders}
}

// actorFrom maps the request's token to the caller of an order operation.
// Without a token the caller is a guest identified by email and phone.
func actorFrom(c *gin.Context, email, phone string) services.Actor {
	if claims, ok := middlewares.Claims(c); ok {
		if claims.IsKitchenStaff() {
			return services.StaffActor(claims.RestaurantID, claims.Role == utils.RoleAdmin)
		}
		if claims.Role == utils.RoleCustomer {
			return services.CustomerActor(claims.UserID)
		}
	}
	return services.GuestActor(strings.TrimSpace(email), strings.TrimSpace(phone))
}

// CreateOrder -> POST /orders
func (oc *OrderController) CreateOrder(c *gin.Context) {
	var body services.CreateOrderInput
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, utils.ValidationError("invalid request body: %v", err))
		return
	}

	order, err := oc.Orders.CreateOrder(c.Request.Context(), body, actorFrom(c, "", ""))
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Order received", order)
}

// GetOrderByID -> GET /orders/:order_id?email=&phone=
func (oc *OrderController) GetOrderByID(c *gin.Context) {
	actor := actorFrom(c, c.Query("email"), c.Query("phone"))
	order, err := oc.Orders.GetOrder(c.Request.Context(), c.Param("order_id"), actor)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order detail", order)
}

// CancelOrder -> POST /orders/:order_id/cancel
func (oc *OrderController) CancelOrder(c *gin.Context) {
	var body struct {
		Reason string `json:"reason"`
		Email  string `json:"email"`
		Phone  string `json:"phone"`
	}
	// body boleh kosong
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			utils.RespondError(c, http.StatusBadRequest, utils.ValidationError("invalid request body: %v", err))
			return
		}
	}
	if body.Email == "" {
		body.Email = c.Query("email")
	}
	if body.Phone == "" {
		body.Phone = c.Query("phone")
	}

	actor := actorFrom(c, body.Email, body.Phone)
	order, err := oc.Orders.CancelOrder(c.Request.Context(), c.Param("order_id"), body.Reason, actor)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order cancelled", order)
}

// ListRestaurantOrders -> GET /restaurants/:restaurant_id/orders?status=a,b
func (oc *OrderController) ListRestaurantOrders(c *gin.Context) {
	var statuses []models.OrderStatus
	if raw := c.Query("status"); raw != "" {
		parsed, unknown := models.ParseStatuses(raw)
		if len(unknown) > 0 {
			utils.RespondAppError(c, utils.ValidationError("unknown status filter: %s", strings.Join(unknown, ", ")))
			return
		}
		statuses = parsed
	}

	orders, err := oc.Orders.ListOrders(c.Request.Context(), c.Param("restaurant_id"), statuses)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of orders", orders)
}

// GetKitchenDisplay -> GET /restaurants/:restaurant_id/kitchen
func (oc *OrderController) GetKitchenDisplay(c *gin.Context) {
	orders, err := oc.Orders.KitchenView(c.Request.Context(), c.Param("restaurant_id"))
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Kitchen orders", orders)
}

// UpdateOrderStatus -> PATCH /orders/:order_id/status
func (oc *OrderController) UpdateOrderStatus(c *gin.Context) {
	var body services.StatusUpdateRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, utils.ValidationError("invalid request body: %v", err))
		return
	}
	if body.Status == "" {
		utils.RespondAppError(c, utils.ValidationError("status is required"))
		return
	}

	order, err := oc.Orders.UpdateStatus(c.Request.Context(), c.Param("order_id"), body, actorFrom(c, "", ""))
	if err != nil {
		if utils.IsKind(err, utils.KindInvalidTransition) {
			utils.InfoLogger.WithField("order_id", c.Param("order_id")).Infof("rejected transition: %v", err)
		}
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order status updated", order)
}
