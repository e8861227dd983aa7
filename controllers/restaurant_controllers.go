package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yeremiapane/order-platform/middlewares"
	"github.com/yeremiapane/order-platform/models"
	"github.com/yeremiapane/order-platform/utils"
)

// RestaurantRegistry is implemented by both the SQL and the Mongo restaurant store.
type RestaurantRegistry interface {
	FindRestaurant(ctx context.Context, id string) (*models.Restaurant, error)
	CreateRestaurant(ctx context.Context, name string) (*models.Restaurant, error)
}

type RestaurantController struct {
	Restaurants RestaurantRegistry
}

func NewRestaurantController(restaurants RestaurantRegistry) *RestaurantController {
	return &RestaurantController{Restaurants: restaurants}
}

// CreateRestaurant -> POST /restaurants (admin)
func (rc *RestaurantController) CreateRestaurant(c *gin.Context) {
	var body struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, utils.ValidationError("name is required"))
		return
	}
	name := strings.TrimSpace(body.Name)
	if name == "" {
		utils.RespondAppError(c, utils.ValidationError("name is required"))
		return
	}

	restaurant, err := rc.Restaurants.CreateRestaurant(c.Request.Context(), name)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Restaurant created", restaurant)
}

// GetRestaurant -> GET /restaurants/:restaurant_id
func (rc *RestaurantController) GetRestaurant(c *gin.Context) {
	id := c.Param("restaurant_id")
	if claims, ok := middlewares.Claims(c); !ok || !claims.CanAccessRestaurant(id) {
		utils.RespondAppError(c, utils.Unauthorized("no access to this restaurant"))
		return
	}

	restaurant, err := rc.Restaurants.FindRestaurant(c.Request.Context(), id)
	if err != nil {
		utils.RespondAppError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Restaurant detail", restaurant)
}
