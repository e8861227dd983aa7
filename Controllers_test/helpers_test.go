package Controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yeremiapane/order-platform/database"
	"github.com/yeremiapane/order-platform/kds"
	"github.com/yeremiapane/order-platform/models"
	"github.com/yeremiapane/order-platform/router"
	"github.com/yeremiapane/order-platform/services"
	"github.com/yeremiapane/order-platform/utils"
)

type testApp struct {
	router     *gin.Engine
	restaurant *models.Restaurant
	service    *services.OrderService
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, database.AutoMigrate(db))
	return db
}

func setupApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := setupTestDB(t)

	restaurants := database.NewRestaurantStore(db)
	restaurant, err := restaurants.CreateRestaurant(context.Background(), "Warung Test")
	require.NoError(t, err)

	logger, _ := test.NewNullLogger()
	hub := kds.NewHub(logger)
	svc := services.NewOrderService(database.NewOrderStore(db), restaurants, services.Notifiers{hub}, logger)

	r := router.SetupRouter(router.Dependencies{
		Orders:      svc,
		Restaurants: restaurants,
		Hub:         hub,
	})
	return &testApp{router: r, restaurant: restaurant, service: svc}
}

type apiResponse struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Kind    string          `json:"kind"`
	Data    json.RawMessage `json:"data"`
}

func (a *testApp) request(t *testing.T, method, path, token string, body interface{}) (int, apiResponse) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)

	var resp apiResponse
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	}
	return w.Code, resp
}

func staffToken(t *testing.T, role, restaurantID string) string {
	t.Helper()
	tok, err := utils.GenerateToken("staff-1", role, restaurantID, time.Hour)
	require.NoError(t, err)
	return tok
}

func decodeOrder(t *testing.T, resp apiResponse) models.Order {
	t.Helper()
	var order models.Order
	require.NoError(t, json.Unmarshal(resp.Data, &order))
	return order
}

func guestOrderBody(restaurantID string) map[string]interface{} {
	return map[string]interface{}{
		"restaurant_id": restaurantID,
		"items": []map[string]interface{}{
			{"name": "Burger", "price": "12.99", "quantity": 2, "modifications": []string{"no onion"}},
			{"name": "Fries", "price": "4.51", "quantity": 1},
			{"name": "Soda", "price": "1.33", "quantity": 6},
		},
		"guest_info": map[string]string{
			"name":  "Ana",
			"phone": "555-0100",
			"email": "ana@example.com",
		},
	}
}
