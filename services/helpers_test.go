package services_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yeremiapane/order-platform/database"
	"github.com/yeremiapane/order-platform/models"
	"github.com/yeremiapane/order-platform/utils"
)

var t0 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func strPtr(s string) *string { return &s }

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

// memStore is an in-memory OrderStore with the same compare-and-swap rule
// as the real stores.
type memStore struct {
	mu     sync.Mutex
	orders map[string]models.Order
}

func newMemStore() *memStore {
	return &memStore{orders: map[string]models.Order{}}
}

func (s *memStore) Create(_ context.Context, order *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[order.ID] = *order
	return nil
}

func (s *memStore) FindByID(_ context.Context, id string) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[id]
	if !ok {
		return nil, utils.NotFound("order not found")
	}
	return &order, nil
}

func (s *memStore) ListByRestaurant(_ context.Context, restaurantID string, statuses []models.OrderStatus) ([]models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Order
	for _, order := range s.orders {
		if order.RestaurantID != restaurantID {
			continue
		}
		if len(statuses) > 0 {
			match := false
			for _, status := range statuses {
				match = match || order.Status == status
			}
			if !match {
				continue
			}
		}
		out = append(out, order)
	}
	return out, nil
}

func (s *memStore) UpdateStatus(_ context.Context, order *models.Order, from models.OrderStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.orders[order.ID]
	if !ok {
		return utils.NotFound("order not found")
	}
	if current.Status != from {
		return utils.InvalidTransition("order %s is already %s", order.ID, current.Status)
	}
	s.orders[order.ID] = *order
	return nil
}

type memRestaurants map[string]models.Restaurant

func (m memRestaurants) FindRestaurant(_ context.Context, id string) (*models.Restaurant, error) {
	r, ok := m[id]
	if !ok {
		return nil, utils.NotFound("restaurant not found")
	}
	return &r, nil
}

type notification struct {
	event    string
	order    models.Order
	previous models.OrderStatus
}

type spyNotifier struct {
	mu     sync.Mutex
	events []notification
}

func (s *spyNotifier) OrderCreated(order models.Order) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, notification{event: "created", order: order})
}

func (s *spyNotifier) OrderStatusChanged(order models.Order, previous models.OrderStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, notification{event: "status_changed", order: order, previous: previous})
}

func (s *spyNotifier) all() []notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]notification(nil), s.events...)
}
