package services

import (
	"context"

	"github.com/yeremiapane/order-platform/models"
)

// OrderStore persists orders. Implementations live in the database package.
type OrderStore interface {
	Create(ctx context.Context, order *models.Order) error
	FindByID(ctx context.Context, id string) (*models.Order, error)
	// ListByRestaurant returns newest orders first. An empty statuses slice means all.
	ListByRestaurant(ctx context.Context, restaurantID string, statuses []models.OrderStatus) ([]models.Order, error)
	// UpdateStatus writes the status fields of order only if the stored status
	// is still from. Otherwise it fails with an invalid transition error.
	UpdateStatus(ctx context.Context, order *models.Order, from models.OrderStatus) error
}

type RestaurantDirectory interface {
	FindRestaurant(ctx context.Context, id string) (*models.Restaurant, error)
}

// OrderNotifier is told about every order change after it is stored.
type OrderNotifier interface {
	OrderCreated(order models.Order)
	OrderStatusChanged(order models.Order, previous models.OrderStatus)
}

// Notifiers fans one change out to several notifiers.
type Notifiers []OrderNotifier

func (n Notifiers) OrderCreated(order models.Order) {
	for _, notifier := range n {
		notifier.OrderCreated(order)
	}
}

func (n Notifiers) OrderStatusChanged(order models.Order, previous models.OrderStatus) {
	for _, notifier := range n {
		notifier.OrderStatusChanged(order, previous)
	}
}
