package database

import (
	"context"

	"gorm.io/gorm"

	"github.com/yeremiapane/order-platform/models"
	"github.com/yeremiapane/order-platform/utils"
)

// OrderStore keeps orders in a relational database through gorm.
type OrderStore struct {
	DB *gorm.DB
}

func NewOrderStore(db *gorm.DB) *OrderStore {
	return &OrderStore{DB: db}
}

func itemsByPosition(db *gorm.DB) *gorm.DB {
	return db.Order("position asc")
}

// Create inserts the order and its items in one transaction.
func (s *OrderStore) Create(ctx context.Context, order *models.Order) error {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(order).Error
	})
	return translate(err, "order")
}

func (s *OrderStore) FindByID(ctx context.Context, id string) (*models.Order, error) {
	var order models.Order
	err := s.DB.WithContext(ctx).
		Preload("Items", itemsByPosition).
		First(&order, "id = ?", id).Error
	if err != nil {
		return nil, translate(err, "order")
	}
	return &order, nil
}

func (s *OrderStore) ListByRestaurant(ctx context.Context, restaurantID string, statuses []models.OrderStatus) ([]models.Order, error) {
	query := s.DB.WithContext(ctx).
		Preload("Items", itemsByPosition).
		Where("restaurant_id = ?", restaurantID)
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}

	orders := []models.Order{}
	if err := query.Order("created_at desc").Find(&orders).Error; err != nil {
		return nil, translate(err, "order")
	}
	return orders, nil
}

// UpdateStatus is a compare-and-swap on the status column.
func (s *OrderStore) UpdateStatus(ctx context.Context, order *models.Order, from models.OrderStatus) error {
	res := s.DB.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", order.ID, from).
		Updates(map[string]interface{}{
			"status":               order.Status,
			"estimated_ready_time": order.EstimatedReadyTime,
			"cancellation_reason":  order.CancellationReason,
			"updated_at":           order.UpdatedAt,
		})
	if res.Error != nil {
		return translate(res.Error, "order")
	}
	if res.RowsAffected == 1 {
		return nil
	}

	current, err := s.FindByID(ctx, order.ID)
	if err != nil {
		return err
	}
	return utils.InvalidTransition("order %s is already %s, cannot move from %s to %s",
		order.ID, current.Status, from, order.Status)
}
