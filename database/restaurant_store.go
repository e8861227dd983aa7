package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yeremiapane/order-platform/models"
)

type RestaurantStore struct {
	DB *gorm.DB
}

func NewRestaurantStore(db *gorm.DB) *RestaurantStore {
	return &RestaurantStore{DB: db}
}

func (s *RestaurantStore) FindRestaurant(ctx context.Context, id string) (*models.Restaurant, error) {
	var restaurant models.Restaurant
	if err := s.DB.WithContext(ctx).First(&restaurant, "id = ?", id).Error; err != nil {
		return nil, translate(err, "restaurant")
	}
	return &restaurant, nil
}

func (s *RestaurantStore) CreateRestaurant(ctx context.Context, name string) (*models.Restaurant, error) {
	now := time.Now().UTC()
	restaurant := models.Restaurant{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.DB.WithContext(ctx).Create(&restaurant).Error; err != nil {
		return nil, translate(err, "restaurant")
	}
	return &restaurant, nil
}
