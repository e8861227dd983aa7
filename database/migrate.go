package database

import (
	"gorm.io/gorm"

	"github.com/yeremiapane/order-platform/models"
	"github.com/yeremiapane/order-platform/utils"
)

// AutoMigrate creates or updates the relational schema.
func AutoMigrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Restaurant{},
		&models.Order{},
		&models.OrderItem{},
	)
	if err != nil {
		return err
	}
	if utils.InfoLogger != nil {
		utils.InfoLogger.Println("AutoMigrate completed.")
	}
	return nil
}
