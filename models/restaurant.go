package models

import "time"

type Restaurant struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id" bson:"_id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name" bson:"name"`
	CreatedAt time.Time `gorm:"not null" json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at" bson:"updated_at"`
}
