package models

import (
	"github.com/shopspring/decimal"
)

// MaxItemQuantity caps one order line. Prep time estimates grow with quantity.
const MaxItemQuantity = 1000

// MaxOrderTotal is the largest amount a decimal(10,2) column holds.
var MaxOrderTotal = decimal.RequireFromString("99999999.99")

type OrderItem struct {
	ID      uint   `gorm:"primaryKey" json:"-" bson:"-"`
	OrderID string `gorm:"type:varchar(36);not null;index" json:"-" bson:"-"`
	// Position keeps the cart order when items are loaded back.
	Position      int             `gorm:"not null" json:"-" bson:"-"`
	Name          string          `gorm:"type:varchar(255);not null" json:"name"`
	Price         decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	Quantity      int             `gorm:"not null" json:"quantity"`
	Modifications []string        `gorm:"serializer:json;type:text" json:"modifications"`
}

func (i OrderItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
