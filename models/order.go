package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	StatusReceived       OrderStatus = "received"
	StatusConfirmed      OrderStatus = "confirmed"
	StatusInKitchen      OrderStatus = "in_kitchen"
	StatusReadyForPickup OrderStatus = "ready_for_pickup"
	StatusDelivered      OrderStatus = "delivered"
	StatusCancelled      OrderStatus = "cancelled"
)

// ActiveStatuses are the statuses shown on the kitchen display.
var ActiveStatuses = []OrderStatus{StatusReceived, StatusConfirmed, StatusInKitchen}

var allStatuses = []OrderStatus{
	StatusReceived,
	StatusConfirmed,
	StatusInKitchen,
	StatusReadyForPickup,
	StatusDelivered,
	StatusCancelled,
}

func (s OrderStatus) Valid() bool {
	for _, known := range allStatuses {
		if s == known {
			return true
		}
	}
	return false
}

func (s OrderStatus) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

func (s OrderStatus) IsActive() bool {
	for _, active := range ActiveStatuses {
		if s == active {
			return true
		}
	}
	return false
}

// ParseStatuses splits a comma separated filter such as "received,confirmed".
// Unknown names are returned in the second slice.
func ParseStatuses(raw string) ([]OrderStatus, []string) {
	var statuses []OrderStatus
	var unknown []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		status := OrderStatus(part)
		if !status.Valid() {
			unknown = append(unknown, part)
			continue
		}
		statuses = append(statuses, status)
	}
	return statuses, unknown
}

// GuestInfo identifies an order placed without an account. Email and phone
// together are the credential for looking up or cancelling the order later.
type GuestInfo struct {
	Name  string `json:"name" bson:"name"`
	Phone string `json:"phone" bson:"phone"`
	Email string `json:"email" bson:"email"`
}

// Order holds a snapshot of what the customer bought. Items are copied from
// the menu at order time and are never re-read from it.
type Order struct {
	ID                 string          `gorm:"type:varchar(36);primaryKey" json:"id"`
	RestaurantID       string          `gorm:"type:varchar(36);not null;index:idx_orders_restaurant_status" json:"restaurant_id"`
	CustomerID         *string         `gorm:"type:varchar(64);index" json:"customer_id,omitempty"`
	GuestInfo          *GuestInfo      `gorm:"serializer:json;type:text" json:"guest_info,omitempty"`
	Items              []OrderItem     `gorm:"foreignKey:OrderID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"items"`
	TotalPrice         decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"total_price"`
	Status             OrderStatus     `gorm:"type:varchar(20);not null;default:'received';index:idx_orders_restaurant_status" json:"status"`
	EstimatedReadyTime *time.Time      `json:"estimated_ready_time,omitempty"`
	CancellationReason *string         `gorm:"type:text" json:"cancellation_reason,omitempty"`
	Notes              string          `gorm:"type:text" json:"notes"`
	CreatedAt          time.Time       `gorm:"not null;index" json:"created_at"`
	UpdatedAt          time.Time       `gorm:"not null" json:"updated_at"`
}

// ItemCount is the number of units across all lines.
func (o *Order) ItemCount() int {
	count := 0
	for _, item := range o.Items {
		count += item.Quantity
	}
	return count
}

// ComputeTotal sums price * quantity over the items.
func ComputeTotal(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Subtotal())
	}
	return total
}
