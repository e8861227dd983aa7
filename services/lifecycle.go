package services

import (
	"strings"
	"time"

	"github.com/yeremiapane/order-platform/models"
	"github.com/yeremiapane/order-platform/utils"
)

type ActorKind string

const (
	ActorStaff    ActorKind = "staff"
	ActorCustomer ActorKind = "customer"
	ActorGuest    ActorKind = "guest"
)

// Actor is whoever asks to read or change an order.
type Actor struct {
	Kind ActorKind
	// Staff scope. AllRestaurants is set for platform admins.
	RestaurantID   string
	AllRestaurants bool
	// Authenticated customer.
	CustomerID string
	// Guest credentials.
	Email string
	Phone string
}

func StaffActor(restaurantID string, allRestaurants bool) Actor {
	return Actor{Kind: ActorStaff, RestaurantID: restaurantID, AllRestaurants: allRestaurants}
}

func CustomerActor(customerID string) Actor {
	return Actor{Kind: ActorCustomer, CustomerID: customerID}
}

func GuestActor(email, phone string) Actor {
	return Actor{Kind: ActorGuest, Email: email, Phone: phone}
}

// TransitionContext carries the optional side data of a status change.
type TransitionContext struct {
	EstimatedReadyTime *time.Time
	CancellationReason *string
	Actor              Actor
}

var nextStatus = map[models.OrderStatus]models.OrderStatus{
	models.StatusReceived:       models.StatusConfirmed,
	models.StatusConfirmed:      models.StatusInKitchen,
	models.StatusInKitchen:      models.StatusReadyForPickup,
	models.StatusReadyForPickup: models.StatusDelivered,
}

// NextStatus returns the single forward stage after current.
func NextStatus(current models.OrderStatus) (models.OrderStatus, bool) {
	next, ok := nextStatus[current]
	return next, ok
}

// CanTransition reports whether from -> to is legal: one step forward, or a
// cancellation before the kitchen has started.
func CanTransition(from, to models.OrderStatus) bool {
	if from.IsTerminal() {
		return false
	}
	if to == models.StatusCancelled {
		return from == models.StatusReceived || from == models.StatusConfirmed
	}
	next, ok := nextStatus[from]
	return ok && next == to
}

// Authorize checks that actor may see and act on order.
func Authorize(order models.Order, actor Actor) error {
	switch actor.Kind {
	case ActorStaff:
		if actor.AllRestaurants || actor.RestaurantID == order.RestaurantID {
			return nil
		}
		return utils.Unauthorized("order %s belongs to another restaurant", order.ID)
	case ActorCustomer:
		if actor.CustomerID != "" && order.CustomerID != nil && *order.CustomerID == actor.CustomerID {
			return nil
		}
		return utils.Unauthorized("order %s does not belong to this customer", order.ID)
	case ActorGuest:
		if order.GuestInfo != nil && actor.Email != "" && actor.Phone != "" &&
			order.GuestInfo.Email == actor.Email && order.GuestInfo.Phone == actor.Phone {
			return nil
		}
		return utils.Unauthorized("guest credentials do not match order %s", order.ID)
	default:
		return utils.Unauthorized("unknown caller")
	}
}

// ApplyTransition validates a status change and returns the updated copy of
// order. The input is left untouched, so a failed call never leaves a partial
// change behind.
func ApplyTransition(order models.Order, target models.OrderStatus, tc TransitionContext, now time.Time) (models.Order, error) {
	if !target.Valid() {
		return order, utils.ValidationError("unknown status %q", target)
	}

	if err := Authorize(order, tc.Actor); err != nil {
		return order, err
	}
	if tc.Actor.Kind != ActorStaff && target != models.StatusCancelled {
		return order, utils.Unauthorized("customers may only cancel orders")
	}

	if !CanTransition(order.Status, target) {
		return order, utils.InvalidTransition("cannot move order %s from %s to %s", order.ID, order.Status, target)
	}

	if tc.EstimatedReadyTime != nil && target.IsTerminal() {
		return order, utils.ValidationError("estimated ready time cannot be set when moving to %s", target)
	}
	if tc.CancellationReason != nil && target != models.StatusCancelled {
		return order, utils.ValidationError("cancellation reason is only accepted when cancelling")
	}

	next := order
	next.Status = target
	next.UpdatedAt = now.UTC()

	if tc.EstimatedReadyTime != nil {
		eta := tc.EstimatedReadyTime.UTC()
		next.EstimatedReadyTime = &eta
	}

	if target == models.StatusCancelled {
		reason := ""
		if tc.CancellationReason != nil {
			reason = strings.TrimSpace(*tc.CancellationReason)
		}
		if reason == "" {
			reason = defaultCancellationReason(tc.Actor.Kind)
		}
		next.CancellationReason = &reason
	}

	return next, nil
}

func defaultCancellationReason(kind ActorKind) string {
	switch kind {
	case ActorStaff:
		return "cancelled by restaurant"
	default:
		return "cancelled by customer"
	}
}
