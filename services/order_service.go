package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/yeremiapane/order-platform/models"
	"github.com/yeremiapane/order-platform/utils"
)

// ItemInput is one line of a create-order request.
type ItemInput struct {
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price"`
	Quantity      int             `json:"quantity"`
	Modifications []string        `json:"modifications"`
}

type CreateOrderInput struct {
	RestaurantID string            `json:"restaurant_id"`
	Items        []ItemInput       `json:"items"`
	GuestInfo    *models.GuestInfo `json:"guest_info,omitempty"`
	Notes        string            `json:"notes"`
	// ClientTotal is advisory. The stored total is always recomputed.
	ClientTotal *decimal.Decimal `json:"client_total,omitempty"`
}

type StatusUpdateRequest struct {
	Status             models.OrderStatus `json:"status"`
	EstimatedReadyTime *time.Time         `json:"estimated_ready_time,omitempty"`
	CancellationReason *string            `json:"cancellation_reason,omitempty"`
}

type OrderService struct {
	Store       OrderStore
	Restaurants RestaurantDirectory
	Notifier    OrderNotifier
	Logger      logrus.FieldLogger
	Now         func() time.Time
}

func NewOrderService(store OrderStore, restaurants RestaurantDirectory, notifier OrderNotifier, logger logrus.FieldLogger) *OrderService {
	if notifier == nil {
		notifier = Notifiers{}
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &OrderService{
		Store:       store,
		Restaurants: restaurants,
		Notifier:    notifier,
		Logger:      logger,
		Now:         time.Now,
	}
}

func (s *OrderService) now() time.Time {
	return s.Now().UTC()
}

// CreateOrder validates the request, snapshots the items and stores a new
// order in the received state. A customer actor owns the order through its
// customer id, anyone else must provide complete guest info.
func (s *OrderService) CreateOrder(ctx context.Context, in CreateOrderInput, actor Actor) (*models.Order, error) {
	if strings.TrimSpace(in.RestaurantID) == "" {
		return nil, utils.ValidationError("restaurant_id is required")
	}
	items, err := snapshotItems(in.Items)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		ID:           uuid.NewString(),
		RestaurantID: in.RestaurantID,
		Items:        items,
		Status:       models.StatusReceived,
		Notes:        strings.TrimSpace(in.Notes),
	}

	if actor.Kind == ActorCustomer && actor.CustomerID != "" {
		customerID := actor.CustomerID
		order.CustomerID = &customerID
	} else {
		guest, err := validateGuest(in.GuestInfo)
		if err != nil {
			return nil, err
		}
		order.GuestInfo = guest
	}

	if _, err := s.Restaurants.FindRestaurant(ctx, in.RestaurantID); err != nil {
		return nil, err
	}

	order.TotalPrice = models.ComputeTotal(order.Items)
	if order.TotalPrice.GreaterThan(models.MaxOrderTotal) {
		return nil, utils.ValidationError("order total %s exceeds the maximum of %s",
			order.TotalPrice.StringFixed(2), models.MaxOrderTotal.StringFixed(2))
	}
	if in.ClientTotal != nil && !in.ClientTotal.Equal(order.TotalPrice) {
		s.Logger.WithFields(logrus.Fields{
			"restaurant_id": in.RestaurantID,
			"client_total":  in.ClientTotal.String(),
			"server_total":  order.TotalPrice.String(),
		}).Warn("client total differs from computed total, using computed total")
	}

	now := s.now()
	order.CreatedAt = now
	order.UpdatedAt = now

	if err := s.Store.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	s.Logger.WithFields(logrus.Fields{
		"order_id":      order.ID,
		"restaurant_id": order.RestaurantID,
		"total":         order.TotalPrice.StringFixed(2),
	}).Info("order received")
	s.Notifier.OrderCreated(*order)

	return order, nil
}

func snapshotItems(inputs []ItemInput) ([]models.OrderItem, error) {
	if len(inputs) == 0 {
		return nil, utils.ValidationError("order must contain at least one item")
	}

	items := make([]models.OrderItem, 0, len(inputs))
	for i, in := range inputs {
		name := strings.TrimSpace(in.Name)
		switch {
		case name == "":
			return nil, utils.ValidationError("item %d: name is required", i+1)
		case in.Quantity < 1:
			return nil, utils.ValidationError("item %d: quantity must be at least 1", i+1)
		case in.Quantity > models.MaxItemQuantity:
			return nil, utils.ValidationError("item %d: quantity cannot exceed %d", i+1, models.MaxItemQuantity)
		case in.Price.IsNegative():
			return nil, utils.ValidationError("item %d: price cannot be negative", i+1)
		case !in.Price.Equal(in.Price.Round(2)):
			return nil, utils.ValidationError("item %d: price can only have up to 2 decimal places", i+1)
		}

		mods := make([]string, 0, len(in.Modifications))
		for _, mod := range in.Modifications {
			if mod = strings.TrimSpace(mod); mod != "" {
				mods = append(mods, mod)
			}
		}

		items = append(items, models.OrderItem{
			Position:      i,
			Name:          name,
			Price:         in.Price,
			Quantity:      in.Quantity,
			Modifications: mods,
		})
	}
	return items, nil
}

func validateGuest(guest *models.GuestInfo) (*models.GuestInfo, error) {
	if guest == nil {
		return nil, utils.ValidationError("guest_info is required for orders without an account")
	}
	form := GuestForm{
		Name:  strings.TrimSpace(guest.Name),
		Phone: strings.TrimSpace(guest.Phone),
		Email: strings.TrimSpace(guest.Email),
	}
	if err := form.Validate(); err != nil {
		return nil, err
	}
	return &models.GuestInfo{Name: form.Name, Phone: form.Phone, Email: form.Email}, nil
}

// GetOrder loads one order for a caller that owns it.
func (s *OrderService) GetOrder(ctx context.Context, id string, actor Actor) (*models.Order, error) {
	order, err := s.Store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := Authorize(*order, actor); err != nil {
		return nil, err
	}
	return order, nil
}

// ListOrders returns a restaurant's orders newest first, optionally filtered by status.
func (s *OrderService) ListOrders(ctx context.Context, restaurantID string, statuses []models.OrderStatus) ([]models.Order, error) {
	if _, err := s.Restaurants.FindRestaurant(ctx, restaurantID); err != nil {
		return nil, err
	}
	orders, err := s.Store.ListByRestaurant(ctx, restaurantID, statuses)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

// KitchenView returns the active orders of a restaurant annotated for the display.
func (s *OrderService) KitchenView(ctx context.Context, restaurantID string) ([]models.KitchenOrder, error) {
	orders, err := s.ListOrders(ctx, restaurantID, models.ActiveStatuses)
	if err != nil {
		return nil, err
	}
	return AnnotateAll(orders, s.now()), nil
}

// UpdateStatus is the only way an order's status changes. The store write is
// conditional on the status the transition was validated against, so two
// racing requests cannot both succeed.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID string, req StatusUpdateRequest, actor Actor) (*models.Order, error) {
	current, err := s.Store.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	next, err := ApplyTransition(*current, req.Status, TransitionContext{
		EstimatedReadyTime: req.EstimatedReadyTime,
		CancellationReason: req.CancellationReason,
		Actor:              actor,
	}, s.now())
	if err != nil {
		return nil, err
	}

	if err := s.Store.UpdateStatus(ctx, &next, current.Status); err != nil {
		return nil, err
	}

	s.Logger.WithFields(logrus.Fields{
		"order_id":      next.ID,
		"restaurant_id": next.RestaurantID,
		"from":          current.Status,
		"to":            next.Status,
		"actor":         actor.Kind,
	}).Info("order status changed")
	s.Notifier.OrderStatusChanged(next, current.Status)

	return &next, nil
}

// CancelOrder is the customer-facing shortcut for a transition to cancelled.
func (s *OrderService) CancelOrder(ctx context.Context, orderID, reason string, actor Actor) (*models.Order, error) {
	req := StatusUpdateRequest{Status: models.StatusCancelled}
	if reason = strings.TrimSpace(reason); reason != "" {
		req.CancellationReason = &reason
	}
	return s.UpdateStatus(ctx, orderID, req, actor)
}
