package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/yeremiapane/order-platform/models"
)

const (
	OrderEventsExchange = "orders_events"

	EventOrderCreated       = "order_created"
	EventOrderStatusChanged = "order_status_changed"
)

// OrderEvent is the message body published for every order change.
type OrderEvent struct {
	Event          string             `json:"event"`
	OrderID        string             `json:"order_id"`
	RestaurantID   string             `json:"restaurant_id"`
	Status         models.OrderStatus `json:"status"`
	PreviousStatus models.OrderStatus `json:"previous_status,omitempty"`
	TotalPrice     string             `json:"total_price"`
	OccurredAt     time.Time          `json:"occurred_at"`
}

func newOrderEvent(event string, order models.Order, previous models.OrderStatus) OrderEvent {
	return OrderEvent{
		Event:          event,
		OrderID:        order.ID,
		RestaurantID:   order.RestaurantID,
		Status:         order.Status,
		PreviousStatus: previous,
		TotalPrice:     order.TotalPrice.StringFixed(2),
		OccurredAt:     order.UpdatedAt,
	}
}

type amqpPublisherChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// EventPublisher publishes order events to a RabbitMQ fanout exchange.
// Failures are logged and never reach the caller.
type EventPublisher struct {
	conn    *amqp.Connection
	ch      amqpPublisherChannel
	mu      sync.Mutex
	timeout time.Duration
	logger  logrus.FieldLogger
}

func NewEventPublisher(url string, logger logrus.FieldLogger) (*EventPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := ch.ExchangeDeclare(OrderEventsExchange, "fanout", true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange: %w", err)
	}

	p := newEventPublisher(ch, logger)
	p.conn = conn
	return p, nil
}

func newEventPublisher(ch amqpPublisherChannel, logger logrus.FieldLogger) *EventPublisher {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &EventPublisher{ch: ch, timeout: 5 * time.Second, logger: logger}
}

func (p *EventPublisher) OrderCreated(order models.Order) {
	p.publish(newOrderEvent(EventOrderCreated, order, ""))
}

func (p *EventPublisher) OrderStatusChanged(order models.Order, previous models.OrderStatus) {
	p.publish(newOrderEvent(EventOrderStatusChanged, order, previous))
}

func (p *EventPublisher) publish(event OrderEvent) {
	body, err := json.Marshal(event)
	if err != nil {
		p.logger.WithError(err).Error("failed to marshal order event")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	// amqp channels are not safe for concurrent publishing
	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.ch.PublishWithContext(ctx, OrderEventsExchange, "", false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    event.OccurredAt,
		Type:         event.Event,
		Body:         body,
	})
	if err != nil {
		p.logger.WithError(err).WithFields(logrus.Fields{
			"order_id": event.OrderID,
			"event":    event.Event,
		}).Error("failed to publish order event")
	}
}

func (p *EventPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ch.Close(); err != nil {
		return err
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
