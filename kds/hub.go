package kds

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/yeremiapane/order-platform/models"
)

// Event types
const (
	EventOrderCreated       = "order_created"
	EventOrderStatusChanged = "order_status_changed"
)

const writeWait = 5 * time.Second

type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

type OrderStatusChange struct {
	Order          models.Order       `json:"order"`
	PreviousStatus models.OrderStatus `json:"previous_status"`
}

// sendBuffer is how many events a screen may fall behind before it is dropped.
const sendBuffer = 32

type client struct {
	conn         *websocket.Conn
	role         string
	restaurantID string
	// All restaurants, for admin screens.
	all  bool
	send chan []byte
}

// Hub menampung semua koneksi websocket layar dapur dan mengirim event order
// hanya ke layar milik restoran yang sama. Setiap layar punya antrian dan
// goroutine penulis sendiri, jadi Broadcast tidak pernah menunggu jaringan.
type Hub struct {
	clients map[*websocket.Conn]*client
	mutex   sync.Mutex
	logger  logrus.FieldLogger
}

func NewHub(logger logrus.FieldLogger) *Hub {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Hub{
		clients: make(map[*websocket.Conn]*client),
		logger:  logger,
	}
}

// RegisterClient -> menambahkan connection dengan role dan restoran
func (h *Hub) RegisterClient(conn *websocket.Conn, role, restaurantID string, all bool) {
	c := &client{
		conn:         conn,
		role:         role,
		restaurantID: restaurantID,
		all:          all,
		send:         make(chan []byte, sendBuffer),
	}
	h.mutex.Lock()
	h.clients[conn] = c
	h.mutex.Unlock()

	go h.writePump(c)
}

// UnregisterClient -> melepaskan connection
func (h *Hub) UnregisterClient(conn *websocket.Conn) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.removeLocked(conn)
}

// removeLocked closes the client's queue; its writer then closes the socket.
func (h *Hub) removeLocked(conn *websocket.Conn) {
	if c, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		close(c.send)
	}
}

// ClientCount reports connected screens; /ping exposes it.
func (h *Hub) ClientCount() int {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.clients)
}

func (h *Hub) OrderCreated(order models.Order) {
	h.Broadcast(order.RestaurantID, Message{Event: EventOrderCreated, Data: order})
}

func (h *Hub) OrderStatusChanged(order models.Order, previous models.OrderStatus) {
	h.Broadcast(order.RestaurantID, Message{
		Event: EventOrderStatusChanged,
		Data:  OrderStatusChange{Order: order, PreviousStatus: previous},
	})
}

// Broadcast queues msg for every screen of restaurantID without blocking.
// A screen whose queue is full is too far behind and gets dropped.
func (h *Hub) Broadcast(restaurantID string, msg Message) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.WithError(err).Error("Error marshaling message")
		return
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()

	for conn, c := range h.clients {
		if !c.all && c.restaurantID != restaurantID {
			continue
		}
		select {
		case c.send <- data:
		default:
			h.logger.WithField("role", c.role).Warn("Client is not keeping up, dropping it")
			h.removeLocked(conn)
		}
	}
}

func (h *Hub) writePump(c *client) {
	defer c.conn.Close()
	for data := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			h.logger.WithError(err).WithField("role", c.role).Warn("Error sending message to client, dropping it")
			h.UnregisterClient(c.conn)
			return
		}
	}
}
