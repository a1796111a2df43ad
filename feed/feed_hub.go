package feed

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/yeremiapane/restaurant-booking/utils"
)

// Event types
const (
	EventBookingCreated   = "booking_created"
	EventBookingUpdated   = "booking_updated"
	EventBookingConfirmed = "booking_confirmed"
	EventBookingCancelled = "booking_cancelled"
	EventBookingDeleted   = "booking_deleted"
	EventTableCreated     = "table_created"
	EventTableUpdated     = "table_updated"
	EventTableDeleted     = "table_deleted"
	EventMenuCreated      = "menu_created"
	EventMenuUpdated      = "menu_updated"
	EventMenuDeleted      = "menu_deleted"
	EventUserRegistered   = "user_registered"
)

const (
	defaultHistory    = 50
	defaultSendBuffer = 16
	writeWait         = 5 * time.Second
)

type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
	At    time.Time   `json:"at"`
}

type client struct {
	conn   *websocket.Conn
	userID uint
	send   chan []byte
}

// Hub fans admin activity out to connected websocket clients and keeps the
// latest events for the dashboard. A nil *Hub drops everything.
//
// Each client has its own writer goroutine fed by a buffered queue, so a
// stalled socket never holds up Publish. A client whose queue is full is
// dropped.
type Hub struct {
	clients    map[*websocket.Conn]*client
	recent     []Message
	size       int
	sendBuffer int
	mutex      sync.Mutex
}

func NewHub(history int) *Hub {
	if history <= 0 {
		history = defaultHistory
	}
	return &Hub{
		clients:    make(map[*websocket.Conn]*client),
		size:       history,
		sendBuffer: defaultSendBuffer,
	}
}

func (h *Hub) Register(conn *websocket.Conn, userID uint) {
	if h == nil {
		return
	}
	go h.writePump(h.add(conn, userID))
}

func (h *Hub) add(conn *websocket.Conn, userID uint) *client {
	c := &client{conn: conn, userID: userID, send: make(chan []byte, h.sendBuffer)}
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.clients[conn] = c
	return c
}

// Unregister stops the client's writer, which then closes the socket.
func (h *Hub) Unregister(conn *websocket.Conn) {
	if h == nil {
		return
	}
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.removeLocked(conn)
}

func (h *Hub) removeLocked(conn *websocket.Conn) {
	if c, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		close(c.send)
	}
}

func (h *Hub) writePump(c *client) {
	defer c.conn.Close()
	for payload := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			utils.ErrorLogger.Printf("Dropping feed client of user %d: %v", c.userID, err)
			h.Unregister(c.conn)
			return
		}
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
}

func (h *Hub) ClientCount() int {
	if h == nil {
		return 0
	}
	h.mutex.Lock()
	defer h.mutex.Unlock()
	return len(h.clients)
}

// Recent returns up to n events, newest first.
func (h *Hub) Recent(n int) []Message {
	if h == nil {
		return nil
	}
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if n <= 0 || n > len(h.recent) {
		n = len(h.recent)
	}
	out := make([]Message, 0, n)
	for i := len(h.recent) - 1; i >= len(h.recent)-n; i-- {
		out = append(out, h.recent[i])
	}
	return out
}

// Publish records the event and queues it for every client without waiting
// on any socket.
func (h *Hub) Publish(event string, data interface{}) {
	if h == nil {
		return
	}
	msg := Message{Event: event, Data: data, At: time.Now()}
	payload, err := json.Marshal(msg)
	if err != nil {
		utils.ErrorLogger.Printf("Error marshaling feed message %s: %v", event, err)
		return
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()

	h.recent = append(h.recent, msg)
	if len(h.recent) > h.size {
		h.recent = h.recent[len(h.recent)-h.size:]
	}

	for conn, c := range h.clients {
		select {
		case c.send <- payload:
		default:
			utils.ErrorLogger.Printf("Dropping slow feed client of user %d", c.userID)
			h.removeLocked(conn)
		}
	}
}
