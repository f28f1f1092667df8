package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/ayusman/abhinaya/internal/gesture"
	"github.com/ayusman/abhinaya/internal/skeleton"
)

const (
	writeTimeout = time.Second
	clientBuffer = 64
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// Event types sent on /api/events.
const (
	EventUserDetected = "user_detected"
	EventUserLost     = "user_lost"
	EventProgress     = "progress"
	EventCompleted    = "completed"
	EventCancelled    = "cancelled"
)

// Event is one listener callback serialized for websocket clients.
type Event struct {
	Type      string       `json:"type"`
	UserID    uint32       `json:"user_id"`
	Gesture   gesture.Kind `json:"gesture,omitempty"`
	Joint     string       `json:"joint,omitempty"`
	Progress  float64      `json:"progress,omitempty"`
	Output    *[3]float64  `json:"output,omitempty"`
	Timestamp int64        `json:"timestamp"`
}

// EventsHandler is a gesture listener that broadcasts every event to the
// connected websocket clients.
type EventsHandler struct {
	clients map[*client]bool
	mu      sync.Mutex
	now     func() time.Time
}

// client is one websocket connection with its outgoing queue. The queue is
// drained by a writer goroutine, so broadcasting never waits on the network.
type client struct {
	conn *websocket.Conn
	send chan []byte
}

// NewEventsHandler creates a new EventsHandler.
func NewEventsHandler() *EventsHandler {
	return &EventsHandler{
		clients: make(map[*client]bool),
		now:     time.Now,
	}
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Websocket upgrade error: %v", err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, clientBuffer)}
	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		h.write(c)
	}()

	// Keep connection alive by reading messages
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.drop(c)
	<-done
}

// write sends queued messages until the client is dropped or a write fails.
func (h *EventsHandler) write(c *client) {
	defer c.conn.Close()
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			h.drop(c)
			return
		}
	}
}

// Clients returns the number of connected clients.
func (h *EventsHandler) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *EventsHandler) drop(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.remove(c)
}

// remove must be called with h.mu held.
func (h *EventsHandler) remove(c *client) {
	if h.clients[c] {
		delete(h.clients, c)
		close(c.send)
	}
}

// Broadcast queues the event for all connected clients. Clients whose
// queue is full are disconnected.
func (h *EventsHandler) Broadcast(ev Event) {
	if ev.Timestamp == 0 {
		ev.Timestamp = h.now().UnixMilli()
	}
	msg, err := json.Marshal(ev)
	if err != nil {
		log.Printf("Failed to encode %s event: %v", ev.Type, err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			log.Printf("Dropping slow websocket client")
			h.remove(c)
		}
	}
}

func (h *EventsHandler) OnUserDetected(userID uint32) {
	h.Broadcast(Event{Type: EventUserDetected, UserID: userID})
}

func (h *EventsHandler) OnUserLost(userID uint32) {
	h.Broadcast(Event{Type: EventUserLost, UserID: userID})
}

func (h *EventsHandler) OnGestureInProgress(userID uint32, kind gesture.Kind, progress float64, joint skeleton.Joint, output r3.Vec) {
	h.Broadcast(Event{
		Type:     EventProgress,
		UserID:   userID,
		Gesture:  kind,
		Joint:    joint.String(),
		Progress: progress,
		Output:   vector(output),
	})
}

// OnGestureCompleted never asks for a restart.
func (h *EventsHandler) OnGestureCompleted(userID uint32, kind gesture.Kind, joint skeleton.Joint, output r3.Vec) bool {
	h.Broadcast(Event{
		Type:     EventCompleted,
		UserID:   userID,
		Gesture:  kind,
		Joint:    joint.String(),
		Progress: 1,
		Output:   vector(output),
	})
	return false
}

func (h *EventsHandler) OnGestureCancelled(userID uint32, kind gesture.Kind, joint skeleton.Joint) bool {
	h.Broadcast(Event{
		Type:    EventCancelled,
		UserID:  userID,
		Gesture: kind,
		Joint:   joint.String(),
	})
	return false
}

func vector(v r3.Vec) *[3]float64 {
	return &[3]float64{v.X, v.Y, v.Z}
}
