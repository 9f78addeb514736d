package stream

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mohamedkhairy/stock-pulse/internal/models"
	"github.com/mohamedkhairy/stock-pulse/pkg/logger"
)

// Connection represents a WebSocket connection with a client
type Connection struct {
	ID            string
	Conn          *websocket.Conn
	Send          chan []byte
	Subscriptions map[string]bool // symbol -> subscribed
	mu            sync.RWMutex
	ctx           context.Context
	cancel        context.CancelFunc
	lastPong      time.Time
	createdAt     time.Time
}

// NewConnection creates a new WebSocket connection
func NewConnection(id string, conn *websocket.Conn) *Connection {
	ctx, cancel := context.WithCancel(context.Background())
	return &Connection{
		ID:            id,
		Conn:          conn,
		Send:          make(chan []byte, 256), // Buffered channel
		Subscriptions: make(map[string]bool),
		ctx:           ctx,
		cancel:        cancel,
		createdAt:     time.Now(),
		lastPong:      time.Now(),
	}
}

// Subscribe subscribes to snapshot updates for a symbol
func (c *Connection) Subscribe(symbol string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Subscriptions[strings.ToUpper(symbol)] = true
}

// Unsubscribe unsubscribes from snapshot updates for a symbol
func (c *Connection) Unsubscribe(symbol string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.Subscriptions, strings.ToUpper(symbol))
}

// IsSubscribed checks if the connection is subscribed to a symbol
func (c *Connection) IsSubscribed(symbol string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Subscriptions[strings.ToUpper(symbol)]
}

// UpdateLastPong updates the last pong time
func (c *Connection) UpdateLastPong() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastPong = time.Now()
}

// GetLastPong returns the last pong time
func (c *Connection) GetLastPong() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastPong
}

// Close closes the connection
func (c *Connection) Close() {
	c.cancel()
	close(c.Send)
	c.Conn.Close()
}

// WriteJSON writes a JSON message to the connection
func (c *Connection) WriteJSON(v interface{}) error {
	c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return c.Conn.WriteJSON(v)
}

// ReadMessage reads a message from the connection
func (c *Connection) ReadMessage() (messageType int, p []byte, err error) {
	return c.Conn.ReadMessage()
}

// enqueue queues a marshaled message, dropping it when the channel stays full
func (c *Connection) enqueue(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	select {
	case <-c.ctx.Done():
		return c.ctx.Err()
	default:
	}

	select {
	case c.Send <- data:
		return nil
	case <-c.ctx.Done():
		return c.ctx.Err()
	case <-time.After(1 * time.Second):
		logger.Warn("Failed to send message, channel full",
			logger.String("connection_id", c.ID),
		)
		return nil // Drop message if channel is full
	}
}

// SendSnapshot sends a snapshot update to the connection
func (c *Connection) SendSnapshot(snap *models.Snapshot) error {
	return c.enqueue(ServerMessage{
		Type:   "quote",
		Symbol: snap.Symbol,
		Data:   snap,
	})
}

// SendError sends an error message to the connection
func (c *Connection) SendError(code string, message string) error {
	errorMsg := ServerMessage{
		Type:    "error",
		Code:    code,
		Message: message,
	}

	data, err := json.Marshal(errorMsg)
	if err != nil {
		return err
	}

	select {
	case <-c.ctx.Done():
		return c.ctx.Err()
	default:
	}

	select {
	case c.Send <- data:
		return nil
	case <-c.ctx.Done():
		return c.ctx.Err()
	default:
		// Drop error message if channel is full
		return nil
	}
}
