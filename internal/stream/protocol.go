package stream

import (
	"fmt"

	"github.com/mohamedkhairy/stock-pulse/pkg/logger"
)

// MessageType represents the type of WebSocket message
type MessageType string

const (
	MessageTypeSubscribe   MessageType = "subscribe"
	MessageTypeUnsubscribe MessageType = "unsubscribe"
	MessageTypeAnalyze     MessageType = "analyze"
	MessageTypePing        MessageType = "ping"
	MessageTypePong        MessageType = "pong"
)

// ClientMessage represents a message from the client
type ClientMessage struct {
	Type    string   `json:"type"`
	Symbol  string   `json:"symbol,omitempty"`
	Symbols []string `json:"symbols,omitempty"`
}

// ServerMessage represents a message to the client
type ServerMessage struct {
	Type    string      `json:"type"`
	Symbol  string      `json:"symbol,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Code    string      `json:"code,omitempty"`
	Message string      `json:"message,omitempty"`
}

// handleClientMessage dispatches a parsed client message
func (h *Hub) handleClientMessage(conn *Connection, msg *ClientMessage) error {
	switch MessageType(msg.Type) {
	case MessageTypeSubscribe:
		if msg.Symbol != "" {
			h.subscribe(conn, msg.Symbol)
			logger.Debug("Client subscribed to symbol",
				logger.String("connection_id", conn.ID),
				logger.String("symbol", msg.Symbol),
			)
			return conn.SendSuccess("subscribed", map[string]string{"symbol": msg.Symbol})
		} else if len(msg.Symbols) > 0 {
			for _, symbol := range msg.Symbols {
				h.subscribe(conn, symbol)
			}
			logger.Debug("Client subscribed to symbols",
				logger.String("connection_id", conn.ID),
				logger.Int("count", len(msg.Symbols)),
			)
			return conn.SendSuccess("subscribed", map[string]interface{}{"symbols": msg.Symbols})
		}
		return conn.SendError("invalid_request", "symbol or symbols field required")

	case MessageTypeUnsubscribe:
		if msg.Symbol != "" {
			conn.Unsubscribe(msg.Symbol)
			logger.Debug("Client unsubscribed from symbol",
				logger.String("connection_id", conn.ID),
				logger.String("symbol", msg.Symbol),
			)
			return conn.SendSuccess("unsubscribed", map[string]string{"symbol": msg.Symbol})
		} else if len(msg.Symbols) > 0 {
			for _, symbol := range msg.Symbols {
				conn.Unsubscribe(symbol)
			}
			logger.Debug("Client unsubscribed from symbols",
				logger.String("connection_id", conn.ID),
				logger.Int("count", len(msg.Symbols)),
			)
			return conn.SendSuccess("unsubscribed", map[string]interface{}{"symbols": msg.Symbols})
		}
		return conn.SendError("invalid_request", "symbol or symbols field required")

	case MessageTypeAnalyze:
		if msg.Symbol == "" {
			return conn.SendError("invalid_request", "symbol field required")
		}
		h.streamAnalysis(conn, msg.Symbol)
		return nil

	case MessageTypePing:
		// Respond with pong
		return conn.SendPong()

	default:
		return conn.SendError("unknown_message_type", fmt.Sprintf("unknown message type: %s", msg.Type))
	}
}

// SendSuccess sends a success message to the client
func (c *Connection) SendSuccess(action string, data interface{}) error {
	return c.enqueue(ServerMessage{
		Type: "success",
		Data: map[string]interface{}{
			"action": action,
			"data":   data,
		},
	})
}

// SendPong sends a pong message to the client
func (c *Connection) SendPong() error {
	return c.enqueue(ServerMessage{
		Type: "pong",
	})
}
