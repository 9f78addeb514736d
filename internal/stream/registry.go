package stream

import (
	"sync"
)

// ConnectionRegistry manages all active WebSocket connections
type ConnectionRegistry struct {
	connections map[string]*Connection // connection_id -> connection
	mu          sync.RWMutex
}

// NewConnectionRegistry creates a new connection registry
func NewConnectionRegistry() *ConnectionRegistry {
	return &ConnectionRegistry{
		connections: make(map[string]*Connection),
	}
}

// Add adds a connection to the registry
func (r *ConnectionRegistry) Add(conn *Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.connections[conn.ID] = conn
}

// Remove removes a connection from the registry, reporting whether it was
// present. Both pumps unregister on exit; only the first caller wins.
func (r *ConnectionRegistry) Remove(connectionID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.connections[connectionID]; !exists {
		return false
	}
	delete(r.connections, connectionID)
	return true
}

// Get retrieves a connection by ID
func (r *ConnectionRegistry) Get(connectionID string) (*Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, exists := r.connections[connectionID]
	return conn, exists
}

// GetAll retrieves all connections
func (r *ConnectionRegistry) GetAll() []*Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	connections := make([]*Connection, 0, len(r.connections))
	for _, conn := range r.connections {
		connections = append(connections, conn)
	}
	return connections
}

// Subscribers retrieves the connections subscribed to a symbol
func (r *ConnectionRegistry) Subscribers(symbol string) []*Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	connections := make([]*Connection, 0)
	for _, conn := range r.connections {
		if conn.IsSubscribed(symbol) {
			connections = append(connections, conn)
		}
	}
	return connections
}

// Count returns the total number of connections
func (r *ConnectionRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.connections)
}
