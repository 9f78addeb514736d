// Package stream pushes live snapshot updates and streamed sentiment
// analysis to WebSocket clients.
package stream

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/mohamedkhairy/stock-pulse/internal/cache"
	"github.com/mohamedkhairy/stock-pulse/internal/config"
	"github.com/mohamedkhairy/stock-pulse/internal/models"
	"github.com/mohamedkhairy/stock-pulse/pkg/logger"
)

// staleConnectionAge is how long a connection may go without a pong before
// the monitor drops it
const staleConnectionAge = 2 * time.Minute

// BackgroundFetcher schedules a non-blocking snapshot build for a symbol
type BackgroundFetcher interface {
	FetchAsync(symbol string)
}

// NewsSource returns the news bundle for a symbol
type NewsSource interface {
	Get(ctx context.Context, symbol string) (models.NewsBundle, error)
}

// Analyzer streams a sentiment report for a symbol's news
type Analyzer interface {
	AnalyzeStream(ctx context.Context, symbol string, news models.NewsBundle, onChunk func(string)) (models.SentimentReport, error)
}

// Hub manages WebSocket connections and broadcasts snapshot updates.
// Refreshed snapshots arrive through Broadcast and fan out to the
// connections subscribed to that symbol.
type Hub struct {
	config    config.ServerConfig
	registry  *ConnectionRegistry
	snapshots *cache.SnapshotCache
	fetcher   BackgroundFetcher
	news      NewsSource
	analyzer  Analyzer
	upgrader  websocket.Upgrader
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.RWMutex
	running   bool
}

// NewHub creates a new WebSocket hub
func NewHub(cfg config.ServerConfig, snapshots *cache.SnapshotCache, fetcher BackgroundFetcher, news NewsSource, analyzer Analyzer) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		config:    cfg,
		registry:  NewConnectionRegistry(),
		snapshots: snapshots,
		fetcher:   fetcher,
		news:      news,
		analyzer:  analyzer,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// MVP: Allow all origins
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start starts the hub's connection health monitor
func (h *Hub) Start() {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		return
	}
	h.running = true
	h.mu.Unlock()

	logger.Info("Starting WebSocket hub")
	h.wg.Add(1)
	go h.monitorConnections()
}

// Stop stops the hub and closes all connections
func (h *Hub) Stop() {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return
	}
	h.running = false
	h.mu.Unlock()

	logger.Info("Stopping WebSocket hub")
	h.cancel()
	for _, conn := range h.registry.GetAll() {
		h.Unregister(conn)
	}
	h.wg.Wait()
	logger.Info("WebSocket hub stopped")
}

// ServeWS handles a WebSocket upgrade request
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	socket, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("WebSocket upgrade failed",
			logger.ErrorField(err),
			logger.String("remote_addr", r.RemoteAddr),
		)
		return
	}

	conn := NewConnection(uuid.New().String(), socket)
	h.Register(conn)
}

// Register registers a new connection and starts its pumps
func (h *Hub) Register(conn *Connection) {
	h.registry.Add(conn)
	logger.WSConnectionsActive.Inc()

	logger.Info("Connection registered",
		logger.String("connection_id", conn.ID),
		logger.Int("total_connections", h.registry.Count()),
	)

	h.wg.Add(2)
	go h.writePump(conn)
	go h.readPump(conn)
}

// Unregister unregisters a connection
func (h *Hub) Unregister(conn *Connection) {
	if !h.registry.Remove(conn.ID) {
		return
	}
	logger.WSConnectionsActive.Dec()
	conn.Close()

	logger.Info("Connection unregistered",
		logger.String("connection_id", conn.ID),
		logger.Int("total_connections", h.registry.Count()),
	)
}

// Broadcast fans a refreshed snapshot out to its subscribers
func (h *Hub) Broadcast(snap *models.Snapshot) {
	subscribers := h.registry.Subscribers(snap.Symbol)
	sent := 0
	dropped := 0

	for _, conn := range subscribers {
		if err := conn.SendSnapshot(snap); err != nil {
			dropped++
			logger.Debug("Failed to send snapshot to connection",
				logger.ErrorField(err),
				logger.String("connection_id", conn.ID),
			)
		} else {
			sent++
		}
	}

	if sent > 0 || dropped > 0 {
		logger.Debug("Broadcast snapshot",
			logger.String("symbol", snap.Symbol),
			logger.Int("sent", sent),
			logger.Int("dropped", dropped),
		)
	}
}

// subscribe registers interest in a symbol and serves what the cache has: a
// cached snapshot immediately, otherwise a loading placeholder while a
// background build fills the cache
func (h *Hub) subscribe(conn *Connection, symbol string) {
	symbol = strings.ToUpper(symbol)
	conn.Subscribe(symbol)

	if snap, ok := h.snapshots.Get(symbol); ok {
		conn.SendSnapshot(snap)
		return
	}
	h.fetcher.FetchAsync(symbol)
	conn.SendSnapshot(cache.Placeholder(symbol))
}

// streamAnalysis streams a sentiment analysis for one symbol to one
// connection: chunk messages while the model responds, then a terminal
// report message
func (h *Hub) streamAnalysis(conn *Connection, symbol string) {
	symbol = strings.ToUpper(symbol)

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()

		ctx, cancel := context.WithTimeout(h.ctx, time.Minute)
		defer cancel()

		bundle, err := h.news.Get(ctx, symbol)
		if err != nil {
			logger.Warn("news fetch for analysis failed",
				logger.String("symbol", symbol),
				logger.ErrorField(err),
			)
			conn.SendError("analysis_failed", "news unavailable")
			return
		}

		report, err := h.analyzer.AnalyzeStream(ctx, symbol, bundle, func(chunk string) {
			conn.enqueue(ServerMessage{
				Type:   "sentiment_chunk",
				Symbol: symbol,
				Data:   chunk,
			})
		})
		if err != nil {
			logger.Warn("sentiment stream failed",
				logger.String("symbol", symbol),
				logger.ErrorField(err),
			)
			conn.SendError("analysis_failed", "sentiment analysis unavailable")
			return
		}

		conn.enqueue(ServerMessage{
			Type:   "sentiment_report",
			Symbol: symbol,
			Data:   report,
		})
	}()
}

// writePump pumps messages from the hub to the WebSocket connection
func (h *Hub) writePump(conn *Connection) {
	defer h.wg.Done()
	defer h.Unregister(conn)

	ticker := time.NewTicker(h.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-h.ctx.Done():
			return

		case message, ok := <-conn.Send:
			conn.Conn.SetWriteDeadline(time.Now().Add(h.config.WriteTimeout))
			if !ok {
				// Channel closed
				conn.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := conn.Conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Add queued messages to the current message
			n := len(conn.Send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-conn.Send)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			conn.Conn.SetWriteDeadline(time.Now().Add(h.config.WriteTimeout))
			if err := conn.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump pumps messages from the WebSocket connection to the hub
func (h *Hub) readPump(conn *Connection) {
	defer h.wg.Done()
	defer h.Unregister(conn)

	conn.Conn.SetReadDeadline(time.Now().Add(h.config.ReadTimeout))
	conn.Conn.SetPongHandler(func(string) error {
		conn.UpdateLastPong()
		conn.Conn.SetReadDeadline(time.Now().Add(h.config.ReadTimeout))
		return nil
	})

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Debug("WebSocket error",
					logger.ErrorField(err),
					logger.String("connection_id", conn.ID),
				)
			}
			break
		}

		var clientMsg ClientMessage
		if err := json.Unmarshal(message, &clientMsg); err != nil {
			conn.SendError("invalid_message", "failed to parse message")
			continue
		}

		if err := h.handleClientMessage(conn, &clientMsg); err != nil {
			logger.Debug("Failed to handle client message",
				logger.ErrorField(err),
				logger.String("connection_id", conn.ID),
			)
		}
	}
}

// monitorConnections drops connections that stopped answering pings
func (h *Hub) monitorConnections() {
	defer h.wg.Done()

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-h.ctx.Done():
			return
		case <-ticker.C:
			for _, conn := range h.registry.GetAll() {
				if time.Since(conn.GetLastPong()) > staleConnectionAge {
					logger.Info("Dropping stale connection",
						logger.String("connection_id", conn.ID),
					)
					h.Unregister(conn)
				}
			}
		}
	}
}
