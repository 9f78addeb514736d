package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/mohamedkhairy/stock-pulse/internal/api"
	"github.com/mohamedkhairy/stock-pulse/internal/cache"
	"github.com/mohamedkhairy/stock-pulse/internal/config"
	"github.com/mohamedkhairy/stock-pulse/internal/data"
	"github.com/mohamedkhairy/stock-pulse/internal/news"
	"github.com/mohamedkhairy/stock-pulse/internal/quote"
	"github.com/mohamedkhairy/stock-pulse/internal/scheduler"
	"github.com/mohamedkhairy/stock-pulse/internal/sentiment"
	"github.com/mohamedkhairy/stock-pulse/internal/stream"
	"github.com/mohamedkhairy/stock-pulse/pkg/logger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logger.Init(cfg.LogLevel, cfg.Environment); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting quote service",
		logger.Int("port", cfg.Server.Port),
		logger.String("provider", cfg.MarketData.Provider),
		logger.String("cache_backend", cfg.Cache.Backend),
		logger.Int("hot_symbols", len(cfg.Refresh.HotSymbols)),
	)

	// Initialize market data provider
	provider, err := data.NewProvider(cfg.MarketData)
	if err != nil {
		logger.Fatal("Failed to initialize market data provider",
			logger.ErrorField(err),
		)
	}

	// Initialize TTL store for the news and sentiment sub-caches
	store, err := newStore(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize cache store",
			logger.ErrorField(err),
		)
	}

	// Initialize snapshot pipeline
	snapshots := cache.NewSnapshotCache()
	newsFetcher := news.NewFetcher(cfg.News, store, cfg.Cache.NewsTTL)
	analyzer := sentiment.NewCachedAnalyzer(
		sentiment.NewGrokAnalyzer(cfg.Sentiment),
		store,
		cfg.Cache.SentimentTTL,
	)
	service := quote.NewService(provider, newsFetcher, analyzer, snapshots)

	// Initialize schedulers
	supervisor := scheduler.NewSupervisor(service, cfg.Refresh)
	refresher := scheduler.NewRefresher(service, cfg.Refresh)

	// Initialize WebSocket hub and route refreshed snapshots to subscribers
	hub := stream.NewHub(cfg.Server, snapshots, supervisor, newsFetcher, analyzer)
	supervisor.OnResult(hub.Broadcast)
	refresher.OnResult(hub.Broadcast)
	hub.Start()

	// Warm the hot set, then keep it fresh
	refresher.Start()

	// Initialize handlers
	quoteHandler := api.NewQuoteHandler(snapshots, supervisor, provider)

	// Set up router
	router := mux.NewRouter()

	// API v1 routes
	v1 := router.PathPrefix("/api/v1").Subrouter()
	v1.HandleFunc("/quotes/{symbol}", quoteHandler.GetQuote).Methods("GET")
	v1.HandleFunc("/search/{query}", quoteHandler.SearchSymbols).Methods("GET")
	v1.HandleFunc("/symbols", quoteHandler.HotSymbols).Methods("GET")

	// WebSocket endpoint
	router.HandleFunc("/ws", hub.ServeWS)

	// Health endpoints
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
	}).Methods("GET")

	router.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if snapshots.Len() == 0 {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]string{"status": "warming"})
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"status": "ready"})
	}).Methods("GET")

	router.HandleFunc("/live", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "alive"})
	}).Methods("GET")

	// Metrics endpoint
	router.Handle("/metrics", promhttp.Handler())

	// Apply middleware
	middlewares := api.ChainMiddleware(
		api.CORSMiddleware(),
		api.LoggingMiddleware(),
		api.ErrorHandlingMiddleware(),
		api.RateLimitMiddleware(cfg.Server.RateLimitRPS),
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      middlewares(router),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server
	go func() {
		logger.Info("HTTP server listening",
			logger.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server failed",
				logger.ErrorField(err),
			)
		}
	}()

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan

	logger.Info("Shutting down",
		logger.String("signal", sig.String()),
	)

	// Shutdown HTTP server
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("HTTP server shutdown failed",
			logger.ErrorField(err),
		)
	}

	// Stop background work
	refresher.Stop()
	supervisor.Stop()
	hub.Stop()

	logger.Info("Shutdown complete")
}

// newStore selects the TTL cache backend
func newStore(cfg *config.Config) (cache.Store, error) {
	switch cfg.Cache.Backend {
	case "redis":
		return cache.NewRedisStore(cfg.Redis)
	case "memory", "":
		return cache.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown cache backend: %s", cfg.Cache.Backend)
	}
}
