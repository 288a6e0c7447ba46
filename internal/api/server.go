package api

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ducminhle1904/batch-trade-bot/internal/broker"
	"github.com/ducminhle1904/batch-trade-bot/internal/config"
	"github.com/ducminhle1904/batch-trade-bot/internal/engine"
	"github.com/ducminhle1904/batch-trade-bot/internal/ledger"
	"github.com/ducminhle1904/batch-trade-bot/internal/logger"
	"github.com/ducminhle1904/batch-trade-bot/internal/monitoring"
	"github.com/ducminhle1904/batch-trade-bot/internal/notifications"
)

// Server exposes the batch engine over HTTP. It owns the daily
// trading-halt state: once the loss limit fires, every open position is
// closed and new batches are rejected until the next trading day.
type Server struct {
	coordinator *engine.Coordinator
	broker      broker.Client
	store       *ledger.Store
	riskLedger  engine.Ledger
	cfg         *config.Config
	notifier    notifications.Notifier
	health      *monitoring.HealthChecker
	log         *logger.Logger

	mu             sync.Mutex
	disabledForDay string // trading day for which trading is halted
	httpServer     *http.Server
}

// NewServer wires the HTTP API around an already-connected engine
func NewServer(
	coordinator *engine.Coordinator,
	b broker.Client,
	store *ledger.Store,
	riskLedger engine.Ledger,
	cfg *config.Config,
	notifier notifications.Notifier,
	health *monitoring.HealthChecker,
	log *logger.Logger,
) *Server {
	return &Server{
		coordinator: coordinator,
		broker:      b,
		store:       store,
		riskLedger:  riskLedger,
		cfg:         cfg,
		notifier:    notifier,
		health:      health,
		log:         log,
	}
}

// Router builds the gin engine with all API routes
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	v1 := r.Group("/api/v1")
	{
		v1.POST("/batch", s.handlePlaceBatch)
		v1.POST("/breakout", s.handlePlaceBreakout)

		v1.GET("/positions", s.handleGetPositions)
		v1.POST("/positions/close-all", s.handleCloseAll)
		v1.POST("/positions/breakeven", s.handleBreakevenAll)
		v1.POST("/positions/trail-stop", s.handleTrailStop)
		v1.POST("/orders/cancel-all", s.handleCancelAll)

		v1.GET("/account", s.handleGetAccount)
		v1.GET("/risk", s.handleGetRisk)
		v1.GET("/history", s.handleGetHistory)
		v1.POST("/history/export", s.handleExportHistory)
	}

	return r
}

// Start runs the API server until the context is cancelled
func (s *Server) Start(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:         s.cfg.Server.ListenAddr,
		Handler:      s.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("api server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}

// tradingHalted reports whether trading is disabled for the current
// trading day
func (s *Server) tradingHalted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.disabledForDay != "" && s.disabledForDay == s.store.TradingDay(time.Now())
}

// haltTradingForDay force-closes everything and rejects new batches
// until the next trading day. This is the loss-limit reaction: cut all
// exposure, then stand down.
func (s *Server) haltTradingForDay(ctx context.Context, reason string) {
	s.mu.Lock()
	s.disabledForDay = s.store.TradingDay(time.Now())
	s.mu.Unlock()

	s.log.Risk("trading halted for the day: %s", reason)
	if s.health != nil {
		s.health.SetHalted(reason)
	}

	if _, err := s.coordinator.CloseAllPositions(ctx); err != nil {
		s.log.Error("force close after loss limit: %v", err)
	}
	if err := s.coordinator.CancelAllPendingOrders(ctx, s.cfg.Trading.Symbol); err != nil {
		s.log.Error("cancel pending after loss limit: %v", err)
	}

	s.notify("error", fmt.Sprintf("Daily loss limit hit. All positions closed, trading halted until the next trading day.\n%s", reason))
}

func (s *Server) notify(level, message string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.SendAlert(level, message); err != nil {
		s.log.Warning("notification failed: %v", err)
	}
}
