package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ducminhle1904/batch-trade-bot/internal/broker"
	"github.com/ducminhle1904/batch-trade-bot/internal/engine"
	"github.com/ducminhle1904/batch-trade-bot/internal/monitoring"
	"github.com/ducminhle1904/batch-trade-bot/pkg/reporting"
)

// placeRequest is the body for batch and breakout placement
type placeRequest struct {
	Side   string `json:"side" binding:"required"`
	Symbol string `json:"symbol"`
}

type actionRequest struct {
	Count        int `json:"count"`
	OffsetPoints int `json:"offset_points"`
}

func (s *Server) handlePlaceBatch(c *gin.Context) {
	cmd, ok := s.bindPlaceCommand(c)
	if !ok {
		return
	}

	result, err := s.coordinator.ExecuteBatch(c.Request.Context(), cmd)
	s.finishPlacement(c, cmd.Symbol, cmd.Side, result, err)
}

func (s *Server) handlePlaceBreakout(c *gin.Context) {
	cmd, ok := s.bindPlaceCommand(c)
	if !ok {
		return
	}

	result, err := s.coordinator.ExecuteBreakout(c.Request.Context(), engine.PlaceBreakoutCommand(cmd))
	s.finishPlacement(c, cmd.Symbol, cmd.Side, result, err)
}

// bindPlaceCommand parses the request and assembles the immutable
// command snapshot from the current config
func (s *Server) bindPlaceCommand(c *gin.Context) (engine.PlaceBatchCommand, bool) {
	var req placeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return engine.PlaceBatchCommand{}, false
	}
	side, err := broker.ParseSide(req.Side)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return engine.PlaceBatchCommand{}, false
	}
	if s.tradingHalted() {
		c.JSON(http.StatusLocked, gin.H{"error": "trading is halted for the current trading day"})
		return engine.PlaceBatchCommand{}, false
	}

	engineCfg, err := s.cfg.EngineConfig()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return engine.PlaceBatchCommand{}, false
	}

	symbol := req.Symbol
	if symbol == "" {
		symbol = s.cfg.Trading.Symbol
	}

	return engine.PlaceBatchCommand{
		Symbol: symbol,
		Side:   side,
		Spec:   s.cfg.BatchSpec(),
		Config: engineCfg,
	}, true
}

// finishPlacement maps the engine outcome onto HTTP, metrics and the
// loss-limit halt reaction
func (s *Server) finishPlacement(c *gin.Context, symbol string, side broker.Side, result *engine.BatchResult, err error) {
	if err != nil {
		switch {
		case errors.Is(err, engine.ErrDailyLossLimit):
			monitoring.RecordRiskRejection("daily_loss_limit")
			s.haltTradingForDay(c.Request.Context(), err.Error())
			c.JSON(http.StatusLocked, gin.H{"error": err.Error()})
		case errors.Is(err, engine.ErrDailyTradeLimit):
			monitoring.RecordRiskRejection("daily_trade_limit")
			c.JSON(http.StatusLocked, gin.H{"error": err.Error()})
		default:
			monitoring.RecordBatch(symbol, side.String(), "error", 0, 0, 0)
			monitoring.RecordError("batch_execution")
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "result": result})
		}
		return
	}

	outcome := "ok"
	if result.SubmittedCount() < result.EnabledCount {
		outcome = "partial"
	}
	monitoring.RecordBatch(symbol, side.String(), outcome,
		result.SubmittedCount(), len(result.Skipped), len(result.Failed))
	s.log.LogBatchOutcome(side.String(), result.SubmittedCount(), result.EnabledCount,
		len(result.Skipped), len(result.Failed))
	reporting.NewConsoleReporter().PrintBatchResult(symbol, side, result)

	if tick, tickErr := s.broker.GetTick(c.Request.Context(), symbol); tickErr == nil {
		price := (tick.Bid + tick.Ask) / 2
		monitoring.UpdatePrice(symbol, price)
		if s.health != nil {
			s.health.RecordBatch(price)
		}
	}

	c.JSON(http.StatusOK, gin.H{"result": result})
}

func (s *Server) handleGetPositions(c *gin.Context) {
	positions, err := s.broker.GetAllPositions(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"positions": positions})
}

func (s *Server) handleCloseAll(c *gin.Context) {
	result, err := s.coordinator.CloseAllPositions(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": result})
}

func (s *Server) handleBreakevenAll(c *gin.Context) {
	var req actionRequest
	_ = c.ShouldBindJSON(&req)
	offset := req.OffsetPoints
	if offset == 0 {
		offset = s.cfg.Trading.BreakevenOffsetPoints
	}

	result, err := s.coordinator.BreakevenAllPositions(c.Request.Context(), offset)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": result})
}

func (s *Server) handleTrailStop(c *gin.Context) {
	var req actionRequest
	_ = c.ShouldBindJSON(&req)

	result, err := s.coordinator.MoveStopToPreviousCandle(c.Request.Context(), req.Count, s.cfg.Trading.Timeframe)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": result})
}

func (s *Server) handleCancelAll(c *gin.Context) {
	var req placeRequest
	_ = c.ShouldBindJSON(&req)
	symbol := req.Symbol
	if symbol == "" {
		symbol = s.cfg.Trading.Symbol
	}

	if err := s.coordinator.CancelAllPendingOrders(c.Request.Context(), symbol); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cancelled"})
}

func (s *Server) handleGetAccount(c *gin.Context) {
	summary, err := s.broker.AccountSummary(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"account": summary})
}

func (s *Server) handleGetRisk(c *gin.Context) {
	state, err := s.riskLedger.State(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"trading_day": s.store.TradingDay(time.Now()),
		"state":       state,
		"total_pnl":   state.TotalPnL(),
		"halted":      s.tradingHalted(),
		"limits":      s.cfg.Risk,
	})
}

type exportRequest struct {
	Path  string `json:"path"`
	Limit int    `json:"limit"`
}

func (s *Server) handleExportHistory(c *gin.Context) {
	var req exportRequest
	_ = c.ShouldBindJSON(&req)
	if req.Path == "" {
		req.Path = fmt.Sprintf("reports/trade_history_%s.xlsx", time.Now().Format("2006-01-02"))
	}

	entries, err := s.store.History(c.Request.Context(), req.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if err := reporting.NewExcelReporter().WriteTradeHistory(entries, req.Path); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"path": req.Path, "entries": len(entries)})
}

func (s *Server) handleGetHistory(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	entries, err := s.store.History(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": entries})
}
