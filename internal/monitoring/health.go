package monitoring

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

var startTime = time.Now()

// HealthChecker tracks broker connectivity and trading-halt state and
// serves them as a JSON health endpoint
type HealthChecker struct {
	mu          sync.RWMutex
	lastBatch   time.Time
	lastPrice   float64
	isConnected bool
	haltReason  string
	errors      []string
}

type HealthStatus struct {
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	LastBatch   time.Time `json:"last_batch"`
	LastPrice   float64   `json:"last_price"`
	IsConnected bool      `json:"is_connected"`
	HaltReason  string    `json:"halt_reason,omitempty"`
	Uptime      string    `json:"uptime"`
	Errors      []string  `json:"errors,omitempty"`
}

func NewHealthChecker() *HealthChecker {
	return &HealthChecker{
		errors: make([]string, 0),
	}
}

// SetConnected records broker connectivity
func (h *HealthChecker) SetConnected(connected bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.isConnected = connected
}

// RecordBatch records that a batch finished and the price it saw
func (h *HealthChecker) RecordBatch(price float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastBatch = time.Now()
	h.lastPrice = price
}

// SetHalted marks trading as halted for the given reason; an empty
// reason clears the halt
func (h *HealthChecker) SetHalted(reason string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.haltReason = reason
}

// RecordError appends an error to the health report
func (h *HealthChecker) RecordError(msg string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.errors = append(h.errors, msg)
	if len(h.errors) > 20 {
		h.errors = h.errors[len(h.errors)-20:]
	}
}

func (h *HealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	status := "healthy"
	if h.haltReason != "" {
		status = "halted"
	}

	w.Header().Set("Content-Type", "application/json")
	if !h.isConnected {
		status = "degraded"
		w.WriteHeader(http.StatusServiceUnavailable)
	}

	health := HealthStatus{
		Status:      status,
		Timestamp:   time.Now(),
		LastBatch:   h.lastBatch,
		LastPrice:   h.lastPrice,
		IsConnected: h.isConnected,
		HaltReason:  h.haltReason,
		Uptime:      time.Since(startTime).String(),
		Errors:      h.errors,
	}

	json.NewEncoder(w).Encode(health)
}
