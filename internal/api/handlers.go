package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/XavierBriggs/Argus/internal/health"
	"github.com/XavierBriggs/Argus/pkg/contracts"
	"github.com/XavierBriggs/Argus/pkg/models"
)

// QuoteService answers quote requests. Implemented by retrieval.Orchestrator.
type QuoteService interface {
	GetQuotes(ctx context.Context, req models.OddsRequest) models.QuoteSet
	Sources() []models.SourceID
	FallbackEnabled() bool
}

// RateLimitReporter exposes a source's last known request quota
type RateLimitReporter interface {
	RateLimits() models.RateLimits
}

// Handler contains dependencies for HTTP handlers
type Handler struct {
	quotes     QuoteService
	tracker    *health.Tracker
	sports     contracts.SportResolver
	rateLimits map[models.SourceID]RateLimitReporter
	timeout    time.Duration
	logger     *zap.Logger
}

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// SourceStatus describes one configured source
type SourceStatus struct {
	ID        models.SourceID    `json:"id"`
	Priority  int                `json:"priority"`
	Available bool               `json:"available"`
	Health    *health.Record     `json:"health,omitempty"`
	RateLimit *models.RateLimits `json:"rate_limits,omitempty"`
}

// NewHandler creates a new handler with dependencies. rateLimits may be nil.
func NewHandler(
	quotes QuoteService,
	tracker *health.Tracker,
	sports contracts.SportResolver,
	rateLimits map[models.SourceID]RateLimitReporter,
	timeout time.Duration,
	logger *zap.Logger,
) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Handler{
		quotes:     quotes,
		tracker:    tracker,
		sports:     sports,
		rateLimits: rateLimits,
		timeout:    timeout,
		logger:     logger,
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"service":   "argus",
	})
}

// GetQuotes retrieves validated quotes for one event
// Query params: sport, home, away, markets (comma separated), start (RFC3339)
func (h *Handler) GetQuotes(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	q := r.URL.Query()

	markets, err := models.ParseMarkets(q.Get("markets"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	var start time.Time
	if raw := strings.TrimSpace(q.Get("start")); raw != "" {
		start, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, "start must be RFC3339", nil)
			return
		}
	}

	sport := q.Get("sport")
	if h.sports != nil {
		if module, ok := h.sports.Resolve(sport); ok {
			sport = module.GetSportKey()
		}
	}

	req, err := models.NewOddsRequest(sport, q.Get("home"), q.Get("away"), start, markets...)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	set := h.quotes.GetQuotes(ctx, req)

	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"quote_set": set,
	})
}

// GetSources reports the configured source order and current health
func (h *Handler) GetSources(w http.ResponseWriter, r *http.Request) {
	ids := h.quotes.Sources()
	sources := make([]SourceStatus, len(ids))

	for i, id := range ids {
		status := SourceStatus{ID: id, Priority: i, Available: true}

		if h.tracker != nil {
			status.Available = h.tracker.IsAvailable(id)
			if rec, ok := h.tracker.Record(id); ok {
				status.Health = &rec
			}
		}

		if reporter, ok := h.rateLimits[id]; ok {
			limits := reporter.RateLimits()
			status.RateLimit = &limits
		}

		sources[i] = status
	}

	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{
		"fallback_enabled": h.quotes.FallbackEnabled(),
		"sources":          sources,
	})
}

func respondJSON(w http.ResponseWriter, logger *zap.Logger, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Warn("error encoding response", zap.Error(err))
	}
}

func (h *Handler) respondError(w http.ResponseWriter, status int, message string, err error) {
	if err != nil {
		h.logger.Error(message, zap.Error(err))
	}

	respondJSON(w, h.logger, status, ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    status,
	})
}
