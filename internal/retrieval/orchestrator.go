// Package retrieval walks the configured sources in priority order and
// returns the first non-empty validated quote set.
package retrieval

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/XavierBriggs/Argus/internal/health"
	"github.com/XavierBriggs/Argus/internal/normalize"
	"github.com/XavierBriggs/Argus/internal/quality"
	"github.com/XavierBriggs/Argus/pkg/contracts"
	"github.com/XavierBriggs/Argus/pkg/models"
)

// DefaultTimeout bounds a single source call when none is configured
const DefaultTimeout = 10 * time.Second

// Config controls source selection
type Config struct {
	// Order lists source IDs by priority; the first is the primary
	Order []models.SourceID

	// FallbackEnabled false restricts every walk to the primary
	FallbackEnabled bool

	// Timeout is the per-call deadline for each source
	Timeout time.Duration
}

// Orchestrator answers quote requests using the configured sources
type Orchestrator struct {
	adapters        map[models.SourceID]contracts.SourceAdapter
	order           []models.SourceID
	fallbackEnabled bool
	timeout         time.Duration

	tracker   *health.Tracker
	validator *quality.Validator
	logger    *zap.Logger
	now       func() time.Time

	flights singleflight.Group
}

// New creates an orchestrator. Every ID in cfg.Order must have an adapter.
func New(cfg Config, adapters []contracts.SourceAdapter, tracker *health.Tracker, validator *quality.Validator, logger *zap.Logger) (*Orchestrator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if tracker == nil {
		tracker = health.NewTracker(health.DefaultCooldowns())
	}
	if validator == nil {
		validator = quality.NewValidator(logger)
	}

	byID := make(map[models.SourceID]contracts.SourceAdapter, len(adapters))
	for _, a := range adapters {
		byID[a.ID()] = a
	}

	if len(cfg.Order) == 0 {
		return nil, fmt.Errorf("source order is empty")
	}
	seen := make(map[models.SourceID]bool, len(cfg.Order))
	for _, id := range cfg.Order {
		if _, ok := byID[id]; !ok {
			return nil, fmt.Errorf("no adapter registered for source %s", id)
		}
		if seen[id] {
			return nil, fmt.Errorf("source %s listed twice", id)
		}
		seen[id] = true
	}

	order := append([]models.SourceID(nil), cfg.Order...)
	if !cfg.FallbackEnabled {
		order = order[:1]
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Orchestrator{
		adapters:        byID,
		order:           order,
		fallbackEnabled: cfg.FallbackEnabled,
		timeout:         timeout,
		tracker:         tracker,
		validator:       validator,
		logger:          logger,
		now:             time.Now,
	}, nil
}

// Sources returns the source IDs walked per request, in order
func (o *Orchestrator) Sources() []models.SourceID {
	return append([]models.SourceID(nil), o.order...)
}

// GetQuotes returns validated quotes for req from the first source that
// produces any. It never fails: when every source is unavailable, failing
// or empty the result is an empty set. Identical concurrent requests share
// one walk, which outlives any single caller's cancellation; a caller whose
// ctx ends first gets an empty set.
func (o *Orchestrator) GetQuotes(ctx context.Context, req models.OddsRequest) models.QuoteSet {
	walkCtx := context.WithoutCancel(ctx)
	ch := o.flights.DoChan(req.FlightKey(), func() (interface{}, error) {
		return o.walk(walkCtx, req), nil
	})

	select {
	case res := <-ch:
		set := res.Val.(models.QuoteSet)
		if res.Shared {
			set.Quotes = append([]models.Quote(nil), set.Quotes...)
			if set.Quotes == nil {
				set.Quotes = []models.Quote{}
			}
		}
		return set
	case <-ctx.Done():
		o.logger.Debug("caller left before shared walk finished",
			zap.String("event", req.Key()),
			zap.Error(ctx.Err()),
		)
		return o.newSet(req, "")
	}
}

func (o *Orchestrator) walk(ctx context.Context, req models.OddsRequest) models.QuoteSet {
	log := o.logger.With(zap.String("event", req.Key()))

	for _, id := range o.order {
		if !o.tracker.IsAvailable(id) {
			log.Debug("skipping unavailable source", zap.String("source", string(id)))
			continue
		}

		set, err := o.fetchFrom(ctx, id, req)
		if err != nil {
			o.handleFailure(log, id, err)
			continue
		}

		if set.Empty() {
			log.Debug("source returned no usable quotes", zap.String("source", string(id)))
			continue
		}

		log.Info("quotes retrieved",
			zap.String("source", string(id)),
			zap.Bool("fallback", set.Fallback),
			zap.Int("quotes", len(set.Quotes)),
		)
		return set
	}

	log.Info("no source produced quotes")
	return o.newSet(req, "")
}

// fetchFrom performs one attempt against a source and returns the
// normalized, validated result
func (o *Orchestrator) fetchFrom(ctx context.Context, id models.SourceID, req models.OddsRequest) (models.QuoteSet, error) {
	callCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	token := o.tracker.Begin()
	raws, err := o.adapters[id].Fetch(callCtx, req)
	if err != nil {
		return models.QuoteSet{}, err
	}
	o.tracker.RecordSuccess(id, token)

	set := o.newSet(req, id)
	for _, raw := range raws {
		q, ok := normalize.Normalize(raw, set.RetrievedAt)
		if !ok {
			o.logger.Debug("dropping malformed price",
				zap.String("source", string(id)),
				zap.String("bookmaker", raw.Bookmaker),
				zap.String("price", raw.Price),
			)
			continue
		}
		set.Quotes = append(set.Quotes, q)
	}

	return o.validator.FilterSet(set, req.Markets()), nil
}

// handleFailure records systemic failures and logs the rest
func (o *Orchestrator) handleFailure(log *zap.Logger, id models.SourceID, err error) {
	failure := contracts.AsFailure(err)
	fields := []zap.Field{
		zap.String("source", string(id)),
		zap.String("kind", failure.Kind.String()),
		zap.Error(failure),
	}

	switch failure.Kind {
	case contracts.AuthExhausted, contracts.RateLimited, contracts.ServerError:
		o.tracker.RecordFailure(id, failure)
		log.Warn("source marked unavailable", fields...)
	case contracts.NotFound:
		log.Debug("source has no data for event", fields...)
	case contracts.Transport:
		log.Warn("source call failed", fields...)
	default:
		log.Error("unclassified source failure", fields...)
	}
}

func (o *Orchestrator) newSet(req models.OddsRequest, source models.SourceID) models.QuoteSet {
	return models.QuoteSet{
		ID:          uuid.NewString(),
		RequestKey:  req.Key(),
		Sport:       req.Sport(),
		Source:      source,
		Fallback:    source != "" && source != o.order[0],
		Quotes:      []models.Quote{},
		RetrievedAt: o.now().UTC(),
	}
}

// FallbackEnabled reports whether sources after the primary are walked
func (o *Orchestrator) FallbackEnabled() bool {
	return o.fallbackEnabled
}
