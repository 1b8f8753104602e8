package delta

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/XavierBriggs/Argus/pkg/models"
)

// Engine detects price movement by comparing validated quotes against the
// last values cached in Redis
type Engine struct {
	redis *redis.Client
	ttl   time.Duration
}

// CachedQuote represents the minimal data stored in Redis for comparison
type CachedQuote struct {
	Price       float64         `json:"price"`
	Point       *float64        `json:"point,omitempty"`
	Source      models.SourceID `json:"source"`
	RetrievedAt time.Time       `json:"retrieved_at"`
}

// ChangeType indicates the type of change detected
type ChangeType string

const (
	ChangeTypeNew       ChangeType = "new"
	ChangeTypePriceOnly ChangeType = "price"
	ChangeTypePointOnly ChangeType = "point"
	ChangeTypeBoth      ChangeType = "price_and_point"
	ChangeTypeNone      ChangeType = "none"
)

// Delta represents a detected change
type Delta struct {
	RequestKey string
	Quote      models.Quote
	ChangeType ChangeType
	OldPrice   *float64
	OldPoint   *float64
}

// NewEngine creates a new delta detection engine
func NewEngine(redisClient *redis.Client, cacheTTL time.Duration) *Engine {
	return &Engine{
		redis: redisClient,
		ttl:   cacheTTL,
	}
}

// DetectChanges compares a quote set against the Redis cache and returns
// only the quotes that are new or moved
func (e *Engine) DetectChanges(ctx context.Context, set models.QuoteSet) ([]Delta, error) {
	if set.Empty() {
		return nil, nil
	}

	// Build Redis keys for batch lookup
	keys := make([]string, len(set.Quotes))
	for i, q := range set.Quotes {
		keys[i] = BuildKey(set.RequestKey, q)
	}

	cachedValues, err := e.redis.MGet(ctx, keys...).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("redis mget: %w", err)
	}

	deltas := make([]Delta, 0, len(set.Quotes))
	for i, q := range set.Quotes {
		var cachedValue interface{}
		if i < len(cachedValues) {
			cachedValue = cachedValues[i]
		}

		changeType, oldPrice, oldPoint := e.compareQuote(q, cachedValue)
		if changeType != ChangeTypeNone {
			deltas = append(deltas, Delta{
				RequestKey: set.RequestKey,
				Quote:      q,
				ChangeType: changeType,
				OldPrice:   oldPrice,
				OldPoint:   oldPoint,
			})
		}
	}

	return deltas, nil
}

// UpdateCache writes the set's quotes to Redis (write-through). Call it
// after the snapshot has been persisted.
func (e *Engine) UpdateCache(ctx context.Context, set models.QuoteSet) error {
	if set.Empty() {
		return nil
	}

	pipe := e.redis.Pipeline()

	for _, q := range set.Quotes {
		cached := CachedQuote{
			Price:       q.Price,
			Point:       q.Point,
			Source:      q.Source,
			RetrievedAt: q.RetrievedAt,
		}

		data, err := json.Marshal(cached)
		if err != nil {
			return fmt.Errorf("marshal cached quote: %w", err)
		}

		pipe.Set(ctx, BuildKey(set.RequestKey, q), data, e.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis pipeline exec: %w", err)
	}

	return nil
}

// BuildKey creates the Redis key for a quote
// Format: quotes:current:{request_key}:{market}:{bookmaker}:{selection}
func BuildKey(requestKey string, q models.Quote) string {
	return fmt.Sprintf("quotes:current:%s:%s:%s:%s",
		requestKey,
		q.Market,
		strings.ToLower(q.Bookmaker),
		strings.ToLower(q.Selection),
	)
}

// compareQuote compares a quote against its cached value
func (e *Engine) compareQuote(q models.Quote, cachedValue interface{}) (ChangeType, *float64, *float64) {
	if cachedValue == nil {
		return ChangeTypeNew, nil, nil
	}

	cachedStr, ok := cachedValue.(string)
	if !ok {
		// Cache corruption, treat as new
		return ChangeTypeNew, nil, nil
	}

	var cached CachedQuote
	if err := json.Unmarshal([]byte(cachedStr), &cached); err != nil {
		return ChangeTypeNew, nil, nil
	}

	priceChanged := math.Abs(q.Price-cached.Price) > 0.0001
	pointChanged := e.pointChanged(q.Point, cached.Point)

	if !priceChanged && !pointChanged {
		return ChangeTypeNone, nil, nil
	}

	oldPrice := cached.Price
	var oldPoint *float64
	if cached.Point != nil {
		val := *cached.Point
		oldPoint = &val
	}

	switch {
	case priceChanged && pointChanged:
		return ChangeTypeBoth, &oldPrice, oldPoint
	case priceChanged:
		return ChangeTypePriceOnly, &oldPrice, oldPoint
	default:
		return ChangeTypePointOnly, &oldPrice, oldPoint
	}
}

// pointChanged checks if point values are different
func (e *Engine) pointChanged(newPoint, oldPoint *float64) bool {
	if newPoint == nil && oldPoint == nil {
		return false
	}

	if newPoint == nil || oldPoint == nil {
		return true
	}

	// Compare with small epsilon for float precision
	const epsilon = 0.001
	return math.Abs(*newPoint-*oldPoint) > epsilon
}
