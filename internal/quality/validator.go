// Package quality applies acceptance rules to normalized quotes. A quote
// that fails a rule is dropped and logged; it is never reported to the
// caller as an error, so a partially bad source still contributes its
// valid quotes.
package quality

import (
	"math"
	"sync"

	"go.uber.org/zap"

	"github.com/XavierBriggs/Argus/pkg/models"
)

const (
	// MinPrice is exclusive: 1.01 itself is rejected
	MinPrice = 1.01
	// MaxPrice is inclusive
	MaxPrice = 50.0
	// MaxValueScore above which a value score is treated as bad data
	MaxValueScore = 2.0
)

// Reason explains why a quote was rejected
type Reason string

const (
	ReasonNone              Reason = ""
	ReasonPriceOutOfRange   Reason = "price_out_of_range"
	ReasonMarketDisallowed  Reason = "market_disallowed"
	ReasonMarketUnrequested Reason = "market_unrequested"
	ReasonImplausibleValue  Reason = "implausible_value_score"
)

// Check applies the quote-level rules and returns the first failing reason,
// or ReasonNone when the quote is acceptable
func Check(q models.Quote) Reason {
	if !(q.Price > MinPrice && q.Price <= MaxPrice) {
		return ReasonPriceOutOfRange
	}
	if !q.Market.IsFeatured() {
		return ReasonMarketDisallowed
	}
	if q.ValueScore != nil && !plausibleScore(*q.ValueScore) {
		return ReasonImplausibleValue
	}
	return ReasonNone
}

func plausibleScore(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v <= MaxValueScore
}

// Validate reports whether a quote passes every quote-level rule
func Validate(q models.Quote) bool {
	return Check(q) == ReasonNone
}

// Validator filters quote sets and keeps rejection counts for diagnostics
type Validator struct {
	logger *zap.Logger

	mu       sync.Mutex
	rejected map[Reason]int64
}

// NewValidator creates a validator. A nil logger disables logging.
func NewValidator(logger *zap.Logger) *Validator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Validator{
		logger:   logger,
		rejected: make(map[Reason]int64),
	}
}

// FilterSet returns a copy of set holding only quotes that pass every rule
// and belong to one of the requested markets
func (v *Validator) FilterSet(set models.QuoteSet, requested []models.MarketType) models.QuoteSet {
	wanted := make(map[models.MarketType]bool, len(requested))
	for _, m := range requested {
		wanted[m] = true
	}

	out := set
	out.Quotes = make([]models.Quote, 0, len(set.Quotes))

	for _, q := range set.Quotes {
		reason := Check(q)
		if reason == ReasonNone && !wanted[q.Market] {
			reason = ReasonMarketUnrequested
		}

		if reason != ReasonNone {
			v.reject(reason, set.RequestKey, q)
			continue
		}
		out.Quotes = append(out.Quotes, q)
	}

	return out
}

// Stats returns rejection counts by reason
func (v *Validator) Stats() map[Reason]int64 {
	v.mu.Lock()
	defer v.mu.Unlock()

	stats := make(map[Reason]int64, len(v.rejected))
	for r, n := range v.rejected {
		stats[r] = n
	}
	return stats
}

func (v *Validator) reject(reason Reason, requestKey string, q models.Quote) {
	v.mu.Lock()
	v.rejected[reason]++
	v.mu.Unlock()

	v.logger.Debug("quote rejected",
		zap.String("reason", string(reason)),
		zap.String("event", requestKey),
		zap.String("source", string(q.Source)),
		zap.String("bookmaker", q.Bookmaker),
		zap.String("market", string(q.Market)),
		zap.String("selection", q.Selection),
		zap.Float64("price", q.Price),
	)
}
