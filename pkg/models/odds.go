package models

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// MarketType is one of the three featured markets served to callers
type MarketType string

const (
	MarketH2H     MarketType = "h2h"     // moneyline
	MarketSpreads MarketType = "spreads" // handicap
	MarketTotals  MarketType = "totals"  // over/under
)

// FeaturedMarkets returns the markets a request may ask for, in canonical order
func FeaturedMarkets() []MarketType {
	return []MarketType{MarketH2H, MarketSpreads, MarketTotals}
}

// IsFeatured reports whether m is one of the featured markets
func (m MarketType) IsFeatured() bool {
	switch m {
	case MarketH2H, MarketSpreads, MarketTotals:
		return true
	}
	return false
}

// PriceFormat is the native encoding of a vendor price
type PriceFormat string

const (
	FormatAmerican   PriceFormat = "american"
	FormatDecimal    PriceFormat = "decimal"
	FormatFractional PriceFormat = "fractional"
)

// SourceID identifies a source adapter. It is used for quote attribution
// and as the key into the health tracker.
type SourceID string

// RawQuote is one source's price for one market/selection before
// normalization. It never leaves the retrieval core.
type RawQuote struct {
	Source           SourceID
	Bookmaker        string
	MarketLabel      string // vendor market label, e.g. "h2h", "moneyline", "h2h_lay"
	Selection        string
	Price            string // vendor-native price, e.g. "+150", "2.50", "5/2"
	Format           PriceFormat
	Point            *float64 // For spreads/totals
	ValueScore       *float64
	VendorLastUpdate time.Time
}

// Quote is a validated, normalized price in decimal odds
type Quote struct {
	Bookmaker   string     `json:"bookmaker"`
	Market      MarketType `json:"market"`
	Selection   string     `json:"selection"`
	Price       float64    `json:"price"`
	Point       *float64   `json:"point,omitempty"`
	Source      SourceID   `json:"source"`
	RetrievedAt time.Time  `json:"retrieved_at"`
	ValueScore  *float64   `json:"value_score,omitempty"`
}

// QuoteSet is the result of one retrieval. An empty set means no real
// data was available from any source and is not an error.
type QuoteSet struct {
	ID          string    `json:"id"`
	RequestKey  string    `json:"request_key"`
	Sport       string    `json:"sport"`
	Source      SourceID  `json:"source,omitempty"`
	Fallback    bool      `json:"fallback"`
	Quotes      []Quote   `json:"quotes"`
	RetrievedAt time.Time `json:"retrieved_at"`
}

// Empty reports whether the set carries no quotes
func (s QuoteSet) Empty() bool {
	return len(s.Quotes) == 0
}

// Event represents a sporting event discovered from a vendor
type Event struct {
	EventID      string
	SportKey     string
	HomeTeam     string
	AwayTeam     string
	CommenceTime time.Time
	EventStatus  string // upcoming, live
}

// RateLimits contains rate limiting information
type RateLimits struct {
	RequestsRemaining int       `json:"requests_remaining"`
	RequestsUsed      int       `json:"requests_used"`
	UpdatedAt         time.Time `json:"updated_at,omitempty"`
}

// OddsRequest identifies one sporting event and the markets wanted for it.
// Fields are unexported so a request cannot change after construction.
type OddsRequest struct {
	home      string
	away      string
	sport     string
	startTime time.Time
	markets   []MarketType
}

// NewOddsRequest validates and builds a request. An empty market list
// requests every featured market.
func NewOddsRequest(sport, home, away string, startTime time.Time, markets ...MarketType) (OddsRequest, error) {
	sport = strings.TrimSpace(sport)
	home = strings.TrimSpace(home)
	away = strings.TrimSpace(away)

	if sport == "" {
		return OddsRequest{}, fmt.Errorf("sport is required")
	}
	if home == "" || away == "" {
		return OddsRequest{}, fmt.Errorf("both participants are required")
	}
	if strings.EqualFold(home, away) {
		return OddsRequest{}, fmt.Errorf("participants cannot be the same: %s", home)
	}

	if len(markets) == 0 {
		markets = FeaturedMarkets()
	}

	seen := make(map[MarketType]bool, len(markets))
	deduped := make([]MarketType, 0, len(markets))
	for _, m := range markets {
		if !m.IsFeatured() {
			return OddsRequest{}, fmt.Errorf("unsupported market: %s", m)
		}
		if seen[m] {
			continue
		}
		seen[m] = true
		deduped = append(deduped, m)
	}
	sort.Slice(deduped, func(i, j int) bool { return marketRank(deduped[i]) < marketRank(deduped[j]) })

	return OddsRequest{
		home:      home,
		away:      away,
		sport:     sport,
		startTime: startTime,
		markets:   deduped,
	}, nil
}

// ParseMarkets parses a comma separated market list such as "h2h,totals"
func ParseMarkets(s string) ([]MarketType, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}

	var markets []MarketType
	for _, part := range strings.Split(s, ",") {
		m := MarketType(strings.ToLower(strings.TrimSpace(part)))
		if m == "" {
			continue
		}
		if !m.IsFeatured() {
			return nil, fmt.Errorf("unsupported market: %s", part)
		}
		markets = append(markets, m)
	}
	return markets, nil
}

func (r OddsRequest) Home() string         { return r.home }
func (r OddsRequest) Away() string         { return r.away }
func (r OddsRequest) Sport() string        { return r.sport }
func (r OddsRequest) StartTime() time.Time { return r.startTime }

// Markets returns a copy of the requested markets
func (r OddsRequest) Markets() []MarketType {
	out := make([]MarketType, len(r.markets))
	copy(out, r.markets)
	return out
}

// WantsMarket reports whether m was requested
func (r OddsRequest) WantsMarket(m MarketType) bool {
	for _, want := range r.markets {
		if want == m {
			return true
		}
	}
	return false
}

// Key returns the stable event identity shared by every quote retrieved
// for this request. Format: sport:away@home[:YYYYMMDD]
func (r OddsRequest) Key() string {
	key := fmt.Sprintf("%s:%s@%s",
		strings.ToLower(r.sport),
		strings.ToLower(r.away),
		strings.ToLower(r.home),
	)
	if !r.startTime.IsZero() {
		key += ":" + r.startTime.UTC().Format("20060102")
	}
	return key
}

// FlightKey identifies identical requests, markets included
func (r OddsRequest) FlightKey() string {
	parts := make([]string, len(r.markets))
	for i, m := range r.markets {
		parts[i] = string(m)
	}
	return r.Key() + "|" + strings.Join(parts, ",")
}

// Matches reports whether a vendor event between a and b is this request's
// event. Either orientation is accepted and names match case-insensitively
// when one contains the other ("Lakers" matches "Los Angeles Lakers").
func (r OddsRequest) Matches(a, b string) bool {
	return (teamMatches(r.home, a) && teamMatches(r.away, b)) ||
		(teamMatches(r.home, b) && teamMatches(r.away, a))
}

func teamMatches(want, got string) bool {
	want = strings.ToLower(strings.TrimSpace(want))
	got = strings.ToLower(strings.TrimSpace(got))
	if want == "" || got == "" {
		return false
	}
	return strings.Contains(got, want) || strings.Contains(want, got)
}

func marketRank(m MarketType) int {
	switch m {
	case MarketH2H:
		return 0
	case MarketSpreads:
		return 1
	default:
		return 2
	}
}
