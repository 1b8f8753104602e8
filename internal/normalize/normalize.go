// Package normalize converts vendor-native raw quotes into decimal-odds
// quotes. It knows nothing about acceptance policy; out-of-range prices and
// unknown markets pass through untouched for the quality package to judge.
package normalize

import (
	"strings"
	"time"

	"github.com/XavierBriggs/Argus/pkg/models"
	"github.com/XavierBriggs/Argus/pkg/oddsmath"
)

// Normalize converts a raw quote. It returns false when the vendor price is
// malformed; such quotes are dropped, not reported as errors.
func Normalize(raw models.RawQuote, retrievedAt time.Time) (models.Quote, bool) {
	price, ok := DecimalPrice(raw.Price, raw.Format)
	if !ok {
		return models.Quote{}, false
	}

	q := models.Quote{
		Bookmaker:   strings.TrimSpace(raw.Bookmaker),
		Market:      MarketFromLabel(raw.MarketLabel),
		Selection:   strings.TrimSpace(raw.Selection),
		Price:       price,
		Source:      raw.Source,
		RetrievedAt: retrievedAt,
	}
	if raw.Point != nil {
		p := *raw.Point
		q.Point = &p
	}
	if raw.ValueScore != nil {
		v := *raw.ValueScore
		q.ValueScore = &v
	}

	return q, true
}

// DecimalPrice parses a vendor price in the given format into decimal odds
func DecimalPrice(price string, format models.PriceFormat) (float64, bool) {
	switch format {
	case models.FormatAmerican:
		american, err := oddsmath.ParseAmerican(price)
		if err != nil {
			return 0, false
		}
		dec, err := oddsmath.AmericanToDecimal(american)
		if err != nil {
			return 0, false
		}
		return dec, true

	case models.FormatDecimal:
		dec, err := oddsmath.ParseDecimal(price)
		if err != nil {
			return 0, false
		}
		return dec, true

	case models.FormatFractional:
		dec, err := oddsmath.FractionalToDecimal(price)
		if err != nil {
			return 0, false
		}
		return dec, true
	}

	return 0, false
}

// MarketFromLabel maps vendor market labels onto featured markets. Labels
// that are not featured markets (exchange lay positions, props) come back
// verbatim so the validator can reject them.
func MarketFromLabel(label string) models.MarketType {
	l := strings.ToLower(strings.TrimSpace(label))

	// Exchange lay markets price betting against a selection
	if l == "lay" || strings.HasSuffix(l, "_lay") || strings.HasPrefix(l, "lay_") {
		return models.MarketType(l)
	}

	switch l {
	case "h2h", "moneyline", "money_line", "ml", "head_to_head", "match_winner":
		return models.MarketH2H
	case "spreads", "spread", "handicap", "pointspread", "point_spread", "line":
		return models.MarketSpreads
	case "totals", "total", "over_under", "overunder", "ou":
		return models.MarketTotals
	}

	return models.MarketType(l)
}
