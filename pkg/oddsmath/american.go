package oddsmath

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Places is the precision decimal prices are rounded to
const Places = 4

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// AmericanToDecimal converts American odds to decimal odds
// American +150 → Decimal 2.50
// American -200 → Decimal 1.50
func AmericanToDecimal(american int) (float64, error) {
	if american == 0 {
		return 0, fmt.Errorf("invalid American odds: cannot be 0")
	}
	if american > -100 && american < 100 {
		return 0, fmt.Errorf("invalid American odds: %d is inside (-100, 100)", american)
	}

	a := decimal.NewFromInt(int64(american))

	var d decimal.Decimal
	if american > 0 {
		// Positive odds: (american / 100) + 1
		d = a.Div(hundred).Add(one)
	} else {
		// Negative odds: (100 / abs(american)) + 1
		d = hundred.Div(a.Abs()).Add(one)
	}

	return d.Round(Places).InexactFloat64(), nil
}

// DecimalToAmerican converts decimal odds to American odds
// Decimal 2.50 → American +150
// Decimal 1.50 → American -200
func DecimalToAmerican(dec float64) (int, error) {
	if dec <= 1.0 {
		return 0, fmt.Errorf("invalid decimal odds: must be > 1.0")
	}

	d := decimal.NewFromFloat(dec)
	if dec >= 2.0 {
		// Positive American odds: (decimal - 1) * 100
		return int(d.Sub(one).Mul(hundred).Round(0).IntPart()), nil
	}

	// Negative American odds: -100 / (decimal - 1)
	return int(hundred.Neg().Div(d.Sub(one)).Round(0).IntPart()), nil
}

// ParseAmerican parses a vendor American odds string ("+150", "-110", "EVEN")
func ParseAmerican(s string) (int, error) {
	s = strings.TrimSpace(s)
	switch strings.ToUpper(s) {
	case "":
		return 0, fmt.Errorf("empty American odds")
	case "EVEN", "EV", "PK":
		return 100, nil
	}

	// Some feeds use the unicode minus sign
	s = strings.Replace(s, "−", "-", 1)
	s = strings.TrimPrefix(s, "+")

	v, err := strconv.Atoi(s)
	if err != nil {
		// Tolerate "150.0"
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil || f != float64(int(f)) {
			return 0, fmt.Errorf("invalid American odds %q", s)
		}
		v = int(f)
	}
	return v, nil
}

// ParseDecimal parses a decimal odds string ("2.50")
func ParseDecimal(s string) (float64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid decimal odds %q: %w", s, err)
	}
	if !d.GreaterThan(decimal.Zero) {
		return 0, fmt.Errorf("invalid decimal odds %q: must be positive", s)
	}
	return d.Round(Places).InexactFloat64(), nil
}

// FractionalToDecimal converts fractional odds ("5/2") to decimal odds (3.50)
func FractionalToDecimal(s string) (float64, error) {
	num, den, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok {
		return 0, fmt.Errorf("invalid fractional odds %q", s)
	}

	n, err := decimal.NewFromString(strings.TrimSpace(num))
	if err != nil {
		return 0, fmt.Errorf("invalid fractional numerator %q: %w", num, err)
	}
	d, err := decimal.NewFromString(strings.TrimSpace(den))
	if err != nil {
		return 0, fmt.Errorf("invalid fractional denominator %q: %w", den, err)
	}
	if !d.GreaterThan(decimal.Zero) || n.IsNegative() {
		return 0, fmt.Errorf("invalid fractional odds %q", s)
	}

	return n.Div(d).Add(one).Round(Places).InexactFloat64(), nil
}

// DecimalToImpliedProbability converts decimal odds to implied probability
// Decimal 2.00 → 0.50 (50%)
func DecimalToImpliedProbability(dec float64) (float64, error) {
	if dec <= 0 {
		return 0, fmt.Errorf("invalid decimal odds: must be > 0")
	}

	return one.Div(decimal.NewFromFloat(dec)).InexactFloat64(), nil
}

// AmericanToImpliedProbability converts American odds directly to implied probability
func AmericanToImpliedProbability(american int) (float64, error) {
	dec, err := AmericanToDecimal(american)
	if err != nil {
		return 0, err
	}

	return DecimalToImpliedProbability(dec)
}
