package testutil

import (
	"time"

	"github.com/XavierBriggs/Argus/pkg/models"
)

// NewTestEvent creates a test event
func NewTestEvent(eventID, homeTeam, awayTeam string, hoursUntilStart float64) models.Event {
	return models.Event{
		EventID:      eventID,
		SportKey:     "basketball_nba",
		HomeTeam:     homeTeam,
		AwayTeam:     awayTeam,
		CommenceTime: time.Now().Add(time.Duration(hoursUntilStart * float64(time.Hour))),
		EventStatus:  "upcoming",
	}
}

// NewTestRawQuote creates an american-format raw quote
func NewTestRawQuote(source models.SourceID, marketLabel, bookmaker, selection, price string, point *float64) models.RawQuote {
	return models.RawQuote{
		Source:           source,
		Bookmaker:        bookmaker,
		MarketLabel:      marketLabel,
		Selection:        selection,
		Price:            price,
		Format:           models.FormatAmerican,
		Point:            point,
		VendorLastUpdate: time.Now(),
	}
}

// NewTestQuote creates a normalized quote
func NewTestQuote(market models.MarketType, bookmaker, selection string, price float64) models.Quote {
	return models.Quote{
		Bookmaker:   bookmaker,
		Market:      market,
		Selection:   selection,
		Price:       price,
		Source:      "odds-api",
		RetrievedAt: time.Now(),
	}
}

// MustRequest builds a request or panics; for tests only
func MustRequest(sport, home, away string, markets ...models.MarketType) models.OddsRequest {
	req, err := models.NewOddsRequest(sport, home, away, time.Time{}, markets...)
	if err != nil {
		panic(err)
	}
	return req
}

// GoldenFixture is a known vendor price and its decimal equivalent
type GoldenFixture struct {
	Name          string
	Raw           models.RawQuote
	ExpectedPrice float64
	ExpectValid   bool // passes the quality rules after normalization
}

// GetGoldenFixtures returns price fixtures with expected outputs
func GetGoldenFixtures() []GoldenFixture {
	return []GoldenFixture{
		{
			Name:          "American Underdog",
			Raw:           NewTestRawQuote("odds-api", "h2h", "fanduel", "Celtics", "+150", nil),
			ExpectedPrice: 2.50,
			ExpectValid:   true,
		},
		{
			Name:          "American Favorite",
			Raw:           NewTestRawQuote("odds-api", "h2h", "fanduel", "Lakers", "-200", nil),
			ExpectedPrice: 1.50,
			ExpectValid:   true,
		},
		{
			Name:          "Even Money Spread",
			Raw:           NewTestRawQuote("espn-scrape", "pointSpread", "DraftKings", "Lakers", "+100", ptrFloat64(-3.5)),
			ExpectedPrice: 2.00,
			ExpectValid:   true,
		},
		{
			Name:          "Standard Vig Total",
			Raw:           NewTestRawQuote("espn-scrape", "total", "BetMGM", "Over", "-110", ptrFloat64(223.5)),
			ExpectedPrice: 1.9091,
			ExpectValid:   true,
		},
		{
			Name: "Fractional Price",
			Raw: models.RawQuote{
				Source: "sportsbet-scrape", Bookmaker: "Sportsbet", MarketLabel: "h2h",
				Selection: "Warriors", Price: "5/2", Format: models.FormatFractional,
			},
			ExpectedPrice: 3.50,
			ExpectValid:   true,
		},
		{
			Name:          "Heavy Favorite Below Floor",
			Raw:           NewTestRawQuote("odds-api", "h2h", "betmgm", "Lakers", "-10000", nil),
			ExpectedPrice: 1.01,
			ExpectValid:   false,
		},
		{
			Name:          "Longshot Above Ceiling",
			Raw:           NewTestRawQuote("odds-api", "h2h", "betmgm", "Pistons", "+5000", nil),
			ExpectedPrice: 51.0,
			ExpectValid:   false,
		},
		{
			Name: "Exchange Lay",
			Raw: models.RawQuote{
				Source: "sportsbet-scrape", Bookmaker: "Betfair", MarketLabel: "h2h_lay",
				Selection: "Lakers", Price: "1.55", Format: models.FormatDecimal,
			},
			ExpectedPrice: 1.55,
			ExpectValid:   false,
		},
	}
}

func ptrFloat64(v float64) *float64 {
	return &v
}
