package sportsbet_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/XavierBriggs/Argus/adapters/sportsbet"
	"github.com/XavierBriggs/Argus/internal/registry"
	"github.com/XavierBriggs/Argus/pkg/contracts"
	"github.com/XavierBriggs/Argus/pkg/models"
	"github.com/XavierBriggs/Argus/sports/basketball_nba"
)

const oddsPage = `<!doctype html>
<html><body>
<div class="event" data-event-id="e1" data-event-home="LA Lakers" data-event-away="Golden State Warriors" data-event-start="2099-01-11T03:00:00Z">
  <div data-market="h2h">
    <button data-selection="Los Angeles Lakers" data-price="1.50" data-value-score="1.2">1.50</button>
    <button data-selection="Golden State Warriors" data-price="5/2" data-value-score="NaN">5/2</button>
  </div>
  <div data-market="h2h_lay">
    <button data-selection="Los Angeles Lakers" data-price="1.55"></button>
  </div>
  <section data-bookmaker="Ladbrokes">
    <div data-market="totals">
      <span data-selection="Over" data-price="1.91" data-point="228.5"></span>
      <span data-selection="Under" data-price="1.91" data-point="228.5"></span>
    </div>
  </section>
</div>
<div class="event" data-event-id="e2" data-event-home="Boston Celtics" data-event-away="Miami Heat" data-event-start="2099-01-12T00:00:00Z">
  <div data-market="h2h"><button data-selection="Boston Celtics" data-price="1.30"></button></div>
</div>
</body></html>`

func newScraper(t *testing.T, handler http.HandlerFunc) (*sportsbet.Scraper, func()) {
	t.Helper()
	server := httptest.NewServer(handler)

	reg := registry.NewSportRegistry()
	require.NoError(t, reg.Register(basketball_nba.NewModule()))

	return sportsbet.New(reg, sportsbet.WithBaseURL(server.URL)), server.Close
}

func servePage(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/basketball/nba", r.URL.Path)
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(oddsPage))
	}
}

func TestScraper_FetchExtractsOutcomes(t *testing.T) {
	scraper, done := newScraper(t, servePage(t))
	defer done()

	req, err := models.NewOddsRequest("NBA", "Lakers", "Warriors", time.Time{})
	require.NoError(t, err)

	quotes, err := scraper.Fetch(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, quotes, 5)

	assert.Equal(t, "Sportsbet", quotes[0].Bookmaker)
	assert.Equal(t, "h2h", quotes[0].MarketLabel)
	assert.Equal(t, models.FormatDecimal, quotes[0].Format)
	require.NotNil(t, quotes[0].ValueScore)
	assert.Equal(t, 1.2, *quotes[0].ValueScore)

	assert.Equal(t, "5/2", quotes[1].Price)
	assert.Equal(t, models.FormatFractional, quotes[1].Format)
	assert.Nil(t, quotes[1].ValueScore, "non-finite scores are dropped")

	assert.Equal(t, "h2h_lay", quotes[2].MarketLabel, "lay blocks are passed through for the validator")

	assert.Equal(t, "Ladbrokes", quotes[3].Bookmaker)
	require.NotNil(t, quotes[3].Point)
	assert.Equal(t, 228.5, *quotes[3].Point)
	for _, q := range quotes {
		assert.Equal(t, sportsbet.SourceID, q.Source)
	}
}

func TestScraper_FetchSkipsUnrequestedMarkets(t *testing.T) {
	scraper, done := newScraper(t, servePage(t))
	defer done()

	req, err := models.NewOddsRequest("NBA", "Warriors", "Lakers", time.Time{}, models.MarketTotals)
	require.NoError(t, err)

	quotes, err := scraper.Fetch(context.Background(), req)
	require.NoError(t, err)

	var labels []string
	for _, q := range quotes {
		labels = append(labels, q.MarketLabel)
	}
	assert.Equal(t, []string{"h2h_lay", "totals", "totals"}, labels)
}

func TestScraper_FetchNoListing(t *testing.T) {
	scraper, done := newScraper(t, servePage(t))
	defer done()

	req, err := models.NewOddsRequest("NBA", "Knicks", "Nets", time.Time{})
	require.NoError(t, err)

	_, err = scraper.Fetch(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, contracts.NotFound, contracts.AsFailure(err).Kind)
}

func TestScraper_FetchBlockedIsAuthExhausted(t *testing.T) {
	scraper, done := newScraper(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})
	defer done()

	req, err := models.NewOddsRequest("NBA", "Lakers", "Warriors", time.Time{})
	require.NoError(t, err)

	_, err = scraper.Fetch(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, contracts.AuthExhausted, contracts.AsFailure(err).Kind)
}

func TestScraper_FetchEvents(t *testing.T) {
	scraper, done := newScraper(t, servePage(t))
	defer done()

	events, err := scraper.FetchEvents(context.Background(), basketball_nba.NewModule())
	require.NoError(t, err)

	require.Len(t, events, 2)
	assert.Equal(t, "e1", events[0].EventID)
	assert.Equal(t, "Los Angeles Lakers", events[0].HomeTeam)
	assert.Equal(t, "Miami Heat", events[1].AwayTeam)
}
