package espn_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/XavierBriggs/Argus/adapters/espn"
	"github.com/XavierBriggs/Argus/internal/normalize"
	"github.com/XavierBriggs/Argus/internal/registry"
	"github.com/XavierBriggs/Argus/pkg/contracts"
	"github.com/XavierBriggs/Argus/pkg/models"
	"github.com/XavierBriggs/Argus/sports/basketball_nba"
)

const scoreboardPayload = `{
  "events": [
    {
      "id": "401",
      "date": "2025-01-11T03:00Z",
      "competitions": [{
        "status": {"type": {"state": "pre"}},
        "competitors": [
          {"homeAway": "home", "team": {"displayName": "Los Angeles Lakers"}},
          {"homeAway": "away", "team": {"displayName": "Golden State Warriors"}}
        ],
        "odds": [{
          "provider": {"name": "ESPN BET", "logos": [{"href": "https://a.espncdn.com/Draftkings_Light.svg"}]},
          "overUnder": 228.5,
          "moneyline": {
            "home": {"close": {"odds": "-200"}},
            "away": {"close": {"odds": "+150"}}
          },
          "pointSpread": {
            "home": {"close": {"line": "-4.5", "odds": "-110"}},
            "away": {"close": {"line": "+4.5", "odds": -110}}
          },
          "total": {
            "over": {"close": {"odds": "-105"}},
            "under": {"close": {"odds": "-115"}}
          }
        }]
      }]
    },
    {
      "id": "402",
      "date": "2025-01-11T01:00Z",
      "competitions": [{
        "status": {"type": {"state": "post"}},
        "competitors": [
          {"homeAway": "home", "team": {"displayName": "Boston Celtics"}},
          {"homeAway": "away", "team": {"displayName": "Miami Heat"}}
        ]
      }]
    }
  ]
}`

type scoreboardServer struct {
	mu    sync.Mutex
	dates []string
}

func (s *scoreboardServer) handler(withGameOn string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		date := r.URL.Query().Get("dates")
		s.mu.Lock()
		s.dates = append(s.dates, date)
		s.mu.Unlock()

		if date != withGameOn {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(scoreboardPayload))
	}
}

func newClient(t *testing.T, url string) *espn.Client {
	t.Helper()
	reg := registry.NewSportRegistry()
	require.NoError(t, reg.Register(basketball_nba.NewModule()))

	clock := func() time.Time { return time.Date(2025, 1, 10, 17, 0, 0, 0, time.UTC) }
	return espn.New(reg, espn.WithBaseURL(url), espn.WithClock(clock))
}

func TestClient_FetchScansDaysAndSkipsMissingDates(t *testing.T) {
	srv := &scoreboardServer{}
	server := httptest.NewServer(srv.handler("20250111"))
	defer server.Close()

	req, err := models.NewOddsRequest("basketball_nba", "Lakers", "Warriors", time.Time{})
	require.NoError(t, err)

	quotes, err := newClient(t, server.URL).Fetch(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, []string{"20250110", "20250111"}, srv.dates, "scan stops at the first date with the game")
	require.Len(t, quotes, 6)

	byMarket := map[models.MarketType]int{}
	for _, raw := range quotes {
		assert.Equal(t, espn.SourceID, raw.Source)
		assert.Equal(t, "DraftKings", raw.Bookmaker)

		q, ok := normalize.Normalize(raw, time.Now())
		require.True(t, ok, raw.Price)
		byMarket[q.Market]++
	}
	assert.Equal(t, 2, byMarket[models.MarketH2H])
	assert.Equal(t, 2, byMarket[models.MarketSpreads])
	assert.Equal(t, 2, byMarket[models.MarketTotals])

	assert.Equal(t, "Los Angeles Lakers", quotes[0].Selection)
	assert.Equal(t, "-200", quotes[0].Price)
	require.NotNil(t, quotes[3].Point)
	assert.Equal(t, 4.5, *quotes[3].Point)
	assert.Equal(t, "-110", quotes[3].Price)
	require.NotNil(t, quotes[4].Point)
	assert.Equal(t, 228.5, *quotes[4].Point)
}

func TestClient_FetchUsesStartDate(t *testing.T) {
	srv := &scoreboardServer{}
	server := httptest.NewServer(srv.handler("20250110"))
	defer server.Close()

	// 03:00 UTC on the 11th is the evening of the 10th on the scoreboard calendar
	start := time.Date(2025, 1, 11, 3, 0, 0, 0, time.UTC)
	req, err := models.NewOddsRequest("NBA", "Lakers", "Warriors", start, models.MarketH2H)
	require.NoError(t, err)

	quotes, err := newClient(t, server.URL).Fetch(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, []string{"20250110"}, srv.dates)
	assert.Len(t, quotes, 2, "only the requested market is emitted")
}

func TestClient_FetchStartDateFollowsDaylightSaving(t *testing.T) {
	srv := &scoreboardServer{}
	server := httptest.NewServer(srv.handler("20250711"))
	defer server.Close()

	// 04:30 UTC in July is 00:30 EDT, already the 11th
	start := time.Date(2025, 7, 11, 4, 30, 0, 0, time.UTC)
	req, err := models.NewOddsRequest("NBA", "Lakers", "Warriors", start, models.MarketH2H)
	require.NoError(t, err)

	_, err = newClient(t, server.URL).Fetch(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, []string{"20250711"}, srv.dates)
}

func TestClient_FetchNoGameIsNotFound(t *testing.T) {
	srv := &scoreboardServer{}
	server := httptest.NewServer(srv.handler("20250111"))
	defer server.Close()

	req, err := models.NewOddsRequest("NBA", "Knicks", "Nets", time.Time{})
	require.NoError(t, err)

	_, err = newClient(t, server.URL).Fetch(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, contracts.NotFound, contracts.AsFailure(err).Kind)
	assert.Len(t, srv.dates, 3)
}

func TestClient_FetchServerErrorIsClassified(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	req, err := models.NewOddsRequest("NBA", "Lakers", "Warriors", time.Time{})
	require.NoError(t, err)

	_, err = newClient(t, server.URL).Fetch(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, contracts.ServerError, contracts.AsFailure(err).Kind)
}

func TestClient_FetchEvents(t *testing.T) {
	srv := &scoreboardServer{}
	server := httptest.NewServer(srv.handler("20250111"))
	defer server.Close()

	events, err := newClient(t, server.URL).FetchEvents(context.Background(), basketball_nba.NewModule())
	require.NoError(t, err)

	require.Len(t, events, 1, "finished games are skipped")
	assert.Equal(t, "401", events[0].EventID)
	assert.Equal(t, "basketball_nba", events[0].SportKey)
	assert.Equal(t, "Los Angeles Lakers", events[0].HomeTeam)
	assert.Equal(t, time.Date(2025, 1, 11, 3, 0, 0, 0, time.UTC), events[0].CommenceTime)
}
