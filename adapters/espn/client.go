package espn

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/XavierBriggs/Argus/pkg/contracts"
	"github.com/XavierBriggs/Argus/pkg/models"
)

const (
	// SourceID is the ESPN scoreboard fallback
	SourceID models.SourceID = "espn-scrape"

	DefaultBaseURL = "https://site.api.espn.com/apis/site/v2/sports"
	userAgent      = "Mozilla/5.0 (compatible; FortunaBot/1.0)"
	timeout        = 15 * time.Second
)

// ESPN scoreboard dates follow the US Eastern calendar
var eastern = easternZone()

func easternZone() *time.Location {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		return time.FixedZone("EST", -5*60*60)
	}
	return loc
}

// Client reads closing lines from the ESPN public scoreboard
type Client struct {
	baseURL    string
	sports     contracts.SportResolver
	httpClient *http.Client
	now        func() time.Time
}

var (
	_ contracts.SourceAdapter   = (*Client)(nil)
	_ contracts.EventDiscoverer = (*Client)(nil)
)

// Option configures a Client
type Option func(*Client)

// WithBaseURL overrides the scoreboard API root
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithClock sets the clock used to pick scan dates
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

// New creates a new ESPN client
func New(sports contracts.SportResolver, opts ...Option) *Client {
	c := &Client{
		baseURL: DefaultBaseURL,
		sports:  sports,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ID returns the source identity
func (c *Client) ID() models.SourceID {
	return SourceID
}

// SupportsMarket reports whether the scoreboard carries the market
func (c *Client) SupportsMarket(market models.MarketType) bool {
	return market.IsFeatured()
}

// Fetch scans scoreboard dates for the requested game and returns the
// closing lines of every listed provider
func (c *Client) Fetch(ctx context.Context, req models.OddsRequest) ([]models.RawQuote, error) {
	sport, ok := c.sports.Resolve(req.Sport())
	if !ok || sport.GetESPNPath() == "" {
		return nil, contracts.NotFoundf("espn: unknown sport %q", req.Sport())
	}

	for _, date := range c.scanDates(req.StartTime(), sport.GetScanDays()) {
		board, err := c.fetchScoreboard(ctx, sport.GetESPNPath(), date)
		if err != nil {
			if f := contracts.AsFailure(err); f.Kind == contracts.NotFound {
				continue
			}
			return nil, err
		}

		for _, event := range board.Events {
			if len(event.Competitions) == 0 {
				continue
			}
			comp := event.Competitions[0]
			home, away := comp.teams()
			home = sport.NormalizeTeamName(home)
			away = sport.NormalizeTeamName(away)
			if !req.Matches(home, away) {
				continue
			}
			return extractQuotes(comp, home, away, req), nil
		}
	}

	return nil, contracts.NotFoundf("espn: no scoreboard event for %s", req.Key())
}

// FetchEvents lists scheduled and live games over the sport's scan window
func (c *Client) FetchEvents(ctx context.Context, sport contracts.SportModule) ([]models.Event, error) {
	var events []models.Event
	seen := make(map[string]bool)

	for _, date := range c.scanDates(time.Time{}, sport.GetScanDays()) {
		board, err := c.fetchScoreboard(ctx, sport.GetESPNPath(), date)
		if err != nil {
			if f := contracts.AsFailure(err); f.Kind == contracts.NotFound {
				continue
			}
			return nil, fmt.Errorf("fetch scoreboard %s: %w", date.Format("20060102"), err)
		}

		for _, event := range board.Events {
			if seen[event.ID] || len(event.Competitions) == 0 {
				continue
			}
			comp := event.Competitions[0]

			status := "upcoming"
			switch comp.Status.Type.State {
			case "in":
				status = "live"
			case "post":
				continue
			}

			commence, err := parseESPNTime(event.Date)
			if err != nil {
				continue
			}

			home, away := comp.teams()
			seen[event.ID] = true
			events = append(events, models.Event{
				EventID:      event.ID,
				SportKey:     sport.GetSportKey(),
				HomeTeam:     sport.NormalizeTeamName(home),
				AwayTeam:     sport.NormalizeTeamName(away),
				CommenceTime: commence,
				EventStatus:  status,
			})
		}
	}

	return events, nil
}

// scanDates returns the scoreboard days to check: the start date when
// known, otherwise today plus the following days of the scan window
func (c *Client) scanDates(start time.Time, scanDays int) []time.Time {
	if !start.IsZero() {
		return []time.Time{start.In(eastern)}
	}
	if scanDays < 1 {
		scanDays = 1
	}
	today := c.now().In(eastern)
	dates := make([]time.Time, 0, scanDays)
	for i := 0; i < scanDays; i++ {
		dates = append(dates, today.AddDate(0, 0, i))
	}
	return dates
}

func (c *Client) fetchScoreboard(ctx context.Context, sportPath string, date time.Time) (*scoreboard, error) {
	url := fmt.Sprintf("%s/%s/scoreboard?dates=%s", c.baseURL, sportPath, date.Format("20060102"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, contracts.NewFailure(contracts.Transport, fmt.Errorf("creating request: %w", err))
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, contracts.NewFailure(contracts.Transport, fmt.Errorf("making request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, contracts.ClassifyStatus(resp.StatusCode, resp.Header, body)
	}

	var board scoreboard
	if err := json.NewDecoder(resp.Body).Decode(&board); err != nil {
		return nil, contracts.NewFailure(contracts.Transport, fmt.Errorf("decoding response: %w", err))
	}
	return &board, nil
}

// extractQuotes converts a competition's odds providers into raw quotes
func extractQuotes(comp competition, home, away string, req models.OddsRequest) []models.RawQuote {
	var quotes []models.RawQuote

	add := func(bookmaker, label, selection string, line closeLine, point *float64) {
		if line.Odds == "" {
			return
		}
		quotes = append(quotes, models.RawQuote{
			Source:      SourceID,
			Bookmaker:   bookmaker,
			MarketLabel: label,
			Selection:   selection,
			Price:       string(line.Odds),
			Format:      models.FormatAmerican,
			Point:       point,
		})
	}

	for _, odds := range comp.Odds {
		book := providerName(odds.Provider)

		if req.WantsMarket(models.MarketH2H) {
			add(book, "moneyline", home, odds.Moneyline.Home.Close, nil)
			add(book, "moneyline", away, odds.Moneyline.Away.Close, nil)
		}

		if req.WantsMarket(models.MarketSpreads) {
			add(book, "pointSpread", home, odds.PointSpread.Home.Close, odds.PointSpread.Home.Close.Line.Float())
			add(book, "pointSpread", away, odds.PointSpread.Away.Close, odds.PointSpread.Away.Close.Line.Float())
		}

		if req.WantsMarket(models.MarketTotals) && odds.OverUnder != nil {
			add(book, "total", "Over", odds.Total.Over.Close, odds.OverUnder)
			add(book, "total", "Under", odds.Total.Under.Close, odds.OverUnder)
		}
	}

	return quotes
}

// providerName identifies the bookmaker behind an ESPN odds provider. The
// logo is more reliable than the display name, which is often generic.
func providerName(p provider) string {
	for _, logo := range p.Logos {
		href := strings.ToLower(logo.Href)
		switch {
		case strings.Contains(href, "draftkings"):
			return "DraftKings"
		case strings.Contains(href, "fanduel"):
			return "FanDuel"
		case strings.Contains(href, "caesars"):
			return "Caesars"
		case strings.Contains(href, "betmgm"):
			return "BetMGM"
		}
	}
	if p.Name != "" {
		return p.Name
	}
	return "ESPN BET"
}

func parseESPNTime(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04Z"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", s)
}
