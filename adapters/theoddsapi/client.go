package theoddsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/XavierBriggs/Argus/pkg/contracts"
	"github.com/XavierBriggs/Argus/pkg/models"
)

const (
	// SourceID is the primary source identity
	SourceID models.SourceID = "odds-api"

	DefaultBaseURL = "https://api.the-odds-api.com"
	apiVersion     = "v4"
	userAgent      = "Argus/1.0 (Fortuna Odds Retrieval)"
	timeout        = 10 * time.Second

	// Window around a requested start time passed to the odds endpoint
	commenceWindow = 12 * time.Hour
)

// Client implements the SourceAdapter interface for The Odds API
type Client struct {
	apiKey     string
	baseURL    string
	regions    []string
	sports     contracts.SportResolver
	httpClient *http.Client
	rateLimits models.RateLimits
	mu         sync.RWMutex
}

// Ensure Client implements SourceAdapter and EventDiscoverer
var (
	_ contracts.SourceAdapter   = (*Client)(nil)
	_ contracts.EventDiscoverer = (*Client)(nil)
)

// Option configures a Client
type Option func(*Client)

// WithBaseURL points the client at a different host (tests, proxies)
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithRegions sets the bookmaker regions queried (default "us")
func WithRegions(regions ...string) Option {
	return func(c *Client) {
		if len(regions) > 0 {
			c.regions = regions
		}
	}
}

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a new The Odds API client
func NewClient(apiKey string, sports contracts.SportResolver, opts ...Option) *Client {
	c := &Client{
		apiKey:  apiKey,
		baseURL: DefaultBaseURL,
		regions: []string{"us"},
		sports:  sports,
		httpClient: &http.Client{
			Timeout: timeout,
		},
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

// SupportsMarket checks if this adapter supports a given market
func (c *Client) SupportsMarket(market models.MarketType) bool {
	return market.IsFeatured()
}

// Fetch retrieves featured market odds for the requested event. One HTTP
// attempt is made; failures are classified and returned.
func (c *Client) Fetch(ctx context.Context, req models.OddsRequest) ([]models.RawQuote, error) {
	sport, ok := c.sports.Resolve(req.Sport())
	if !ok || sport.GetOddsAPIKey() == "" {
		return nil, contracts.NotFoundf("odds-api: unknown sport %q", req.Sport())
	}

	markets := make([]string, 0, 3)
	for _, m := range req.Markets() {
		if c.SupportsMarket(m) {
			markets = append(markets, string(m))
		}
	}
	if len(markets) == 0 {
		return nil, nil
	}

	params := url.Values{}
	params.Set("apiKey", c.apiKey)
	params.Set("regions", strings.Join(c.regions, ","))
	params.Set("markets", strings.Join(markets, ","))
	params.Set("oddsFormat", "american")
	params.Set("dateFormat", "iso")
	if start := req.StartTime(); !start.IsZero() {
		params.Set("commenceTimeFrom", start.Add(-commenceWindow).UTC().Format("2006-01-02T15:04:05Z"))
		params.Set("commenceTimeTo", start.Add(commenceWindow).UTC().Format("2006-01-02T15:04:05Z"))
	}

	endpoint := fmt.Sprintf("%s/%s/sports/%s/odds", c.baseURL, apiVersion, sport.GetOddsAPIKey())
	body, err := c.doRequest(ctx, endpoint+"?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var apiResp []oddsResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, contracts.NewFailure(contracts.Transport, fmt.Errorf("parse odds response: %w", err))
	}

	for _, event := range apiResp {
		home := sport.NormalizeTeamName(event.HomeTeam)
		away := sport.NormalizeTeamName(event.AwayTeam)
		if req.Matches(home, away) {
			return c.parseEventOdds(event, time.Now()), nil
		}
	}

	return nil, contracts.NotFoundf("odds-api: no event for %s", req.Key())
}

// FetchEvents retrieves upcoming events without odds (for discovery).
// The events endpoint does not count against the usage quota.
func (c *Client) FetchEvents(ctx context.Context, sport contracts.SportModule) ([]models.Event, error) {
	endpoint := fmt.Sprintf("%s/%s/sports/%s/events", c.baseURL, apiVersion, sport.GetOddsAPIKey())

	params := url.Values{}
	params.Set("apiKey", c.apiKey)
	params.Set("dateFormat", "iso")

	body, err := c.doRequest(ctx, endpoint+"?"+params.Encode())
	if err != nil {
		return nil, fmt.Errorf("fetch events failed: %w", err)
	}

	var apiResp []eventResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return nil, fmt.Errorf("parse events response: %w", err)
	}

	return c.parseEventsResponse(apiResp, sport), nil
}

// RateLimits returns the quota figures from the last response
func (c *Client) RateLimits() models.RateLimits {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.rateLimits
}

// doRequest performs a single HTTP request and classifies any failure
func (c *Client) doRequest(ctx context.Context, fullURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, contracts.NewFailure(contracts.Transport, fmt.Errorf("create request: %w", err))
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, contracts.NewFailure(contracts.Transport, fmt.Errorf("execute request: %w", err))
	}
	defer resp.Body.Close()

	// Update rate limits from headers
	c.updateRateLimits(resp.Header)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, contracts.NewFailure(contracts.Transport, fmt.Errorf("read response body: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		return nil, contracts.ClassifyStatus(resp.StatusCode, resp.Header, body)
	}

	return body, nil
}

// updateRateLimits extracts rate limit info from response headers
func (c *Client) updateRateLimits(headers http.Header) {
	c.mu.Lock()
	defer c.mu.Unlock()

	updated := false
	if remaining := headers.Get("x-requests-remaining"); remaining != "" {
		if val, err := strconv.Atoi(remaining); err == nil {
			c.rateLimits.RequestsRemaining = val
			updated = true
		}
	}

	if used := headers.Get("x-requests-used"); used != "" {
		if val, err := strconv.Atoi(used); err == nil {
			c.rateLimits.RequestsUsed = val
			updated = true
		}
	}

	if updated {
		c.rateLimits.UpdatedAt = time.Now()
	}
}

// parseEventOdds flattens one event's bookmakers into raw quotes
func (c *Client) parseEventOdds(event oddsResponse, receivedAt time.Time) []models.RawQuote {
	var quotes []models.RawQuote

	for _, bookmaker := range event.Bookmakers {
		vendorUpdate, err := time.Parse(time.RFC3339, bookmaker.LastUpdate)
		if err != nil {
			vendorUpdate = receivedAt
		}

		for _, market := range bookmaker.Markets {
			for _, outcome := range market.Outcomes {
				raw := models.RawQuote{
					Source:           SourceID,
					Bookmaker:        bookmaker.Key,
					MarketLabel:      market.Key,
					Selection:        outcome.Name,
					Price:            strconv.FormatFloat(outcome.Price, 'f', -1, 64),
					Format:           models.FormatAmerican,
					VendorLastUpdate: vendorUpdate,
				}

				// Add point for spreads/totals
				if outcome.Point != nil {
					point := *outcome.Point
					raw.Point = &point
				}

				quotes = append(quotes, raw)
			}
		}
	}

	return quotes
}

// parseEventsResponse converts API response to internal Event format
func (c *Client) parseEventsResponse(apiResp []eventResponse, sport contracts.SportModule) []models.Event {
	events := make([]models.Event, 0, len(apiResp))
	now := time.Now()

	for _, evt := range apiResp {
		commenceTime, err := time.Parse(time.RFC3339, evt.CommenceTime)
		if err != nil {
			continue // Skip invalid events
		}

		// Determine if game is live based on commence_time
		eventStatus := "upcoming"
		if now.After(commenceTime) {
			eventStatus = "live"
		}

		events = append(events, models.Event{
			EventID:      evt.ID,
			SportKey:     sport.GetSportKey(),
			HomeTeam:     sport.NormalizeTeamName(evt.HomeTeam),
			AwayTeam:     sport.NormalizeTeamName(evt.AwayTeam),
			CommenceTime: commenceTime,
			EventStatus:  eventStatus,
		})
	}

	return events
}

// API response structures matching The Odds API JSON format

type oddsResponse struct {
	ID           string      `json:"id"`
	SportKey     string      `json:"sport_key"`
	SportTitle   string      `json:"sport_title"`
	CommenceTime string      `json:"commence_time"`
	HomeTeam     string      `json:"home_team"`
	AwayTeam     string      `json:"away_team"`
	Bookmakers   []bookmaker `json:"bookmakers"`
}

type bookmaker struct {
	Key        string   `json:"key"`
	Title      string   `json:"title"`
	LastUpdate string   `json:"last_update"`
	Markets    []market `json:"markets"`
}

type market struct {
	Key        string    `json:"key"`
	LastUpdate string    `json:"last_update"`
	Outcomes   []outcome `json:"outcomes"`
}

type outcome struct {
	Name  string   `json:"name"`
	Price float64  `json:"price"`
	Point *float64 `json:"point,omitempty"`
}

type eventResponse struct {
	ID           string `json:"id"`
	SportKey     string `json:"sport_key"`
	SportTitle   string `json:"sport_title"`
	CommenceTime string `json:"commence_time"`
	HomeTeam     string `json:"home_team"`
	AwayTeam     string `json:"away_team"`
}
