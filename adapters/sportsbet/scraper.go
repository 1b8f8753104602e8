// Package sportsbet reads prices from a bookmaker odds page. The page marks
// its structure with data attributes:
//
//	<div data-event-id="..." data-event-home="..." data-event-away="..." data-event-start="RFC3339">
//	  <section data-bookmaker="Sportsbet">
//	    <div data-market="h2h">
//	      <button data-selection="Lakers" data-price="1.85"></button>
//
// Prices are decimal ("1.85") or fractional ("5/2"). data-point and
// data-value-score are optional on outcomes. data-bookmaker is inherited
// from the nearest ancestor.
package sportsbet

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/XavierBriggs/Argus/internal/normalize"
	"github.com/XavierBriggs/Argus/pkg/contracts"
	"github.com/XavierBriggs/Argus/pkg/models"
)

const (
	// SourceID is the odds page fallback
	SourceID models.SourceID = "sportsbet-scrape"

	DefaultBaseURL   = "https://www.sportsbet.com.au/betting"
	defaultBookmaker = "Sportsbet"
	userAgent        = "Mozilla/5.0 (compatible; FortunaBot/1.0)"
	timeout          = 15 * time.Second
	maxPageBytes     = 5 << 20
)

// Scraper implements SourceAdapter over an HTML odds page
type Scraper struct {
	baseURL    string
	sports     contracts.SportResolver
	httpClient *http.Client
}

var (
	_ contracts.SourceAdapter   = (*Scraper)(nil)
	_ contracts.EventDiscoverer = (*Scraper)(nil)
)

// Option configures a Scraper
type Option func(*Scraper)

// WithBaseURL overrides the site root
func WithBaseURL(baseURL string) Option {
	return func(s *Scraper) {
		s.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(s *Scraper) {
		s.httpClient = hc
	}
}

// New creates a new odds page scraper
func New(sports contracts.SportResolver, opts ...Option) *Scraper {
	s := &Scraper{
		baseURL: DefaultBaseURL,
		sports:  sports,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ID returns the source identity
func (s *Scraper) ID() models.SourceID {
	return SourceID
}

// SupportsMarket reports whether the page carries the market
func (s *Scraper) SupportsMarket(market models.MarketType) bool {
	return market.IsFeatured()
}

// Fetch loads the sport's odds page and extracts every outcome listed
// under the requested event
func (s *Scraper) Fetch(ctx context.Context, req models.OddsRequest) ([]models.RawQuote, error) {
	sport, ok := s.sports.Resolve(req.Sport())
	if !ok || sport.GetSportsbetPath() == "" {
		return nil, contracts.NotFoundf("sportsbet: unknown sport %q", req.Sport())
	}

	doc, err := s.fetchPage(ctx, sport.GetSportsbetPath())
	if err != nil {
		return nil, err
	}

	for _, node := range findEvents(doc) {
		home := sport.NormalizeTeamName(attr(node, "data-event-home"))
		away := sport.NormalizeTeamName(attr(node, "data-event-away"))
		if !req.Matches(home, away) {
			continue
		}
		return extractOutcomes(node, req), nil
	}

	return nil, contracts.NotFoundf("sportsbet: no listing for %s", req.Key())
}

// FetchEvents lists the events on the sport's odds page
func (s *Scraper) FetchEvents(ctx context.Context, sport contracts.SportModule) ([]models.Event, error) {
	doc, err := s.fetchPage(ctx, sport.GetSportsbetPath())
	if err != nil {
		return nil, fmt.Errorf("fetch odds page: %w", err)
	}

	now := time.Now()
	var events []models.Event
	for _, node := range findEvents(doc) {
		start, err := time.Parse(time.RFC3339, attr(node, "data-event-start"))
		if err != nil {
			continue
		}
		status := "upcoming"
		if now.After(start) {
			status = "live"
		}
		events = append(events, models.Event{
			EventID:      attr(node, "data-event-id"),
			SportKey:     sport.GetSportKey(),
			HomeTeam:     sport.NormalizeTeamName(attr(node, "data-event-home")),
			AwayTeam:     sport.NormalizeTeamName(attr(node, "data-event-away")),
			CommenceTime: start,
			EventStatus:  status,
		})
	}
	return events, nil
}

func (s *Scraper) fetchPage(ctx context.Context, path string) (*html.Node, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+path, nil)
	if err != nil {
		return nil, contracts.NewFailure(contracts.Transport, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, contracts.NewFailure(contracts.Transport, fmt.Errorf("execute request: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, contracts.NewFailure(contracts.Transport, fmt.Errorf("read response body: %w", err))
	}

	if resp.StatusCode != http.StatusOK {
		return nil, contracts.ClassifyStatus(resp.StatusCode, resp.Header, body)
	}

	doc, err := html.Parse(strings.NewReader(string(body)))
	if err != nil {
		return nil, contracts.NewFailure(contracts.Transport, fmt.Errorf("parse html: %w", err))
	}
	return doc, nil
}

// findEvents returns every event container in document order
func findEvents(doc *html.Node) []*html.Node {
	var events []*html.Node
	var traverse func(*html.Node)
	traverse = func(n *html.Node) {
		if n.Type == html.ElementNode && hasAttr(n, "data-event-home") && hasAttr(n, "data-event-away") {
			events = append(events, n)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
		}
	}
	traverse(doc)
	return events
}

// extractOutcomes walks an event container carrying the nearest bookmaker
// and market down to each priced outcome
func extractOutcomes(event *html.Node, req models.OddsRequest) []models.RawQuote {
	var quotes []models.RawQuote

	var traverse func(n *html.Node, bookmaker, market string)
	traverse = func(n *html.Node, bookmaker, market string) {
		if n.Type == html.ElementNode {
			if b := attr(n, "data-bookmaker"); b != "" {
				bookmaker = b
			}
			if m := attr(n, "data-market"); m != "" {
				market = m
			}

			if hasAttr(n, "data-selection") && hasAttr(n, "data-price") && market != "" {
				if q, ok := outcome(n, bookmaker, market, req); ok {
					quotes = append(quotes, q)
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			traverse(c, bookmaker, market)
		}
	}
	traverse(event, defaultBookmaker, "")

	return quotes
}

func outcome(n *html.Node, bookmaker, market string, req models.OddsRequest) (models.RawQuote, bool) {
	// Featured markets the caller did not ask for are skipped here; anything
	// else (lay positions) is passed on for the validator to reject
	if mt := normalize.MarketFromLabel(market); mt.IsFeatured() && !req.WantsMarket(mt) {
		return models.RawQuote{}, false
	}

	price := strings.TrimSpace(attr(n, "data-price"))
	format := models.FormatDecimal
	if strings.Contains(price, "/") {
		format = models.FormatFractional
	}

	q := models.RawQuote{
		Source:      SourceID,
		Bookmaker:   bookmaker,
		MarketLabel: market,
		Selection:   strings.TrimSpace(attr(n, "data-selection")),
		Price:       price,
		Format:      format,
		Point:       floatAttr(n, "data-point"),
		ValueScore:  floatAttr(n, "data-value-score"),
	}
	return q, true
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return strings.TrimSpace(a.Val)
		}
	}
	return ""
}

func floatAttr(n *html.Node, key string) *float64 {
	v := strings.TrimPrefix(attr(n, key), "+")
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}
