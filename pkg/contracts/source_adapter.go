package contracts

import (
	"context"

	"github.com/XavierBriggs/Argus/pkg/models"
)

// SourceAdapter fetches raw quotes for one event from a single upstream
// source. Implementations classify their own failures into a
// *SourceFailure so the orchestrator never inspects wire-level errors.
type SourceAdapter interface {
	// ID returns the stable source identity (e.g., "odds-api")
	ID() models.SourceID

	// SupportsMarket reports whether this source can price a market
	SupportsMarket(market models.MarketType) bool

	// Fetch retrieves raw quotes for the request's event. Unsupported
	// markets are skipped, not treated as failures. An event the source
	// does not list is reported as a NotFound failure.
	Fetch(ctx context.Context, req models.OddsRequest) ([]models.RawQuote, error)
}

// EventDiscoverer lists upcoming events for a sport so the scheduler can
// build requests for them
type EventDiscoverer interface {
	FetchEvents(ctx context.Context, sport SportModule) ([]models.Event, error)
}
