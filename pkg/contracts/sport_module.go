package contracts

import (
	"time"

	"github.com/XavierBriggs/Argus/pkg/models"
)

// SportModule defines the sport-specific knowledge the adapters need
// This enables Argus to resolve one sport tag into every vendor's naming
type SportModule interface {
	// GetSportKey returns the unique identifier for this sport (e.g., "basketball_nba")
	GetSportKey() string

	// GetDisplayName returns the human-readable name (e.g., "NBA Basketball")
	GetDisplayName() string

	// GetAliases returns additional tags callers may use (e.g., "NBA")
	GetAliases() []string

	// GetOddsAPIKey returns The Odds API sport key
	GetOddsAPIKey() string

	// GetESPNPath returns the ESPN site API path (e.g., "basketball/nba")
	GetESPNPath() string

	// GetSportsbetPath returns the odds page path (e.g., "/basketball/nba")
	GetSportsbetPath() string

	// GetScanDays returns how many days ahead to scan when a request has
	// no scheduled start time
	GetScanDays() int

	// GetMarkets returns the featured markets offered for this sport
	GetMarkets() []models.MarketType

	// NormalizeTeamName standardizes vendor team naming
	NormalizeTeamName(name string) string

	// ValidateEvent checks whether a discovered event is worth requesting
	// quotes for
	ValidateEvent(event *models.Event) error

	// GetPollInterval returns how often the scheduler refreshes an event
	// based on time until start and whether the event is live
	GetPollInterval(hoursUntilStart float64, isLive bool) time.Duration

	// GetDiscoveryWindowHours returns how far ahead to discover events
	GetDiscoveryWindowHours() int
}

// SportResolver maps a caller's sport tag ("NBA", "basketball_nba") to its
// module. Implemented by the sport registry.
type SportResolver interface {
	Resolve(tag string) (SportModule, bool)
}
