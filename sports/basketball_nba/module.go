package basketball_nba

import (
	"time"

	"github.com/XavierBriggs/Argus/pkg/contracts"
	"github.com/XavierBriggs/Argus/pkg/models"
)

// Module implements the SportModule interface for NBA Basketball
type Module struct {
	config *Config
	now    func() time.Time
}

var _ contracts.SportModule = (*Module)(nil)

// NewModule creates a new NBA sport module
func NewModule() *Module {
	return &Module{
		config: DefaultConfig(),
		now:    time.Now,
	}
}

// GetSportKey returns the sport identifier
func (m *Module) GetSportKey() string {
	return m.config.SportKey
}

// GetDisplayName returns the human-readable name
func (m *Module) GetDisplayName() string {
	return m.config.DisplayName
}

// GetAliases returns alternative sport tags
func (m *Module) GetAliases() []string {
	return m.config.Aliases
}

// GetOddsAPIKey returns The Odds API sport key
func (m *Module) GetOddsAPIKey() string {
	return m.config.OddsAPIKey
}

// GetESPNPath returns the ESPN site API path
func (m *Module) GetESPNPath() string {
	return m.config.ESPNPath
}

// GetSportsbetPath returns the odds page path
func (m *Module) GetSportsbetPath() string {
	return m.config.SportsbetPath
}

// GetScanDays returns the date scan window
func (m *Module) GetScanDays() int {
	return m.config.ScanDays
}

// GetMarkets returns the featured markets
func (m *Module) GetMarkets() []models.MarketType {
	return models.FeaturedMarkets()
}

// NormalizeTeamName standardizes NBA team names
func (m *Module) NormalizeTeamName(name string) string {
	return NormalizeTeamName(name)
}

// ValidateEvent checks a discovered NBA event
func (m *Module) ValidateEvent(event *models.Event) error {
	return ValidateEvent(event, m.now())
}

// GetPollInterval returns how often to refresh an event's quotes
func (m *Module) GetPollInterval(hoursUntilStart float64, isLive bool) time.Duration {
	return m.config.GetFeaturedInterval(hoursUntilStart, isLive)
}

// GetDiscoveryWindowHours returns how far ahead to discover events
func (m *Module) GetDiscoveryWindowHours() int {
	return m.config.Featured.DiscoveryWindowHours
}
