package americanfootball_nfl

import (
	"fmt"
	"strings"
	"time"

	"github.com/XavierBriggs/Argus/pkg/contracts"
	"github.com/XavierBriggs/Argus/pkg/models"
)

// NFL games are weekly so the scan window covers a full slate
const scanDays = 7

// Module implements the SportModule interface for NFL Football
type Module struct {
	preMatchInterval time.Duration
	gameDayInterval  time.Duration
	inPlayInterval   time.Duration
}

var _ contracts.SportModule = (*Module)(nil)

// NewModule creates a new NFL sport module
func NewModule() *Module {
	return &Module{
		preMatchInterval: 30 * time.Minute,
		gameDayInterval:  5 * time.Minute,
		inPlayInterval:   time.Minute,
	}
}

func (m *Module) GetSportKey() string      { return "americanfootball_nfl" }
func (m *Module) GetDisplayName() string   { return "NFL Football" }
func (m *Module) GetAliases() []string     { return []string{"nfl", "football/nfl"} }
func (m *Module) GetOddsAPIKey() string    { return "americanfootball_nfl" }
func (m *Module) GetESPNPath() string      { return "football/nfl" }
func (m *Module) GetSportsbetPath() string { return "/american-football/nfl" }
func (m *Module) GetScanDays() int         { return scanDays }

// GetMarkets returns the featured markets
func (m *Module) GetMarkets() []models.MarketType {
	return []models.MarketType{models.MarketH2H, models.MarketSpreads, models.MarketTotals}
}

// NormalizeTeamName collapses whitespace and expands common short forms
func (m *Module) NormalizeTeamName(name string) string {
	name = strings.Join(strings.Fields(name), " ")
	switch name {
	case "LA Rams":
		return "Los Angeles Rams"
	case "LA Chargers":
		return "Los Angeles Chargers"
	case "NY Giants":
		return "New York Giants"
	case "NY Jets":
		return "New York Jets"
	}
	return name
}

// ValidateEvent rejects events missing a participant or playing themselves
func (m *Module) ValidateEvent(event *models.Event) error {
	if event.HomeTeam == "" || event.AwayTeam == "" {
		return fmt.Errorf("both teams are required")
	}
	if strings.EqualFold(event.HomeTeam, event.AwayTeam) {
		return fmt.Errorf("home and away teams cannot be the same")
	}
	return nil
}

// GetPollInterval uses a step function: slow until game day, faster within
// 24 hours, fastest in play
func (m *Module) GetPollInterval(hoursUntilStart float64, isLive bool) time.Duration {
	switch {
	case isLive:
		return m.inPlayInterval
	case hoursUntilStart <= 24:
		return m.gameDayInterval
	default:
		return m.preMatchInterval
	}
}

// GetDiscoveryWindowHours returns how far ahead to discover events
func (m *Module) GetDiscoveryWindowHours() int {
	return scanDays * 24
}
