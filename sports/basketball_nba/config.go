package basketball_nba

import (
	"time"
)

// SportKey identifies NBA events across sources
const SportKey = "basketball_nba"

// Config contains NBA-specific vendor naming and polling configuration
type Config struct {
	// Sport identification
	SportKey    string
	DisplayName string
	Aliases     []string

	// Vendor naming
	OddsAPIKey    string
	ESPNPath      string
	SportsbetPath string

	// Days to scan on date-based sources when a request has no start time
	ScanDays int

	// Featured markets polling configuration (h2h, spreads, totals)
	Featured FeaturedConfig
}

// FeaturedConfig defines refresh cadence for mainline markets
type FeaturedConfig struct {
	// Pre-match polling interval (outside the ramp window)
	PreMatchInterval time.Duration

	// How many hours before start to begin ramping
	RampWithinHours float64

	// Target interval near tipoff
	RampTargetInterval time.Duration

	// In-play polling interval
	InPlayInterval time.Duration

	// How many hours ahead the scheduler discovers events
	DiscoveryWindowHours int
}

// DefaultConfig returns the NBA configuration
func DefaultConfig() *Config {
	return &Config{
		SportKey:    SportKey,
		DisplayName: "NBA Basketball",
		Aliases:     []string{"nba", "basketball/nba"},

		OddsAPIKey:    SportKey,
		ESPNPath:      "basketball/nba",
		SportsbetPath: "/basketball/nba",

		ScanDays: 3,

		Featured: FeaturedConfig{
			PreMatchInterval:     10 * time.Minute,
			RampWithinHours:      6.0,
			RampTargetInterval:   2 * time.Minute,
			InPlayInterval:       time.Minute,
			DiscoveryWindowHours: 48,
		},
	}
}

// GetFeaturedInterval returns the appropriate refresh interval for featured
// markets based on hours until event start
func (c *Config) GetFeaturedInterval(hoursUntilStart float64, isLive bool) time.Duration {
	if isLive {
		return c.Featured.InPlayInterval
	}

	if hoursUntilStart > c.Featured.RampWithinHours {
		return c.Featured.PreMatchInterval
	}
	if hoursUntilStart < 0 {
		hoursUntilStart = 0
	}

	// Linear ramp from PreMatchInterval to RampTargetInterval
	rampFactor := hoursUntilStart / c.Featured.RampWithinHours
	diff := c.Featured.PreMatchInterval - c.Featured.RampTargetInterval
	return c.Featured.RampTargetInterval + time.Duration(float64(diff)*rampFactor)
}
