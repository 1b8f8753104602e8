package basketball_nba

import (
	"fmt"
	"strings"
	"time"

	"github.com/XavierBriggs/Argus/pkg/models"
)

// staleAfter is how long past tip-off an event is still worth polling
const staleAfter = 6 * time.Hour

// vendorNames maps abbreviated vendor spellings to full franchise names
var vendorNames = map[string]string{
	"la lakers":    "Los Angeles Lakers",
	"la clippers":  "Los Angeles Clippers",
	"ny knicks":    "New York Knicks",
	"gs warriors":  "Golden State Warriors",
	"sa spurs":     "San Antonio Spurs",
	"okc thunder":  "Oklahoma City Thunder",
	"no pelicans":  "New Orleans Pelicans",
	"philly 76ers": "Philadelphia 76ers",
	"sixers":       "Philadelphia 76ers",
	"blazers":      "Portland Trail Blazers",
}

// ValidateEvent rejects discovered events that cannot be turned into an
// odds request, or that finished too long before now
func ValidateEvent(event *models.Event, now time.Time) error {
	if event.SportKey != "" && event.SportKey != SportKey {
		return fmt.Errorf("event %s belongs to %s", event.EventID, event.SportKey)
	}
	if event.HomeTeam == "" || event.AwayTeam == "" {
		return fmt.Errorf("event %s is missing a team", event.EventID)
	}
	if strings.EqualFold(event.HomeTeam, event.AwayTeam) {
		return fmt.Errorf("event %s: home and away teams cannot be the same", event.EventID)
	}
	if event.CommenceTime.IsZero() {
		return fmt.Errorf("event %s has no start time", event.EventID)
	}
	if event.EventStatus != "live" && event.CommenceTime.Before(now.Add(-staleAfter)) {
		return fmt.Errorf("event %s started at %s", event.EventID, event.CommenceTime.Format(time.RFC3339))
	}
	return nil
}

// NormalizeTeamName collapses whitespace and expands abbreviated vendor names
func NormalizeTeamName(name string) string {
	name = strings.Join(strings.Fields(name), " ")
	if full, ok := vendorNames[strings.ToLower(name)]; ok {
		return full
	}
	return name
}
