package basketball_nba

import (
	"testing"
	"time"

	"github.com/XavierBriggs/Argus/pkg/models"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.SportKey != "basketball_nba" {
		t.Errorf("expected sport_key basketball_nba, got %s", config.SportKey)
	}

	if config.ScanDays != 3 {
		t.Errorf("expected 3 scan days, got %d", config.ScanDays)
	}

	if config.Featured.PreMatchInterval != 10*time.Minute {
		t.Errorf("expected pre-match interval 10m, got %v", config.Featured.PreMatchInterval)
	}

	if config.Featured.RampTargetInterval != 2*time.Minute {
		t.Errorf("expected ramp target 2m, got %v", config.Featured.RampTargetInterval)
	}
}

func TestGetFeaturedInterval_PreMatch(t *testing.T) {
	config := DefaultConfig()

	// Test far future (>6hr)
	interval := config.GetFeaturedInterval(12.0, false)
	if interval != 10*time.Minute {
		t.Errorf("expected 10m for 12hr out, got %v", interval)
	}
}

func TestGetFeaturedInterval_Ramp(t *testing.T) {
	config := DefaultConfig()

	// Should be ramping between 10m and 2m
	interval := config.GetFeaturedInterval(3.0, false)
	if interval != 6*time.Minute {
		t.Errorf("expected 6m for 3hr out, got %v", interval)
	}

	// Test near tipoff
	interval = config.GetFeaturedInterval(0.5, false)
	if interval < 2*time.Minute || interval > 3*time.Minute {
		t.Errorf("expected interval close to 2m for 30min out, got %v", interval)
	}

	// Started but not flagged live yet
	interval = config.GetFeaturedInterval(-0.25, false)
	if interval != 2*time.Minute {
		t.Errorf("expected 2m once past tipoff, got %v", interval)
	}
}

func TestGetFeaturedInterval_InPlay(t *testing.T) {
	config := DefaultConfig()

	interval := config.GetFeaturedInterval(0, true)
	if interval != time.Minute {
		t.Errorf("expected 1m for in-play, got %v", interval)
	}
}

func TestValidateEvent(t *testing.T) {
	now := time.Date(2025, 1, 10, 20, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		event   models.Event
		wantErr bool
	}{
		{"valid", models.Event{SportKey: SportKey, HomeTeam: "Boston Celtics", AwayTeam: "Miami Heat", CommenceTime: now.Add(time.Hour)}, false},
		{"no sport key", models.Event{HomeTeam: "Boston Celtics", AwayTeam: "Miami Heat", CommenceTime: now.Add(time.Hour)}, false},
		{"other sport", models.Event{SportKey: "americanfootball_nfl", HomeTeam: "Boston Celtics", AwayTeam: "Miami Heat", CommenceTime: now}, true},
		{"missing home", models.Event{AwayTeam: "Miami Heat", CommenceTime: now}, true},
		{"same teams", models.Event{HomeTeam: "Miami Heat", AwayTeam: "miami heat", CommenceTime: now}, true},
		{"no start", models.Event{HomeTeam: "Boston Celtics", AwayTeam: "Miami Heat"}, true},
		{"stale", models.Event{HomeTeam: "Boston Celtics", AwayTeam: "Miami Heat", CommenceTime: now.Add(-48 * time.Hour)}, true},
		{"long live game", models.Event{HomeTeam: "Boston Celtics", AwayTeam: "Miami Heat", CommenceTime: now.Add(-7 * time.Hour), EventStatus: "live"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEvent(&tt.event, now)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateEvent() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNormalizeTeamName(t *testing.T) {
	tests := map[string]string{
		"LA Lakers":             "Los Angeles Lakers",
		"  Boston   Celtics ":   "Boston Celtics",
		"Golden State Warriors": "Golden State Warriors",
		"Sixers":                "Philadelphia 76ers",
	}

	for in, want := range tests {
		if got := NormalizeTeamName(in); got != want {
			t.Errorf("NormalizeTeamName(%q) = %q, want %q", in, got, want)
		}
	}
}

func BenchmarkGetFeaturedInterval(b *testing.B) {
	config := DefaultConfig()

	for i := 0; i < b.N; i++ {
		config.GetFeaturedInterval(3.5, false)
	}
}
