package espn

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Scoreboard response structures, reduced to the fields Argus reads

type scoreboard struct {
	Events []event `json:"events"`
}

type event struct {
	ID           string        `json:"id"`
	Date         string        `json:"date"`
	Name         string        `json:"name"`
	Competitions []competition `json:"competitions"`
}

type competition struct {
	Competitors []competitor `json:"competitors"`
	Odds        []oddsEntry  `json:"odds"`
	Status      struct {
		Type struct {
			State string `json:"state"` // pre, in, post
		} `json:"type"`
	} `json:"status"`
}

// teams returns the home and away display names
func (c competition) teams() (home, away string) {
	for _, comp := range c.Competitors {
		switch comp.HomeAway {
		case "home":
			home = comp.Team.DisplayName
		case "away":
			away = comp.Team.DisplayName
		}
	}
	return home, away
}

type competitor struct {
	HomeAway string `json:"homeAway"`
	Team     struct {
		DisplayName string `json:"displayName"`
	} `json:"team"`
}

type oddsEntry struct {
	Provider    provider  `json:"provider"`
	OverUnder   *float64  `json:"overUnder"`
	Moneyline   sidePair  `json:"moneyline"`
	PointSpread sidePair  `json:"pointSpread"`
	Total       totalPair `json:"total"`
}

type provider struct {
	Name  string `json:"name"`
	Logos []struct {
		Href string `json:"href"`
	} `json:"logos"`
}

type sidePair struct {
	Home side `json:"home"`
	Away side `json:"away"`
}

type totalPair struct {
	Over  side `json:"over"`
	Under side `json:"under"`
}

type side struct {
	Close closeLine `json:"close"`
}

type closeLine struct {
	Odds flexString `json:"odds"`
	Line flexString `json:"line"`
}

// flexString accepts a JSON string or number. ESPN is inconsistent about
// quoting odds and lines.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(strings.TrimSpace(s))
		return nil
	}
	*f = flexString(data)
	return nil
}

// Float parses a line such as "-3.5" or "+3"; nil when absent
func (f flexString) Float() *float64 {
	s := strings.TrimPrefix(strings.TrimSpace(string(f)), "+")
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
