package engine

import (
	"math"
	"strings"
)

// Weather at the venue around kickoff. Condition follows the usual provider groups:
// clear, clouds, rain, drizzle, thunderstorm, snow, fog, mist, haze.
type Weather struct {
	Condition   string   `json:"condition"`
	Description string   `json:"description,omitempty"`
	WindSpeed   float64  `json:"windSpeed,omitempty"`   // m/s
	Temperature *float64 `json:"temperature,omitempty"` // celsius, nil when unknown
}

type weatherImpact struct {
	goals, corners float64
}

var weatherImpacts = map[string]weatherImpact{
	"rain":         {-0.05, 0.03},
	"heavy_rain":   {-0.10, 0.05},
	"drizzle":      {-0.03, 0.02},
	"thunderstorm": {-0.12, 0.05},
	"snow":         {-0.08, -0.02},
	"fog":          {-0.02, 0},
	"wind_strong":  {-0.03, -0.05},
	"cold":         {-0.03, 0},
	"heat":         {-0.05, 0},
}

const (
	strongWind     = 10.0 // m/s
	coldBelow      = 5.0
	heatAbove      = 35.0
	maxGoalsImpact = -0.15
	maxCornerSwing = 0.10
)

// Impacts returns the relative change to expected goals, within [-0.15, 0],
// and to expected corners, within [-0.10, 0.10]. A nil Weather has no effect.
func (w *Weather) Impacts() (goals, corners float64) {
	if w == nil {
		return 0, 0
	}
	add := func(name string) {
		i := weatherImpacts[name]
		goals += i.goals
		corners += i.corners
	}
	switch strings.ToLower(strings.TrimSpace(w.Condition)) {
	case "rain":
		desc := strings.ToLower(w.Description)
		if strings.Contains(desc, "heavy") || strings.Contains(desc, "shower") {
			add("heavy_rain")
		} else {
			add("rain")
		}
	case "drizzle":
		add("drizzle")
	case "thunderstorm":
		add("thunderstorm")
	case "snow":
		add("snow")
	case "fog", "mist", "haze":
		add("fog")
	}
	if w.WindSpeed > strongWind {
		add("wind_strong")
	}
	if w.Temperature != nil {
		switch {
		case *w.Temperature < coldBelow:
			add("cold")
		case *w.Temperature > heatAbove:
			add("heat")
		}
	}
	return math.Max(maxGoalsImpact, goals), clamp(corners, -maxCornerSwing, maxCornerSwing)
}
