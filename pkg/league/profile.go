package league

import (
	"fmt"
	"maps"
)

// Style describes how a league tends to play and shifts expected goals towards attack or defence
type Style string

const (
	StyleAttacking Style = "attacking"
	StyleBalanced  Style = "balanced"
	StyleDefensive Style = "defensive"
	StylePhysical  Style = "physical"
)

// Names of the factors in a profile weight vector
const (
	WeightForm          = "form"
	WeightStandings     = "standings"
	WeightH2H           = "h2h"
	WeightHomeAdvantage = "home_advantage"
	WeightStrength      = "strength"
	WeightOddsImplied   = "odds_implied"
	WeightMotivation    = "motivation"
	WeightInjuries      = "injuries"
)

// Names of the decision thresholds in a profile
const (
	ThresholdOver15      = "over_15"
	ThresholdUnder15     = "under_15"
	ThresholdOver25      = "over_25"
	ThresholdUnder25     = "under_25"
	ThresholdOver35      = "over_35"
	ThresholdUnder35     = "under_35"
	ThresholdBTTSYes     = "btts_yes"
	ThresholdBTTSNo      = "btts_no"
	ThresholdDraw        = "draw_threshold"
	ThresholdHomeFloor   = "home_floor"
	ThresholdHomeCeiling = "home_ceiling"
	ThresholdDrawFloor   = "draw_floor"
	ThresholdDrawCeiling = "draw_ceiling"
	ThresholdAwayFloor   = "away_floor"
	ThresholdAwayCeiling = "away_ceiling"
)

// Baselines are the per team averages used when a team has no data of its own
type Baselines struct {
	GoalsScored   float64 `yaml:"goalsScored" json:"goalsScored"`
	GoalsConceded float64 `yaml:"goalsConceded" json:"goalsConceded"`
	Corners       float64 `yaml:"corners" json:"corners"`
	YellowCards   float64 `yaml:"yellowCards" json:"yellowCards"`
	RedCards      float64 `yaml:"redCards" json:"redCards"`
}

// Profile holds the constants for one league.
// Profiles handed out by a Table are copies and can be modified freely by the caller.
type Profile struct {
	ID               int                `yaml:"id" json:"leagueId"`
	Name             string             `yaml:"name" json:"name"`
	Country          string             `yaml:"country" json:"country"`
	Priority         int                `yaml:"priority" json:"priority"`
	Weights          map[string]float64 `yaml:"weights" json:"weights"`
	HomeAdvantage    float64            `yaml:"homeAdvantage" json:"homeAdvantage"`
	Baselines        Baselines          `yaml:"baselines" json:"baselines"`
	AvgGoalsPerMatch float64            `yaml:"avgGoalsPerMatch" json:"avgGoalsPerMatch"`
	Style            Style              `yaml:"style" json:"style"`
	Thresholds       map[string]float64 `yaml:"thresholds" json:"thresholds"`
	Configured       bool               `yaml:"-" json:"configured"`
}

// Weight returns the named factor weight, zero when the profile does not weight it
func (p Profile) Weight(name string) float64 {
	return p.Weights[name]
}

// Threshold returns the named decision threshold
func (p Profile) Threshold(name string) float64 {
	return p.Thresholds[name]
}

// IsHighScoring reports leagues averaging 2.8 goals or more
func (p Profile) IsHighScoring() bool {
	return p.AvgGoalsPerMatch >= 2.8
}

// IsPhysical reports leagues tagged physical or carrying a high yellow card baseline
func (p Profile) IsPhysical() bool {
	return p.Style == StylePhysical || p.Baselines.YellowCards >= 2.0
}

func (p Profile) clone() Profile {
	p.Weights = maps.Clone(p.Weights)
	p.Thresholds = maps.Clone(p.Thresholds)
	return p
}

// inherit fills anything the league left unset from the default profile
func (p *Profile) inherit(def Profile) {
	if p.Weights == nil {
		p.Weights = maps.Clone(def.Weights)
	}
	if p.Thresholds == nil {
		p.Thresholds = map[string]float64{}
	}
	for k, v := range def.Thresholds {
		if _, ok := p.Thresholds[k]; !ok {
			p.Thresholds[k] = v
		}
	}
	if p.Baselines == (Baselines{}) {
		p.Baselines = def.Baselines
	}
	if p.AvgGoalsPerMatch == 0 {
		p.AvgGoalsPerMatch = def.AvgGoalsPerMatch
	}
	if p.Style == "" {
		p.Style = def.Style
	}
	if p.Priority == 0 {
		p.Priority = def.Priority
	}
}

func (p Profile) validate() error {
	switch p.Style {
	case StyleAttacking, StyleBalanced, StyleDefensive, StylePhysical:
	default:
		return fmt.Errorf("league %d: unknown style %q", p.ID, p.Style)
	}
	for name, w := range p.Weights {
		if w < 0 || w > 1 {
			return fmt.Errorf("league %d: weight %s must be between 0 and 1, got: %f", p.ID, name, w)
		}
	}
	if p.HomeAdvantage < 0 || p.HomeAdvantage > 0.5 {
		return fmt.Errorf("league %d: homeAdvantage must be between 0 and 0.5, got: %f", p.ID, p.HomeAdvantage)
	}
	if p.Priority < 1 || p.Priority > 3 {
		return fmt.Errorf("league %d: priority must be 1, 2 or 3, got: %d", p.ID, p.Priority)
	}
	pairs := [][2]string{
		{ThresholdHomeFloor, ThresholdHomeCeiling},
		{ThresholdDrawFloor, ThresholdDrawCeiling},
		{ThresholdAwayFloor, ThresholdAwayCeiling},
	}
	for _, pair := range pairs {
		lo, hi := p.Thresholds[pair[0]], p.Thresholds[pair[1]]
		if lo < 0 || hi > 1 || lo >= hi {
			return fmt.Errorf("league %d: %s/%s must satisfy 0 <= floor < ceiling <= 1, got: %f/%f", p.ID, pair[0], pair[1], lo, hi)
		}
	}
	return nil
}
