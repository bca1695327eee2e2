// Package enrich gathers the raw signals the prediction engine needs for a fixture.
// Providers may fail; the Enricher never does and falls back to neutral signals.
package enrich

import (
	"context"
	"strings"

	"github.com/richard-senior/matchodds/internal/logger"
	"github.com/richard-senior/matchodds/pkg/elo"
	"github.com/richard-senior/matchodds/pkg/engine"
)

// Provider is a source of team and head to head signals
type Provider interface {
	TeamSignal(ctx context.Context, teamID, leagueID int) (engine.TeamSignal, error)
	HeadToHead(ctx context.Context, homeID, awayID int) (engine.HeadToHead, error)
}

// Fixture identifies a match to enrich
type Fixture struct {
	MatchID  string          `json:"matchId"`
	LeagueID int             `json:"leagueId"`
	Kickoff  string          `json:"kickoff,omitempty"`
	HomeID   int             `json:"homeId"`
	AwayID   int             `json:"awayId"`
	HomeName string          `json:"homeName"`
	AwayName string          `json:"awayName"`
	Odds     *engine.Odds    `json:"odds,omitempty"`
	Weather  *engine.Weather `json:"weather,omitempty"`
}

// StrengthSource resolves a team's 40..100 strength
type StrengthSource interface {
	Resolve(ctx context.Context, teamID int, name string) elo.Strength
}

// Enricher turns fixtures into engine inputs
type Enricher struct {
	provider  Provider
	strengths StrengthSource
}

// NewEnricher accepts a nil provider (no signals) and a nil strength source (no strengths)
func NewEnricher(p Provider, s StrengthSource) *Enricher {
	return &Enricher{provider: p, strengths: s}
}

// Enrich builds the engine input for a fixture. Provider errors are logged and replaced
// by neutral signals, which the engine reports as lower confidence.
func (e *Enricher) Enrich(ctx context.Context, f Fixture) engine.MatchInput {
	in := engine.MatchInput{
		MatchID:  f.MatchID,
		LeagueID: f.LeagueID,
		Kickoff:  f.Kickoff,
		Odds:     f.Odds,
		Weather:  f.Weather,
		Home:     e.team(ctx, f.HomeID, f.LeagueID, f.HomeName),
		Away:     e.team(ctx, f.AwayID, f.LeagueID, f.AwayName),
	}
	if e.provider != nil && f.HomeID > 0 && f.AwayID > 0 {
		h2h, err := e.provider.HeadToHead(ctx, f.HomeID, f.AwayID)
		if err != nil {
			logger.Warn("Head to head unavailable", f.MatchID, err)
		} else {
			in.H2H = sanitizeH2H(h2h)
		}
	}
	return in
}

// EnrichAll enriches fixtures in order
func (e *Enricher) EnrichAll(ctx context.Context, fixtures []Fixture) []engine.MatchInput {
	out := make([]engine.MatchInput, 0, len(fixtures))
	for _, f := range fixtures {
		out = append(out, e.Enrich(ctx, f))
	}
	return out
}

func (e *Enricher) team(ctx context.Context, teamID, leagueID int, name string) engine.TeamSignal {
	ts := engine.TeamSignal{TeamID: teamID, Name: name}
	if e.provider != nil && teamID > 0 {
		got, err := e.provider.TeamSignal(ctx, teamID, leagueID)
		if err != nil {
			logger.Warn("Team signal unavailable", teamID, name, err)
		} else {
			ts = sanitize(got)
			ts.TeamID = teamID
			if ts.Name == "" {
				ts.Name = name
			}
		}
	}
	if ts.Motivation == "" {
		ts.Motivation = MotivationFromPosition(ts.LeaguePosition)
	}
	if ts.Strength == 0 && e.strengths != nil {
		if s := e.strengths.Resolve(ctx, teamID, ts.Name); s.Known() {
			ts.Strength = s.Value
		}
	}
	return ts
}

// MotivationFromPosition guesses what a side is playing for from its table position
func MotivationFromPosition(position int) engine.Motivation {
	switch {
	case position <= 0:
		return engine.MotivationNormal
	case position <= 2:
		return engine.MotivationTitle
	case position <= 4:
		return engine.MotivationChampions
	case position <= 6:
		return engine.MotivationEuropa
	case position == 7:
		return engine.MotivationConference
	case position >= 18:
		return engine.MotivationRelegation
	}
	return engine.MotivationNormal
}

// sanitize drops values that cannot be right so the engine only sees plausible input
func sanitize(ts engine.TeamSignal) engine.TeamSignal {
	var form strings.Builder
	for _, r := range strings.ToUpper(ts.RecentForm) {
		if form.Len() == 5 {
			break
		}
		if r == 'W' || r == 'D' || r == 'L' {
			form.WriteRune(r)
		}
	}
	ts.RecentForm = form.String()

	ts.LeaguePosition = max(ts.LeaguePosition, 0)
	ts.LeaguePoints = max(ts.LeaguePoints, 0)
	ts.CleanSheets = max(ts.CleanSheets, 0)
	ts.FailedToScore = max(ts.FailedToScore, 0)
	ts.GoalsScoredAvg = max(ts.GoalsScoredAvg, 0)
	ts.GoalsConcededAvg = max(ts.GoalsConcededAvg, 0)
	ts.AvgCorners = max(ts.AvgCorners, 0)
	ts.AvgYellowCards = max(ts.AvgYellowCards, 0)
	ts.AvgRedCards = max(ts.AvgRedCards, 0)
	if ts.Strength < elo.MinStrength || ts.Strength > elo.MaxStrength {
		ts.Strength = 0
	}
	return ts
}

func sanitizeH2H(h engine.HeadToHead) engine.HeadToHead {
	if h.Total <= 0 || h.HomeWins < 0 || h.Draws < 0 || h.AwayWins < 0 || h.HomeWins+h.Draws+h.AwayWins > h.Total {
		return engine.HeadToHead{}
	}
	h.AvgGoals = max(h.AvgGoals, 0)
	if h.BTTSRatio <= 0 && h.BTTSPercent > 0 {
		h.BTTSRatio = h.BTTSPercent / 100
	}
	h.BTTSPercent = 0
	h.BTTSRatio = min(max(h.BTTSRatio, 0), 1)
	return h
}
