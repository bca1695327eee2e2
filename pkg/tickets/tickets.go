// Package tickets combines independent match predictions into accumulator tickets
package tickets

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/richard-senior/matchodds/internal/logger"
	"github.com/richard-senior/matchodds/pkg/engine"
)

// Tier names a risk category
type Tier string

const (
	TierSafe     Tier = "safe"
	TierBalanced Tier = "balanced"
	TierRisky    Tier = "risky"
)

// ticketNamespace seeds the name based ticket ids
var ticketNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/richard-senior/matchodds/tickets"))

// TierConfig bounds the shape of a ticket. Picks below MinProbability are not considered
// and a ticket with fewer than MinMatches legs is dropped.
type TierConfig struct {
	Name           Tier    `json:"name" yaml:"name"`
	MinMatches     int     `json:"minMatches" yaml:"minMatches"`
	MaxMatches     int     `json:"maxMatches" yaml:"maxMatches"`
	MaxPerBetType  int     `json:"maxPerBetType" yaml:"maxPerBetType"`
	MinProbability float64 `json:"minProbability" yaml:"minProbability"`
}

// DefaultTiers returns the safe, balanced and risky tiers
func DefaultTiers() []TierConfig {
	return []TierConfig{
		{Name: TierSafe, MinMatches: 3, MaxMatches: 4, MaxPerBetType: 1, MinProbability: 0.65},
		{Name: TierBalanced, MinMatches: 3, MaxMatches: 5, MaxPerBetType: 2, MinProbability: 0.55},
		{Name: TierRisky, MinMatches: 3, MaxMatches: 6, MaxPerBetType: 3, MinProbability: 0.40},
	}
}

// Validate rejects tiers that could never produce a ticket
func (t TierConfig) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("tier name must not be empty")
	}
	if t.MinMatches < 1 || t.MaxMatches < t.MinMatches {
		return fmt.Errorf("tier %s: match bounds must satisfy 1 <= min <= max, got %d/%d", t.Name, t.MinMatches, t.MaxMatches)
	}
	if t.MaxPerBetType < 1 {
		return fmt.Errorf("tier %s: MaxPerBetType should be at least 1, got %d", t.Name, t.MaxPerBetType)
	}
	if t.MinProbability < 0 || t.MinProbability >= 1 {
		return fmt.Errorf("tier %s: MinProbability must be in [0,1), got %f", t.Name, t.MinProbability)
	}
	return nil
}

// TierByName finds a default tier
func TierByName(name string) (TierConfig, bool) {
	for _, t := range DefaultTiers() {
		if string(t.Name) == strings.ToLower(name) {
			return t, true
		}
	}
	return TierConfig{}, false
}

// Leg is one selection on a ticket
type Leg struct {
	MatchID      string         `json:"matchId"`
	LeagueID     int            `json:"leagueId"`
	HomeTeam     string         `json:"homeTeam"`
	AwayTeam     string         `json:"awayTeam"`
	BetType      engine.BetType `json:"betType"`
	Probability  float64        `json:"probability"`
	OddsEstimate float64        `json:"oddsEstimate"`
	Score        int            `json:"score"`
}

// Ticket is a combination of legs on distinct matches
type Ticket struct {
	ID               string  `json:"id"`
	Tier             Tier    `json:"tier"`
	Legs             []Leg   `json:"legs"`
	TotalOdds        float64 `json:"totalOdds"`
	TotalProbability float64 `json:"totalProbability"`
}

// Payout is the return for a stake if every leg wins
func (t Ticket) Payout(stake float64) float64 {
	return stake * t.TotalOdds
}

// Score ranks a pick: confidence, whether it is the preferred pick, how close its price
// sits to the 1.40-2.20 band and how much the league matters
func Score(pred engine.Prediction, pick engine.Pick) int {
	score := 0
	switch pred.Confidence {
	case engine.ConfidenceHigh:
		score += 30
	case engine.ConfidenceMedium:
		score += 20
	default:
		score += 10
	}
	if pick.Preferred {
		score += 20
	}
	switch odds := pick.OddsEstimate; {
	case odds >= 1.40 && odds <= 2.20:
		score += 15
	case odds >= 1.20 && odds < 1.40:
		score += 10
	case odds > 2.20 && odds <= 3.00:
		score += 8
	}
	switch pred.Priority {
	case 1:
		score += 10
	case 2:
		score += 5
	}
	return score
}

// candidates lists every scored pick that clears the tier's probability floor, best first
func candidates(preds []engine.Prediction, minProb float64) []Leg {
	var legs []Leg
	for _, pred := range preds {
		for _, pk := range pred.Picks {
			if pk.Probability < minProb || pk.OddsEstimate <= 1 {
				continue
			}
			legs = append(legs, Leg{
				MatchID:      pred.MatchID,
				LeagueID:     pred.LeagueID,
				HomeTeam:     pred.HomeTeam,
				AwayTeam:     pred.AwayTeam,
				BetType:      pk.BetType,
				Probability:  pk.Probability,
				OddsEstimate: pk.OddsEstimate,
				Score:        Score(pred, pk),
			})
		}
	}
	sort.SliceStable(legs, func(i, j int) bool {
		a, b := legs[i], legs[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Probability != b.Probability {
			return a.Probability > b.Probability
		}
		if a.MatchID != b.MatchID {
			return a.MatchID < b.MatchID
		}
		return a.BetType < b.BetType
	})
	return legs
}

// AssembleTier greedily builds one ticket for the tier. The second value is false when
// the tier's minimum match count cannot be met.
func AssembleTier(preds []engine.Prediction, tier TierConfig) (Ticket, bool) {
	usedMatches := make(map[string]bool)
	perType := make(map[engine.BetType]int)

	var legs []Leg
	for _, leg := range candidates(preds, tier.MinProbability) {
		if len(legs) >= tier.MaxMatches {
			break
		}
		if usedMatches[leg.MatchID] || perType[leg.BetType] >= tier.MaxPerBetType {
			continue
		}
		usedMatches[leg.MatchID] = true
		perType[leg.BetType]++
		legs = append(legs, leg)
	}

	if len(legs) < tier.MinMatches {
		logger.Debug("Tier omitted", string(tier.Name), len(legs), tier.MinMatches)
		return Ticket{}, false
	}
	return newTicket(tier.Name, legs), true
}

// Assemble builds at most one ticket per tier. Tiers that cannot be filled are left out,
// which is not an error.
func Assemble(preds []engine.Prediction, tiers []TierConfig) []Ticket {
	if tiers == nil {
		tiers = DefaultTiers()
	}
	out := make([]Ticket, 0, len(tiers))
	for _, tier := range tiers {
		if err := tier.Validate(); err != nil {
			logger.Warn("Skipping tier", err)
			continue
		}
		if t, ok := AssembleTier(preds, tier); ok {
			out = append(out, t)
		}
	}
	return out
}

func newTicket(tier Tier, legs []Leg) Ticket {
	odds, prob := 1.0, 1.0
	keys := make([]string, 0, len(legs)+1)
	keys = append(keys, string(tier))
	for _, l := range legs {
		odds *= l.OddsEstimate
		prob *= l.Probability
		keys = append(keys, l.MatchID+"/"+string(l.BetType))
	}
	return Ticket{
		ID:               uuid.NewSHA1(ticketNamespace, []byte(strings.Join(keys, "|"))).String(),
		Tier:             tier,
		Legs:             legs,
		TotalOdds:        roundTo(odds, 2),
		TotalProbability: roundTo(prob, 4),
	}
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
