package engine

import (
	"math"

	"github.com/richard-senior/matchodds/pkg/league"
)

// FormScore turns a W/D/L string into [0,1], recent results weighing most.
// The second value is false when there was no usable form.
func (c *EngineConfig) FormScore(form string) (float64, bool) {
	if form == "" {
		return 0.5, false
	}
	score := 0.0
	for i, r := range form {
		if i >= len(c.FormWeights) {
			break
		}
		switch r {
		case 'W':
			score += c.FormWin * c.FormWeights[i]
		case 'D':
			score += c.FormDraw * c.FormWeights[i]
		}
	}
	return clamp(score/c.maxFormScore(), 0, 1), true
}

// standingsDiff is positive when the home side sits higher in the table
func (c *EngineConfig) standingsDiff(home, away TeamSignal) (float64, bool) {
	if home.LeaguePosition <= 0 || away.LeaguePosition <= 0 {
		return 0, false
	}
	rank := float64(away.LeaguePosition-home.LeaguePosition) / c.RankSpan
	points := float64(home.LeaguePoints-away.LeaguePoints) / c.PointsSpan
	return clamp(rank*c.RankShare+points*(1-c.RankShare), -1, 1), true
}

func h2hDiff(h HeadToHead) (float64, bool) {
	if h.Total <= 0 {
		return 0, false
	}
	return clamp(float64(h.HomeWins-h.AwayWins)/float64(h.Total), -1, 1), true
}

func strengthDiff(home, away TeamSignal) (float64, bool) {
	if home.Strength <= 0 || away.Strength <= 0 {
		return 0, false
	}
	return clamp(float64(home.Strength-away.Strength)/60, -1, 1), true
}

// impliedDiff strips the bookmaker margin and returns home minus away probability
func impliedDiff(o *Odds) (float64, bool) {
	if o == nil || !o.valid() {
		return 0, false
	}
	h, d, a := 1/o.Home, 1/o.Draw, 1/o.Away
	total := h + d + a
	return (h - a) / total, true
}

func (c *EngineConfig) injuryDiff(home, away TeamSignal) (float64, bool) {
	h, a := home.absentees(), away.absentees()
	if h == 0 && a == 0 {
		return 0, false
	}
	return clamp(float64(a-h)*c.InjuryPenalty, -1, 1), true
}

type factorTerm struct {
	name  string
	value float64
	ok    bool
}

// weigh combines every factor with data into one score in [-1,1]. Factors without data
// drop out of the normaliser so missing inputs do not drag the score towards zero.
func (c *EngineConfig) weigh(in MatchInput, p league.Profile) Factors {
	homeForm, homeHasForm := c.FormScore(in.Home.form(len(c.FormWeights)))
	awayForm, awayHasForm := c.FormScore(in.Away.form(len(c.FormWeights)))

	f := Factors{
		Form:          homeForm - awayForm,
		HomeAdvantage: p.HomeAdvantage,
		Motivation:    in.Home.Motivation.Score() - in.Away.Motivation.Score(),
	}
	var ok bool
	terms := make([]factorTerm, 0, 8)
	terms = append(terms, factorTerm{league.WeightForm, f.Form, homeHasForm && awayHasForm})

	f.Standings, ok = c.standingsDiff(in.Home, in.Away)
	terms = append(terms, factorTerm{league.WeightStandings, f.Standings, ok})

	f.H2H, ok = h2hDiff(in.H2H)
	terms = append(terms, factorTerm{league.WeightH2H, f.H2H, ok})

	terms = append(terms, factorTerm{league.WeightHomeAdvantage, f.HomeAdvantage, true})

	f.Strength, ok = strengthDiff(in.Home, in.Away)
	terms = append(terms, factorTerm{league.WeightStrength, f.Strength, ok})

	f.OddsImplied, ok = impliedDiff(in.Odds)
	terms = append(terms, factorTerm{league.WeightOddsImplied, f.OddsImplied, ok})

	motivated := in.Home.Motivation != "" || in.Away.Motivation != ""
	terms = append(terms, factorTerm{league.WeightMotivation, f.Motivation, motivated})

	f.Injuries, ok = c.injuryDiff(in.Home, in.Away)
	terms = append(terms, factorTerm{league.WeightInjuries, f.Injuries, ok})

	// fixed order keeps the float sums bit identical between runs
	sum, weight := 0.0, 0.0
	for _, t := range terms {
		w := p.Weight(t.name)
		if !t.ok || w <= 0 {
			continue
		}
		sum += w * t.value
		weight += w
		f.Used = append(f.Used, t.name)
	}
	if weight > 0 {
		f.Score = clamp(sum/weight, -1, 1)
	}
	return f
}

// resultProbabilities shifts the home and away base rates by the weighted score and clamps
// them to the league's floor and ceiling. The draw takes what is left, within its own
// bounds, and the three are renormalised.
func (c *EngineConfig) resultProbabilities(score float64, p league.Profile) (float64, float64, float64) {
	adj := score * c.ScoreScale
	home := clamp(c.BaseHome+adj, p.Threshold(league.ThresholdHomeFloor), p.Threshold(league.ThresholdHomeCeiling))
	away := clamp(c.BaseAway-adj, p.Threshold(league.ThresholdAwayFloor), p.Threshold(league.ThresholdAwayCeiling))
	draw := clamp(1-home-away, p.Threshold(league.ThresholdDrawFloor), p.Threshold(league.ThresholdDrawCeiling))
	total := home + draw + away
	home, draw = home/total, draw/total
	// away takes the remainder so the three always sum to exactly one
	return home, draw, 1 - home - draw
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
