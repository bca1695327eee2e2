package engine

import (
	"math"

	"github.com/richard-senior/matchodds/pkg/league"
)

// GoalLines are the over/under lines every prediction carries
var GoalLines = []float64{1.5, 2.5, 3.5}

// attackDefence returns scored and conceded averages, falling back to a table position
// estimate and then to the league baselines
func attackDefence(t TeamSignal, home bool, p league.Profile) (float64, float64) {
	scored, conceded := p.Baselines.GoalsScored, p.Baselines.GoalsConceded
	if pos := t.LeaguePosition; pos > 0 {
		step := float64(pos - 1)
		if home {
			scored = 1.8 - step*0.05
			conceded = 0.8 + step*0.04
		} else {
			scored = 1.5 - step*0.04
			conceded = 1.0 + step*0.05
		}
		scored = math.Max(scored, 0.3)
	}
	if t.GoalsScoredAvg > 0 {
		scored = t.GoalsScoredAvg
	}
	if t.GoalsConcededAvg > 0 {
		conceded = t.GoalsConcededAvg
	}
	return scored, conceded
}

func styleWeights(s league.Style) (float64, float64) {
	switch s {
	case league.StyleAttacking:
		return 0.6, 0.4
	case league.StyleDefensive:
		return 0.4, 0.6
	default:
		return 0.5, 0.5
	}
}

// expectedGoals returns home and away xG
func (c *EngineConfig) expectedGoals(in MatchInput, p league.Profile) (float64, float64) {
	homeScored, homeConceded := attackDefence(in.Home, true, p)
	awayScored, awayConceded := attackDefence(in.Away, false, p)
	wAtt, wDef := styleWeights(p.Style)

	xgHome := wAtt*homeScored + wDef*awayConceded
	xgAway := wAtt*awayScored + wDef*homeConceded
	total := xgHome + xgAway

	target := total
	if in.H2H.Total >= c.H2HBlendMinMatches && in.H2H.AvgGoals > 0 {
		target = total*(1-c.H2HBlendWeight) + in.H2H.AvgGoals*c.H2HBlendWeight
	}
	if limit := p.AvgGoalsPerMatch + c.GoalsCapMargin; target > limit {
		target = limit
	}
	if total > 0 && target != total {
		xgHome *= target / total
		xgAway *= target / total
	}
	if goals, _ := in.Weather.Impacts(); goals != 0 {
		xgHome *= 1 + goals
		xgAway *= 1 + goals
	}
	return math.Max(xgHome, c.MinTeamGoals), math.Max(xgAway, c.MinTeamGoals)
}

// overProbability is the linear over/under curve around the line
func (c *EngineConfig) overProbability(xg, line float64) float64 {
	return clamp(c.OverUnderBase+c.OverUnderSlope*(xg-line), c.OverUnderMin, c.OverUnderMax)
}

func (c *EngineConfig) overUnder(xg float64, p league.Profile) []OverUnderLine {
	thresholds := map[float64][2]string{
		1.5: {league.ThresholdOver15, league.ThresholdUnder15},
		2.5: {league.ThresholdOver25, league.ThresholdUnder25},
		3.5: {league.ThresholdOver35, league.ThresholdUnder35},
	}
	out := make([]OverUnderLine, 0, len(GoalLines))
	for _, line := range GoalLines {
		over := c.overProbability(xg, line)
		l := OverUnderLine{Line: line, Over: over, Under: 1 - over, Verdict: GoalsNone}
		names := thresholds[line]
		switch {
		case over >= p.Threshold(names[0]):
			l.Verdict = GoalsOver
		case over <= p.Threshold(names[1]):
			l.Verdict = GoalsUnder
		}
		out = append(out, l)
	}
	return out
}

// bttsProbability starts from the head to head rate or a cautious prior and subtracts
// penalties for lopsided fixtures and tight defences
func (c *EngineConfig) bttsProbability(in MatchInput) float64 {
	prob := c.BTTSBase
	if in.H2H.Total >= c.BTTSH2HMinMatches && in.H2H.BTTSRatio > 0 {
		prob = math.Min(in.H2H.BTTSRatio, c.BTTSH2HCap)
	}

	if in.Home.LeaguePosition > 0 && in.Away.LeaguePosition > 0 {
		gap := in.Home.LeaguePosition - in.Away.LeaguePosition
		if gap < 0 {
			gap = -gap
		}
		switch {
		case gap >= c.BTTSRankGapLarge:
			prob -= c.BTTSRankPenaltyL
		case gap >= c.BTTSRankGapMedium:
			prob -= c.BTTSRankPenaltyM
		}
	}

	for _, t := range []TeamSignal{in.Home, in.Away} {
		switch {
		case t.CleanSheets >= c.BTTSCleanSheetHigh:
			prob -= c.BTTSCleanSheetPenaltyH
		case t.CleanSheets >= c.BTTSCleanSheetLow:
			prob -= c.BTTSCleanSheetPenaltyL
		}
		switch {
		case t.FailedToScore >= c.BTTSFailedToScoreHigh:
			prob -= c.BTTSFailedToScorePenaltyH
		case t.FailedToScore >= c.BTTSFailedToScoreLow:
			prob -= c.BTTSFailedToScorePenaltyL
		}
		if t.GoalsConcededAvg > 0 {
			switch {
			case t.GoalsConcededAvg < c.BTTSConcededTight:
				prob -= c.BTTSConcededPenaltyH
			case t.GoalsConcededAvg < c.BTTSConcededLow:
				prob -= c.BTTSConcededPenaltyL
			}
		}
	}

	hs, as := in.Home.GoalsScoredAvg, in.Away.GoalsScoredAvg
	switch {
	case hs >= c.BTTSScoringHigh && as >= c.BTTSScoringHigh:
		prob += c.BTTSBonusHigh
	case hs >= c.BTTSScoringLow && as >= c.BTTSScoringLow:
		prob += c.BTTSBonusLow
	}
	return clamp(prob, c.BTTSMin, c.BTTSMax)
}

func bttsVerdict(prob float64, p league.Profile) BTTSVerdict {
	switch {
	case prob >= p.Threshold(league.ThresholdBTTSYes):
		return BTTSYes
	case prob <= p.Threshold(league.ThresholdBTTSNo):
		return BTTSNo
	}
	return BTTSNone
}
