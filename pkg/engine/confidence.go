package engine

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/richard-senior/matchodds/pkg/league"
)

// confidence grades a prediction. High needs a strong favourite backed by both forms and
// a real head to head record; medium accepts a clear favourite or partial corroboration.
func (c *EngineConfig) confidence(in MatchInput, home, draw, away float64) Confidence {
	probs := []float64{home, draw, away}
	sort.Float64s(probs)
	top, second := probs[2], probs[1]

	bothForms := in.Home.form(len(c.FormWeights)) != "" && in.Away.form(len(c.FormWeights)) != ""
	switch {
	case top >= c.HighConfidenceProb && in.H2H.Total >= c.HighConfidenceH2H && bothForms:
		return ConfidenceHigh
	case top >= c.MediumConfidenceProb && top-second >= c.MediumConfidenceGap:
		return ConfidenceMedium
	case top >= c.PartialConfidenceProb && (bothForms || in.H2H.Total >= c.PartialH2H):
		return ConfidenceMedium
	}
	return ConfidenceLow
}

func outcomeOf(home, draw, away float64) Outcome {
	switch {
	case home >= draw && home >= away:
		return OutcomeHome
	case away >= draw:
		return OutcomeAway
	}
	return OutcomeDraw
}

func oddsFor(prob float64) float64 {
	if prob <= 0 {
		return 0
	}
	return round(1/prob, 2)
}

// picks lists the selections a prediction supports. The preferred pick is the most likely
// one priced in the 1.40-2.20 band, or the most likely overall when none is.
func picks(pred *Prediction, p league.Profile) []Pick {
	var out []Pick
	add := func(bt BetType, prob float64) {
		out = append(out, Pick{BetType: bt, Probability: prob, OddsEstimate: oddsFor(prob)})
	}

	// a draw is only suggested when the two sides are too close to separate
	switch {
	case math.Abs(pred.HomeProb-pred.AwayProb) < p.Threshold(league.ThresholdDraw):
		add(BetDraw, pred.DrawProb)
	case pred.HomeProb >= pred.AwayProb:
		add(BetHome, pred.HomeProb)
	default:
		add(BetAway, pred.AwayProb)
	}

	if pred.HomeProb >= pred.AwayProb {
		add(BetHomeOrDraw, pred.HomeProb+pred.DrawProb)
	} else {
		add(BetDrawOrAway, pred.DrawProb+pred.AwayProb)
	}

	overTypes := map[float64][2]BetType{1.5: {BetOver15, BetUnder15}, 2.5: {BetOver25, BetUnder25}, 3.5: {BetOver35, BetUnder35}}
	for _, l := range pred.OverUnder {
		switch l.Verdict {
		case GoalsOver:
			add(overTypes[l.Line][0], l.Over)
		case GoalsUnder:
			add(overTypes[l.Line][1], l.Under)
		}
	}

	switch pred.BTTSVerdict {
	case BTTSYes:
		add(BetBTTSYes, pred.BTTSProb)
	case BTTSNo:
		add(BetBTTSNo, 1-pred.BTTSProb)
	}

	best, bestInBand := -1, -1
	for i, pk := range out {
		if best < 0 || pk.Probability > out[best].Probability {
			best = i
		}
		if pk.OddsEstimate >= 1.40 && pk.OddsEstimate <= 2.20 {
			if bestInBand < 0 || pk.Probability > out[bestInBand].Probability {
				bestInBand = i
			}
		}
	}
	if bestInBand >= 0 {
		out[bestInBand].Preferred = true
	} else if best >= 0 {
		out[best].Preferred = true
	}
	return out
}

func reasoning(in MatchInput, pred *Prediction) []string {
	var r []string
	if f := in.Home.form(5); f != "" {
		r = append(r, fmt.Sprintf("Form %s: %s", pred.HomeTeam, f))
	}
	if f := in.Away.form(5); f != "" {
		r = append(r, fmt.Sprintf("Form %s: %s", pred.AwayTeam, f))
	}
	if in.Home.LeaguePosition > 0 && in.Away.LeaguePosition > 0 {
		r = append(r, fmt.Sprintf("Table: %s %d vs %s %d", pred.HomeTeam, in.Home.LeaguePosition, pred.AwayTeam, in.Away.LeaguePosition))
	}
	if in.H2H.Total > 0 {
		r = append(r, fmt.Sprintf("H2H: %dW-%dD-%dL over %d", in.H2H.HomeWins, in.H2H.Draws, in.H2H.AwayWins, in.H2H.Total))
	}
	if len(in.Home.Injuries) > 0 {
		r = append(r, fmt.Sprintf("Absent for %s: %s", pred.HomeTeam, strings.Join(in.Home.Injuries, ", ")))
	}
	if len(in.Away.Injuries) > 0 {
		r = append(r, fmt.Sprintf("Absent for %s: %s", pred.AwayTeam, strings.Join(in.Away.Injuries, ", ")))
	}
	for _, t := range []TeamSignal{in.Home, in.Away} {
		if t.Motivation != "" && t.Motivation != MotivationNormal {
			r = append(r, fmt.Sprintf("%s playing for: %s", t.Name, t.Motivation))
		}
	}
	if in.Home.Strength > 0 && in.Away.Strength > 0 {
		r = append(r, fmt.Sprintf("Strength %d vs %d", in.Home.Strength, in.Away.Strength))
	}
	r = append(r, fmt.Sprintf("Expected goals %.2f-%.2f", pred.ExpectedGoalsHome, pred.ExpectedGoalsAway))
	return r
}
