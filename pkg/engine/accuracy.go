package engine

import (
	"fmt"
	"strconv"
	"strings"
)

// PredictionAccuracy holds accuracy metrics for a single match prediction
type PredictionAccuracy struct {
	MatchID             string `json:"matchId"`
	HomeTeam            string `json:"homeTeam"`
	AwayTeam            string `json:"awayTeam"`
	ActualHomeGoals     int    `json:"actualHomeGoals"`
	ActualAwayGoals     int    `json:"actualAwayGoals"`
	PredictedHomeGoals  int    `json:"predictedHomeGoals"`
	PredictedAwayGoals  int    `json:"predictedAwayGoals"`
	ExactScoreCorrect   bool   `json:"exactScoreCorrect"`
	ResultCorrect       bool   `json:"resultCorrect"`
	Over25Correct       bool   `json:"over25Correct"`
	BTTSCorrect         bool   `json:"bttsCorrect"`
	GoalDifferenceError int    `json:"goalDifferenceError"`
	TotalGoalsError     int    `json:"totalGoalsError"`
}

// AggregateAccuracy holds aggregate prediction accuracy statistics
type AggregateAccuracy struct {
	TotalMatches           int     `json:"totalMatches"`
	ExactScoreAccuracy     float64 `json:"exactScoreAccuracy"` // percentage
	ResultAccuracy         float64 `json:"resultAccuracy"`     // percentage
	Over25Accuracy         float64 `json:"over25Accuracy"`     // percentage
	BTTSAccuracy           float64 `json:"bttsAccuracy"`       // percentage
	AverageGoalDiffError   float64 `json:"averageGoalDiffError"`
	AverageTotalGoalsError float64 `json:"averageTotalGoalsError"`
}

// ParseScore reads an "H-A" scoreline
func ParseScore(s string) (int, int, error) {
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid score %q", s)
	}
	h, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid score %q: %w", s, err)
	}
	a, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, fmt.Errorf("invalid score %q: %w", s, err)
	}
	if h < 0 || a < 0 {
		return 0, 0, fmt.Errorf("invalid score %q", s)
	}
	return h, a, nil
}

// EvaluatePredictionAccuracy compares a prediction with the final score
func EvaluatePredictionAccuracy(pred Prediction, homeGoals, awayGoals int) (*PredictionAccuracy, error) {
	ph, pa, err := ParseScore(pred.ExactScore)
	if err != nil {
		return nil, err
	}
	acc := &PredictionAccuracy{
		MatchID:            pred.MatchID,
		HomeTeam:           pred.HomeTeam,
		AwayTeam:           pred.AwayTeam,
		ActualHomeGoals:    homeGoals,
		ActualAwayGoals:    awayGoals,
		PredictedHomeGoals: ph,
		PredictedAwayGoals: pa,
	}
	acc.ExactScoreCorrect = ph == homeGoals && pa == awayGoals
	acc.ResultCorrect = pred.Outcome == resultOf(homeGoals, awayGoals)
	acc.GoalDifferenceError = abs((homeGoals - awayGoals) - (ph - pa))
	acc.TotalGoalsError = abs((homeGoals + awayGoals) - (ph + pa))

	if l, ok := pred.Line(2.5); ok {
		acc.Over25Correct = (l.Over >= 0.5) == (homeGoals+awayGoals > 2)
	}
	acc.BTTSCorrect = (pred.BTTSProb >= 0.5) == (homeGoals > 0 && awayGoals > 0)
	return acc, nil
}

// AggregatePredictionAccuracy rolls single match metrics up, nil when there are none
func AggregatePredictionAccuracy(accuracies []*PredictionAccuracy) *AggregateAccuracy {
	if len(accuracies) == 0 {
		return nil
	}
	agg := &AggregateAccuracy{TotalMatches: len(accuracies)}

	var exact, result, over, btts, goalDiff, totalGoals int
	for _, acc := range accuracies {
		if acc.ExactScoreCorrect {
			exact++
		}
		if acc.ResultCorrect {
			result++
		}
		if acc.Over25Correct {
			over++
		}
		if acc.BTTSCorrect {
			btts++
		}
		goalDiff += acc.GoalDifferenceError
		totalGoals += acc.TotalGoalsError
	}

	n := float64(agg.TotalMatches)
	agg.ExactScoreAccuracy = float64(exact) / n * 100
	agg.ResultAccuracy = float64(result) / n * 100
	agg.Over25Accuracy = float64(over) / n * 100
	agg.BTTSAccuracy = float64(btts) / n * 100
	agg.AverageGoalDiffError = float64(goalDiff) / n
	agg.AverageTotalGoalsError = float64(totalGoals) / n
	return agg
}

func resultOf(homeGoals, awayGoals int) Outcome {
	switch {
	case homeGoals > awayGoals:
		return OutcomeHome
	case homeGoals < awayGoals:
		return OutcomeAway
	}
	return OutcomeDraw
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
