package engine

import "github.com/richard-senior/matchodds/pkg/league"

// cornerSteps maps each line to (expected at least line+2, at least line+1, otherwise)
var cornerSteps = []struct {
	line  float64
	probs [3]float64
}{
	{7.5, [3]float64{0.70, 0.55, 0.45}},
	{8.5, [3]float64{0.55, 0.45, 0.35}},
	{9.5, [3]float64{0.40, 0.32, 0.25}},
}

func orBaseline(v, baseline float64) float64 {
	if v > 0 {
		return v
	}
	return baseline
}

func corners(in MatchInput, p league.Profile) (float64, []CornerLine) {
	expected := orBaseline(in.Home.AvgCorners, p.Baselines.Corners) + orBaseline(in.Away.AvgCorners, p.Baselines.Corners)
	_, swing := in.Weather.Impacts()
	expected *= 1 + swing
	lines := make([]CornerLine, 0, len(cornerSteps))
	for _, s := range cornerSteps {
		prob := s.probs[2]
		switch {
		case expected >= s.line+2:
			prob = s.probs[0]
		case expected >= s.line+1:
			prob = s.probs[1]
		}
		lines = append(lines, CornerLine{Line: s.line, Over: prob})
	}
	return expected, lines
}

// cards returns the expected booking count and the chance of more than 3.5 and 4.5 cards
func cards(in MatchInput, p league.Profile) (float64, float64, float64) {
	yellow := orBaseline(in.Home.AvgYellowCards, p.Baselines.YellowCards) + orBaseline(in.Away.AvgYellowCards, p.Baselines.YellowCards)
	red := orBaseline(in.Home.AvgRedCards, p.Baselines.RedCards) + orBaseline(in.Away.AvgRedCards, p.Baselines.RedCards)
	expected := yellow + red
	return expected, poissonTailAbove(expected, 3.5), poissonTailAbove(expected, 4.5)
}
