package report

import (
	"strings"
	"testing"
	"time"

	"github.com/richard-senior/matchodds/pkg/engine"
	"github.com/richard-senior/matchodds/pkg/tickets"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePrediction() engine.Prediction {
	return engine.Prediction{
		MatchID:    "m1",
		LeagueName: "Premier League",
		HomeTeam:   "Arsenal",
		AwayTeam:   "Fulham",
		HomeProb:   0.6,
		DrawProb:   0.25,
		AwayProb:   0.15,
		ExactScore: "2-0",
		BTTSProb:   0.35,
		OverUnder:  []engine.OverUnderLine{{Line: 2.5, Over: 0.55, Under: 0.45}},
		Confidence: engine.ConfidenceMedium,
		Picks:      []engine.Pick{{BetType: engine.BetHome, Probability: 0.6, OddsEstimate: 1.58, Preferred: true}},
	}
}

func TestRenderMarkdown(t *testing.T) {
	d := Digest{
		Generated:   time.Date(2025, 4, 12, 9, 30, 0, 0, time.UTC),
		Predictions: []engine.Prediction{samplePrediction()},
		Tickets: []tickets.Ticket{{
			Tier:             tickets.TierBalanced,
			TotalOdds:        4.2,
			TotalProbability: 0.21,
			Legs:             []tickets.Leg{{HomeTeam: "Arsenal", AwayTeam: "Fulham", BetType: engine.BetHome, OddsEstimate: 1.58, Probability: 0.6}},
		}},
		Skipped: []string{"safe"},
	}
	md, err := Render(d)
	require.NoError(t, err)

	assert.Contains(t, md, "# Match predictions")
	assert.Contains(t, md, "2025-04-12 09:30 UTC")
	assert.Contains(t, md, "Arsenal v Fulham")
	assert.Contains(t, md, "60%")
	assert.Contains(t, md, "1 @ 1.58")
	assert.Contains(t, md, "## Balanced ticket")
	assert.Contains(t, md, "**4.20**")
	assert.Contains(t, md, "No ticket could be built for: safe")
}

func TestRenderEscapesTeamNames(t *testing.T) {
	p := samplePrediction()
	p.HomeTeam = "<script>alert(1)</script>"
	html, err := RenderHTML(Digest{Predictions: []engine.Prediction{p}})
	require.NoError(t, err)
	assert.NotContains(t, html, "<script>alert")
}

func TestAnnotateFillsFields(t *testing.T) {
	page := `<html><body>
<div data-match-id="m1"><span data-field="home">?</span><span data-field="score">?</span><span data-field="nope">keep</span></div>
<div data-match-id="m2"></div>
<div data-match-id="other"><span data-field="home">?</span></div>
</body></html>`
	p2 := samplePrediction()
	p2.MatchID = "m2"

	out, err := Annotate(page, []engine.Prediction{samplePrediction(), p2})
	require.NoError(t, err)

	assert.Contains(t, out, `<span data-field="home">60%</span>`)
	assert.Contains(t, out, `<span data-field="score">2-0</span>`)
	assert.Contains(t, out, `<span data-field="nope">keep</span>`)
	assert.Contains(t, out, `data-confidence="medium"`)
	assert.Contains(t, out, `<span class="prediction">1 60% X 25% 2 15%, 2-0, 1 @ 1.58 (medium)</span>`)
	// unknown ids untouched
	assert.Contains(t, out, `<div data-match-id="other"><span data-field="home">?</span></div>`)
	// the input is not modified
	assert.True(t, strings.Contains(page, `<span data-field="home">?</span><span data-field="score">?</span>`))
}
