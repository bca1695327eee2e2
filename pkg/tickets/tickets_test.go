package tickets

import (
	"fmt"
	"testing"

	"github.com/richard-senior/matchodds/pkg/engine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pick(bt engine.BetType, prob float64, preferred bool) engine.Pick {
	return engine.Pick{BetType: bt, Probability: prob, OddsEstimate: roundTo(1/prob, 2), Preferred: preferred}
}

func prediction(id string, conf engine.Confidence, priority int, picks ...engine.Pick) engine.Prediction {
	return engine.Prediction{MatchID: id, HomeTeam: id + " home", AwayTeam: id + " away", Confidence: conf, Priority: priority, Picks: picks}
}

func safeTier(t *testing.T) TierConfig {
	t.Helper()
	tier, ok := TierByName("safe")
	require.True(t, ok)
	return tier
}

func TestSafeTierCannotRepeatBetTypes(t *testing.T) {
	var preds []engine.Prediction
	for i := 0; i < 6; i++ {
		bt := engine.BetHome
		if i%2 == 1 {
			bt = engine.BetHomeOrDraw
		}
		preds = append(preds, prediction(fmt.Sprintf("m%d", i), engine.ConfidenceHigh, 1,
			pick(bt, 0.70, true),
			pick(engine.BetBTTSYes, 0.50, false),
		))
	}

	_, ok := AssembleTier(preds, safeTier(t))
	assert.False(t, ok)

	tickets := Assemble(preds, []TierConfig{safeTier(t)})
	assert.Empty(t, tickets)

	// the same pool fills a tier that allows repeats
	balanced, ok := TierByName("balanced")
	require.True(t, ok)
	ticket, ok := AssembleTier(preds, balanced)
	require.True(t, ok)
	assert.Len(t, ticket.Legs, 4)
}

func TestOneLegPerMatch(t *testing.T) {
	preds := []engine.Prediction{
		prediction("a", engine.ConfidenceHigh, 1, pick(engine.BetHome, 0.60, true), pick(engine.BetHomeOrDraw, 0.80, false), pick(engine.BetOver15, 0.75, false)),
		prediction("b", engine.ConfidenceMedium, 2, pick(engine.BetAway, 0.55, true), pick(engine.BetDrawOrAway, 0.78, false)),
		prediction("c", engine.ConfidenceMedium, 3, pick(engine.BetUnder35, 0.66, true)),
	}
	risky, _ := TierByName("risky")
	ticket, ok := AssembleTier(preds, risky)
	require.True(t, ok)

	seen := map[string]bool{}
	for _, l := range ticket.Legs {
		assert.False(t, seen[l.MatchID], "match %s used twice", l.MatchID)
		seen[l.MatchID] = true
	}
	assert.Len(t, ticket.Legs, 3)
	// preferred and in the odds band outranks the likelier double chance
	assert.Equal(t, engine.BetHome, ticket.Legs[0].BetType)
}

func TestScore(t *testing.T) {
	high := prediction("x", engine.ConfidenceHigh, 1)
	low := prediction("y", engine.ConfidenceLow, 3)

	assert.Equal(t, 30+20+15+10, Score(high, engine.Pick{OddsEstimate: 1.8, Preferred: true}))
	assert.Equal(t, 10+10, Score(low, engine.Pick{OddsEstimate: 1.3}))
	assert.Equal(t, 10+8, Score(low, engine.Pick{OddsEstimate: 2.9}))
	assert.Equal(t, 10, Score(low, engine.Pick{OddsEstimate: 4.0}))

	medium := prediction("z", engine.ConfidenceMedium, 2)
	assert.Equal(t, 20+5, Score(medium, engine.Pick{OddsEstimate: 1.1}))
}

func TestTotalsAndDeterministicIDs(t *testing.T) {
	preds := []engine.Prediction{
		prediction("a", engine.ConfidenceHigh, 1, pick(engine.BetHome, 0.70, true)),
		prediction("b", engine.ConfidenceHigh, 1, pick(engine.BetOver15, 0.72, true)),
		prediction("c", engine.ConfidenceHigh, 1, pick(engine.BetBTTSNo, 0.68, true)),
	}
	first := Assemble(preds, []TierConfig{safeTier(t)})
	require.Len(t, first, 1)
	ticket := first[0]

	wantOdds, wantProb := 1.0, 1.0
	for _, l := range ticket.Legs {
		wantOdds *= l.OddsEstimate
		wantProb *= l.Probability
	}
	assert.InDelta(t, wantOdds, ticket.TotalOdds, 0.005)
	assert.InDelta(t, wantProb, ticket.TotalProbability, 0.00005)
	assert.InDelta(t, 10*ticket.TotalOdds, ticket.Payout(10), 1e-9)
	assert.Equal(t, TierSafe, ticket.Tier)

	again := Assemble(preds, []TierConfig{safeTier(t)})
	assert.Equal(t, first, again)

	other := Assemble(preds[:2], []TierConfig{{Name: TierSafe, MinMatches: 2, MaxMatches: 2, MaxPerBetType: 1, MinProbability: 0.6}})
	require.Len(t, other, 1)
	assert.NotEqual(t, ticket.ID, other[0].ID)
}

func TestTieBreakIsStable(t *testing.T) {
	// identical scores and probabilities fall back to match id order
	preds := []engine.Prediction{
		prediction("c", engine.ConfidenceMedium, 3, pick(engine.BetHome, 0.6, true)),
		prediction("a", engine.ConfidenceMedium, 3, pick(engine.BetHome, 0.6, true)),
		prediction("b", engine.ConfidenceMedium, 3, pick(engine.BetHome, 0.6, true)),
	}
	legs := candidates(preds, 0)
	require.Len(t, legs, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{legs[0].MatchID, legs[1].MatchID, legs[2].MatchID})
}

func TestProbabilityFloor(t *testing.T) {
	preds := []engine.Prediction{
		prediction("a", engine.ConfidenceHigh, 1, pick(engine.BetHome, 0.50, true)),
		prediction("b", engine.ConfidenceHigh, 1, pick(engine.BetAway, 0.50, true)),
		prediction("c", engine.ConfidenceHigh, 1, pick(engine.BetDraw, 0.50, true)),
	}
	tickets := Assemble(preds, nil)
	require.Len(t, tickets, 1)
	assert.Equal(t, TierRisky, tickets[0].Tier)
}

func TestTierValidation(t *testing.T) {
	for _, tier := range DefaultTiers() {
		assert.NoError(t, tier.Validate())
	}
	assert.Error(t, TierConfig{Name: "x", MinMatches: 3, MaxMatches: 2, MaxPerBetType: 1}.Validate())
	assert.Error(t, TierConfig{Name: "x", MinMatches: 1, MaxMatches: 2}.Validate())
	assert.Error(t, TierConfig{MinMatches: 1, MaxMatches: 2, MaxPerBetType: 1}.Validate())

	_, ok := TierByName("reckless")
	assert.False(t, ok)

	// invalid tiers are skipped rather than failing the batch
	assert.Empty(t, Assemble(nil, []TierConfig{{Name: "broken"}}))
}
