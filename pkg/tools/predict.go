package tools

import (
	"context"

	"github.com/richard-senior/matchodds/internal/logger"
	"github.com/richard-senior/matchodds/pkg/engine"
	"github.com/richard-senior/matchodds/pkg/enrich"
	"github.com/richard-senior/matchodds/pkg/protocol"
	"github.com/richard-senior/matchodds/pkg/tickets"
)

var matchInputProperties = map[string]protocol.ToolProperty{
	"fixtures": {
		Type: "array",
		Description: `
		Fixtures to predict, each {matchId, leagueId, homeId, awayId, homeName, awayName, kickoff?, odds?}.
		Team signals are looked up by the configured providers and strengths come from the rating store.
		`,
		Items: &protocol.ToolProperty{Type: "object"},
	},
	"matches": {
		Type: "array",
		Description: `
		Fully specified matches, each {matchId, leagueId, home, away, h2h?, odds?} where home and away carry
		name, recentForm, leaguePosition, goalsScoredAvg, goalsConcededAvg, injuries, motivation, strength...
		Use this when you already have the signals.
		`,
		Items: &protocol.ToolProperty{Type: "object"},
	},
}

func PredictMatchTool() protocol.Tool {
	return protocol.Tool{
		Name: "predict_match",
		Description: `
		Predicts football matches: 1X2 probabilities, expected goals, over/under 1.5/2.5/3.5, both teams to score,
		most likely score, corners, cards, a confidence tier and ranked betting picks.
		Supply either fixtures (signals are gathered for you) or matches (signals supplied).
		`,
		InputSchema: protocol.InputSchema{
			Type:       "object",
			Properties: matchInputProperties,
			Required:   []string{},
		},
	}
}

type matchArgs struct {
	Fixtures    []enrich.Fixture    `json:"fixtures"`
	Matches     []engine.MatchInput `json:"matches"`
	Predictions []engine.Prediction `json:"predictions"`
}

// inputs enriches fixtures and appends the fully specified matches
func (s *Service) inputs(ctx context.Context, a matchArgs) []engine.MatchInput {
	inputs := s.Enricher.EnrichAll(ctx, a.Fixtures)
	return append(inputs, a.Matches...)
}

func (s *Service) HandlePredictMatch(ctx context.Context, params any) (any, error) {
	logger.Info("Handling predict_match tool invocation")
	var args matchArgs
	if err := decodeArgs(params, &args); err != nil {
		return nil, err
	}
	inputs := s.inputs(ctx, args)
	if len(inputs) == 0 {
		return nil, invalid("supply at least one fixture or match")
	}
	return map[string]any{
		"predictions": s.Engine.PredictAll(inputs),
	}, nil
}

func AssembleTicketsTool() protocol.Tool {
	props := map[string]protocol.ToolProperty{
		"predictions": {
			Type:        "array",
			Description: "Predictions previously returned by predict_match. Used as is, no new prediction is made.",
			Items:       &protocol.ToolProperty{Type: "object"},
		},
		"tiers": {
			Type:        "array",
			Description: "Tier names to build, default all of safe, balanced and risky",
			Items:       &protocol.ToolProperty{Type: "string", Enum: []string{"safe", "balanced", "risky"}},
		},
	}
	for k, v := range matchInputProperties {
		props[k] = v
	}
	return protocol.Tool{
		Name: "assemble_tickets",
		Description: `
		Combines the picks of several predicted matches into accumulator tickets, one per risk tier.
		A ticket never holds two legs on the same match. Tiers without enough qualifying picks are skipped.
		`,
		InputSchema: protocol.InputSchema{
			Type:       "object",
			Properties: props,
			Required:   []string{},
		},
	}
}

func (s *Service) HandleAssembleTickets(ctx context.Context, params any) (any, error) {
	logger.Info("Handling assemble_tickets tool invocation")
	var args struct {
		matchArgs
		Tiers []string `json:"tiers"`
	}
	if err := decodeArgs(params, &args); err != nil {
		return nil, err
	}

	var tiers []tickets.TierConfig
	for _, name := range args.Tiers {
		t, ok := tickets.TierByName(name)
		if !ok {
			return nil, invalid("unknown tier %q", name)
		}
		tiers = append(tiers, t)
	}
	if tiers == nil {
		tiers = tickets.DefaultTiers()
	}

	preds := args.Predictions
	if inputs := s.inputs(ctx, args.matchArgs); len(inputs) > 0 {
		preds = append(preds, s.Engine.PredictAll(inputs)...)
	}
	if len(preds) == 0 {
		return nil, invalid("supply predictions, fixtures or matches")
	}

	built := tickets.Assemble(preds, tiers)
	skipped := []string{}
	for _, t := range tiers {
		if !hasTier(built, t.Name) {
			skipped = append(skipped, string(t.Name))
		}
	}
	return map[string]any{
		"tickets": built,
		"skipped": skipped,
	}, nil
}

func hasTier(built []tickets.Ticket, tier tickets.Tier) bool {
	for _, t := range built {
		if t.Tier == tier {
			return true
		}
	}
	return false
}
