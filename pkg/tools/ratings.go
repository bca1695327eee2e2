package tools

import (
	"context"

	"github.com/richard-senior/matchodds/internal/logger"
	"github.com/richard-senior/matchodds/pkg/elo"
	"github.com/richard-senior/matchodds/pkg/protocol"
)

func EloRatingTool() protocol.Tool {
	return protocol.Tool{
		Name:        "elo_rating",
		Description: "Returns a team's Elo rating, its 40-100 strength and where that strength came from (elo, table or default), with recent rating changes",
		InputSchema: protocol.InputSchema{
			Type: "object",
			Properties: map[string]protocol.ToolProperty{
				"teamId":  {Type: "integer", Description: "The team id"},
				"name":    {Type: "string", Description: "Team name, used for the static strength table when no rating is stored"},
				"history": {Type: "integer", Description: "How many recent rating changes to include, default 5"},
			},
			Required: []string{"teamId"},
		},
	}
}

func (s *Service) HandleEloRating(ctx context.Context, params any) (any, error) {
	logger.Info("Handling elo_rating tool invocation")
	var args struct {
		TeamID  int    `json:"teamId"`
		Name    string `json:"name"`
		History *int   `json:"history"`
	}
	if err := decodeArgs(params, &args); err != nil {
		return nil, err
	}
	if args.TeamID <= 0 {
		return nil, invalid("teamId must be positive")
	}

	result := map[string]any{
		"teamId":   args.TeamID,
		"strength": s.Resolver.Resolve(ctx, args.TeamID, args.Name),
	}
	if s.Ratings == nil {
		return result, nil
	}
	rating, err := s.Ratings.GetRating(ctx, args.TeamID)
	if err != nil {
		return nil, err
	}
	result["rating"] = rating

	limit := 5
	if args.History != nil {
		limit = *args.History
	}
	if limit > 0 {
		history, err := s.Ratings.History(ctx, args.TeamID, limit)
		if err != nil {
			return nil, err
		}
		result["history"] = history
	}
	return result, nil
}

func EloInitializeLeagueTool() protocol.Tool {
	return protocol.Tool{
		Name: "elo_initialize_league",
		Description: `
		Seeds ratings for a league from a table snapshot, 1800 for the leader down to 1200 for the bottom side.
		Seeding the same snapshot twice gives the same ratings.
		`,
		InputSchema: protocol.InputSchema{
			Type: "object",
			Properties: map[string]protocol.ToolProperty{
				"leagueId": {Type: "integer", Description: "The league id"},
				"standings": {
					Type:        "array",
					Description: "Table rows {teamId, name, rank}, best first",
					Items:       &protocol.ToolProperty{Type: "object"},
				},
			},
			Required: []string{"leagueId", "standings"},
		},
	}
}

func (s *Service) HandleEloInitializeLeague(ctx context.Context, params any) (any, error) {
	logger.Info("Handling elo_initialize_league tool invocation")
	ratings, err := s.ratings()
	if err != nil {
		return nil, err
	}
	var args struct {
		LeagueID  int            `json:"leagueId"`
		Standings []elo.Standing `json:"standings"`
	}
	if err := decodeArgs(params, &args); err != nil {
		return nil, err
	}
	if args.LeagueID <= 0 || len(args.Standings) == 0 {
		return nil, invalid("leagueId and standings are required")
	}
	created, err := ratings.InitializeLeague(ctx, args.LeagueID, args.Standings)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"leagueId": args.LeagueID,
		"seeded":   created,
		"teams":    len(args.Standings),
	}, nil
}

func EloUpdateTool() protocol.Tool {
	return protocol.Tool{
		Name:        "elo_update",
		Description: "Applies a final score to both teams' ratings. A match id that was already applied is not applied again and the recorded change is returned.",
		InputSchema: protocol.InputSchema{
			Type: "object",
			Properties: map[string]protocol.ToolProperty{
				"matchId":   {Type: "string", Description: "Unique id of the match"},
				"leagueId":  {Type: "integer", Description: "League id, selects the K factor"},
				"homeId":    {Type: "integer", Description: "Home team id"},
				"awayId":    {Type: "integer", Description: "Away team id"},
				"homeName":  {Type: "string", Description: "Home team name"},
				"awayName":  {Type: "string", Description: "Away team name"},
				"homeGoals": {Type: "integer", Description: "Goals scored by the home team"},
				"awayGoals": {Type: "integer", Description: "Goals scored by the away team"},
			},
			Required: []string{"matchId", "homeId", "awayId", "homeGoals", "awayGoals"},
		},
	}
}

func (s *Service) HandleEloUpdate(ctx context.Context, params any) (any, error) {
	logger.Info("Handling elo_update tool invocation")
	ratings, err := s.ratings()
	if err != nil {
		return nil, err
	}
	var m elo.MatchResult
	if err := decodeArgs(params, &m); err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, invalid("%v", err)
	}
	return ratings.UpdateAfterMatch(ctx, m)
}

func EloRankingsTool() protocol.Tool {
	return protocol.Tool{
		Name:        "elo_rankings",
		Description: "Lists a league's rated teams, strongest first",
		InputSchema: protocol.InputSchema{
			Type: "object",
			Properties: map[string]protocol.ToolProperty{
				"leagueId": {Type: "integer", Description: "The league id"},
			},
			Required: []string{"leagueId"},
		},
	}
}

func (s *Service) HandleEloRankings(ctx context.Context, params any) (any, error) {
	logger.Info("Handling elo_rankings tool invocation")
	ratings, err := s.ratings()
	if err != nil {
		return nil, err
	}
	var args struct {
		LeagueID int `json:"leagueId"`
	}
	if err := decodeArgs(params, &args); err != nil {
		return nil, err
	}
	rankings, err := ratings.Rankings(ctx, args.LeagueID)
	if err != nil {
		return nil, err
	}
	initialized, err := ratings.IsLeagueInitialized(ctx, args.LeagueID)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"leagueId":    args.LeagueID,
		"initialized": initialized,
		"rankings":    rankings,
	}, nil
}
