package tools

import (
	"context"

	"github.com/richard-senior/matchodds/internal/logger"
	"github.com/richard-senior/matchodds/pkg/league"
	"github.com/richard-senior/matchodds/pkg/protocol"
)

func LeagueProfileTool() protocol.Tool {
	return protocol.Tool{
		Name: "league_profile",
		Description: `
		Returns the prediction constants of a league: factor weights, home advantage, goal/corner/card baselines,
		style and decision thresholds. Leagues without a tuned profile get the default profile.
		Without leagueId or name, lists every known league with its priority (1 major, 2 secondary, 3 minor).
		`,
		InputSchema: protocol.InputSchema{
			Type: "object",
			Properties: map[string]protocol.ToolProperty{
				"leagueId": {Type: "integer", Description: "The league id, e.g. 39 for the Premier League"},
				"name":     {Type: "string", Description: "League name, used when no id is given"},
			},
			Required: []string{},
		},
	}
}

// LeagueProfileView is a profile plus the derived classifications
type LeagueProfileView struct {
	league.Profile
	HighScoring bool    `json:"highScoring"`
	Physical    bool    `json:"physical"`
	TopLeague   bool    `json:"topLeague"`
	KFactor     float64 `json:"kFactor"`
}

// ProfileView describes a league for tools and the http api
func ProfileView(t *league.Table, leagueID int) LeagueProfileView {
	p := t.Profile(leagueID)
	return LeagueProfileView{
		Profile:     p,
		HighScoring: p.IsHighScoring(),
		Physical:    p.IsPhysical(),
		TopLeague:   league.IsTopLeague(leagueID),
		KFactor:     league.KFactor(leagueID),
	}
}

func (s *Service) HandleLeagueProfile(ctx context.Context, params any) (any, error) {
	logger.Info("Handling league_profile tool invocation")
	var args struct {
		LeagueID int    `json:"leagueId"`
		Name     string `json:"name"`
	}
	if err := decodeArgs(params, &args); err != nil {
		return nil, err
	}
	if args.LeagueID == 0 && args.Name != "" {
		e, ok := s.Leagues.FindByName(args.Name)
		if !ok {
			return nil, invalid("unknown league %q", args.Name)
		}
		args.LeagueID = e.ID
	}
	if args.LeagueID == 0 {
		return map[string]any{"leagues": s.Leagues.Leagues()}, nil
	}
	return ProfileView(s.Leagues, args.LeagueID), nil
}
