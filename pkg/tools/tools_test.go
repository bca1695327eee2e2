package tools

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/richard-senior/matchodds/pkg/elo"
	"github.com/richard-senior/matchodds/pkg/engine"
	"github.com/richard-senior/matchodds/pkg/enrich"
	"github.com/richard-senior/matchodds/pkg/league"
	"github.com/richard-senior/matchodds/pkg/settle"
	"github.com/richard-senior/matchodds/pkg/store"
	"github.com/richard-senior/matchodds/pkg/tickets"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 5, 10, 18, 30, 0, 0, time.UTC)

func newTestService(t *testing.T) *Service {
	t.Helper()
	ctx := context.Background()
	db, err := store.Open(ctx, store.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ratings, err := elo.NewStore(ctx, db)
	require.NoError(t, err)
	ledger, err := settle.NewLedger(ctx, db, ratings)
	require.NoError(t, err)

	provider := enrich.NewStaticProvider(enrich.SignalsDocument{
		Teams: map[int]engine.TeamSignal{
			1: {RecentForm: "WWWWD", LeaguePosition: 1, GoalsScoredAvg: 2.4, GoalsConcededAvg: 0.7},
			2: {RecentForm: "LLDLL", LeaguePosition: 19, GoalsScoredAvg: 0.8, GoalsConcededAvg: 2.1},
		},
	})
	s := NewService(league.Default(), nil, ratings, league.DefaultStrengths(), provider, ledger)
	s.Now = func() time.Time { return fixedNow }
	return s
}

// ticketPool gives two bet types across six matches, too few types for the safe tier
func ticketPool() []engine.Prediction {
	var preds []engine.Prediction
	for i := 0; i < 6; i++ {
		bt := engine.BetHome
		if i%2 == 1 {
			bt = engine.BetHomeOrDraw
		}
		preds = append(preds, engine.Prediction{
			MatchID:    fmt.Sprintf("m%d", i),
			LeagueID:   39,
			HomeTeam:   fmt.Sprintf("Home %d", i),
			AwayTeam:   fmt.Sprintf("Away %d", i),
			Priority:   1,
			Confidence: engine.ConfidenceHigh,
			Picks:      []engine.Pick{{BetType: bt, Probability: 0.7, OddsEstimate: 1.43, Preferred: true}},
		})
	}
	return preds
}

func TestRegistrationsAreUnique(t *testing.T) {
	s := newTestService(t)
	seen := map[string]bool{}
	for _, r := range s.Registrations() {
		assert.False(t, seen[r.Tool.Name], r.Tool.Name)
		seen[r.Tool.Name] = true
		assert.Equal(t, "object", r.Tool.InputSchema.Type)
		assert.NotNil(t, r.Handler)
	}
	for _, name := range []string{"predict_match", "assemble_tickets", "elo_rating", "elo_initialize_league",
		"elo_update", "elo_rankings", "league_profile", "settle_ticket", "render_report", "get_datetime"} {
		assert.True(t, seen[name], name)
	}
}

func TestPredictMatchFromFixtures(t *testing.T) {
	s := newTestService(t)
	out, err := s.HandlePredictMatch(context.Background(), map[string]any{
		"fixtures": []map[string]any{{
			"matchId": "f1", "leagueId": 39, "homeId": 1, "awayId": 2, "homeName": "Arsenal", "awayName": "Burnley",
		}},
	})
	require.NoError(t, err)

	preds := out.(map[string]any)["predictions"].([]engine.Prediction)
	require.Len(t, preds, 1)
	p := preds[0]
	assert.Equal(t, "f1", p.MatchID)
	assert.Equal(t, "Arsenal", p.HomeTeam)
	assert.Equal(t, "Premier League", p.LeagueName)
	assert.Greater(t, p.HomeProb, p.AwayProb)
	assert.InDelta(t, 1.0, p.HomeProb+p.DrawProb+p.AwayProb, 1e-6)
}

func TestPredictMatchNeedsInput(t *testing.T) {
	s := newTestService(t)
	_, err := s.HandlePredictMatch(context.Background(), map[string]any{})
	assert.ErrorIs(t, err, ErrInvalidArgs)

	_, err = s.HandlePredictMatch(context.Background(), map[string]any{"matches": "not a list"})
	assert.ErrorIs(t, err, ErrInvalidArgs)
}

func TestAssembleTicketsReportsSkippedTiers(t *testing.T) {
	s := newTestService(t)
	out, err := s.HandleAssembleTickets(context.Background(), map[string]any{"predictions": ticketPool()})
	require.NoError(t, err)

	res := out.(map[string]any)
	built := res["tickets"].([]tickets.Ticket)
	assert.Equal(t, []string{"safe"}, res["skipped"])
	require.Len(t, built, 2)
	assert.Equal(t, tickets.TierBalanced, built[0].Tier)
	assert.Len(t, built[0].Legs, 4)
	assert.Equal(t, tickets.TierRisky, built[1].Tier)

	_, err = s.HandleAssembleTickets(context.Background(), map[string]any{"predictions": ticketPool(), "tiers": []string{"reckless"}})
	assert.ErrorIs(t, err, ErrInvalidArgs)
}

func TestEloTools(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	out, err := s.HandleEloInitializeLeague(ctx, map[string]any{
		"leagueId": 39,
		"standings": []map[string]any{
			{"teamId": 1, "name": "Arsenal", "rank": 1},
			{"teamId": 2, "name": "Burnley", "rank": 2},
			{"teamId": 3, "name": "Chelsea", "rank": 3},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, out.(map[string]any)["seeded"])

	update := map[string]any{"matchId": "e1", "leagueId": 39, "homeId": 2, "awayId": 1, "homeGoals": 1, "awayGoals": 0}
	out, err = s.HandleEloUpdate(ctx, update)
	require.NoError(t, err)
	first := out.(elo.Update)
	assert.False(t, first.Skipped)
	assert.Greater(t, first.HomeChange, 0.0)

	out, err = s.HandleEloUpdate(ctx, update)
	require.NoError(t, err)
	assert.True(t, out.(elo.Update).Skipped)

	_, err = s.HandleEloUpdate(ctx, map[string]any{"matchId": "bad", "homeId": 1, "awayId": 1})
	assert.ErrorIs(t, err, ErrInvalidArgs)

	out, err = s.HandleEloRankings(ctx, map[string]any{"leagueId": 39})
	require.NoError(t, err)
	rankings := out.(map[string]any)["rankings"].([]elo.Ranking)
	assert.Len(t, rankings, 3)
	assert.Equal(t, true, out.(map[string]any)["initialized"])

	out, err = s.HandleEloRating(ctx, map[string]any{"teamId": 2})
	require.NoError(t, err)
	rating := out.(map[string]any)
	assert.Equal(t, elo.SourceElo, rating["strength"].(elo.Strength).Source)
	assert.Len(t, rating["history"], 1)

	_, err = s.HandleEloRating(ctx, map[string]any{"teamId": 0})
	assert.ErrorIs(t, err, ErrInvalidArgs)
}

func TestSettleTicketAndStats(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	ticket, ok := tickets.AssembleTier(ticketPool(), tickets.DefaultTiers()[1])
	require.True(t, ok)
	var results []settle.FixtureResult
	for i, leg := range ticket.Legs {
		results = append(results, settle.FixtureResult{MatchID: leg.MatchID, HomeID: 10 + i, AwayID: 20 + i, HomeGoals: 2, AwayGoals: 0, Status: "FT"})
	}

	out, err := s.HandleSettleTicket(ctx, map[string]any{"ticket": ticket, "results": results, "stake": 10})
	require.NoError(t, err)
	tr := out.(settle.TicketResult)
	assert.Equal(t, settle.StatusWon, tr.Status)
	assert.Equal(t, "2025-05-10", tr.Day)

	out, err = s.HandleTicketStats(ctx, map[string]any{})
	require.NoError(t, err)
	stats := out.(settle.DailyStats)
	assert.Equal(t, 1, stats.TotalTickets)
	assert.Equal(t, 1, stats.TicketsWon)

	out, err = s.HandleTicketStats(ctx, map[string]any{"days": 7})
	require.NoError(t, err)
	assert.Equal(t, "2025-05-04..2025-05-10", out.(settle.DailyStats).Day)

	_, err = s.HandleSettleTicket(ctx, map[string]any{"ticket": tickets.Ticket{}})
	assert.ErrorIs(t, err, ErrInvalidArgs)
	_, err = s.HandleSettleTicket(ctx, map[string]any{"ticket": ticket, "day": "10/05/2025"})
	assert.ErrorIs(t, err, ErrInvalidArgs)
}

func TestLeagueProfile(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	out, err := s.HandleLeagueProfile(ctx, map[string]any{"leagueId": 39})
	require.NoError(t, err)
	view := out.(LeagueProfileView)
	assert.True(t, view.Configured)
	assert.True(t, view.TopLeague)
	assert.Equal(t, 20.0, view.KFactor)

	out, err = s.HandleLeagueProfile(ctx, map[string]any{"name": "premier league"})
	require.NoError(t, err)
	assert.Equal(t, 39, out.(LeagueProfileView).ID)

	out, err = s.HandleLeagueProfile(ctx, nil)
	require.NoError(t, err)
	assert.NotEmpty(t, out.(map[string]any)["leagues"])

	_, err = s.HandleLeagueProfile(ctx, map[string]any{"name": "Sunday League"})
	assert.ErrorIs(t, err, ErrInvalidArgs)
}

func TestRenderReport(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	preds := ticketPool()[:1]

	out, err := s.HandleRenderReport(ctx, map[string]any{"predictions": preds, "title": "Saturday"})
	require.NoError(t, err)
	md := out.(map[string]any)["markdown"].(string)
	assert.Contains(t, md, "Saturday")
	assert.Contains(t, md, "Home 0 v Away 0")

	out, err = s.HandleRenderReport(ctx, map[string]any{
		"predictions": preds,
		"document":    `<div data-match-id="m0"><b data-field="confidence"></b></div>`,
	})
	require.NoError(t, err)
	assert.Contains(t, out.(map[string]any)["html"], `<b data-field="confidence">high</b>`)
}

func TestDateTime(t *testing.T) {
	s := newTestService(t)
	out, err := s.HandleDateTimeTool(context.Background(), map[string]any{"format": "2006-01-02 15:04", "timezone": "UTC"})
	require.NoError(t, err)
	res := out.(map[string]any)
	assert.Equal(t, "2025-05-10 18:30", res["datetime"])
	assert.Equal(t, "2025-05-10", res["day"])

	_, err = s.HandleDateTimeTool(context.Background(), map[string]any{"timezone": "Mars/Olympus"})
	assert.ErrorIs(t, err, ErrInvalidArgs)
}
