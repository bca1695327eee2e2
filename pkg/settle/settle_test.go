package settle

import (
	"context"
	"testing"
	"time"

	"github.com/richard-senior/matchodds/pkg/elo"
	"github.com/richard-senior/matchodds/pkg/engine"
	"github.com/richard-senior/matchodds/pkg/store"
	"github.com/richard-senior/matchodds/pkg/tickets"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluateBet(t *testing.T) {
	tests := []struct {
		bet        engine.BetType
		home, away int
		want       Status
	}{
		{engine.BetHome, 2, 1, StatusWon},
		{engine.BetHome, 1, 1, StatusLost},
		{engine.BetDraw, 0, 0, StatusWon},
		{engine.BetAway, 0, 3, StatusWon},
		{engine.BetHomeOrDraw, 1, 1, StatusWon},
		{engine.BetHomeOrDraw, 0, 1, StatusLost},
		{engine.BetDrawOrAway, 2, 2, StatusWon},
		{engine.BetHomeOrAway, 2, 2, StatusLost},
		{engine.BetOver15, 1, 1, StatusWon},
		{engine.BetOver25, 1, 1, StatusLost},
		{engine.BetOver35, 3, 1, StatusWon},
		{engine.BetUnder15, 1, 0, StatusWon},
		{engine.BetUnder25, 2, 1, StatusLost},
		{engine.BetUnder35, 2, 1, StatusWon},
		{engine.BetBTTSYes, 1, 1, StatusWon},
		{engine.BetBTTSYes, 3, 0, StatusLost},
		{engine.BetBTTSNo, 3, 0, StatusWon},
		{engine.BetType("ASIAN -0.25"), 1, 0, StatusVoid},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, EvaluateBet(tt.bet, tt.home, tt.away), "%s %d-%d", tt.bet, tt.home, tt.away)
	}
}

func ticket() tickets.Ticket {
	return tickets.Ticket{
		ID:        "t1",
		Tier:      tickets.TierSafe,
		TotalOdds: 3.0,
		Legs: []tickets.Leg{
			{MatchID: "m1", BetType: engine.BetHome},
			{MatchID: "m2", BetType: engine.BetOver15},
			{MatchID: "m3", BetType: engine.BetBTTSNo},
		},
	}
}

func TestSettleTicketStatus(t *testing.T) {
	all := map[string]FixtureResult{
		"m1": {MatchID: "m1", HomeGoals: 2, AwayGoals: 0, Status: "FT"},
		"m2": {MatchID: "m2", HomeGoals: 1, AwayGoals: 1, Status: "FT"},
		"m3": {MatchID: "m3", HomeGoals: 0, AwayGoals: 0, Status: "AET"},
	}
	tr := SettleTicket(ticket(), "2025-09-01", all, 10)
	assert.Equal(t, StatusWon, tr.Status)
	assert.Equal(t, 3, tr.Won)
	assert.InDelta(t, 20.0, tr.Profit, 1e-9)
	require.NotNil(t, tr.Legs[0].HomeGoals)
	assert.Equal(t, 2, *tr.Legs[0].HomeGoals)

	partial := map[string]FixtureResult{"m1": all["m1"], "m2": {MatchID: "m2", Status: "1H"}}
	tr = SettleTicket(ticket(), "2025-09-01", partial, 10)
	assert.Equal(t, StatusPending, tr.Status)
	assert.Equal(t, 0.0, tr.Profit)

	lost := map[string]FixtureResult{"m1": {MatchID: "m1", HomeGoals: 0, AwayGoals: 1}, "m2": all["m2"], "m3": all["m3"]}
	tr = SettleTicket(ticket(), "2025-09-01", lost, 10)
	assert.Equal(t, StatusLost, tr.Status)
	assert.Equal(t, -10.0, tr.Profit)

	voided := map[string]FixtureResult{"m1": all["m1"], "m2": all["m2"], "m3": {MatchID: "m3", Status: "PST"}}
	tr = SettleTicket(ticket(), "2025-09-01", voided, 10)
	assert.Equal(t, StatusVoid, tr.Status)
	assert.Equal(t, StatusVoid, tr.Legs[2].Status)
	assert.Equal(t, 0.0, tr.Profit)
}

func TestSummarise(t *testing.T) {
	results := []TicketResult{
		{Stake: 10, Status: StatusWon, Profit: 20, Legs: []LegResult{{Status: StatusWon}, {Status: StatusWon}}},
		{Stake: 10, Status: StatusLost, Profit: -10, Legs: []LegResult{{Status: StatusWon}, {Status: StatusLost}, {Status: StatusVoid}}},
		{Stake: 10, Status: StatusPending, Legs: []LegResult{{Status: StatusPending}}},
	}
	s := Summarise("2025-09-01", results)
	assert.Equal(t, 6, s.TotalPicks)
	assert.Equal(t, 3, s.Won)
	assert.Equal(t, 1, s.Lost)
	assert.Equal(t, 1, s.Void)
	assert.Equal(t, 1, s.Pending)
	assert.Equal(t, 75.0, s.WinRate)
	assert.Equal(t, 50.0, s.TicketWinRate)
	assert.Equal(t, 30.0, s.TotalStake)
	assert.Equal(t, 10.0, s.TotalProfit)
	assert.Equal(t, 33.33, s.ROI)

	empty := Summarise("2025-09-02", nil)
	assert.Equal(t, 0.0, empty.WinRate)
	assert.Equal(t, 0.0, empty.ROI)
}

func newTestLedger(t *testing.T) (*Ledger, *elo.Store) {
	t.Helper()
	ctx := context.Background()
	db, err := store.Open(ctx, store.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	ratings, err := elo.NewStore(ctx, db)
	require.NoError(t, err)
	l, err := NewLedger(ctx, db, ratings)
	require.NoError(t, err)
	l.Now = func() time.Time { return time.Date(2025, 9, 2, 8, 0, 0, 0, time.UTC) }
	return l, ratings
}

func TestLedgerSettleFeedsRatings(t *testing.T) {
	ctx := context.Background()
	l, ratings := newTestLedger(t)

	results := []FixtureResult{
		{MatchID: "m1", LeagueID: 39, HomeID: 1, AwayID: 2, HomeGoals: 2, AwayGoals: 0, Status: "FT"},
		{MatchID: "m2", LeagueID: 39, HomeID: 3, AwayID: 4, HomeGoals: 1, AwayGoals: 1, Status: "FT"},
		{MatchID: "m3", LeagueID: 39, HomeID: 5, AwayID: 6, Status: "NS"},
	}
	tr, err := l.Settle(ctx, ticket(), "2025-09-01", results, 10)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, tr.Status)

	home, err := ratings.GetRating(ctx, 1)
	require.NoError(t, err)
	assert.Greater(t, home, elo.DefaultRating)
	untouched, err := ratings.GetRating(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, elo.DefaultRating, untouched)

	// the third match finishes later; settling again must not move ratings twice
	results[2] = FixtureResult{MatchID: "m3", LeagueID: 39, HomeID: 5, AwayID: 6, Status: "FT"}
	tr, err = l.Settle(ctx, ticket(), "2025-09-01", results, 10)
	require.NoError(t, err)
	assert.Equal(t, StatusWon, tr.Status)

	again, err := ratings.GetRating(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, home, again)

	stored, err := l.Results(ctx, "2025-09-01")
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, StatusWon, stored[0].Status)

	stats, err := l.DailyStats(ctx, "2025-09-01")
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalTickets)
	assert.Equal(t, 1, stats.TicketsWon)
	assert.Equal(t, 200.0, stats.ROI)
}

func TestLedgerRangeStats(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger(t)

	for _, tr := range []TicketResult{
		{TicketID: "a", Day: "2025-08-30", Stake: 10, Status: StatusLost, Profit: -10},
		{TicketID: "b", Day: "2025-09-01", Stake: 10, Status: StatusWon, Profit: 15},
		{TicketID: "c", Day: "2025-08-01", Stake: 10, Status: StatusLost, Profit: -10},
	} {
		require.NoError(t, l.Record(ctx, tr))
	}
	s, err := l.RangeStats(ctx, "2025-09-01", 7)
	require.NoError(t, err)
	assert.Equal(t, 2, s.TotalTickets)
	assert.Equal(t, 5.0, s.TotalProfit)
	assert.Equal(t, "2025-08-26..2025-09-01", s.Day)
}

func TestLedgerRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	l, _ := newTestLedger(t)
	_, err := l.Settle(ctx, ticket(), "01/09/2025", nil, 10)
	assert.Error(t, err)
	_, err = l.Settle(ctx, ticket(), "2025-09-01", nil, 0)
	assert.Error(t, err)
	_, err = l.RangeStats(ctx, "yesterday", 3)
	assert.Error(t, err)

	u, err := l.ApplyResult(ctx, FixtureResult{MatchID: "x", HomeID: 1, AwayID: 2, Status: "PST"})
	assert.NoError(t, err)
	assert.Nil(t, u)
}
