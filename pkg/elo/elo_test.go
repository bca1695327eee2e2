package elo

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/richard-senior/matchodds/pkg/league"
	"github.com/richard-senior/matchodds/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()
	db, err := store.Open(ctx, store.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	s, err := NewStore(ctx, db)
	require.NoError(t, err)
	fixed := time.Date(2025, 9, 1, 15, 0, 0, 0, time.UTC)
	s.Now = func() time.Time { return fixed }
	return s
}

func TestExpectedScore(t *testing.T) {
	assert.InDelta(t, 0.5, ExpectedScore(1500, 1500), 1e-12)
	assert.InDelta(t, 0.7597, ExpectedScore(1700, 1500), 1e-4)
	assert.InDelta(t, 1.0, ExpectedScore(1700, 1500)+ExpectedScore(1500, 1700), 1e-12)
}

func TestApplyEqualRatingsDrawIsNeutral(t *testing.T) {
	h, a := Apply(1634.2, 1634.2, 1, 1, 30)
	assert.Equal(t, 1634.2, h)
	assert.Equal(t, 1634.2, a)
}

func TestApplyStaysInBounds(t *testing.T) {
	h, a := Apply(MaxRating, MinRating, 5, 0, 30)
	assert.Equal(t, MaxRating, h)
	assert.Equal(t, MinRating, a)

	h, a = Apply(MaxRating, MinRating, 0, 5, 100)
	assert.LessOrEqual(t, h, MaxRating)
	assert.GreaterOrEqual(t, a, MinRating)
}

func TestStrengthConversions(t *testing.T) {
	assert.Equal(t, 40, RatingToStrength(1200))
	assert.Equal(t, 100, RatingToStrength(2000))
	assert.Equal(t, 70, RatingToStrength(1600))
	assert.Equal(t, 40, RatingToStrength(900), "below range clamps")
	assert.Equal(t, 100, RatingToStrength(2400), "above range clamps")

	for s := MinStrength; s <= MaxStrength; s++ {
		back := RatingToStrength(StrengthToElo(s))
		assert.InDelta(t, s, back, 1, "strength %d", s)
	}
}

func TestSeedRating(t *testing.T) {
	assert.Equal(t, DefaultRating, SeedRating(1, 1))
	assert.Equal(t, 1800.0, SeedRating(1, 20))
	assert.Equal(t, 1200.0, SeedRating(20, 20))
	assert.Equal(t, 1768.4, SeedRating(2, 20))
}

func TestInitializeLeagueFourTeams(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	standings := []Standing{{TeamID: 1, Name: "A"}, {TeamID: 2, Name: "B"}, {TeamID: 3, Name: "C"}, {TeamID: 4, Name: "D"}}
	n, err := s.InitializeLeague(ctx, 39, standings)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	want := []float64{1800, 1600, 1400, 1200}
	first := make([]float64, 4)
	for i, id := range []int{1, 2, 3, 4} {
		r, err := s.GetRating(ctx, id)
		require.NoError(t, err)
		assert.InDelta(t, want[i], r, 1e-9)
		first[i] = r
	}

	// a second run with the same snapshot gives the same ratings
	_, err = s.InitializeLeague(ctx, 39, standings)
	require.NoError(t, err)
	for i, id := range []int{1, 2, 3, 4} {
		r, err := s.GetRating(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, first[i], r)
	}

	ok, err := s.IsLeagueInitialized(ctx, 39)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = s.IsLeagueInitialized(ctx, 140)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGetRatingUnknownTeamIsDefault(t *testing.T) {
	s := newTestStore(t)
	r, err := s.GetRating(context.Background(), 12345)
	require.NoError(t, err)
	assert.Equal(t, DefaultRating, r)
}

func TestUpdateAfterMatchIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	_, err := s.InitializeLeague(ctx, 40, []Standing{{TeamID: 10}, {TeamID: 11}})
	require.NoError(t, err)

	m := MatchResult{MatchID: "fx-1", LeagueID: 40, HomeID: 11, AwayID: 10, HomeGoals: 2, AwayGoals: 0}
	first, err := s.UpdateAfterMatch(ctx, m)
	require.NoError(t, err)
	assert.False(t, first.Skipped)
	assert.Equal(t, HomeWin, first.Result)
	assert.Equal(t, 30.0, first.KFactor, "championship is not a top league")
	assert.Greater(t, first.HomeNew, first.HomeOld)
	assert.Less(t, first.AwayNew, first.AwayOld)

	again, err := s.UpdateAfterMatch(ctx, m)
	require.NoError(t, err)
	assert.True(t, again.Skipped)
	assert.Equal(t, first.HomeNew, again.HomeNew)

	home, err := s.Rating(ctx, 11)
	require.NoError(t, err)
	assert.Equal(t, first.HomeNew, home.Rating)
	assert.Equal(t, 1, home.MatchesPlayed, "the replay did not count")
}

func TestUpdateAfterMatchCreatesUnknownTeams(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	u, err := s.UpdateAfterMatch(ctx, MatchResult{MatchID: "fx-9", LeagueID: 39, HomeID: 1, AwayID: 2, HomeName: "Arsenal", HomeGoals: 1, AwayGoals: 1})
	require.NoError(t, err)
	assert.Equal(t, DefaultRating, u.HomeNew)
	assert.Equal(t, DefaultRating, u.AwayNew)
	assert.Equal(t, 20.0, u.KFactor)

	r, err := s.Rating(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Arsenal", r.Name)
	assert.Equal(t, 1, r.MatchesPlayed)
}

func TestUpdateAfterMatchRejectsBadInput(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	_, err := s.UpdateAfterMatch(ctx, MatchResult{HomeID: 1, AwayID: 2})
	assert.Error(t, err)
	_, err = s.UpdateAfterMatch(ctx, MatchResult{MatchID: "x", HomeID: 1, AwayID: 1})
	assert.Error(t, err)
	_, err = s.UpdateAfterMatch(ctx, MatchResult{MatchID: "x", HomeID: 1, AwayID: 2, HomeGoals: -1})
	assert.Error(t, err)
}

func TestRatingsStayBoundedOverManyMatches(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	_, err := s.InitializeLeague(ctx, 1, []Standing{{TeamID: 1}, {TeamID: 2}})
	require.NoError(t, err)

	for i := 0; i < 60; i++ {
		_, err := s.UpdateAfterMatch(ctx, MatchResult{
			MatchID: fmt.Sprintf("m-%d", i), LeagueID: 1, HomeID: 1, AwayID: 2,
			HomeGoals: 4, AwayGoals: 0, KFactor: 80,
		})
		require.NoError(t, err)
	}
	for _, id := range []int{1, 2} {
		r, err := s.GetRating(ctx, id)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, r, MinRating)
		assert.LessOrEqual(t, r, MaxRating)
	}
}

func TestRankingsAndHistory(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	_, err := s.InitializeLeague(ctx, 61, []Standing{{TeamID: 7, Name: "Lens"}, {TeamID: 8, Name: "Nice"}, {TeamID: 9, Name: "Brest"}})
	require.NoError(t, err)
	_, err = s.UpdateAfterMatch(ctx, MatchResult{MatchID: "l1-1", LeagueID: 61, HomeID: 9, AwayID: 7, HomeGoals: 3, AwayGoals: 0})
	require.NoError(t, err)

	rankings, err := s.Rankings(ctx, 61)
	require.NoError(t, err)
	require.Len(t, rankings, 3)
	assert.Equal(t, 7, rankings[0].TeamID)
	assert.Equal(t, 1, rankings[0].Position)
	for i := 1; i < len(rankings); i++ {
		assert.GreaterOrEqual(t, rankings[i-1].Rating, rankings[i].Rating)
	}

	hist, err := s.History(ctx, 9, 5)
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.Equal(t, "l1-1", hist[0].MatchID)
	assert.Equal(t, HomeWin, hist[0].Result)
}

func TestStrengthResolverOrder(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	_, err := s.InitializeLeague(ctx, 39, []Standing{{TeamID: 50, Name: "Manchester City"}, {TeamID: 51, Name: "Ipswich"}})
	require.NoError(t, err)

	r := NewStrengthResolver(s, league.DefaultStrengths())

	got := r.Resolve(ctx, 50, "Manchester City")
	assert.Equal(t, SourceElo, got.Source)
	assert.Equal(t, RatingToStrength(1800), got.Value)

	got = r.Resolve(ctx, 999, "Real Madrid")
	assert.Equal(t, SourceTable, got.Source)
	assert.Equal(t, 95, got.Value)

	got = r.Resolve(ctx, 998, "Unheard Of Rovers")
	assert.Equal(t, SourceDefault, got.Source)
	assert.Equal(t, 60, got.Value)
	assert.False(t, got.Known())

	noStore := NewStrengthResolver(nil, nil)
	assert.Equal(t, DefaultStrength, noStore.Resolve(ctx, 1, "x").Value)
}
