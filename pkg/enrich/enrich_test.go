package enrich

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/richard-senior/matchodds/pkg/elo"
	"github.com/richard-senior/matchodds/pkg/engine"
	"github.com/richard-senior/matchodds/pkg/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failingProvider fails every call and counts them
type failingProvider struct{ calls int }

func (f *failingProvider) TeamSignal(ctx context.Context, teamID, leagueID int) (engine.TeamSignal, error) {
	f.calls++
	return engine.TeamSignal{}, errors.New("upstream down")
}

func (f *failingProvider) HeadToHead(ctx context.Context, homeID, awayID int) (engine.HeadToHead, error) {
	f.calls++
	return engine.HeadToHead{}, errors.New("upstream down")
}

type fixedStrengths map[int]int

func (f fixedStrengths) Resolve(ctx context.Context, teamID int, name string) elo.Strength {
	if v, ok := f[teamID]; ok {
		return elo.Strength{Value: v, Source: elo.SourceElo}
	}
	return elo.Strength{Value: elo.DefaultStrength, Source: elo.SourceDefault}
}

func TestEnrichFailsSoft(t *testing.T) {
	p := &failingProvider{}
	e := NewEnricher(p, fixedStrengths{33: 88})
	in := e.Enrich(context.Background(), Fixture{
		MatchID: "m1", LeagueID: 39, HomeID: 33, AwayID: 34, HomeName: "Home FC", AwayName: "Away FC",
	})

	assert.Equal(t, 3, p.calls)
	assert.Equal(t, "m1", in.MatchID)
	assert.Equal(t, "Home FC", in.Home.Name)
	assert.Equal(t, 88, in.Home.Strength)
	assert.Equal(t, 0, in.Away.Strength)
	assert.Equal(t, engine.MotivationNormal, in.Away.Motivation)
	assert.Equal(t, engine.HeadToHead{}, in.H2H)
}

func TestEnrichSanitizesProviderData(t *testing.T) {
	p := NewStaticProvider(SignalsDocument{
		Teams: map[int]engine.TeamSignal{
			1: {RecentForm: "wxwdlll", LeaguePosition: 1, GoalsScoredAvg: -1, Strength: 140},
			2: {Name: "Visitors", LeaguePosition: 19, Motivation: engine.MotivationEuropa},
		},
		HeadToHead: map[string]engine.HeadToHead{
			"1-2": {Total: 10, HomeWins: 5, Draws: 3, AwayWins: 2, AvgGoals: 2.4, BTTSPercent: 60},
		},
	})
	in := NewEnricher(p, nil).Enrich(context.Background(), Fixture{MatchID: "m2", HomeID: 1, AwayID: 2, HomeName: "Hosts"})

	assert.Equal(t, "WWDLL", in.Home.RecentForm)
	assert.Equal(t, "Hosts", in.Home.Name)
	assert.Equal(t, 0.0, in.Home.GoalsScoredAvg)
	assert.Equal(t, 0, in.Home.Strength)
	assert.Equal(t, engine.MotivationTitle, in.Home.Motivation)
	// a provided motivation wins over the table position
	assert.Equal(t, engine.MotivationEuropa, in.Away.Motivation)
	assert.InDelta(t, 0.6, in.H2H.BTTSRatio, 1e-9)
}

func TestSanitizeH2HKeepsTheBTTSScaleExplicit(t *testing.T) {
	h := engine.HeadToHead{Total: 5, HomeWins: 2, Draws: 1, AwayWins: 2}

	pct := h
	pct.BTTSPercent = 0.8
	assert.InDelta(t, 0.008, sanitizeH2H(pct).BTTSRatio, 1e-12, "a small percentage is not read as a ratio")
	assert.Zero(t, sanitizeH2H(pct).BTTSPercent)

	ratio := h
	ratio.BTTSRatio, ratio.BTTSPercent = 0.4, 90
	assert.InDelta(t, 0.4, sanitizeH2H(ratio).BTTSRatio, 1e-12)

	ratio.BTTSRatio = 1.5
	assert.Equal(t, 1.0, sanitizeH2H(ratio).BTTSRatio)
	ratio.BTTSRatio = -0.2
	assert.Equal(t, 0.9, sanitizeH2H(ratio).BTTSRatio, "a negative ratio counts as unset")
}

func TestSanitizeH2HRejectsInconsistentCounts(t *testing.T) {
	assert.Equal(t, engine.HeadToHead{}, sanitizeH2H(engine.HeadToHead{Total: 3, HomeWins: 2, Draws: 2}))
	assert.Equal(t, engine.HeadToHead{}, sanitizeH2H(engine.HeadToHead{Total: 0, AvgGoals: 3}))
}

func TestMotivationFromPosition(t *testing.T) {
	cases := map[int]engine.Motivation{
		0:  engine.MotivationNormal,
		1:  engine.MotivationTitle,
		4:  engine.MotivationChampions,
		6:  engine.MotivationEuropa,
		7:  engine.MotivationConference,
		12: engine.MotivationNormal,
		18: engine.MotivationRelegation,
	}
	for pos, want := range cases {
		assert.Equal(t, want, MotivationFromPosition(pos), "position %d", pos)
	}
}

func TestStaticProviderReversedPair(t *testing.T) {
	p := NewStaticProvider(SignalsDocument{HeadToHead: map[string]engine.HeadToHead{
		"5-6": {Total: 4, HomeWins: 3, AwayWins: 1},
	}})
	h, err := p.HeadToHead(context.Background(), 6, 5)
	require.NoError(t, err)
	assert.Equal(t, 1, h.HomeWins)
	assert.Equal(t, 3, h.AwayWins)

	_, err = p.HeadToHead(context.Background(), 7, 8)
	assert.ErrorIs(t, err, ErrNoData)
	_, err = p.TeamSignal(context.Background(), 99, 1)
	assert.ErrorIs(t, err, ErrNoData)
}

func TestLoadStaticProviderYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "signals.yaml")
	doc := `
teams:
  33:
    name: Manchester United
    recentForm: WDWLW
    leaguePosition: 5
    goalsScoredAvg: 1.7
headToHead:
  "33-34":
    total: 6
    homeWins: 3
    draws: 2
    awayWins: 1
    avgGoals: 2.5
    bttsRatio: 0.5
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	p, err := LoadStaticProvider(path)
	require.NoError(t, err)

	ts, err := p.TeamSignal(context.Background(), 33, 39)
	require.NoError(t, err)
	assert.Equal(t, "Manchester United", ts.Name)
	assert.Equal(t, 5, ts.LeaguePosition)
	assert.InDelta(t, 1.7, ts.GoalsScoredAvg, 1e-9)

	h, err := p.HeadToHead(context.Background(), 33, 34)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, h.BTTSRatio, 1e-9)
}

func TestPageProviderReadsNextData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/leagues/39/teams/33":
			fmt.Fprint(w, `<html><body><script id="__NEXT_DATA__" type="application/json">
{"props":{"pageProps":{"signal":{"name":"Arsenal","recentForm":"WWWDW","leaguePosition":2,"avgCorners":6.1}}}}
</script></body></html>`)
		case "/leagues/39/teams/34":
			fmt.Fprint(w, `<html><body>
<span data-stat="name">Chelsea</span>
<span data-stat="leaguePosition">9</span>
<span data-stat="goalsScoredAvg">1.4</span>
<span data-stat="injury">Reece James</span>
<ol class="form-guide"><li data-result="l"></li><li data-result="W"></li></ol>
</body></html>`)
		case "/h2h/33/34":
			fmt.Fprint(w, `<script id="__NEXT_DATA__">{"props":{"pageProps":{"headToHead":{"total":8,"homeWins":4,"draws":2,"awayWins":2,"avgGoals":2.9,"bttsRatio":0.625}}}}</script>`)
		case "/leagues/39/teams/35":
			fmt.Fprint(w, `<html><body>nothing here</body></html>`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	p := NewPageProvider(transport.WithClient(srv.Client(), nil), srv.URL+"/leagues/%d/teams/%d", srv.URL+"/h2h/%d/%d")
	ctx := context.Background()

	ts, err := p.TeamSignal(ctx, 33, 39)
	require.NoError(t, err)
	assert.Equal(t, "Arsenal", ts.Name)
	assert.Equal(t, 2, ts.LeaguePosition)
	assert.InDelta(t, 6.1, ts.AvgCorners, 1e-9)

	ts, err = p.TeamSignal(ctx, 34, 39)
	require.NoError(t, err)
	assert.Equal(t, "Chelsea", ts.Name)
	assert.Equal(t, 9, ts.LeaguePosition)
	assert.Equal(t, []string{"Reece James"}, ts.Injuries)
	assert.Equal(t, "LW", ts.RecentForm)

	h, err := p.HeadToHead(ctx, 33, 34)
	require.NoError(t, err)
	assert.Equal(t, 8, h.Total)
	assert.InDelta(t, 0.625, h.BTTSRatio, 1e-9)

	_, err = p.TeamSignal(ctx, 35, 39)
	assert.ErrorIs(t, err, ErrNoData)
	_, err = p.HeadToHead(ctx, 1, 2)
	assert.ErrorContains(t, err, "404")
}

// countingProvider answers from a static provider and counts calls
type countingProvider struct {
	*StaticProvider
	teamCalls int
}

func (c *countingProvider) TeamSignal(ctx context.Context, teamID, leagueID int) (engine.TeamSignal, error) {
	c.teamCalls++
	return c.StaticProvider.TeamSignal(ctx, teamID, leagueID)
}

func TestCachedProviderServesFromCacheUntilExpiry(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	cache := NewMemoryCache()
	cache.Now = func() time.Time { return now }

	inner := &countingProvider{StaticProvider: NewStaticProvider(SignalsDocument{
		Teams: map[int]engine.TeamSignal{1: {Name: "Cached", RecentForm: "WWW"}},
	})}
	p := NewCachedProvider(inner, cache, time.Hour)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		ts, err := p.TeamSignal(ctx, 1, 39)
		require.NoError(t, err)
		assert.Equal(t, "Cached", ts.Name)
	}
	assert.Equal(t, 1, inner.teamCalls)

	now = now.Add(2 * time.Hour)
	_, err := p.TeamSignal(ctx, 1, 39)
	require.NoError(t, err)
	assert.Equal(t, 2, inner.teamCalls)

	// misses are not cached
	for i := 0; i < 2; i++ {
		_, err = p.TeamSignal(ctx, 2, 39)
		assert.ErrorIs(t, err, ErrNoData)
	}
	assert.Equal(t, 4, inner.teamCalls)
}

func TestMemoryCacheZeroTTLNeverExpires(t *testing.T) {
	cache := NewMemoryCache()
	ctx := context.Background()
	require.NoError(t, cache.Set(ctx, "k", []byte("v"), 0))
	cache.Now = func() time.Time { return time.Now().Add(1000 * time.Hour) }
	v, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", string(v))

	_, err = cache.Get(ctx, "absent")
	assert.ErrorIs(t, err, ErrCacheMiss)
}
