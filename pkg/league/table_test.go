package league

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedTableLoads(t *testing.T) {
	tbl := Default()
	require.NotNil(t, tbl)

	epl := tbl.Profile(39)
	assert.True(t, epl.Configured)
	assert.Equal(t, "Premier League", epl.Name)
	assert.Equal(t, StyleAttacking, epl.Style)
	assert.InDelta(t, 0.08, epl.HomeAdvantage, 1e-9)
	assert.InDelta(t, 0.52, epl.Threshold(ThresholdOver25), 1e-9)
	// not set on the league, inherited from the default profile
	assert.InDelta(t, 0.70, epl.Threshold(ThresholdOver15), 1e-9)
	assert.InDelta(t, 0.12, epl.Threshold(ThresholdHomeFloor), 1e-9)
}

func TestUnknownLeagueFallsBackToDefault(t *testing.T) {
	tbl := Default()
	p := tbl.Profile(999999)
	assert.False(t, p.Configured)
	assert.Equal(t, 999999, p.ID)
	assert.Equal(t, StyleBalanced, p.Style)
	assert.Equal(t, UnknownPriority, tbl.Priority(999999))
	assert.Equal(t, "League 999999", tbl.Name(999999))
}

func TestProfilesAreCopies(t *testing.T) {
	tbl := Default()
	p := tbl.Profile(39)
	p.Weights[WeightForm] = 0.99
	p.Thresholds[ThresholdOver25] = 0.01
	again := tbl.Profile(39)
	assert.InDelta(t, 0.18, again.Weight(WeightForm), 1e-9)
	assert.InDelta(t, 0.52, again.Threshold(ThresholdOver25), 1e-9)
}

func TestLeagueHelpers(t *testing.T) {
	tbl := Default()
	assert.True(t, tbl.IsHighScoring(39))
	assert.True(t, tbl.IsPhysical(94))
	assert.Equal(t, 1, tbl.Priority(39))
	assert.Equal(t, 1, tbl.Priority(1), "directory entries carry a priority too")

	assert.Equal(t, 20.0, KFactor(39))
	assert.Equal(t, 20.0, KFactor(848))
	assert.Equal(t, 30.0, KFactor(40))

	e, ok := tbl.FindByName("premier league")
	require.True(t, ok)
	assert.Equal(t, 39, e.ID, "the tuned English league wins over namesakes")

	leagues := tbl.Leagues()
	require.NotEmpty(t, leagues)
	for i := 1; i < len(leagues); i++ {
		assert.LessOrEqual(t, leagues[i-1].Priority, leagues[i].Priority)
	}
	for _, e := range tbl.ByPriority(1) {
		assert.Equal(t, 1, e.Priority)
	}
}

func TestParseRejectsBadProfiles(t *testing.T) {
	_, err := Parse([]byte(`
default:
  style: balanced
  thresholds: {home_floor: 0.5, home_ceiling: 0.4, draw_floor: 0.1, draw_ceiling: 0.3, away_floor: 0.1, away_ceiling: 0.6}
`))
	assert.Error(t, err, "floor above ceiling")

	_, err = Parse([]byte(`
default:
  thresholds: {home_floor: 0.1, home_ceiling: 0.8, draw_floor: 0.1, draw_ceiling: 0.3, away_floor: 0.1, away_ceiling: 0.6}
profiles:
  - {id: 5, name: Test, style: samba}
`))
	assert.Error(t, err, "unknown style")

	_, err = Parse([]byte("default: ["))
	assert.Error(t, err)
}

func TestStrengthLookup(t *testing.T) {
	st := DefaultStrengths()
	s, ok := st.Lookup("Manchester United")
	require.True(t, ok)
	assert.Equal(t, 82, s)

	s, ok = st.Lookup("Manchester City FC")
	require.True(t, ok)
	assert.Equal(t, 95, s)

	_, ok = st.Lookup("Accrington Stanley")
	assert.False(t, ok)
	assert.Equal(t, 60, st.Strength("Accrington Stanley"))
}
