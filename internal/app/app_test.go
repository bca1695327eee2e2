package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/richard-senior/matchodds/internal/config"
	"github.com/richard-senior/matchodds/pkg/enrich"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memoryConfig() *config.AppConfig {
	cfg := config.DefaultConfig()
	cfg.DatabaseDSN = ":memory:"
	cfg.LogOutput = "c"
	return cfg
}

func TestNewWiresStaticSignals(t *testing.T) {
	path := filepath.Join(t.TempDir(), "signals.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
teams:
  7:
    recentForm: WWDWW
    leaguePosition: 2
`), 0644))
	cfg := memoryConfig()
	cfg.SignalsFile = path

	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	defer a.Close()

	in := a.Service.Enricher.Enrich(context.Background(), enrich.Fixture{MatchID: "x", LeagueID: 39, HomeID: 7, AwayID: 8, HomeName: "Seven", AwayName: "Eight"})
	assert.Equal(t, "WWDWW", in.Home.RecentForm)
	assert.NotNil(t, a.Service.Ratings)
	assert.NotNil(t, a.Service.Ledger)
}

func TestNewWithoutSignals(t *testing.T) {
	a, err := New(context.Background(), memoryConfig())
	require.NoError(t, err)
	defer a.Close()

	p, err := a.provider(context.Background())
	require.NoError(t, err)
	assert.Nil(t, p)
}

func TestNewPagesUseMemoryCache(t *testing.T) {
	cfg := memoryConfig()
	cfg.TeamPageURL = "http://127.0.0.1:1/teams/%d/%d"
	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	defer a.Close()

	p, err := a.provider(context.Background())
	require.NoError(t, err)
	assert.IsType(t, &enrich.CachedProvider{}, p)
}

func TestNewRejectsMissingFiles(t *testing.T) {
	cfg := memoryConfig()
	cfg.LeaguesFile = filepath.Join(t.TempDir(), "missing.yaml")
	_, err := New(context.Background(), cfg)
	assert.Error(t, err)

	cfg = memoryConfig()
	cfg.SignalsFile = filepath.Join(t.TempDir(), "missing.yaml")
	_, err = New(context.Background(), cfg)
	assert.Error(t, err)
}

func TestConfigureLogging(t *testing.T) {
	cfg := memoryConfig()
	cfg.LogPath = filepath.Join(t.TempDir(), "matchodds.log")
	assert.NoError(t, ConfigureLogging(cfg))

	cfg.LogLevel = "chatty"
	assert.Error(t, ConfigureLogging(cfg))
}
