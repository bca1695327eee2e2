package elo

import (
	"time"

	"github.com/richard-senior/matchodds/pkg/store"
)

// Rating is a team's persisted Elo record. Rows are only ever updated in place.
type Rating struct {
	store.NoHooks
	TeamID        int       `json:"teamId" column:"team_id" dbtype:"INTEGER NOT NULL" primary:"true"`
	LeagueID      int       `json:"leagueId" column:"league_id" dbtype:"INTEGER" index:"true"`
	Name          string    `json:"name" column:"name" dbtype:"TEXT"`
	Rating        float64   `json:"rating" column:"rating" dbtype:"DOUBLE PRECISION NOT NULL"`
	InitialRating float64   `json:"initialRating" column:"initial_rating" dbtype:"DOUBLE PRECISION"`
	MatchesPlayed int       `json:"matchesPlayed" column:"matches_played" dbtype:"INTEGER NOT NULL"`
	LastUpdated   time.Time `json:"lastUpdated" column:"last_updated" dbtype:"TIMESTAMP"`
}

func (r *Rating) GetTableName() string {
	return "elo_ratings"
}

func (r *Rating) GetPrimaryKey() map[string]any {
	return map[string]any{"team_id": r.TeamID}
}

// BeforeSave keeps stored ratings inside the valid range whatever the caller did
func (r *Rating) BeforeSave() error {
	r.Rating = Clamp(r.Rating)
	return nil
}

// Strength is the rating on the 40..100 scale
func (r *Rating) Strength() int {
	return RatingToStrength(r.Rating)
}

// ProcessedMatch is the ledger row written once per settled fixture
type ProcessedMatch struct {
	store.NoHooks
	MatchID     string    `json:"matchId" column:"match_id" dbtype:"TEXT NOT NULL" primary:"true"`
	LeagueID    int       `json:"leagueId" column:"league_id" dbtype:"INTEGER"`
	HomeID      int       `json:"homeId" column:"home_id" dbtype:"INTEGER NOT NULL" index:"true"`
	AwayID      int       `json:"awayId" column:"away_id" dbtype:"INTEGER NOT NULL" index:"true"`
	HomeGoals   int       `json:"homeGoals" column:"home_goals" dbtype:"INTEGER NOT NULL"`
	AwayGoals   int       `json:"awayGoals" column:"away_goals" dbtype:"INTEGER NOT NULL"`
	Result      Result    `json:"result" column:"result" dbtype:"TEXT NOT NULL"`
	KFactor     float64   `json:"kFactor" column:"k_factor" dbtype:"DOUBLE PRECISION"`
	HomeOld     float64   `json:"homeOld" column:"home_old" dbtype:"DOUBLE PRECISION"`
	HomeNew     float64   `json:"homeNew" column:"home_new" dbtype:"DOUBLE PRECISION"`
	AwayOld     float64   `json:"awayOld" column:"away_old" dbtype:"DOUBLE PRECISION"`
	AwayNew     float64   `json:"awayNew" column:"away_new" dbtype:"DOUBLE PRECISION"`
	ProcessedAt time.Time `json:"processedAt" column:"processed_at" dbtype:"TIMESTAMP"`
}

func (m *ProcessedMatch) GetTableName() string {
	return "processed_matches"
}

func (m *ProcessedMatch) GetPrimaryKey() map[string]any {
	return map[string]any{"match_id": m.MatchID}
}

// Update reports the effect of one settled match on both teams
type Update struct {
	MatchID    string  `json:"matchId"`
	LeagueID   int     `json:"leagueId"`
	HomeID     int     `json:"homeId"`
	AwayID     int     `json:"awayId"`
	Result     Result  `json:"result"`
	KFactor    float64 `json:"kFactor"`
	HomeOld    float64 `json:"homeOld"`
	HomeNew    float64 `json:"homeNew"`
	HomeChange float64 `json:"homeChange"`
	AwayOld    float64 `json:"awayOld"`
	AwayNew    float64 `json:"awayNew"`
	AwayChange float64 `json:"awayChange"`
	// Skipped is set when the match had already been applied; the recorded update is returned
	Skipped bool `json:"skipped"`
}

func (m *ProcessedMatch) toUpdate(skipped bool) Update {
	return Update{
		MatchID:    m.MatchID,
		LeagueID:   m.LeagueID,
		HomeID:     m.HomeID,
		AwayID:     m.AwayID,
		Result:     m.Result,
		KFactor:    m.KFactor,
		HomeOld:    m.HomeOld,
		HomeNew:    m.HomeNew,
		HomeChange: round1(m.HomeNew - m.HomeOld),
		AwayOld:    m.AwayOld,
		AwayNew:    m.AwayNew,
		AwayChange: round1(m.AwayNew - m.AwayOld),
		Skipped:    skipped,
	}
}
