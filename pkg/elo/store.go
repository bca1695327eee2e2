package elo

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/richard-senior/matchodds/internal/logger"
	"github.com/richard-senior/matchodds/pkg/league"
	"github.com/richard-senior/matchodds/pkg/store"
)

// Standing is one row of a league table snapshot
type Standing struct {
	TeamID int    `json:"teamId"`
	Name   string `json:"name,omitempty"`
	// Rank is 1 based; zero means "position in the slice"
	Rank int `json:"rank,omitempty"`
}

// MatchResult is a settled fixture fed to UpdateAfterMatch
type MatchResult struct {
	MatchID   string `json:"matchId"`
	LeagueID  int    `json:"leagueId"`
	HomeID    int    `json:"homeId"`
	AwayID    int    `json:"awayId"`
	HomeName  string `json:"homeName,omitempty"`
	AwayName  string `json:"awayName,omitempty"`
	HomeGoals int    `json:"homeGoals"`
	AwayGoals int    `json:"awayGoals"`
	// KFactor overrides the league's K when positive
	KFactor float64 `json:"kFactor,omitempty"`
}

// Validate rejects results that cannot be applied
func (m MatchResult) Validate() error {
	if m.MatchID == "" {
		return errors.New("match id is required")
	}
	if m.HomeID <= 0 || m.AwayID <= 0 {
		return fmt.Errorf("match %s: team ids must be positive", m.MatchID)
	}
	if m.HomeID == m.AwayID {
		return fmt.Errorf("match %s: a team cannot play itself", m.MatchID)
	}
	if m.HomeGoals < 0 || m.AwayGoals < 0 {
		return fmt.Errorf("match %s: goals must not be negative", m.MatchID)
	}
	return nil
}

// Ranking is a rating row plus its strength, as listed by Rankings
type Ranking struct {
	Position      int     `json:"position"`
	TeamID        int     `json:"teamId"`
	Name          string  `json:"name"`
	Rating        float64 `json:"rating"`
	Strength      int     `json:"strength"`
	MatchesPlayed int     `json:"matchesPlayed"`
}

// Store keeps ratings and the processed match ledger in SQL
type Store struct {
	db *store.DB
	// Now stamps rows, replaceable in tests
	Now func() time.Time
	mu  sync.Mutex
}

// NewStore creates the rating tables if needed
func NewStore(ctx context.Context, db *store.DB) (*Store, error) {
	if err := db.CreateTables(ctx, &Rating{}, &ProcessedMatch{}); err != nil {
		return nil, fmt.Errorf("failed to prepare elo tables: %w", err)
	}
	return &Store{db: db, Now: func() time.Time { return time.Now().UTC() }}, nil
}

// Rating returns the stored record for a team, or store.ErrNotFound
func (s *Store) Rating(ctx context.Context, teamID int) (*Rating, error) {
	return loadRating(ctx, &s.db.Session, teamID)
}

func loadRating(ctx context.Context, sess *store.Session, teamID int) (*Rating, error) {
	r := &Rating{}
	if err := sess.FindByPrimaryKey(ctx, r, map[string]any{"team_id": teamID}); err != nil {
		return nil, err
	}
	return r, nil
}

// GetRating returns the team's current rating. Unknown teams get DefaultRating, not an error.
func (s *Store) GetRating(ctx context.Context, teamID int) (float64, error) {
	r, err := s.Rating(ctx, teamID)
	if errors.Is(err, store.ErrNotFound) {
		return DefaultRating, nil
	}
	if err != nil {
		return DefaultRating, err
	}
	return r.Rating, nil
}

// InitializeLeague seeds ratings from a standings snapshot, 1800 for the leader down to 1200
// for the last team. Existing ratings for those teams are overwritten.
func (s *Store) InitializeLeague(ctx context.Context, leagueID int, standings []Standing) (int, error) {
	if len(standings) == 0 {
		logger.Warn("No standings supplied for league", leagueID)
		return 0, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(standings)
	now := s.Now()
	count := 0
	err := s.db.WithTx(ctx, func(tx *store.Session) error {
		for i, st := range standings {
			if st.TeamID <= 0 {
				continue
			}
			rank := st.Rank
			if rank == 0 {
				rank = i + 1
			}
			seed := SeedRating(rank, n)
			r := &Rating{
				TeamID:        st.TeamID,
				LeagueID:      leagueID,
				Name:          st.Name,
				Rating:        seed,
				InitialRating: seed,
				LastUpdated:   now,
			}
			if err := tx.Save(ctx, r); err != nil {
				return fmt.Errorf("failed to seed team %d: %w", st.TeamID, err)
			}
			count++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	logger.Info(fmt.Sprintf("Initialized %d elo ratings for league %d", count, leagueID))
	return count, nil
}

// IsLeagueInitialized reports whether any team in the league has a stored rating
func (s *Store) IsLeagueInitialized(ctx context.Context, leagueID int) (bool, error) {
	n, err := s.db.Count(ctx, &Rating{}, "league_id = ?", leagueID)
	return n > 0, err
}

// UpdateAfterMatch applies a settled result to both teams exactly once per match id.
// Replaying a match id returns the recorded update with Skipped set and changes nothing.
func (s *Store) UpdateAfterMatch(ctx context.Context, m MatchResult) (Update, error) {
	if err := m.Validate(); err != nil {
		return Update{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var out Update
	err := s.db.WithTx(ctx, func(tx *store.Session) error {
		prior := &ProcessedMatch{}
		err := tx.FindByPrimaryKey(ctx, prior, map[string]any{"match_id": m.MatchID})
		if err == nil {
			logger.Debug("Match already applied, skipping", m.MatchID)
			out = prior.toUpdate(true)
			return nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return err
		}

		now := s.Now()
		home, err := ratingOrDefault(ctx, tx, m.HomeID, m.LeagueID, m.HomeName)
		if err != nil {
			return err
		}
		away, err := ratingOrDefault(ctx, tx, m.AwayID, m.LeagueID, m.AwayName)
		if err != nil {
			return err
		}

		k := m.KFactor
		if k <= 0 {
			k = league.KFactor(m.LeagueID)
		}
		newHome, newAway := Apply(home.Rating, away.Rating, m.HomeGoals, m.AwayGoals, k)

		ledger := &ProcessedMatch{
			MatchID:     m.MatchID,
			LeagueID:    m.LeagueID,
			HomeID:      m.HomeID,
			AwayID:      m.AwayID,
			HomeGoals:   m.HomeGoals,
			AwayGoals:   m.AwayGoals,
			Result:      ResultOf(m.HomeGoals, m.AwayGoals),
			KFactor:     k,
			HomeOld:     home.Rating,
			HomeNew:     newHome,
			AwayOld:     away.Rating,
			AwayNew:     newAway,
			ProcessedAt: now,
		}
		if err := tx.Insert(ctx, ledger); err != nil {
			return err
		}

		for _, side := range []struct {
			r      *Rating
			rating float64
		}{{home, newHome}, {away, newAway}} {
			side.r.Rating = side.rating
			side.r.MatchesPlayed++
			side.r.LastUpdated = now
			if err := tx.Save(ctx, side.r); err != nil {
				return fmt.Errorf("failed to save rating for team %d: %w", side.r.TeamID, err)
			}
		}
		out = ledger.toUpdate(false)
		return nil
	})
	if err != nil {
		return Update{}, fmt.Errorf("failed to apply match %s: %w", m.MatchID, err)
	}
	if !out.Skipped {
		logger.Info(fmt.Sprintf("Elo update %s: home %.1f -> %.1f (%+.1f), away %.1f -> %.1f (%+.1f)",
			out.MatchID, out.HomeOld, out.HomeNew, out.HomeChange, out.AwayOld, out.AwayNew, out.AwayChange))
	}
	return out, nil
}

// ratingOrDefault loads a team, creating an unsaved default record for teams never seen
func ratingOrDefault(ctx context.Context, tx *store.Session, teamID, leagueID int, name string) (*Rating, error) {
	r, err := loadRating(ctx, tx, teamID)
	if err == nil {
		if r.Name == "" && name != "" {
			r.Name = name
		}
		return r, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	return &Rating{
		TeamID:        teamID,
		LeagueID:      leagueID,
		Name:          name,
		Rating:        DefaultRating,
		InitialRating: DefaultRating,
	}, nil
}

// Rankings lists a league's teams by rating, best first
func (s *Store) Rankings(ctx context.Context, leagueID int) ([]Ranking, error) {
	rows, err := store.FindWhere[Rating](ctx, s.db, "league_id = ?", leagueID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Rating != rows[j].Rating {
			return rows[i].Rating > rows[j].Rating
		}
		return rows[i].TeamID < rows[j].TeamID
	})
	out := make([]Ranking, 0, len(rows))
	for i, r := range rows {
		out = append(out, Ranking{
			Position:      i + 1,
			TeamID:        r.TeamID,
			Name:          r.Name,
			Rating:        r.Rating,
			Strength:      r.Strength(),
			MatchesPlayed: r.MatchesPlayed,
		})
	}
	return out, nil
}

// History returns the most recent applied matches involving a team, newest first
func (s *Store) History(ctx context.Context, teamID, limit int) ([]Update, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := store.FindWhere[ProcessedMatch](ctx, s.db,
		"home_id = ? OR away_id = ? ORDER BY processed_at DESC, match_id DESC LIMIT ?", teamID, teamID, limit)
	if err != nil {
		return nil, err
	}
	out := make([]Update, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toUpdate(false))
	}
	return out, nil
}
