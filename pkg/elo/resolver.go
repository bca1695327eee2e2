package elo

import (
	"context"
	"errors"

	"github.com/richard-senior/matchodds/internal/logger"
	"github.com/richard-senior/matchodds/pkg/league"
	"github.com/richard-senior/matchodds/pkg/store"
)

// StrengthSource records where a resolved strength came from
type StrengthSource string

const (
	SourceElo     StrengthSource = "elo"
	SourceTable   StrengthSource = "table"
	SourceDefault StrengthSource = "default"
)

// Strength is a team strength on the 40..100 scale
type Strength struct {
	Value  int            `json:"value"`
	Rating float64        `json:"rating"`
	Source StrengthSource `json:"source"`
}

// Known reports whether the strength came from real data rather than the fallback
func (s Strength) Known() bool {
	return s.Source != SourceDefault
}

// RatingLookup is the part of Store the resolver needs
type RatingLookup interface {
	Rating(ctx context.Context, teamID int) (*Rating, error)
}

// StrengthResolver turns a team into a strength: stored Elo first, then the
// static team table, then the neutral default
type StrengthResolver struct {
	ratings RatingLookup
	table   *league.StrengthTable
}

// NewStrengthResolver accepts a nil lookup or table, skipping that step
func NewStrengthResolver(ratings RatingLookup, table *league.StrengthTable) *StrengthResolver {
	return &StrengthResolver{ratings: ratings, table: table}
}

func (r *StrengthResolver) Resolve(ctx context.Context, teamID int, name string) Strength {
	if r.ratings != nil && teamID > 0 {
		rating, err := r.ratings.Rating(ctx, teamID)
		switch {
		case err == nil:
			return Strength{Value: rating.Strength(), Rating: rating.Rating, Source: SourceElo}
		case !errors.Is(err, store.ErrNotFound):
			logger.Warn("Rating lookup failed, falling back to team table", teamID, err)
		}
	}
	if r.table != nil {
		if s, ok := r.table.Lookup(name); ok {
			return Strength{Value: s, Rating: StrengthToElo(s), Source: SourceTable}
		}
	}
	def := DefaultStrength
	if r.table != nil && r.table.DefaultStrength > 0 {
		def = r.table.DefaultStrength
	}
	return Strength{Value: def, Rating: StrengthToElo(def), Source: SourceDefault}
}
