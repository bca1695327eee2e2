package elo

import (
	"math"
)

const (
	DefaultRating = 1500.0
	MinRating     = 1200.0
	MaxRating     = 2000.0

	// ratings handed out by InitializeLeague run from TopSeedRating down to MinRating
	TopSeedRating = 1800.0

	MinStrength     = 40
	MaxStrength     = 100
	DefaultStrength = 60
)

// Result of a settled match from the home side's point of view
type Result string

const (
	HomeWin Result = "home_win"
	Draw    Result = "draw"
	AwayWin Result = "away_win"
)

// ResultOf classifies a final score
func ResultOf(homeGoals, awayGoals int) Result {
	switch {
	case homeGoals > awayGoals:
		return HomeWin
	case homeGoals < awayGoals:
		return AwayWin
	default:
		return Draw
	}
}

// actual returns the home and away scores used by the update rule
func (r Result) actual() (float64, float64) {
	switch r {
	case HomeWin:
		return 1, 0
	case AwayWin:
		return 0, 1
	default:
		return 0.5, 0.5
	}
}

// ExpectedScore is the probability-like score team A is expected to take against team B
func ExpectedScore(ratingA, ratingB float64) float64 {
	return 1 / (1 + math.Pow(10, (ratingB-ratingA)/400))
}

// Apply runs the Elo update for one match and returns the new, clamped ratings
func Apply(homeRating, awayRating float64, homeGoals, awayGoals int, k float64) (float64, float64) {
	expHome := ExpectedScore(homeRating, awayRating)
	expAway := 1 - expHome
	actHome, actAway := ResultOf(homeGoals, awayGoals).actual()

	newHome := Clamp(round1(homeRating + k*(actHome-expHome)))
	newAway := Clamp(round1(awayRating + k*(actAway-expAway)))
	return newHome, newAway
}

// SeedRating is the rating given to the team at rank (1 based) in a table of n teams
func SeedRating(rank, n int) float64 {
	if n <= 1 {
		return DefaultRating
	}
	if rank < 1 {
		rank = 1
	}
	if rank > n {
		rank = n
	}
	r := TopSeedRating - float64(rank-1)/float64(n-1)*(TopSeedRating-MinRating)
	return Clamp(round1(r))
}

// RatingToStrength maps [1200,2000] linearly onto the 40..100 strength scale
func RatingToStrength(rating float64) int {
	s := float64(MinStrength) + (rating-MinRating)/(MaxRating-MinRating)*float64(MaxStrength-MinStrength)
	return clampInt(int(math.Round(s)), MinStrength, MaxStrength)
}

// StrengthToElo is the inverse of RatingToStrength
func StrengthToElo(strength int) float64 {
	r := MinRating + float64(strength-MinStrength)/float64(MaxStrength-MinStrength)*(MaxRating-MinRating)
	return Clamp(round1(r))
}

// Clamp keeps a rating inside [MinRating, MaxRating]
func Clamp(rating float64) float64 {
	return math.Max(MinRating, math.Min(MaxRating, rating))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
