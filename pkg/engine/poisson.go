package engine

import (
	"fmt"
	"math"
)

// ScoreGrid is the joint probability of every scoreline, rows are home goals
type ScoreGrid [][]float64

// poissonPMF returns P(X = k) for a Poisson variable with mean lambda
func poissonPMF(lambda float64, k int) float64 {
	if lambda <= 0 {
		if k == 0 {
			return 1
		}
		return 0
	}
	lg, _ := math.Lgamma(float64(k) + 1)
	return math.Exp(float64(k)*math.Log(lambda) - lambda - lg)
}

func goalProbabilities(lambda float64, maxGoals int) []float64 {
	probs := make([]float64, maxGoals+1)
	for k := range probs {
		probs[k] = poissonPMF(lambda, k)
	}
	return probs
}

// createProbabilityMatrix creates outcome probability matrix as the outer product of both teams' goal distributions
func createProbabilityMatrix(homeProbs, awayProbs []float64) ScoreGrid {
	matrix := make(ScoreGrid, len(homeProbs))
	for i := range homeProbs {
		matrix[i] = make([]float64, len(awayProbs))
		for j := range awayProbs {
			matrix[i][j] = homeProbs[i] * awayProbs[j]
		}
	}
	return matrix
}

// dixonColesCorrection adjusts the four low scoring cells, which independent Poisson
// variables get wrong, then renormalises
func dixonColesCorrection(matrix ScoreGrid, homeExpected, awayExpected, rho float64) ScoreGrid {
	if len(matrix) > 2 && len(matrix[0]) > 2 {
		for _, cell := range [][2]int{{0, 0}, {1, 0}, {0, 1}, {1, 1}} {
			matrix[cell[0]][cell[1]] *= calculateTau(cell[0], cell[1], homeExpected, awayExpected, rho)
		}
	}
	return renormalizeMatrix(matrix)
}

// calculateTau computes the Dixon-Coles correction factor for specific scorelines
func calculateTau(homeGoals, awayGoals int, lambda1, lambda2, rho float64) float64 {
	switch {
	case homeGoals == 0 && awayGoals == 0:
		return 1 - lambda1*lambda2*rho
	case homeGoals == 0 && awayGoals == 1:
		return 1 + lambda1*rho
	case homeGoals == 1 && awayGoals == 0:
		return 1 + lambda2*rho
	case homeGoals == 1 && awayGoals == 1:
		return 1 - rho
	}
	return 1.0
}

// renormalizeMatrix ensures all probabilities sum to 1
func renormalizeMatrix(matrix ScoreGrid) ScoreGrid {
	total := 0.0
	for i := range matrix {
		for j := range matrix[i] {
			total += matrix[i][j]
		}
	}
	if total > 0 {
		for i := range matrix {
			for j := range matrix[i] {
				matrix[i][j] /= total
			}
		}
	}
	return matrix
}

// outcomeProbabilities sums the lower triangle, diagonal and upper triangle
func (g ScoreGrid) outcomeProbabilities() (homeWin, draw, awayWin float64) {
	for i := range g {
		for j := range g[i] {
			switch {
			case i > j:
				homeWin += g[i][j]
			case i == j:
				draw += g[i][j]
			default:
				awayWin += g[i][j]
			}
		}
	}
	return homeWin, draw, awayWin
}

// mostLikely scans row by row and keeps the first strict maximum, so ties always
// resolve to the lowest home score then the lowest away score
func (g ScoreGrid) mostLikely() (int, int, float64) {
	bestH, bestA, best := 0, 0, -1.0
	for i := range g {
		for j := range g[i] {
			if g[i][j] > best {
				bestH, bestA, best = i, j, g[i][j]
			}
		}
	}
	return bestH, bestA, best
}

type exactScore struct {
	home, away int
	prob       float64
	grid       ScoreGrid
}

func (e exactScore) String() string {
	return fmt.Sprintf("%d-%d", e.home, e.away)
}

// predictScore builds the scoreline grid with the favourite's lambda pushed up and the
// underdog's pulled down by the size of the result gap
func (c *EngineConfig) predictScore(xgHome, xgAway, homeProb, awayProb float64) exactScore {
	gap := math.Abs(homeProb - awayProb)
	lh, la := xgHome, xgAway
	if homeProb >= awayProb {
		lh *= 1 + c.FavouriteBoost*gap
		la *= 1 - c.UnderdogCut*gap
	} else {
		la *= 1 + c.FavouriteBoost*gap
		lh *= 1 - c.UnderdogCut*gap
	}

	grid := createProbabilityMatrix(goalProbabilities(lh, c.ScoreGridMax), goalProbabilities(la, c.ScoreGridMax))
	grid = dixonColesCorrection(grid, lh, la, c.DixonColesRho)
	if gap >= c.DrawPenaltyGap {
		for i := range grid {
			grid[i][i] *= c.DrawCellPenalty
		}
		grid = renormalizeMatrix(grid)
	}
	h, a, p := grid.mostLikely()
	return exactScore{home: h, away: a, prob: p, grid: grid}
}

// poissonTailAbove returns P(X > line) for a Poisson variable
func poissonTailAbove(lambda, line float64) float64 {
	k := int(math.Floor(line))
	cdf := 0.0
	for i := 0; i <= k; i++ {
		cdf += poissonPMF(lambda, i)
	}
	return clamp(1-cdf, 0, 1)
}
