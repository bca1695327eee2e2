package engine

import "fmt"

// EngineConfig contains the hand-tuned constants of the prediction pipeline that are not
// league specific. League specific values (weights, baselines, thresholds) live in the
// league table. None of these are fitted, treat them as configuration.
type EngineConfig struct {
	// === RESULT PROBABILITIES ===
	BaseHome   float64 // base home win rate before adjustment (default: 0.40)
	BaseDraw   float64 // base draw rate (default: 0.25)
	BaseAway   float64 // base away win rate (default: 0.35)
	ScoreScale float64 // probability shift per unit of weighted score (default: 0.35)

	// === FORM ===
	FormWeights []float64 // per result weights, most recent first (default: 1.5, 1.3, 1.1, 0.9, 0.7)
	FormWin     float64   // points for a win (default: 3)
	FormDraw    float64   // points for a draw (default: 1)

	// === STANDINGS ===
	RankSpan      float64 // rank difference mapping to a full swing (default: 20)
	PointsSpan    float64 // points difference mapping to a full swing (default: 50)
	RankShare     float64 // share of the rank term in the standings differential (default: 0.6)
	InjuryPenalty float64 // per reported absentee (default: 0.03)

	// === EXPECTED GOALS ===
	H2HBlendMinMatches int     // head to head meetings needed before blending (default: 3)
	H2HBlendWeight     float64 // share given to the head to head average (default: 0.3)
	GoalsCapMargin     float64 // total xG is capped at league average plus this (default: 1.0)
	MinTeamGoals       float64 // floor for a single team's xG (default: 0.2)

	// === OVER/UNDER ===
	OverUnderBase  float64 // probability when xG equals the line (default: 0.48)
	OverUnderSlope float64 // change per goal of xG above the line (default: 0.18)
	OverUnderMin   float64 // (default: 0.20)
	OverUnderMax   float64 // (default: 0.80)

	// === BTTS ===
	BTTSBase           float64 // prior without enough head to head history (default: 0.35)
	BTTSH2HMinMatches  int     // meetings needed to use the head to head rate (default: 5)
	BTTSH2HCap         float64 // cap on the head to head rate (default: 0.55)
	BTTSMin            float64 // (default: 0.15)
	BTTSMax            float64 // (default: 0.60)
	BTTSRankGapLarge   int     // (default: 7)
	BTTSRankGapMedium  int     // (default: 5)
	BTTSRankPenaltyL   float64 // (default: 0.25)
	BTTSRankPenaltyM   float64 // (default: 0.12)
	BTTSBonusHigh      float64 // bonus when both teams score at least BTTSScoringHigh (default: 0.08)
	BTTSBonusLow       float64 // bonus when both teams score at least BTTSScoringLow (default: 0.05)
	BTTSScoringHigh    float64 // (default: 1.5)
	BTTSScoringLow     float64 // (default: 1.2)
	BTTSCleanSheetHigh int     // (default: 4)
	BTTSCleanSheetLow  int     // (default: 2)

	BTTSCleanSheetPenaltyH    float64 // per team with BTTSCleanSheetHigh clean sheets (default: 0.18)
	BTTSCleanSheetPenaltyL    float64 // (default: 0.08)
	BTTSFailedToScoreHigh     int     // (default: 4)
	BTTSFailedToScoreLow      int     // (default: 2)
	BTTSFailedToScorePenaltyH float64 // (default: 0.15)
	BTTSFailedToScorePenaltyL float64 // (default: 0.06)
	BTTSConcededTight         float64 // conceded average below which a defence is tight (default: 0.7)
	BTTSConcededLow           float64 // (default: 1.0)
	BTTSConcededPenaltyH      float64 // (default: 0.20)
	BTTSConcededPenaltyL      float64 // (default: 0.10)

	// === EXACT SCORE ===
	ScoreGridMax    int     // goals 0..N on each axis (default: 6)
	DixonColesRho   float64 // low score correlation (default: -0.03, range: -0.1 to 0)
	FavouriteBoost  float64 // favourite lambda multiplier per unit of gap (default: 0.15)
	UnderdogCut     float64 // underdog lambda reduction per unit of gap (default: 0.10)
	DrawPenaltyGap  float64 // favourite gap from which draw cells are penalised (default: 0.20)
	DrawCellPenalty float64 // multiplier for draw cells past the gap (default: 0.75)

	// === CONFIDENCE ===
	HighConfidenceProb    float64 // (default: 0.55)
	HighConfidenceH2H     int     // (default: 5)
	MediumConfidenceProb  float64 // (default: 0.50)
	MediumConfidenceGap   float64 // margin over the second outcome (default: 0.10)
	PartialConfidenceProb float64 // (default: 0.45)
	PartialH2H            int     // head to head meetings counting as corroboration (default: 3)
}

// DefaultEngineConfig returns the default configuration with all standard values
func DefaultEngineConfig() *EngineConfig {
	return &EngineConfig{
		// === RESULT PROBABILITIES ===
		BaseHome:   0.40,
		BaseDraw:   0.25,
		BaseAway:   0.35,
		ScoreScale: 0.35,

		// === FORM ===
		FormWeights: []float64{1.5, 1.3, 1.1, 0.9, 0.7},
		FormWin:     3,
		FormDraw:    1,

		// === STANDINGS ===
		RankSpan:      20,
		PointsSpan:    50,
		RankShare:     0.6,
		InjuryPenalty: 0.03,

		// === EXPECTED GOALS ===
		H2HBlendMinMatches: 3,
		H2HBlendWeight:     0.3,
		GoalsCapMargin:     1.0,
		MinTeamGoals:       0.2,

		// === OVER/UNDER ===
		OverUnderBase:  0.48,
		OverUnderSlope: 0.18,
		OverUnderMin:   0.20,
		OverUnderMax:   0.80,

		// === BTTS ===
		BTTSBase:           0.35,
		BTTSH2HMinMatches:  5,
		BTTSH2HCap:         0.55,
		BTTSMin:            0.15,
		BTTSMax:            0.60,
		BTTSRankGapLarge:   7,
		BTTSRankGapMedium:  5,
		BTTSRankPenaltyL:   0.25,
		BTTSRankPenaltyM:   0.12,
		BTTSBonusHigh:      0.08,
		BTTSBonusLow:       0.05,
		BTTSScoringHigh:    1.5,
		BTTSScoringLow:     1.2,
		BTTSCleanSheetHigh: 4,
		BTTSCleanSheetLow:  2,

		BTTSCleanSheetPenaltyH:    0.18,
		BTTSCleanSheetPenaltyL:    0.08,
		BTTSFailedToScoreHigh:     4,
		BTTSFailedToScoreLow:      2,
		BTTSFailedToScorePenaltyH: 0.15,
		BTTSFailedToScorePenaltyL: 0.06,
		BTTSConcededTight:         0.7,
		BTTSConcededLow:           1.0,
		BTTSConcededPenaltyH:      0.20,
		BTTSConcededPenaltyL:      0.10,

		// === EXACT SCORE ===
		ScoreGridMax:    6,
		DixonColesRho:   -0.03,
		FavouriteBoost:  0.15,
		UnderdogCut:     0.10,
		DrawPenaltyGap:  0.20,
		DrawCellPenalty: 0.75,

		// === CONFIDENCE ===
		HighConfidenceProb:    0.55,
		HighConfidenceH2H:     5,
		MediumConfidenceProb:  0.50,
		MediumConfidenceGap:   0.10,
		PartialConfidenceProb: 0.45,
		PartialH2H:            3,
	}
}

// === CONFIGURATION VALIDATION ===

// ValidateEngineConfig ensures all configuration values are within reasonable ranges
func ValidateEngineConfig(c *EngineConfig) error {
	base := c.BaseHome + c.BaseDraw + c.BaseAway
	if base < 0.999 || base > 1.001 {
		return fmt.Errorf("base rates must sum to 1, got: %f", base)
	}
	if len(c.FormWeights) == 0 {
		return fmt.Errorf("FormWeights must not be empty")
	}
	if c.FormWin <= 0 {
		return fmt.Errorf("FormWin must be positive, got: %f", c.FormWin)
	}
	if c.ScoreGridMax < 3 {
		return fmt.Errorf("ScoreGridMax should be at least 3 to capture realistic scores, got: %d", c.ScoreGridMax)
	}
	if c.DixonColesRho > 0 || c.DixonColesRho < -0.1 {
		return fmt.Errorf("DixonColesRho should be between -0.1 and 0, got: %f", c.DixonColesRho)
	}
	if c.UnderdogCut < 0 || c.UnderdogCut >= 1 {
		return fmt.Errorf("UnderdogCut should be between 0 and 1, got: %f", c.UnderdogCut)
	}
	if c.BTTSMin < 0 || c.BTTSMax > 1 || c.BTTSMin >= c.BTTSMax {
		return fmt.Errorf("BTTS bounds must satisfy 0 <= min < max <= 1, got: %f/%f", c.BTTSMin, c.BTTSMax)
	}
	if c.OverUnderMin < 0 || c.OverUnderMax > 1 || c.OverUnderMin >= c.OverUnderMax {
		return fmt.Errorf("over/under bounds must satisfy 0 <= min < max <= 1, got: %f/%f", c.OverUnderMin, c.OverUnderMax)
	}
	if c.BTTSConcededTight > c.BTTSConcededLow {
		return fmt.Errorf("BTTSConcededTight must not exceed BTTSConcededLow, got: %f/%f", c.BTTSConcededTight, c.BTTSConcededLow)
	}
	if c.H2HBlendWeight < 0 || c.H2HBlendWeight > 1 {
		return fmt.Errorf("H2HBlendWeight must be between 0 and 1, got: %f", c.H2HBlendWeight)
	}
	if c.RankSpan <= 0 || c.PointsSpan <= 0 {
		return fmt.Errorf("RankSpan and PointsSpan must be positive")
	}
	return nil
}

func (c *EngineConfig) maxFormScore() float64 {
	total := 0.0
	for _, w := range c.FormWeights {
		total += w * c.FormWin
	}
	return total
}
