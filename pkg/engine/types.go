package engine

import (
	"strings"

	"github.com/richard-senior/matchodds/pkg/league"
)

// Motivation is what a team is playing for at this point of the season
type Motivation string

const (
	MotivationTitle      Motivation = "title"
	MotivationChampions  Motivation = "champions"
	MotivationEuropa     Motivation = "europa"
	MotivationConference Motivation = "conference"
	MotivationNormal     Motivation = "normal"
	MotivationRelegation Motivation = "relegation"
)

// Score is the pull of a motivation tag, relegation fights rank just below title races
func (m Motivation) Score() float64 {
	switch Motivation(strings.ToLower(string(m))) {
	case MotivationTitle:
		return 1.0
	case MotivationRelegation:
		return 0.9
	case MotivationChampions, "champions_league":
		return 0.8
	case MotivationEuropa:
		return 0.6
	case MotivationConference:
		return 0.4
	default:
		return 0.2
	}
}

// TeamSignal is everything known about one side of a fixture. Zero values mean unknown.
type TeamSignal struct {
	TeamID           int        `json:"teamId"`
	Name             string     `json:"name"`
	RecentForm       string     `json:"recentForm,omitempty"` // W/D/L most recent first, e.g. "WWDLW"
	LeaguePosition   int        `json:"leaguePosition,omitempty"`
	LeaguePoints     int        `json:"leaguePoints,omitempty"`
	GoalsScoredAvg   float64    `json:"goalsScoredAvg,omitempty"`
	GoalsConcededAvg float64    `json:"goalsConcededAvg,omitempty"`
	CleanSheets      int        `json:"cleanSheets,omitempty"`
	FailedToScore    int        `json:"failedToScore,omitempty"`
	Injuries         []string   `json:"injuries,omitempty"`
	Suspensions      []string   `json:"suspensions,omitempty"`
	Motivation       Motivation `json:"motivation,omitempty"`
	AvgCorners       float64    `json:"avgCorners,omitempty"`
	AvgYellowCards   float64    `json:"avgYellowCards,omitempty"`
	AvgRedCards      float64    `json:"avgRedCards,omitempty"`
	// Strength on the 40..100 scale, zero when no rating or table entry exists
	Strength int `json:"strength,omitempty"`
}

// form returns the usable W/D/L characters, most recent first, capped at max
func (t TeamSignal) form(max int) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(t.RecentForm) {
		if b.Len() >= max {
			break
		}
		switch r {
		case 'W', 'D', 'L':
			b.WriteRune(r)
		}
	}
	return b.String()
}

// absentees counts injured and suspended players
func (t TeamSignal) absentees() int {
	return len(t.Injuries) + len(t.Suspensions)
}

// HeadToHead summarises previous meetings from the home side's point of view
type HeadToHead struct {
	Total     int     `json:"total"`
	HomeWins  int     `json:"homeWins"`
	Draws     int     `json:"draws"`
	AwayWins  int     `json:"awayWins"`
	AvgGoals  float64 `json:"avgGoals"`
	BTTSRatio float64 `json:"bttsRatio"` // share of meetings where both scored, 0..1
	// BTTSPercent is the same share on a 0..100 scale, read only when BTTSRatio is not positive
	BTTSPercent float64 `json:"bttsPct,omitempty"`
}

// Odds are decimal bookmaker prices for the result market, zero when unknown
type Odds struct {
	Home float64 `json:"home"`
	Draw float64 `json:"draw"`
	Away float64 `json:"away"`
}

func (o Odds) valid() bool {
	return o.Home > 1 && o.Draw > 1 && o.Away > 1
}

// MatchInput is one fixture to predict
type MatchInput struct {
	MatchID  string     `json:"matchId"`
	LeagueID int        `json:"leagueId"`
	Kickoff  string     `json:"kickoff,omitempty"`
	Home     TeamSignal `json:"home"`
	Away     TeamSignal `json:"away"`
	H2H      HeadToHead `json:"h2h"`
	Odds     *Odds      `json:"odds,omitempty"`
	Weather  *Weather   `json:"weather,omitempty"`
	// Profile overrides the league table lookup when set
	Profile *league.Profile `json:"-"`
}

// Outcome of the result market
type Outcome string

const (
	OutcomeHome Outcome = "home"
	OutcomeDraw Outcome = "draw"
	OutcomeAway Outcome = "away"
)

// GoalsVerdict is the call on an over/under line
type GoalsVerdict string

const (
	GoalsOver  GoalsVerdict = "over"
	GoalsUnder GoalsVerdict = "under"
	GoalsNone  GoalsVerdict = "none"
)

// BTTSVerdict is the call on both teams to score
type BTTSVerdict string

const (
	BTTSYes  BTTSVerdict = "yes"
	BTTSNo   BTTSVerdict = "no"
	BTTSNone BTTSVerdict = "none"
)

// Confidence tier of a prediction
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// Rank orders tiers, low < medium < high
func (c Confidence) Rank() int {
	switch c {
	case ConfidenceHigh:
		return 3
	case ConfidenceMedium:
		return 2
	default:
		return 1
	}
}

// BetType is a market selection that can go on a ticket
type BetType string

const (
	BetHome       BetType = "1"
	BetDraw       BetType = "X"
	BetAway       BetType = "2"
	BetHomeOrDraw BetType = "1X"
	BetDrawOrAway BetType = "X2"
	BetHomeOrAway BetType = "12"
	BetOver15     BetType = "O1.5"
	BetOver25     BetType = "O2.5"
	BetOver35     BetType = "O3.5"
	BetUnder15    BetType = "U1.5"
	BetUnder25    BetType = "U2.5"
	BetUnder35    BetType = "U3.5"
	BetBTTSYes    BetType = "BTTS_YES"
	BetBTTSNo     BetType = "BTTS_NO"
)

// AllBetTypes lists every selection in a fixed order
var AllBetTypes = []BetType{
	BetHome, BetDraw, BetAway, BetHomeOrDraw, BetDrawOrAway, BetHomeOrAway,
	BetOver15, BetOver25, BetOver35, BetUnder15, BetUnder25, BetUnder35,
	BetBTTSYes, BetBTTSNo,
}

// ParseBetType accepts the canonical names case insensitively
func ParseBetType(s string) (BetType, bool) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for _, bt := range AllBetTypes {
		if string(bt) == s {
			return bt, true
		}
	}
	return "", false
}

// OverUnderLine is one goals line with its probabilities and verdict
type OverUnderLine struct {
	Line    float64      `json:"line"`
	Over    float64      `json:"over"`
	Under   float64      `json:"under"`
	Verdict GoalsVerdict `json:"verdict"`
}

// CornerLine is the probability of more corners than Line
type CornerLine struct {
	Line float64 `json:"line"`
	Over float64 `json:"over"`
}

// Factors is the breakdown behind the weighted score, kept for explanation
type Factors struct {
	Form          float64 `json:"form"`
	Standings     float64 `json:"standings"`
	H2H           float64 `json:"h2h"`
	HomeAdvantage float64 `json:"homeAdvantage"`
	Strength      float64 `json:"strength"`
	OddsImplied   float64 `json:"oddsImplied"`
	Motivation    float64 `json:"motivation"`
	Injuries      float64 `json:"injuries"`
	// Used lists the factors that had data and contributed
	Used  []string `json:"used"`
	Score float64  `json:"score"`
}

// Pick is a single selection derived from a prediction
type Pick struct {
	BetType      BetType `json:"betType"`
	Probability  float64 `json:"probability"`
	OddsEstimate float64 `json:"oddsEstimate"`
	Preferred    bool    `json:"preferred"`
}

// Prediction is the engine's output for one fixture. It is never mutated after Predict returns.
type Prediction struct {
	MatchID    string `json:"matchId"`
	LeagueID   int    `json:"leagueId"`
	LeagueName string `json:"leagueName"`
	Priority   int    `json:"priority"`
	HomeTeam   string `json:"homeTeam"`
	AwayTeam   string `json:"awayTeam"`
	Kickoff    string `json:"kickoff,omitempty"`

	HomeProb float64 `json:"homeProb"`
	DrawProb float64 `json:"drawProb"`
	AwayProb float64 `json:"awayProb"`
	Outcome  Outcome `json:"outcome"`

	ExpectedGoalsHome  float64         `json:"expectedGoalsHome"`
	ExpectedGoalsAway  float64         `json:"expectedGoalsAway"`
	ExpectedGoalsTotal float64         `json:"expectedGoalsTotal"`
	OverUnder          []OverUnderLine `json:"overUnder"`

	BTTSProb    float64     `json:"bttsProb"`
	BTTSVerdict BTTSVerdict `json:"bttsVerdict"`

	ExactScore     string  `json:"exactScore"`
	ExactScoreProb float64 `json:"exactScoreProb"`
	GridHomeProb   float64 `json:"gridHomeProb"`
	GridDrawProb   float64 `json:"gridDrawProb"`
	GridAwayProb   float64 `json:"gridAwayProb"`

	CornersExpected float64      `json:"cornersExpected"`
	Corners         []CornerLine `json:"corners"`
	CardsExpected   float64      `json:"cardsExpected"`
	CardsOver35     float64      `json:"cardsOver35"`
	CardsOver45     float64      `json:"cardsOver45"`

	Confidence Confidence `json:"confidence"`
	Factors    Factors    `json:"factors"`
	Picks      []Pick     `json:"picks"`
	Reasoning  []string   `json:"reasoning"`
}

// Line returns the over/under entry for a goals line
func (p Prediction) Line(line float64) (OverUnderLine, bool) {
	for _, l := range p.OverUnder {
		if l.Line == line {
			return l, true
		}
	}
	return OverUnderLine{}, false
}

// PreferredPick returns the engine's headline selection
func (p Prediction) PreferredPick() (Pick, bool) {
	for _, pk := range p.Picks {
		if pk.Preferred {
			return pk, true
		}
	}
	return Pick{}, false
}
