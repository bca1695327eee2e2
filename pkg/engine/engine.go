package engine

import (
	"runtime"
	"sync"

	"github.com/richard-senior/matchodds/internal/logger"
	"github.com/richard-senior/matchodds/pkg/league"
)

// Engine turns fixtures into predictions. It holds no mutable state and is safe for
// concurrent use.
type Engine struct {
	leagues *league.Table
	cfg     *EngineConfig
}

// New accepts nil arguments, falling back to the embedded league table and default config
func New(leagues *league.Table, cfg *EngineConfig) *Engine {
	if leagues == nil {
		leagues = league.Default()
	}
	if cfg == nil {
		cfg = DefaultEngineConfig()
	}
	return &Engine{leagues: leagues, cfg: cfg}
}

// Leagues returns the table the engine resolves profiles from
func (e *Engine) Leagues() *league.Table {
	return e.leagues
}

// Predict never fails. Missing inputs fall back to league baselines and lower the confidence.
func (e *Engine) Predict(in MatchInput) Prediction {
	p := e.profileFor(in)
	c := e.cfg

	pred := Prediction{
		MatchID:    in.MatchID,
		LeagueID:   in.LeagueID,
		LeagueName: p.Name,
		Priority:   e.leagues.Priority(in.LeagueID),
		HomeTeam:   in.Home.Name,
		AwayTeam:   in.Away.Name,
		Kickoff:    in.Kickoff,
	}

	pred.Factors = c.weigh(in, p)
	pred.HomeProb, pred.DrawProb, pred.AwayProb = c.resultProbabilities(pred.Factors.Score, p)
	pred.Outcome = outcomeOf(pred.HomeProb, pred.DrawProb, pred.AwayProb)

	xgHome, xgAway := c.expectedGoals(in, p)
	pred.ExpectedGoalsHome = round(xgHome, 2)
	pred.ExpectedGoalsAway = round(xgAway, 2)
	pred.ExpectedGoalsTotal = round(xgHome+xgAway, 2)
	pred.OverUnder = c.overUnder(xgHome+xgAway, p)

	pred.BTTSProb = c.bttsProbability(in)
	pred.BTTSVerdict = bttsVerdict(pred.BTTSProb, p)

	score := c.predictScore(xgHome, xgAway, pred.HomeProb, pred.AwayProb)
	pred.ExactScore = score.String()
	pred.ExactScoreProb = round(score.prob, 4)
	pred.GridHomeProb, pred.GridDrawProb, pred.GridAwayProb = score.grid.outcomeProbabilities()

	pred.CornersExpected, pred.Corners = corners(in, p)
	pred.CardsExpected, pred.CardsOver35, pred.CardsOver45 = cards(in, p)

	pred.Confidence = c.confidence(in, pred.HomeProb, pred.DrawProb, pred.AwayProb)
	pred.Picks = picks(&pred, p)
	pred.Reasoning = reasoning(in, &pred)

	logger.Debug("Predicted", in.MatchID, pred.HomeTeam, pred.AwayTeam, pred.ExactScore, string(pred.Confidence))
	return pred
}

func (e *Engine) profileFor(in MatchInput) league.Profile {
	if in.Profile != nil {
		return *in.Profile
	}
	return e.leagues.Profile(in.LeagueID)
}

// PredictAll predicts every fixture concurrently. Results keep the input order.
func (e *Engine) PredictAll(inputs []MatchInput) []Prediction {
	out := make([]Prediction, len(inputs))
	if len(inputs) == 0 {
		return out
	}
	workers := runtime.NumCPU()
	if workers > len(inputs) {
		workers = len(inputs)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				out[i] = e.Predict(inputs[i])
			}
		}()
	}
	for i := range inputs {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	return out
}
