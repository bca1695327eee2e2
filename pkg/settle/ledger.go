package settle

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/richard-senior/matchodds/internal/logger"
	"github.com/richard-senior/matchodds/pkg/elo"
	"github.com/richard-senior/matchodds/pkg/store"
	"github.com/richard-senior/matchodds/pkg/tickets"
)

// DayLayout formats ledger days
const DayLayout = "2006-01-02"

// TicketRecord is the persisted form of a TicketResult
type TicketRecord struct {
	store.NoHooks
	TicketID  string    `json:"ticketId" column:"ticket_id" dbtype:"TEXT NOT NULL" primary:"true"`
	Day       string    `json:"day" column:"day" dbtype:"TEXT NOT NULL" index:"true"`
	Tier      string    `json:"tier" column:"tier" dbtype:"TEXT"`
	Stake     float64   `json:"stake" column:"stake" dbtype:"DOUBLE PRECISION"`
	TotalOdds float64   `json:"totalOdds" column:"total_odds" dbtype:"DOUBLE PRECISION"`
	Status    Status    `json:"status" column:"status" dbtype:"TEXT NOT NULL" index:"true"`
	Profit    float64   `json:"profit" column:"profit" dbtype:"DOUBLE PRECISION"`
	Payload   string    `json:"-" column:"payload" dbtype:"TEXT"`
	SettledAt time.Time `json:"settledAt" column:"settled_at" dbtype:"TIMESTAMP"`
}

func (r *TicketRecord) GetTableName() string {
	return "ticket_results"
}

func (r *TicketRecord) GetPrimaryKey() map[string]any {
	return map[string]any{"ticket_id": r.TicketID}
}

// Result decodes the stored ticket result
func (r *TicketRecord) Result() (TicketResult, error) {
	var tr TicketResult
	if err := json.Unmarshal([]byte(r.Payload), &tr); err != nil {
		return tr, fmt.Errorf("failed to decode ticket %s: %w", r.TicketID, err)
	}
	return tr, nil
}

// RatingUpdater applies a settled fixture to team ratings
type RatingUpdater interface {
	UpdateAfterMatch(ctx context.Context, m elo.MatchResult) (elo.Update, error)
}

// Ledger settles tickets, feeds final scores to the rating store and keeps the results
type Ledger struct {
	db      *store.DB
	ratings RatingUpdater
	Now     func() time.Time
}

// NewLedger prepares the results table. ratings may be nil.
func NewLedger(ctx context.Context, db *store.DB, ratings RatingUpdater) (*Ledger, error) {
	if err := db.CreateTable(ctx, &TicketRecord{}); err != nil {
		return nil, fmt.Errorf("failed to prepare ticket ledger: %w", err)
	}
	return &Ledger{db: db, ratings: ratings, Now: func() time.Time { return time.Now().UTC() }}, nil
}

// ApplyResult feeds a finished fixture to the rating store. Unfinished fixtures and fixtures
// without team ids are ignored. Replays are harmless because the store keys on match id.
func (l *Ledger) ApplyResult(ctx context.Context, r FixtureResult) (*elo.Update, error) {
	if l.ratings == nil || !r.Finished() || r.HomeID <= 0 || r.AwayID <= 0 {
		return nil, nil
	}
	u, err := l.ratings.UpdateAfterMatch(ctx, elo.MatchResult{
		MatchID:   r.MatchID,
		LeagueID:  r.LeagueID,
		HomeID:    r.HomeID,
		AwayID:    r.AwayID,
		HomeName:  r.HomeName,
		AwayName:  r.AwayName,
		HomeGoals: r.HomeGoals,
		AwayGoals: r.AwayGoals,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to apply result %s: %w", r.MatchID, err)
	}
	return &u, nil
}

// Settle grades a ticket, applies the finished fixtures to the ratings and records the
// outcome. Settling the same ticket again overwrites the previous record.
func (l *Ledger) Settle(ctx context.Context, t tickets.Ticket, day string, results []FixtureResult, stake float64) (TicketResult, error) {
	if _, err := time.Parse(DayLayout, day); err != nil {
		return TicketResult{}, fmt.Errorf("invalid day %q: %w", day, err)
	}
	if stake <= 0 {
		return TicketResult{}, fmt.Errorf("stake must be positive, got %f", stake)
	}

	byMatch := make(map[string]FixtureResult, len(results))
	for _, r := range results {
		byMatch[r.MatchID] = r
	}
	tr := SettleTicket(t, day, byMatch, stake)

	for _, leg := range t.Legs {
		r, ok := byMatch[leg.MatchID]
		if !ok {
			continue
		}
		if _, err := l.ApplyResult(ctx, r); err != nil {
			logger.Warn("Rating update failed", r.MatchID, err)
		}
	}

	if err := l.Record(ctx, tr); err != nil {
		return tr, err
	}
	logger.Info("Settled ticket", tr.TicketID, string(tr.Status), tr.Profit)
	return tr, nil
}

// Record stores a ticket result
func (l *Ledger) Record(ctx context.Context, tr TicketResult) error {
	payload, err := json.Marshal(tr)
	if err != nil {
		return fmt.Errorf("failed to encode ticket %s: %w", tr.TicketID, err)
	}
	rec := &TicketRecord{
		TicketID:  tr.TicketID,
		Day:       tr.Day,
		Tier:      string(tr.Tier),
		Stake:     tr.Stake,
		TotalOdds: tr.TotalOdds,
		Status:    tr.Status,
		Profit:    tr.Profit,
		Payload:   string(payload),
		SettledAt: l.Now(),
	}
	if err := l.db.Save(ctx, rec); err != nil {
		return fmt.Errorf("failed to record ticket %s: %w", tr.TicketID, err)
	}
	return nil
}

// Results returns the recorded tickets of a day in ticket id order
func (l *Ledger) Results(ctx context.Context, day string) ([]TicketResult, error) {
	return l.resultsWhere(ctx, "day = ? ORDER BY ticket_id", day)
}

func (l *Ledger) resultsWhere(ctx context.Context, where string, args ...any) ([]TicketResult, error) {
	recs, err := store.FindWhere[TicketRecord](ctx, l.db, where, args...)
	if err != nil {
		return nil, err
	}
	out := make([]TicketResult, 0, len(recs))
	for _, rec := range recs {
		tr, err := rec.Result()
		if err != nil {
			return nil, err
		}
		out = append(out, tr)
	}
	return out, nil
}

// DailyStats summarises the tickets recorded for a day
func (l *Ledger) DailyStats(ctx context.Context, day string) (DailyStats, error) {
	results, err := l.Results(ctx, day)
	if err != nil {
		return DailyStats{}, err
	}
	return Summarise(day, results), nil
}

// RangeStats summarises the last days up to and including the given day
func (l *Ledger) RangeStats(ctx context.Context, to string, days int) (DailyStats, error) {
	end, err := time.Parse(DayLayout, to)
	if err != nil {
		return DailyStats{}, fmt.Errorf("invalid day %q: %w", to, err)
	}
	if days < 1 {
		days = 1
	}
	from := end.AddDate(0, 0, -(days - 1)).Format(DayLayout)
	results, err := l.resultsWhere(ctx, "day >= ? AND day <= ? ORDER BY day, ticket_id", from, to)
	if err != nil {
		return DailyStats{}, err
	}
	return Summarise(from+".."+to, results), nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
