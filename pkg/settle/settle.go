// Package settle grades tickets against final scores and keeps the betting ledger
package settle

import (
	"strings"

	"github.com/richard-senior/matchodds/pkg/engine"
	"github.com/richard-senior/matchodds/pkg/tickets"
)

// Status is the outcome of a leg or a ticket
type Status string

const (
	StatusPending Status = "pending"
	StatusWon     Status = "won"
	StatusLost    Status = "lost"
	StatusVoid    Status = "void"
)

// FixtureResult is a fixture as reported by the results provider. Status uses the
// API-Football short codes (FT, AET, PEN, PST, CANC, ABD...).
type FixtureResult struct {
	MatchID   string `json:"matchId"`
	LeagueID  int    `json:"leagueId"`
	HomeID    int    `json:"homeId"`
	AwayID    int    `json:"awayId"`
	HomeName  string `json:"homeName,omitempty"`
	AwayName  string `json:"awayName,omitempty"`
	HomeGoals int    `json:"homeGoals"`
	AwayGoals int    `json:"awayGoals"`
	Status    string `json:"status"`
}

// Finished reports whether the score is final. An empty status is taken as full time.
func (r FixtureResult) Finished() bool {
	switch strings.ToUpper(r.Status) {
	case "", "FT", "AET", "PEN":
		return true
	}
	return false
}

// Voided reports fixtures that will not be completed
func (r FixtureResult) Voided() bool {
	switch strings.ToUpper(r.Status) {
	case "PST", "CANC", "ABD", "AWD", "WO":
		return true
	}
	return false
}

// EvaluateBet grades a bet type against a final score. Unknown bet types are void.
func EvaluateBet(bt engine.BetType, homeGoals, awayGoals int) Status {
	total := homeGoals + awayGoals
	both := homeGoals > 0 && awayGoals > 0

	var won bool
	switch bt {
	case engine.BetHome:
		won = homeGoals > awayGoals
	case engine.BetDraw:
		won = homeGoals == awayGoals
	case engine.BetAway:
		won = awayGoals > homeGoals
	case engine.BetHomeOrDraw:
		won = homeGoals >= awayGoals
	case engine.BetDrawOrAway:
		won = awayGoals >= homeGoals
	case engine.BetHomeOrAway:
		won = homeGoals != awayGoals
	case engine.BetOver15:
		won = total >= 2
	case engine.BetOver25:
		won = total >= 3
	case engine.BetOver35:
		won = total >= 4
	case engine.BetUnder15:
		won = total < 2
	case engine.BetUnder25:
		won = total < 3
	case engine.BetUnder35:
		won = total < 4
	case engine.BetBTTSYes:
		won = both
	case engine.BetBTTSNo:
		won = !both
	default:
		return StatusVoid
	}
	if won {
		return StatusWon
	}
	return StatusLost
}

// LegResult is a ticket leg with its grade
type LegResult struct {
	tickets.Leg
	HomeGoals *int   `json:"homeGoals,omitempty"`
	AwayGoals *int   `json:"awayGoals,omitempty"`
	Status    Status `json:"status"`
}

// TicketResult is a settled, or partly settled, ticket
type TicketResult struct {
	TicketID  string       `json:"ticketId"`
	Tier      tickets.Tier `json:"tier"`
	Day       string       `json:"day"`
	TotalOdds float64      `json:"totalOdds"`
	Stake     float64      `json:"stake"`
	Legs      []LegResult  `json:"legs"`
	Status    Status       `json:"status"`
	Won       int          `json:"won"`
	Lost      int          `json:"lost"`
	Profit    float64      `json:"profit"`
}

// SettleTicket grades every leg with the results available. A leg without a final result
// stays pending.
func SettleTicket(t tickets.Ticket, day string, results map[string]FixtureResult, stake float64) TicketResult {
	tr := TicketResult{
		TicketID:  t.ID,
		Tier:      t.Tier,
		Day:       day,
		TotalOdds: t.TotalOdds,
		Stake:     stake,
		Legs:      make([]LegResult, 0, len(t.Legs)),
	}
	for _, leg := range t.Legs {
		lr := LegResult{Leg: leg, Status: StatusPending}
		if res, ok := results[leg.MatchID]; ok {
			switch {
			case res.Voided():
				lr.Status = StatusVoid
			case res.Finished():
				hg, ag := res.HomeGoals, res.AwayGoals
				lr.HomeGoals, lr.AwayGoals = &hg, &ag
				lr.Status = EvaluateBet(leg.BetType, hg, ag)
			}
		}
		switch lr.Status {
		case StatusWon:
			tr.Won++
		case StatusLost:
			tr.Lost++
		}
		tr.Legs = append(tr.Legs, lr)
	}
	tr.Status = ticketStatus(tr.Legs)
	tr.Profit = profit(tr.Status, stake, t.TotalOdds)
	return tr
}

// ticketStatus: pending while any leg is, won only when every leg won, lost on any lost
// leg, otherwise void
func ticketStatus(legs []LegResult) Status {
	allWon := len(legs) > 0
	anyLost := false
	for _, l := range legs {
		switch l.Status {
		case StatusPending:
			return StatusPending
		case StatusLost:
			anyLost = true
		}
		if l.Status != StatusWon {
			allWon = false
		}
	}
	switch {
	case allWon:
		return StatusWon
	case anyLost:
		return StatusLost
	}
	return StatusVoid
}

func profit(status Status, stake, odds float64) float64 {
	switch status {
	case StatusWon:
		return stake*odds - stake
	case StatusLost:
		return -stake
	}
	return 0
}

// DailyStats summarises the tickets of one day, or of a range of days
type DailyStats struct {
	Day           string  `json:"day"`
	TotalPicks    int     `json:"totalPicks"`
	Won           int     `json:"won"`
	Lost          int     `json:"lost"`
	Void          int     `json:"void"`
	Pending       int     `json:"pending"`
	TotalTickets  int     `json:"totalTickets"`
	TicketsWon    int     `json:"ticketsWon"`
	TicketsLost   int     `json:"ticketsLost"`
	TotalStake    float64 `json:"totalStake"`
	TotalProfit   float64 `json:"totalProfit"`
	WinRate       float64 `json:"winRate"`       // percentage of decided picks
	TicketWinRate float64 `json:"ticketWinRate"` // percentage of decided tickets
	ROI           float64 `json:"roi"`           // percentage of stake
}

// Summarise rolls ticket results up into daily statistics
func Summarise(day string, results []TicketResult) DailyStats {
	s := DailyStats{Day: day}
	for _, tr := range results {
		s.TotalTickets++
		s.TotalStake += tr.Stake
		switch tr.Status {
		case StatusWon:
			s.TicketsWon++
			s.TotalProfit += tr.Profit
		case StatusLost:
			s.TicketsLost++
			s.TotalProfit += tr.Profit
		}
		for _, l := range tr.Legs {
			s.TotalPicks++
			switch l.Status {
			case StatusWon:
				s.Won++
			case StatusLost:
				s.Lost++
			case StatusVoid:
				s.Void++
			default:
				s.Pending++
			}
		}
	}
	if decided := s.Won + s.Lost; decided > 0 {
		s.WinRate = round2(float64(s.Won) / float64(decided) * 100)
	}
	if decided := s.TicketsWon + s.TicketsLost; decided > 0 {
		s.TicketWinRate = round2(float64(s.TicketsWon) / float64(decided) * 100)
	}
	if s.TotalStake > 0 {
		s.ROI = round2(s.TotalProfit / s.TotalStake * 100)
	}
	s.TotalProfit = round2(s.TotalProfit)
	return s
}
