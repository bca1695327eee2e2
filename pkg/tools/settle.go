package tools

import (
	"context"

	"github.com/richard-senior/matchodds/internal/logger"
	"github.com/richard-senior/matchodds/pkg/protocol"
	"github.com/richard-senior/matchodds/pkg/settle"
	"github.com/richard-senior/matchodds/pkg/tickets"
)

func SettleTicketTool() protocol.Tool {
	return protocol.Tool{
		Name: "settle_ticket",
		Description: `
		Grades a ticket against final scores and records it. Each leg is won, lost, void (postponed or abandoned)
		or pending (not played yet). Finished results also update the teams' Elo ratings, once per match id.
		`,
		InputSchema: protocol.InputSchema{
			Type: "object",
			Properties: map[string]protocol.ToolProperty{
				"ticket": {Type: "object", Description: "A ticket returned by assemble_tickets"},
				"results": {
					Type:        "array",
					Description: "Results {matchId, leagueId, homeId, awayId, homeName, awayName, homeGoals, awayGoals, status} where status is FT, AET, PEN, PST, CANC... Empty status means finished.",
					Items:       &protocol.ToolProperty{Type: "object"},
				},
				"day":   {Type: "string", Description: "Ledger day as yyyy-mm-dd, default today"},
				"stake": {Type: "number", Description: "Stake placed on the ticket, default 1"},
			},
			Required: []string{"ticket", "results"},
		},
	}
}

func (s *Service) today() string {
	return s.Now().UTC().Format(settle.DayLayout)
}

func (s *Service) HandleSettleTicket(ctx context.Context, params any) (any, error) {
	logger.Info("Handling settle_ticket tool invocation")
	ledger, err := s.ledger()
	if err != nil {
		return nil, err
	}
	var args struct {
		Ticket  tickets.Ticket         `json:"ticket"`
		Results []settle.FixtureResult `json:"results"`
		Day     string                 `json:"day"`
		Stake   float64                `json:"stake"`
	}
	if err := decodeArgs(params, &args); err != nil {
		return nil, err
	}
	if args.Ticket.ID == "" || len(args.Ticket.Legs) == 0 {
		return nil, invalid("ticket with id and legs is required")
	}
	if args.Day == "" {
		args.Day = s.today()
	}
	if args.Stake == 0 {
		args.Stake = 1
	}
	tr, err := ledger.Settle(ctx, args.Ticket, args.Day, args.Results, args.Stake)
	if err != nil {
		return nil, invalid("%v", err)
	}
	return tr, nil
}

func TicketStatsTool() protocol.Tool {
	return protocol.Tool{
		Name:        "ticket_stats",
		Description: "Pick win rate, ticket win rate, stake, profit and ROI of the tickets settled over the last days",
		InputSchema: protocol.InputSchema{
			Type: "object",
			Properties: map[string]protocol.ToolProperty{
				"day":  {Type: "string", Description: "Last day of the range as yyyy-mm-dd, default today"},
				"days": {Type: "integer", Description: "Number of days in the range, default 1"},
			},
			Required: []string{},
		},
	}
}

func (s *Service) HandleTicketStats(ctx context.Context, params any) (any, error) {
	logger.Info("Handling ticket_stats tool invocation")
	ledger, err := s.ledger()
	if err != nil {
		return nil, err
	}
	var args struct {
		Day  string `json:"day"`
		Days int    `json:"days"`
	}
	if err := decodeArgs(params, &args); err != nil {
		return nil, err
	}
	if args.Day == "" {
		args.Day = s.today()
	}
	if args.Days <= 1 {
		return ledger.DailyStats(ctx, args.Day)
	}
	return ledger.RangeStats(ctx, args.Day, args.Days)
}
