package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/richard-senior/matchodds/pkg/elo"
	"github.com/richard-senior/matchodds/pkg/engine"
	"github.com/richard-senior/matchodds/pkg/enrich"
	"github.com/richard-senior/matchodds/pkg/league"
	"github.com/richard-senior/matchodds/pkg/protocol"
	"github.com/richard-senior/matchodds/pkg/settle"
)

// ErrInvalidArgs marks a tool call whose arguments could not be used
var ErrInvalidArgs = errors.New("invalid arguments")

// Handler executes a tool call with the decoded "arguments" object
type Handler func(ctx context.Context, params any) (any, error)

// Registration pairs a tool description with its handler
type Registration struct {
	Tool    protocol.Tool
	Handler Handler
}

// Service holds the components the tools operate on. Ratings and Ledger may be nil,
// in which case the tools that need them report an error.
type Service struct {
	Leagues  *league.Table
	Engine   *engine.Engine
	Ratings  *elo.Store
	Resolver *elo.StrengthResolver
	Enricher *enrich.Enricher
	Ledger   *settle.Ledger
	Now      func() time.Time
}

// NewService wires the engine and resolver around the given league table and rating store
func NewService(leagues *league.Table, cfg *engine.EngineConfig, ratings *elo.Store, strengths *league.StrengthTable, provider enrich.Provider, ledger *settle.Ledger) *Service {
	if leagues == nil {
		leagues = league.Default()
	}
	var lookup elo.RatingLookup
	if ratings != nil {
		lookup = ratings
	}
	resolver := elo.NewStrengthResolver(lookup, strengths)
	return &Service{
		Leagues:  leagues,
		Engine:   engine.New(leagues, cfg),
		Ratings:  ratings,
		Resolver: resolver,
		Enricher: enrich.NewEnricher(provider, resolver),
		Ledger:   ledger,
		Now:      time.Now,
	}
}

// Registrations lists every tool the service offers
func (s *Service) Registrations() []Registration {
	return []Registration{
		{PredictMatchTool(), s.HandlePredictMatch},
		{AssembleTicketsTool(), s.HandleAssembleTickets},
		{EloRatingTool(), s.HandleEloRating},
		{EloInitializeLeagueTool(), s.HandleEloInitializeLeague},
		{EloUpdateTool(), s.HandleEloUpdate},
		{EloRankingsTool(), s.HandleEloRankings},
		{LeagueProfileTool(), s.HandleLeagueProfile},
		{SettleTicketTool(), s.HandleSettleTicket},
		{TicketStatsTool(), s.HandleTicketStats},
		{RenderReportTool(), s.HandleRenderReport},
		{DateTimeTool(), s.HandleDateTimeTool},
	}
}

// decodeArgs converts the generic arguments map into a typed struct
func decodeArgs(params any, v any) error {
	if params == nil {
		params = map[string]any{}
	}
	paramsBytes, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArgs, err)
	}
	if err := json.Unmarshal(paramsBytes, v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArgs, err)
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgs, fmt.Sprintf(format, args...))
}

func (s *Service) ratings() (*elo.Store, error) {
	if s.Ratings == nil {
		return nil, errors.New("rating store is not configured")
	}
	return s.Ratings, nil
}

func (s *Service) ledger() (*settle.Ledger, error) {
	if s.Ledger == nil {
		return nil, errors.New("ticket ledger is not configured")
	}
	return s.Ledger, nil
}
