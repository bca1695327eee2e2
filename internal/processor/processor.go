// Package processor runs the batch pipeline: fixtures in, predictions and tickets out.
package processor

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/richard-senior/matchodds/internal/logger"
	"github.com/richard-senior/matchodds/pkg/engine"
	"github.com/richard-senior/matchodds/pkg/enrich"
	"github.com/richard-senior/matchodds/pkg/report"
	"github.com/richard-senior/matchodds/pkg/tickets"
)

// Output formats
const (
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
)

// Request is the batch input document
type Request struct {
	RequestID string              `json:"requestId,omitempty"`
	Title     string              `json:"title,omitempty"`
	Fixtures  []enrich.Fixture    `json:"fixtures"`
	Matches   []engine.MatchInput `json:"matches,omitempty"`
	Tiers     []string            `json:"tiers,omitempty"`
}

// Response is the batch output document
type Response struct {
	RequestID   string              `json:"requestId,omitempty"`
	Generated   time.Time           `json:"generated"`
	Predictions []engine.Prediction `json:"predictions"`
	Tickets     []tickets.Ticket    `json:"tickets"`
	Skipped     []string            `json:"skipped"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	RequestID string `json:"requestId,omitempty"`
	Error     struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Processor owns the pipeline components
type Processor struct {
	enricher *enrich.Enricher
	engine   *engine.Engine
	Now      func() time.Time
}

func New(enricher *enrich.Enricher, eng *engine.Engine) *Processor {
	return &Processor{enricher: enricher, engine: eng, Now: time.Now}
}

// createErrorResponse creates an error response
func createErrorResponse(code, message, requestID string) ([]byte, error) {
	var response ErrorResponse
	response.RequestID = requestID
	response.Error.Code = code
	response.Error.Message = message

	return json.MarshalIndent(response, "", "  ")
}

// Run predicts every fixture and match of the request and assembles the requested tiers
func (p *Processor) Run(ctx context.Context, req Request) (Response, error) {
	tiers := tickets.DefaultTiers()
	if len(req.Tiers) > 0 {
		tiers = nil
		for _, name := range req.Tiers {
			t, ok := tickets.TierByName(name)
			if !ok {
				return Response{}, fmt.Errorf("unknown tier %q", name)
			}
			tiers = append(tiers, t)
		}
	}

	inputs := append(p.enricher.EnrichAll(ctx, req.Fixtures), req.Matches...)
	if len(inputs) == 0 {
		return Response{}, fmt.Errorf("request has no fixtures")
	}
	preds := p.engine.PredictAll(inputs)
	built := tickets.Assemble(preds, tiers)

	skipped := []string{}
	for _, t := range tiers {
		found := false
		for _, b := range built {
			found = found || b.Tier == t.Name
		}
		if !found {
			skipped = append(skipped, string(t.Name))
		}
	}
	if built == nil {
		built = []tickets.Ticket{}
	}
	logger.Info("Batch processed", len(preds), len(built))
	return Response{
		RequestID:   req.RequestID,
		Generated:   p.Now().UTC(),
		Predictions: preds,
		Tickets:     built,
		Skipped:     skipped,
	}, nil
}

// ProcessRequest decodes a request document, runs it and encodes the result in the given
// format. Bad input is reported as an error document rather than a Go error.
func (p *Processor) ProcessRequest(ctx context.Context, input []byte, format string) ([]byte, error) {
	var request Request
	if err := json.Unmarshal(input, &request); err != nil {
		logger.Error("Failed to parse input JSON", err)
		return createErrorResponse("invalid_request", fmt.Sprintf("Invalid JSON: %v", err), request.RequestID)
	}

	logger.Info("Processing request", request.RequestID, len(request.Fixtures))

	response, err := p.Run(ctx, request)
	if err != nil {
		return createErrorResponse("invalid_request", err.Error(), request.RequestID)
	}

	switch format {
	case FormatMarkdown:
		md, err := report.Render(report.Digest{
			Title:       request.Title,
			Generated:   response.Generated,
			Predictions: response.Predictions,
			Tickets:     response.Tickets,
			Skipped:     response.Skipped,
		})
		if err != nil {
			return nil, err
		}
		return []byte(md), nil
	case FormatJSON, "":
		jsonResult, err := json.MarshalIndent(response, "", "  ")
		if err != nil {
			logger.Error("Failed to marshal response to JSON", err)
			return createErrorResponse("internal_error", "Failed to create response", request.RequestID)
		}
		return jsonResult, nil
	default:
		return nil, fmt.Errorf("unsupported output format %q", format)
	}
}
