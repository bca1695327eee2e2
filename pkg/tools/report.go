package tools

import (
	"context"

	"github.com/richard-senior/matchodds/internal/logger"
	"github.com/richard-senior/matchodds/pkg/engine"
	"github.com/richard-senior/matchodds/pkg/protocol"
	"github.com/richard-senior/matchodds/pkg/report"
	"github.com/richard-senior/matchodds/pkg/tickets"
)

// maxMarkdown caps the size of a rendered report handed back to the client
const maxMarkdown = 20000

func RenderReportTool() protocol.Tool {
	return protocol.Tool{
		Name: "render_report",
		Description: `
		Renders predictions and tickets as a Markdown digest.
		When document is given (an HTML page whose fixtures carry data-match-id attributes), returns that page
		with the predictions filled in instead.
		`,
		InputSchema: protocol.InputSchema{
			Type: "object",
			Properties: map[string]protocol.ToolProperty{
				"title":       {Type: "string", Description: "Report title"},
				"predictions": {Type: "array", Description: "Predictions from predict_match", Items: &protocol.ToolProperty{Type: "object"}},
				"tickets":     {Type: "array", Description: "Tickets from assemble_tickets", Items: &protocol.ToolProperty{Type: "object"}},
				"document":    {Type: "string", Description: "Optional HTML page to annotate"},
			},
			Required: []string{"predictions"},
		},
	}
}

func (s *Service) HandleRenderReport(ctx context.Context, params any) (any, error) {
	logger.Info("Handling render_report tool invocation")
	var args struct {
		Title       string              `json:"title"`
		Predictions []engine.Prediction `json:"predictions"`
		Tickets     []tickets.Ticket    `json:"tickets"`
		Document    string              `json:"document"`
	}
	if err := decodeArgs(params, &args); err != nil {
		return nil, err
	}

	if args.Document != "" {
		html, err := report.Annotate(args.Document, args.Predictions)
		if err != nil {
			return nil, err
		}
		return map[string]any{"html": html}, nil
	}

	markdown, err := report.Render(report.Digest{
		Title:       args.Title,
		Generated:   s.Now(),
		Predictions: args.Predictions,
		Tickets:     args.Tickets,
	})
	if err != nil {
		return nil, err
	}
	if len(markdown) > maxMarkdown {
		markdown = markdown[:maxMarkdown] + "\n\n... (content truncated due to size)"
	}
	return map[string]any{"markdown": markdown}, nil
}
