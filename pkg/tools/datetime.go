package tools

import (
	"context"
	"time"

	"github.com/richard-senior/matchodds/internal/logger"
	"github.com/richard-senior/matchodds/pkg/protocol"
)

// DateTimeTool returns the current date and time
func DateTimeTool() protocol.Tool {
	return protocol.Tool{
		Name:        "get_datetime",
		Description: "Returns the current date and time, and today's ledger day as used by settle_ticket and ticket_stats",
		InputSchema: protocol.InputSchema{
			Type: "object",
			Properties: map[string]protocol.ToolProperty{
				"format": {
					Type:        "string",
					Description: "The format of the datetime to be returned such as 2006-01-02T15:04:05Z07:00",
				},
				"timezone": {
					Type:        "string",
					Description: "IANA zone such as Europe/London, default UTC",
				},
			},
			Required: []string{},
		},
	}
}

// HandleDateTimeTool handles the date time tool invocation
func (s *Service) HandleDateTimeTool(ctx context.Context, params any) (any, error) {
	logger.Info("Handling datetime tool invocation")

	var format string = time.RFC3339
	loc := time.UTC

	// Parse parameters if provided
	if paramsMap, ok := params.(map[string]any); ok {
		if f, ok := paramsMap["format"].(string); ok && f != "" {
			format = f
		}
		if tz, ok := paramsMap["timezone"].(string); ok && tz != "" {
			l, err := time.LoadLocation(tz)
			if err != nil {
				return nil, invalid("unknown timezone %q", tz)
			}
			loc = l
		}
	}

	now := s.Now().In(loc)
	return map[string]any{
		"datetime": now.Format(format),
		"day":      s.today(),
		"timezone": loc.String(),
	}, nil
}
