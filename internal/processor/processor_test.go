package processor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/richard-senior/matchodds/pkg/engine"
	"github.com/richard-senior/matchodds/pkg/enrich"
	"github.com/richard-senior/matchodds/pkg/league"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestProcessor() *Processor {
	teams := map[int]engine.TeamSignal{}
	for i := 1; i <= 12; i++ {
		if i%2 == 1 {
			teams[i] = engine.TeamSignal{RecentForm: "WWWWW", LeaguePosition: i/2 + 1, GoalsScoredAvg: 2.3, GoalsConcededAvg: 0.7}
		} else {
			teams[i] = engine.TeamSignal{RecentForm: "LLLDL", LeaguePosition: 20 - i/2, GoalsScoredAvg: 0.8, GoalsConcededAvg: 2.0}
		}
	}
	provider := enrich.NewStaticProvider(enrich.SignalsDocument{Teams: teams})
	p := New(enrich.NewEnricher(provider, nil), engine.New(league.Default(), nil))
	p.Now = func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }
	return p
}

func sixFixtures() Request {
	req := Request{RequestID: "batch-1", Title: "Saturday card"}
	for i := 0; i < 6; i++ {
		req.Fixtures = append(req.Fixtures, enrich.Fixture{
			MatchID:  fmt.Sprintf("f%d", i),
			LeagueID: 39,
			HomeID:   2*i + 1,
			AwayID:   2*i + 2,
			HomeName: fmt.Sprintf("Home %d", i),
			AwayName: fmt.Sprintf("Away %d", i),
		})
	}
	return req
}

func TestRunKeepsFixtureOrder(t *testing.T) {
	p := newTestProcessor()
	resp, err := p.Run(context.Background(), sixFixtures())
	require.NoError(t, err)

	require.Len(t, resp.Predictions, 6)
	for i, pred := range resp.Predictions {
		assert.Equal(t, fmt.Sprintf("f%d", i), pred.MatchID)
		assert.Greater(t, pred.HomeProb, pred.AwayProb)
	}
	assert.Equal(t, "batch-1", resp.RequestID)
	assert.Equal(t, 3, len(resp.Tickets)+len(resp.Skipped))
	for _, tk := range resp.Tickets {
		assert.GreaterOrEqual(t, len(tk.Legs), 3)
	}
}

func TestRunRejectsBadRequests(t *testing.T) {
	p := newTestProcessor()
	_, err := p.Run(context.Background(), Request{})
	assert.Error(t, err)

	req := sixFixtures()
	req.Tiers = []string{"balanced", "yolo"}
	_, err = p.Run(context.Background(), req)
	assert.ErrorContains(t, err, "yolo")
}

func TestProcessRequestJSON(t *testing.T) {
	p := newTestProcessor()
	input, err := json.Marshal(sixFixtures())
	require.NoError(t, err)

	out, err := p.ProcessRequest(context.Background(), input, FormatJSON)
	require.NoError(t, err)
	var resp Response
	require.NoError(t, json.Unmarshal(out, &resp))
	assert.Len(t, resp.Predictions, 6)
	assert.Equal(t, "2025-03-01T12:00:00Z", resp.Generated.Format(time.RFC3339))
}

func TestProcessRequestMarkdown(t *testing.T) {
	p := newTestProcessor()
	input, err := json.Marshal(sixFixtures())
	require.NoError(t, err)

	out, err := p.ProcessRequest(context.Background(), input, FormatMarkdown)
	require.NoError(t, err)
	md := string(out)
	assert.Contains(t, md, "Saturday card")
	assert.Contains(t, md, "Home 0 v Away 0")

	_, err = p.ProcessRequest(context.Background(), input, "pdf")
	assert.Error(t, err)
}

func TestProcessRequestErrorDocument(t *testing.T) {
	p := newTestProcessor()
	for _, input := range []string{`{"fixtures":`, `{"requestId":"r9","fixtures":[]}`} {
		out, err := p.ProcessRequest(context.Background(), []byte(input), FormatJSON)
		require.NoError(t, err)
		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(out, &resp))
		assert.Equal(t, "invalid_request", resp.Error.Code)
		assert.True(t, strings.TrimSpace(resp.Error.Message) != "")
	}
}
