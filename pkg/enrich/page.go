package enrich

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/richard-senior/matchodds/internal/logger"
	"github.com/richard-senior/matchodds/pkg/engine"
	"github.com/richard-senior/matchodds/pkg/transport"
)

// PageProvider scrapes team and head to head pages. Pages built with Next.js carry the
// data as JSON in script#__NEXT_DATA__ under props.pageProps.signal and
// props.pageProps.headToHead; plain pages are read from data-stat attributes.
type PageProvider struct {
	client *transport.HTTPClient
	// printf templates, team takes league id then team id, head to head takes home then away id
	teamURL string
	h2hURL  string
}

// NewPageProvider creates a provider. An empty template disables that lookup.
func NewPageProvider(client *transport.HTTPClient, teamURL, h2hURL string) *PageProvider {
	return &PageProvider{client: client, teamURL: teamURL, h2hURL: h2hURL}
}

func (p *PageProvider) TeamSignal(ctx context.Context, teamID, leagueID int) (engine.TeamSignal, error) {
	var ts engine.TeamSignal
	if p.teamURL == "" {
		return ts, fmt.Errorf("team pages: %w", ErrNoData)
	}
	doc, err := p.fetch(ctx, fmt.Sprintf(p.teamURL, leagueID, teamID))
	if err != nil {
		return ts, err
	}
	if found, err := nextData(doc, "signal", &ts); err != nil || found {
		return ts, err
	}
	if !statsFromAttributes(doc, &ts) {
		return ts, fmt.Errorf("team %d page has no signals: %w", teamID, ErrNoData)
	}
	return ts, nil
}

func (p *PageProvider) HeadToHead(ctx context.Context, homeID, awayID int) (engine.HeadToHead, error) {
	var h engine.HeadToHead
	if p.h2hURL == "" {
		return h, fmt.Errorf("head to head pages: %w", ErrNoData)
	}
	doc, err := p.fetch(ctx, fmt.Sprintf(p.h2hURL, homeID, awayID))
	if err != nil {
		return h, err
	}
	found, err := nextData(doc, "headToHead", &h)
	if err != nil {
		return h, err
	}
	if !found {
		return h, fmt.Errorf("pair %d-%d page has no head to head: %w", homeID, awayID, ErrNoData)
	}
	return h, nil
}

func (p *PageProvider) fetch(ctx context.Context, url string) (*goquery.Document, error) {
	logger.Debug("Fetching signals page", url)
	body, err := p.client.GetHTML(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch data from external source: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("error parsing HTML: %w", err)
	}
	return doc, nil
}

// nextData decodes props.pageProps[key] into v. found is false when the page has no such entry.
func nextData(doc *goquery.Document, key string, v any) (found bool, err error) {
	script := strings.TrimSpace(doc.Find("script#__NEXT_DATA__").First().Text())
	if script == "" {
		return false, nil
	}
	var data struct {
		Props struct {
			PageProps map[string]json.RawMessage `json:"pageProps"`
		} `json:"props"`
	}
	if err := json.Unmarshal([]byte(script), &data); err != nil {
		return false, fmt.Errorf("error parsing JSON data: %w", err)
	}
	raw, ok := data.Props.PageProps[key]
	if !ok || string(raw) == "null" {
		return false, nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, fmt.Errorf("error parsing %s: %w", key, err)
	}
	return true, nil
}

// statsFromAttributes reads <x data-stat="name">value</x> elements and the form guide
func statsFromAttributes(doc *goquery.Document, ts *engine.TeamSignal) bool {
	var seen bool
	doc.Find("[data-stat]").Each(func(_ int, s *goquery.Selection) {
		name, _ := s.Attr("data-stat")
		text := strings.TrimSpace(s.Text())
		f, ferr := strconv.ParseFloat(text, 64)
		i, ierr := strconv.Atoi(text)
		switch name {
		case "name":
			ts.Name = text
		case "leaguePosition":
			if ierr == nil {
				ts.LeaguePosition = i
			}
		case "leaguePoints":
			if ierr == nil {
				ts.LeaguePoints = i
			}
		case "goalsScoredAvg":
			if ferr == nil {
				ts.GoalsScoredAvg = f
			}
		case "goalsConcededAvg":
			if ferr == nil {
				ts.GoalsConcededAvg = f
			}
		case "cleanSheets":
			if ierr == nil {
				ts.CleanSheets = i
			}
		case "failedToScore":
			if ierr == nil {
				ts.FailedToScore = i
			}
		case "avgCorners":
			if ferr == nil {
				ts.AvgCorners = f
			}
		case "avgYellowCards":
			if ferr == nil {
				ts.AvgYellowCards = f
			}
		case "avgRedCards":
			if ferr == nil {
				ts.AvgRedCards = f
			}
		case "injury":
			ts.Injuries = append(ts.Injuries, text)
		case "suspension":
			ts.Suspensions = append(ts.Suspensions, text)
		default:
			return
		}
		seen = true
	})

	var form strings.Builder
	doc.Find(".form-guide [data-result]").Each(func(_ int, s *goquery.Selection) {
		r, _ := s.Attr("data-result")
		form.WriteString(strings.ToUpper(strings.TrimSpace(r)))
	})
	if form.Len() > 0 {
		ts.RecentForm = form.String()
		seen = true
	}
	return seen
}
