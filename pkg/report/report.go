// Package report renders predictions and tickets for people: a Markdown digest and
// annotation of existing HTML fixture pages.
package report

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/PuerkitoBio/goquery"
	"github.com/richard-senior/matchodds/pkg/engine"
	"github.com/richard-senior/matchodds/pkg/tickets"
)

const digestHTML = `<html><head><title>{{.Title}}</title></head><body>
<h1>{{.Title}}</h1>
<p>Generated {{.Generated}}</p>
{{if .Predictions}}<h2>Predictions</h2>
<table>
<thead><tr><th>League</th><th>Match</th><th>1</th><th>X</th><th>2</th><th>Score</th><th>O2.5</th><th>BTTS</th><th>Pick</th><th>Confidence</th></tr></thead>
<tbody>{{range .Predictions}}
<tr><td>{{.LeagueName}}</td><td>{{.HomeTeam}} v {{.AwayTeam}}</td><td>{{pct .HomeProb}}</td><td>{{pct .DrawProb}}</td><td>{{pct .AwayProb}}</td><td>{{.ExactScore}}</td><td>{{over25 .}}</td><td>{{pct .BTTSProb}}</td><td>{{pick .}}</td><td>{{.Confidence}}</td></tr>{{end}}
</tbody></table>{{end}}
{{range .Tickets}}<h2>{{title .Tier}} ticket</h2>
<p>Total odds <strong>{{printf "%.2f" .TotalOdds}}</strong>, probability {{pct .TotalProbability}}</p>
<ul>{{range .Legs}}
<li>{{.HomeTeam}} v {{.AwayTeam}}: <strong>{{.BetType}}</strong> at {{printf "%.2f" .OddsEstimate}} ({{pct .Probability}})</li>{{end}}
</ul>{{end}}
{{if .Skipped}}<p>No ticket could be built for: {{join .Skipped ", "}}</p>{{end}}
</body></html>`

var funcs = template.FuncMap{
	"pct":    pct,
	"title":  titleCase,
	"join":   strings.Join,
	"over25": func(p engine.Prediction) string { l, _ := p.Line(2.5); return pct(l.Over) },
	"pick":   pickText,
}

var digest = template.Must(template.New("digest").Funcs(funcs).Parse(digestHTML))

// Digest is the input of Render
type Digest struct {
	Title       string
	Generated   time.Time
	Predictions []engine.Prediction
	Tickets     []tickets.Ticket
	// Skipped names tiers for which no ticket could be built
	Skipped []string
}

func titleCase(v any) string {
	s := fmt.Sprint(v)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func pct(p float64) string {
	return fmt.Sprintf("%.0f%%", p*100)
}

func pickText(p engine.Prediction) string {
	pk, ok := p.PreferredPick()
	if !ok {
		return "-"
	}
	return fmt.Sprintf("%s @ %.2f", pk.BetType, pk.OddsEstimate)
}

// RenderHTML executes the digest template
func RenderHTML(d Digest) (string, error) {
	if d.Title == "" {
		d.Title = "Match predictions"
	}
	var buf bytes.Buffer
	err := digest.Execute(&buf, struct {
		Digest
		Generated string
	}{d, d.Generated.UTC().Format("2006-01-02 15:04 MST")})
	if err != nil {
		return "", fmt.Errorf("failed to render report: %w", err)
	}
	return buf.String(), nil
}

// Render returns the digest as Markdown
func Render(d Digest) (string, error) {
	html, err := RenderHTML(d)
	if err != nil {
		return "", err
	}
	md, err := htmltomarkdown.ConvertString(html)
	if err != nil {
		return "", fmt.Errorf("failed to convert report to markdown: %w", err)
	}
	return md, nil
}

// Annotate fills the elements of an HTML page marked with data-match-id. Inside such an
// element, descendants carrying data-field receive the named value; an element without
// any data-field descendants gets a one line summary appended. Unknown match ids are left
// alone and the input is never modified.
func Annotate(document string, preds []engine.Prediction) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(document))
	if err != nil {
		return "", fmt.Errorf("error parsing HTML: %w", err)
	}
	byID := make(map[string]engine.Prediction, len(preds))
	for _, p := range preds {
		byID[p.MatchID] = p
	}

	doc.Find("[data-match-id]").Each(func(_ int, s *goquery.Selection) {
		id, _ := s.Attr("data-match-id")
		p, ok := byID[id]
		if !ok {
			return
		}
		s.SetAttr("data-confidence", string(p.Confidence))
		targets := s.Find("[data-field]")
		if targets.Length() == 0 {
			s.AppendHtml(`<span class="prediction">` + template.HTMLEscapeString(summary(p)) + `</span>`)
			return
		}
		targets.Each(func(_ int, f *goquery.Selection) {
			name, _ := f.Attr("data-field")
			if v, ok := field(p, name); ok {
				f.SetText(v)
			}
		})
	})
	return doc.Html()
}

func summary(p engine.Prediction) string {
	return fmt.Sprintf("1 %s X %s 2 %s, %s, %s (%s)",
		pct(p.HomeProb), pct(p.DrawProb), pct(p.AwayProb), p.ExactScore, pickText(p), p.Confidence)
}

func field(p engine.Prediction, name string) (string, bool) {
	switch name {
	case "home":
		return pct(p.HomeProb), true
	case "draw":
		return pct(p.DrawProb), true
	case "away":
		return pct(p.AwayProb), true
	case "score":
		return p.ExactScore, true
	case "btts":
		return pct(p.BTTSProb), true
	case "over25":
		l, _ := p.Line(2.5)
		return pct(l.Over), true
	case "pick":
		return pickText(p), true
	case "confidence":
		return string(p.Confidence), true
	case "summary":
		return summary(p), true
	}
	return "", false
}
