package resources

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/richard-senior/matchodds/internal/logger"
	"github.com/richard-senior/matchodds/pkg/league"
	"github.com/richard-senior/matchodds/pkg/protocol"
	"github.com/richard-senior/matchodds/pkg/tools"
)

const (
	directoryURI  = "matchodds://leagues"
	profilePrefix = "matchodds://leagues/"
	jsonMime      = "application/json"
)

// Leagues exposes the league table as read-only resources: the directory and one profile per tuned league
type Leagues struct {
	table *league.Table
}

func NewLeagues(t *league.Table) *Leagues {
	return &Leagues{table: t}
}

// List returns the directory resource followed by the tuned profiles
func (l *Leagues) List() []protocol.Resource {
	out := []protocol.Resource{{
		URI:         directoryURI,
		Name:        "league_directory",
		Description: "Every known competition with its priority (1 major, 2 secondary, 3 minor)",
		MimeType:    jsonMime,
	}}
	for _, e := range l.table.Leagues() {
		if !e.Configured {
			continue
		}
		out = append(out, protocol.Resource{
			URI:         profilePrefix + strconv.Itoa(e.ID),
			Name:        e.Name,
			Description: fmt.Sprintf("Prediction profile of %s (%s)", e.Name, e.Country),
			MimeType:    jsonMime,
		})
	}
	return out
}

// Read returns a resource's JSON. Any league id can be read, unknown ones show the default profile.
func (l *Leagues) Read(uri string) (protocol.ResourceContents, error) {
	logger.Debug("Reading resource", uri)
	var v any
	switch {
	case uri == directoryURI:
		v = l.table.Leagues()
	case strings.HasPrefix(uri, profilePrefix):
		id, err := strconv.Atoi(strings.TrimPrefix(uri, profilePrefix))
		if err != nil || id <= 0 {
			return protocol.ResourceContents{}, fmt.Errorf("invalid league resource: %s", uri)
		}
		v = tools.ProfileView(l.table, id)
	default:
		return protocol.ResourceContents{}, fmt.Errorf("resource not found: %s", uri)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return protocol.ResourceContents{}, err
	}
	return protocol.ResourceContents{URI: uri, MimeType: jsonMime, Text: string(data)}, nil
}
