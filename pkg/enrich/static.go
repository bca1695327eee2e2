package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/richard-senior/matchodds/pkg/engine"
	"gopkg.in/yaml.v3"
)

// ErrNoData is returned by providers that hold nothing for the requested team or pair
var ErrNoData = fmt.Errorf("no data")

// SignalsDocument is the file format read by StaticProvider. Head to head keys are
// "homeId-awayId".
type SignalsDocument struct {
	Teams      map[int]engine.TeamSignal    `json:"teams"`
	HeadToHead map[string]engine.HeadToHead `json:"headToHead"`
}

// StaticProvider serves signals from a document loaded up front
type StaticProvider struct {
	doc SignalsDocument
}

// NewStaticProvider wraps an in-memory document
func NewStaticProvider(doc SignalsDocument) *StaticProvider {
	if doc.Teams == nil {
		doc.Teams = map[int]engine.TeamSignal{}
	}
	if doc.HeadToHead == nil {
		doc.HeadToHead = map[string]engine.HeadToHead{}
	}
	return &StaticProvider{doc: doc}
}

// LoadStaticProvider reads a JSON or YAML signals file, chosen by extension
func LoadStaticProvider(path string) (*StaticProvider, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read signals file %s: %w", path, err)
	}
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".yaml" || ext == ".yml" {
		if data, err = yamlToJSON(data); err != nil {
			return nil, fmt.Errorf("failed to parse signals file %s: %w", path, err)
		}
	}
	var doc SignalsDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse signals file %s: %w", path, err)
	}
	return NewStaticProvider(doc), nil
}

// yamlToJSON lets the yaml form share the json field names of the engine types
func yamlToJSON(data []byte) ([]byte, error) {
	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return json.Marshal(stringKeys(v))
}

// stringKeys converts yaml maps with non string keys (team ids) into json friendly maps
func stringKeys(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, val := range t {
			t[k] = stringKeys(val)
		}
		return t
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = stringKeys(val)
		}
		return out
	case []any:
		for i := range t {
			t[i] = stringKeys(t[i])
		}
		return t
	}
	return v
}

func h2hKey(homeID, awayID int) string {
	return fmt.Sprintf("%d-%d", homeID, awayID)
}

func (p *StaticProvider) TeamSignal(ctx context.Context, teamID, leagueID int) (engine.TeamSignal, error) {
	ts, ok := p.doc.Teams[teamID]
	if !ok {
		return engine.TeamSignal{}, fmt.Errorf("team %d: %w", teamID, ErrNoData)
	}
	return ts, nil
}

// HeadToHead also accepts the reversed pairing, swapping the win counts
func (p *StaticProvider) HeadToHead(ctx context.Context, homeID, awayID int) (engine.HeadToHead, error) {
	if h, ok := p.doc.HeadToHead[h2hKey(homeID, awayID)]; ok {
		return h, nil
	}
	if h, ok := p.doc.HeadToHead[h2hKey(awayID, homeID)]; ok {
		h.HomeWins, h.AwayWins = h.AwayWins, h.HomeWins
		return h, nil
	}
	return engine.HeadToHead{}, fmt.Errorf("pair %d-%d: %w", homeID, awayID, ErrNoData)
}
