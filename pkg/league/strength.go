package league

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// StrengthTable maps known team names to a fallback strength on the 40..100 scale
type StrengthTable struct {
	DefaultStrength int            `yaml:"defaultStrength"`
	Teams           map[string]int `yaml:"teams"`
	keys            []string
}

// ParseStrengths builds a strength table from a teams yaml document
func ParseStrengths(data []byte) (*StrengthTable, error) {
	var st StrengthTable
	if err := yaml.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("failed to parse team strengths: %w", err)
	}
	if st.DefaultStrength == 0 {
		st.DefaultStrength = 60
	}
	normalised := make(map[string]int, len(st.Teams))
	for name, s := range st.Teams {
		if s < 40 || s > 100 {
			return nil, fmt.Errorf("team %q strength must be between 40 and 100, got: %d", name, s)
		}
		normalised[strings.ToLower(strings.TrimSpace(name))] = s
	}
	st.Teams = normalised
	st.keys = make([]string, 0, len(normalised))
	for k := range normalised {
		st.keys = append(st.keys, k)
	}
	// longest key wins so "manchester united" is never read as "manchester"
	sort.Slice(st.keys, func(i, j int) bool {
		if len(st.keys[i]) != len(st.keys[j]) {
			return len(st.keys[i]) > len(st.keys[j])
		}
		return st.keys[i] < st.keys[j]
	})
	return &st, nil
}

var (
	defaultStrengths     *StrengthTable
	defaultStrengthsOnce sync.Once
)

// DefaultStrengths returns the team strength table compiled into the binary
func DefaultStrengths() *StrengthTable {
	defaultStrengthsOnce.Do(func() {
		st, err := ParseStrengths(embeddedTeams)
		if err != nil {
			panic(fmt.Sprintf("embedded team strengths are invalid: %v", err))
		}
		defaultStrengths = st
	})
	return defaultStrengths
}

// Lookup matches a team name against the table in either direction,
// so both "Arsenal FC" and "Real" resolve to a configured club
func (st *StrengthTable) Lookup(teamName string) (int, bool) {
	name := strings.ToLower(strings.TrimSpace(teamName))
	if name == "" {
		return 0, false
	}
	if s, ok := st.Teams[name]; ok {
		return s, true
	}
	for _, k := range st.keys {
		if strings.Contains(name, k) {
			return st.Teams[k], true
		}
	}
	for _, k := range st.keys {
		if len(name) >= 4 && strings.Contains(k, name) {
			return st.Teams[k], true
		}
	}
	return 0, false
}

// Strength returns the table strength or the default for unknown teams
func (st *StrengthTable) Strength(teamName string) int {
	if s, ok := st.Lookup(teamName); ok {
		return s
	}
	return st.DefaultStrength
}
