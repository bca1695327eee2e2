package league

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed leagues.yaml
var embeddedLeagues []byte

//go:embed teams.yaml
var embeddedTeams []byte

// UnknownPriority is reported for competitions that appear nowhere in the table
const UnknownPriority = 99

// TopLeagues are the competitions whose ratings move more slowly (K=20)
var TopLeagues = map[int]bool{
	39:  true, // Premier League
	140: true, // La Liga
	78:  true, // Bundesliga
	135: true, // Serie A
	61:  true, // Ligue 1
	2:   true, // Champions League
	3:   true, // Europa League
	848: true, // Conference League
	94:  true, // Primeira Liga
	88:  true, // Eredivisie
}

// Entry is a directory row for a competition that may or may not have a tuned profile
type Entry struct {
	ID         int    `yaml:"id" json:"leagueId"`
	Name       string `yaml:"name" json:"name"`
	Country    string `yaml:"country" json:"country"`
	Priority   int    `yaml:"priority" json:"priority"`
	Configured bool   `yaml:"-" json:"configured"`
}

type tableFile struct {
	Default   Profile   `yaml:"default"`
	Profiles  []Profile `yaml:"profiles"`
	Directory []Entry   `yaml:"directory"`
}

// Table is the immutable league configuration table
type Table struct {
	def       Profile
	profiles  map[int]Profile
	directory map[int]Entry
}

// Parse builds a table from a leagues yaml document
func Parse(data []byte) (*Table, error) {
	var f tableFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse league table: %w", err)
	}
	if f.Default.Style == "" {
		f.Default.Style = StyleBalanced
	}
	if f.Default.Priority == 0 {
		f.Default.Priority = 3
	}
	if err := f.Default.validate(); err != nil {
		return nil, fmt.Errorf("default profile: %w", err)
	}

	t := &Table{
		def:       f.Default,
		profiles:  make(map[int]Profile, len(f.Profiles)),
		directory: make(map[int]Entry, len(f.Profiles)+len(f.Directory)),
	}
	for _, p := range f.Profiles {
		if p.ID <= 0 {
			return nil, fmt.Errorf("league profile %q has no id", p.Name)
		}
		if _, dup := t.profiles[p.ID]; dup {
			return nil, fmt.Errorf("league %d is configured twice", p.ID)
		}
		p.inherit(f.Default)
		p.Configured = true
		if err := p.validate(); err != nil {
			return nil, err
		}
		t.profiles[p.ID] = p
		t.directory[p.ID] = Entry{ID: p.ID, Name: p.Name, Country: p.Country, Priority: p.Priority, Configured: true}
	}
	for _, e := range f.Directory {
		if _, ok := t.directory[e.ID]; ok {
			continue
		}
		if e.Priority == 0 {
			e.Priority = f.Default.Priority
		}
		t.directory[e.ID] = e
	}
	return t, nil
}

// LoadFile reads a league table from disk
func LoadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read league table %s: %w", path, err)
	}
	return Parse(data)
}

var (
	defaultTable     *Table
	defaultTableOnce sync.Once
)

// Default returns the table compiled into the binary
func Default() *Table {
	defaultTableOnce.Do(func() {
		t, err := Parse(embeddedLeagues)
		if err != nil {
			panic(fmt.Sprintf("embedded league table is invalid: %v", err))
		}
		defaultTable = t
	})
	return defaultTable
}

// Profile returns the tuned profile for a league, or a copy of the default profile
// carrying the league's id and directory name when it has none
func (t *Table) Profile(leagueID int) Profile {
	if p, ok := t.profiles[leagueID]; ok {
		return p.clone()
	}
	p := t.def.clone()
	p.ID = leagueID
	p.Configured = false
	if e, ok := t.directory[leagueID]; ok {
		p.Name = e.Name
		p.Country = e.Country
		p.Priority = e.Priority
	}
	return p
}

// DefaultProfile returns the profile used for unconfigured leagues
func (t *Table) DefaultProfile() Profile {
	return t.def.clone()
}

// IsConfigured reports whether the league has a tuned profile
func (t *Table) IsConfigured(leagueID int) bool {
	_, ok := t.profiles[leagueID]
	return ok
}

// Lookup finds a directory entry by id
func (t *Table) Lookup(leagueID int) (Entry, bool) {
	e, ok := t.directory[leagueID]
	return e, ok
}

// FindByName matches a league by case insensitive name, tuned profiles first
func (t *Table) FindByName(name string) (Entry, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return Entry{}, false
	}
	var found *Entry
	for _, e := range t.Leagues() {
		if strings.ToLower(e.Name) == name {
			if e.Configured {
				return e, true
			}
			if found == nil {
				e := e
				found = &e
			}
		}
	}
	if found != nil {
		return *found, true
	}
	return Entry{}, false
}

// Leagues lists every known competition ordered by priority then id
func (t *Table) Leagues() []Entry {
	out := make([]Entry, 0, len(t.directory))
	for _, e := range t.directory {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Priority != out[j].Priority {
			return out[i].Priority < out[j].Priority
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// ByPriority lists the competitions with the given priority
func (t *Table) ByPriority(priority int) []Entry {
	var out []Entry
	for _, e := range t.Leagues() {
		if e.Priority == priority {
			out = append(out, e)
		}
	}
	return out
}

// Priority returns 1 (major), 2 (secondary), 3 (minor) or UnknownPriority
func (t *Table) Priority(leagueID int) int {
	if e, ok := t.directory[leagueID]; ok {
		return e.Priority
	}
	return UnknownPriority
}

// Name returns the league name or a placeholder for unknown ids
func (t *Table) Name(leagueID int) string {
	if e, ok := t.directory[leagueID]; ok {
		return e.Name
	}
	return fmt.Sprintf("League %d", leagueID)
}

func (t *Table) Style(leagueID int) Style {
	return t.Profile(leagueID).Style
}

func (t *Table) IsHighScoring(leagueID int) bool {
	return t.Profile(leagueID).IsHighScoring()
}

func (t *Table) IsPhysical(leagueID int) bool {
	return t.Profile(leagueID).IsPhysical()
}

// IsTopLeague reports whether ratings in this league use the lower K factor
func IsTopLeague(leagueID int) bool {
	return TopLeagues[leagueID]
}

// KFactor returns the Elo K factor for a league
func KFactor(leagueID int) float64 {
	if IsTopLeague(leagueID) {
		return 20
	}
	return 30
}
