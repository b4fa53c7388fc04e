// Package pipeline implements the per-company analysis state machine:
// discovery, concurrent technology and market analysis, competitor
// assessment, the decision gate and the conditional report branch.
package pipeline

import (
	"sort"
	"sync"

	"prospect/internal/decide"
)

// Stage names key the per-stage analysis slots and the provenance audit.
const (
	StageDiscovery  = "discovery"
	StageTech       = "tech"
	StageMarket     = "market"
	StageCompetitor = "competitor"
	StageDecision   = "decision"
)

// Analyses holds the current company's stage outputs. Slots are overwritten
// when the cursor advances; a nil slot means the stage has not run.
type Analyses struct {
	Tech       *TechRecord
	Market     *MarketRecord
	Competitor *CompetitorRecord
	Decision   *decide.Outcome
}

// Report references one generated artifact.
type Report struct {
	Company  string `json:"company"`
	Artifact string `json:"artifact"`
}

// State is the single record threaded through one run. It is mutated only
// between stage invocations; stages return values that the machine folds in.
type State struct {
	Query     string
	Companies []Company
	Cursor    int
	Analyses  Analyses
	Reports   []Report

	mu      sync.Mutex
	sources map[string]map[string]bool
}

// NewState builds an empty run state for the given discovery query.
func NewState(query string) *State {
	return &State{Query: query, sources: make(map[string]map[string]bool)}
}

// CurrentCompany returns the company under the cursor. ok is false in the
// terminal position.
func (s *State) CurrentCompany() (Company, bool) {
	if s.Cursor >= len(s.Companies) {
		return Company{}, false
	}
	return s.Companies[s.Cursor], true
}

// Done reports whether the cursor has passed the last company.
func (s *State) Done() bool { return s.Cursor >= len(s.Companies) }

// Advance moves the cursor forward by exactly one and clears the per-company
// analysis slots.
func (s *State) Advance() {
	s.Cursor++
	s.Analyses = Analyses{}
}

// AddSources records provenance identifiers for a stage. The audit set only
// grows; identifiers are deduplicated. Safe for concurrent stage completions
// since each stage writes under the lock.
func (s *State) AddSources(stage string, ids ...string) {
	if len(ids) == 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	set := s.sources[stage]
	if set == nil {
		set = make(map[string]bool)
		s.sources[stage] = set
	}
	for _, id := range ids {
		if id != "" {
			set[id] = true
		}
	}
}

// SourcesUsed returns the sorted provenance identifiers recorded for a stage.
func (s *State) SourcesUsed(stage string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	set := s.sources[stage]
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
