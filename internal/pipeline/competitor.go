package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"prospect/internal/evidence"
	"prospect/internal/llm"
	"prospect/internal/logging"
)

// IncumbentRoster is the fixed candidate set the incumbent picker chooses
// from. Large players only; close competitors come from evidence retrieval.
var IncumbentRoster = []string{
	"OpenAI",
	"Meta",
	"Google",
	"Microsoft",
	"Anthropic",
	"Amazon",
	"Adobe",
	"Stability AI",
}

const (
	maxCloseCompetitors     = 2
	maxIncumbentCompetitors = 2
)

// CompetitorAnalyst runs the competitor stage. It depends on the tech and
// market records for the same company.
type CompetitorAnalyst struct {
	Evidence    *evidence.Chain
	LLM         llm.Client
	MinEvidence int

	log *slog.Logger
}

// NewCompetitorAnalyst wires the competitor stage.
func NewCompetitorAnalyst(chain *evidence.Chain, client llm.Client, minEvidence int) *CompetitorAnalyst {
	return &CompetitorAnalyst{
		Evidence:    chain,
		LLM:         client,
		MinEvidence: minEvidence,
		log:         logging.New("competitor"),
	}
}

type incumbentResponse struct {
	Incumbents []string `json:"incumbents"`
}

type assessmentResponse struct {
	Competitors []CompetitorEntry `json:"competitors"`
	SWOT        SWOT              `json:"swot"`
}

// Analyze selects up to two close competitors from the evidence chain and up
// to two incumbents from the fixed roster, researches each concurrently, and
// produces per-competitor scores plus an aggregate SWOT. Never fails the
// pipeline; degraded paths yield a record with an empty landscape.
func (a *CompetitorAnalyst) Analyze(ctx context.Context, company Company, tech *TechRecord, market *MarketRecord) (*CompetitorRecord, []string) {
	rec := UnknownCompetitorRecord(company.Name)

	direct := a.closeCompetitors(ctx, company, tech)
	incumbents := a.pickIncumbents(ctx, company, tech)

	names := make([]string, 0, maxCloseCompetitors+maxIncumbentCompetitors)
	isIncumbent := make(map[string]bool)
	names = append(names, direct...)
	for _, n := range incumbents {
		if containsFold(names, n) {
			continue
		}
		names = append(names, n)
		isIncumbent[strings.ToLower(n)] = true
	}
	if len(names) == 0 {
		a.log.Warn("no competitors identified", "company", company.Name)
		return rec, nil
	}

	briefs, provenance := a.research(ctx, names)

	if a.LLM == nil {
		return rec, provenance
	}

	var resp assessmentResponse
	req := llm.Request{
		Schema: "competitor_assessment",
		System: "You are a competitive intelligence analyst. Output only valid JSON.",
		Prompt: assessmentPrompt(company, tech, market, names, briefs),
	}
	if err := a.LLM.Complete(ctx, req, &resp); err != nil {
		a.log.Warn("competitor assessment failed, using empty landscape",
			"company", company.Name, "error", err)
		return rec, provenance
	}

	for _, c := range resp.Competitors {
		if strings.TrimSpace(c.Name) == "" {
			continue
		}
		c.Overlap = clampScale(c.Overlap)
		c.Differentiation = clampScale(c.Differentiation)
		c.Moat = clampScale(c.Moat)
		c.Positioning = fillUnknown(c.Positioning)
		c.Incumbent = isIncumbent[strings.ToLower(c.Name)]
		rec.Competitors = append(rec.Competitors, c)
	}
	rec.SWOT = normalizeSWOT(resp.SWOT)
	return rec, provenance
}

// closeCompetitors retrieves direct competitors via the evidence chain,
// keyed by the candidate's industry and core technology.
func (a *CompetitorAnalyst) closeCompetitors(ctx context.Context, company Company, tech *TechRecord) []string {
	terms := []string{company.Industry}
	if tech != nil && known(tech.CoreTechnology) {
		terms = append(terms, tech.CoreTechnology)
	}
	query := fmt.Sprintf("%s competitors startups", strings.Join(terms, " "))

	res := a.Evidence.Fetch(ctx, query, maxCloseCompetitors)
	var names []string
	for _, it := range res.Items {
		name := strings.TrimSpace(it.Title)
		if name == "" || strings.EqualFold(name, company.Name) || containsFold(names, name) {
			continue
		}
		names = append(names, name)
		if len(names) >= maxCloseCompetitors {
			break
		}
	}
	return names
}

// pickIncumbents asks the model for the most relevant large players from
// the fixed roster. Answers outside the roster are discarded.
func (a *CompetitorAnalyst) pickIncumbents(ctx context.Context, company Company, tech *TechRecord) []string {
	if a.LLM == nil {
		return nil
	}

	var resp incumbentResponse
	req := llm.Request{
		Schema: "incumbent_selection",
		System: "You are a competitive intelligence analyst. Output only valid JSON.",
		Prompt: incumbentPrompt(company, tech),
	}
	if err := a.LLM.Complete(ctx, req, &resp); err != nil {
		a.log.Warn("incumbent selection failed", "company", company.Name, "error", err)
		return nil
	}

	var picked []string
	for _, n := range resp.Incumbents {
		if !containsFold(IncumbentRoster, n) || containsFold(picked, n) {
			continue
		}
		picked = append(picked, canonicalRosterName(n))
		if len(picked) >= maxIncumbentCompetitors {
			break
		}
	}
	return picked
}

// research fetches evidence for each competitor concurrently. Lookups are
// independent I/O; results merge only after all complete.
func (a *CompetitorAnalyst) research(ctx context.Context, names []string) (map[string][]evidence.Item, []string) {
	var mu sync.Mutex
	briefs := make(map[string][]evidence.Item, len(names))
	var provenance []string

	g, gctx := errgroup.WithContext(ctx)
	for _, name := range names {
		g.Go(func() error {
			res := a.Evidence.Fetch(gctx, name+" product positioning moat", a.MinEvidence)
			mu.Lock()
			briefs[name] = res.Items
			provenance = append(provenance, res.Provenance...)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait() // lookups degrade to empty briefs, never error
	return briefs, provenance
}

func incumbentPrompt(company Company, tech *TechRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Pick up to %d large incumbents most likely to compete with %s (%s).\n",
		maxIncumbentCompetitors, company.Name, company.Industry)
	if tech != nil && known(tech.CoreTechnology) {
		fmt.Fprintf(&b, "Core technology: %s\n", tech.CoreTechnology)
	}
	fmt.Fprintf(&b, "Choose only from this roster: %s\n", strings.Join(IncumbentRoster, ", "))
	b.WriteString(`Return JSON: {"incumbents": ["..."]}`)
	return b.String()
}

func assessmentPrompt(company Company, tech *TechRecord, market *MarketRecord, names []string, briefs map[string][]evidence.Item) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Assess the competitive position of %s against: %s.\n\n",
		company.Name, strings.Join(names, ", "))
	if tech != nil && known(tech.Summary) {
		fmt.Fprintf(&b, "Candidate technology: %s\n", tech.Summary)
	}
	if market != nil && known(market.ProblemFit) {
		fmt.Fprintf(&b, "Candidate problem fit: %s\n", market.ProblemFit)
	}
	for _, name := range names {
		items := briefs[name]
		if len(items) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\nEvidence on %s:\n", name)
		for i, it := range items {
			fmt.Fprintf(&b, "%d. %s — %s\n", i+1, it.Title, it.Snippet)
		}
	}
	b.WriteString(`
Score each competitor on 0-10 scales and produce an aggregate SWOT for the candidate.
Return JSON: {"competitors": [{"name": "...", "overlap": 0, "differentiation": 0, "moat": 0, "positioning": "..."}], "swot": {"strengths": ["..."], "weaknesses": ["..."], "opportunities": ["..."], "threats": ["..."]}}`)
	return b.String()
}

func clampScale(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 10 {
		return 10
	}
	return v
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

func canonicalRosterName(s string) string {
	for _, r := range IncumbentRoster {
		if strings.EqualFold(r, s) {
			return r
		}
	}
	return s
}

func normalizeSWOT(s SWOT) SWOT {
	norm := func(in []string) []string {
		if in == nil {
			return []string{}
		}
		return in
	}
	return SWOT{
		Strengths:     norm(s.Strengths),
		Weaknesses:    norm(s.Weaknesses),
		Opportunities: norm(s.Opportunities),
		Threats:       norm(s.Threats),
	}
}
