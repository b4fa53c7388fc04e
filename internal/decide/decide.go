// Package decide implements the deterministic multi-criteria decision engine.
// Scoring is a pure function over normalized analysis inputs; the only
// non-deterministic part is the advisory thesis text, which never affects
// the numeric outcome.
package decide

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"prospect/internal/config"
	"prospect/internal/llm"
	"prospect/internal/logging"
)

// Component weights. Fixed policy constants, sum to 1.0.
const (
	WeightMarket      = 0.35
	WeightTechnology  = 0.25
	WeightCompetition = 0.20
	WeightTraction    = 0.10
	WeightDeal        = 0.10
)

// neutralScore is the component score used when no signal exists for a
// component. Missing data is never an error.
const neutralScore = 60.0

// Label is the closed classification set every consumer branches on.
type Label string

const (
	LabelInvest            Label = "invest"
	LabelInvestConditional Label = "invest_conditional"
	LabelHold              Label = "hold"
	LabelReject            Label = "reject"
)

// Investable reports whether the label gates report generation.
// Only a full invest recommendation does; conditional and hold advance
// without a report.
func (l Label) Investable() bool { return l == LabelInvest }

// Classify maps an adjusted total score to a label using the configured
// thresholds. Totals at or above the invest threshold recommend investment,
// at or above the conditional threshold recommend conditionally, and
// everything below rejects.
func Classify(total float64, th config.Thresholds) Label {
	switch {
	case total >= th.Invest:
		return LabelInvest
	case total >= th.Conditional:
		return LabelInvestConditional
	default:
		return LabelReject
	}
}

// ParseLabel converts a raw classification string from an external source
// into the closed label set. Unknown values map to hold so that a stray
// vocabulary never produces a report.
func ParseLabel(s string) Label {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "invest", "recommend":
		return LabelInvest
	case "invest_conditional", "conditional":
		return LabelInvestConditional
	case "reject", "fail":
		return LabelReject
	default:
		return LabelHold
	}
}

// CompetitorScore carries one competitor's 0-10 scale assessments. Nil
// fields mean the assessment is unknown.
type CompetitorScore struct {
	Name            string
	Overlap         *float64
	Differentiation *float64
	Moat            *float64
}

// MarketInput is the normalized market signal set.
type MarketInput struct {
	TAMUSDBillions *float64
	CAGRPct        *float64
	ProblemFit0to5 *int
}

// TechnologyInput is the normalized technology signal set.
type TechnologyInput struct {
	PerfDeltaPct    *float64
	SpeedDeltaPct   *float64
	CSATPct         *float64
	SOTANote        string
	Checklist       []int // 0/1 flags: api, multi-tenancy, sdk/docs, automation, extensibility
	IPStatus        string
	ScalabilityNote string
}

// CompetitionInput is the normalized competitive landscape.
type CompetitionInput struct {
	Competitors     []CompetitorScore
	Positioning0to5 *int
}

// TractionInput is the normalized commercial traction signal set.
type TractionInput struct {
	ARRUSDMillions *float64
	RevenueModel   string
	Partnerships   []string
	FundingText    string
}

// Input is the full normalized record the engine scores. Nil sections score
// at the neutral default.
type Input struct {
	Company     string
	Market      *MarketInput
	Technology  *TechnologyInput
	Competition *CompetitionInput
	Traction    *TractionInput
	Risks       []Risk
}

// ComponentScore pairs a 0-100 score with its weight and a short rationale.
type ComponentScore struct {
	Score     float64 `json:"score"`
	Weight    float64 `json:"weight"`
	Rationale string  `json:"rationale"`
}

// Outcome is the engine's full result.
type Outcome struct {
	Total          float64                   `json:"total"`
	Components     map[string]ComponentScore `json:"components"`
	RiskPenaltyPct float64                   `json:"risk_penalty_pct"`
	Label          Label                     `json:"label"`
	Risks          []string                  `json:"risks"`
	Thesis         string                    `json:"thesis"`
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}

func avg(vals []float64) (float64, bool) {
	if len(vals) == 0 {
		return 0, false
	}
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals)), true
}

// scoreMarket blends log-scaled TAM, CAGR relative to a 25% reference, and
// the qualitative problem-fit rating.
func scoreMarket(m *MarketInput) float64 {
	if m == nil {
		return neutralScore
	}

	var quantParts []float64
	if m.TAMUSDBillions != nil && *m.TAMUSDBillions > 0 {
		tam := math.Max(1e-6, *m.TAMUSDBillions)
		quantParts = append(quantParts, clamp(((math.Log10(tam)-1)/2)*100, 0, 100))
	}
	if m.CAGRPct != nil {
		quantParts = append(quantParts, clamp((*m.CAGRPct/25.0)*100, 0, 100))
	}

	var quant *float64
	if len(quantParts) > 0 {
		max := quantParts[0]
		for _, v := range quantParts[1:] {
			if v > max {
				max = v
			}
		}
		mean, _ := avg(quantParts)
		q := 0.6*max + 0.4*mean
		quant = &q
	}

	var fit *float64
	if m.ProblemFit0to5 != nil {
		f := float64(*m.ProblemFit0to5) * 20
		fit = &f
	}

	switch {
	case fit != nil && quant != nil:
		return clamp((*quant+*fit)/2, 0, 100)
	case fit != nil:
		return clamp(*fit, 0, 100)
	case quant != nil:
		return clamp(*quant, 0, 100)
	default:
		return neutralScore
	}
}

// scoreTechnology averages the neutral base with whichever sub-signals are
// present. A record with no signals scores exactly neutral.
func scoreTechnology(t *TechnologyInput) float64 {
	if t == nil {
		return neutralScore
	}

	subs := []float64{neutralScore}

	if t.PerfDeltaPct != nil {
		subs = append(subs, math.Min(100, 60+*t.PerfDeltaPct))
	}
	if t.SpeedDeltaPct != nil {
		subs = append(subs, math.Min(100, 60+*t.SpeedDeltaPct))
	}
	if t.CSATPct != nil {
		subs = append(subs, clamp(*t.CSATPct, 0, 100))
	}

	if delta, ok := ParseDeltaPct(t.SOTANote); ok {
		subs = append(subs, math.Min(100, 70+delta))
	} else if note := strings.ToLower(t.SOTANote); strings.Contains(note, "exceed") || strings.Contains(note, "outperform") || strings.Contains(note, "state of the art") || strings.Contains(note, "state-of-the-art") {
		subs = append(subs, 75)
	}

	if len(t.Checklist) > 0 {
		sum := 0
		for _, v := range t.Checklist {
			if v > 0 {
				sum++
			}
		}
		subs = append(subs, float64(sum)/5.0*100)
	}

	switch ip := strings.ToLower(t.IPStatus); {
	case strings.Contains(ip, "granted"):
		subs = append(subs, 85)
	case strings.Contains(ip, "filed"), strings.Contains(ip, "pending"):
		subs = append(subs, 75)
	case ip != "" && ip != "unknown":
		subs = append(subs, 55)
	}

	if t.ScalabilityNote != "" && !strings.EqualFold(t.ScalabilityNote, "unknown") {
		subs = append(subs, 75)
	}

	mean, _ := avg(subs)
	return clamp(mean, 0, 100)
}

// scoreCompetition weighs differentiation over moat, penalizes high average
// overlap, and blends in the qualitative positioning rating when present.
func scoreCompetition(c *CompetitionInput) float64 {
	if c == nil {
		return neutralScore
	}

	var diffs, moats, overlaps []float64
	for _, comp := range c.Competitors {
		if comp.Differentiation != nil {
			diffs = append(diffs, *comp.Differentiation*10)
		}
		if comp.Moat != nil {
			moats = append(moats, *comp.Moat*10)
		}
		if comp.Overlap != nil {
			overlaps = append(overlaps, *comp.Overlap)
		}
	}

	base := neutralScore
	if len(diffs) > 0 || len(moats) > 0 {
		d, ok := avg(diffs)
		if !ok {
			d = neutralScore
		}
		m, ok := avg(moats)
		if !ok {
			m = neutralScore
		}
		base = 0.6*d + 0.4*m
	}

	if mean, ok := avg(overlaps); ok {
		base -= math.Max(0, (mean-5.0)*5.0)
	}
	base = clamp(base, 0, 100)

	if c.Positioning0to5 != nil {
		return clamp((base+float64(*c.Positioning0to5)*20)/2, 0, 100)
	}
	return base
}

// scoreTraction starts neutral, replaces the base with an ARR-derived score
// when revenue is known, and adds partnership and funding bonuses.
func scoreTraction(t *TractionInput) float64 {
	if t == nil {
		return neutralScore
	}

	score := neutralScore

	arr := t.ARRUSDMillions
	if arr == nil && t.RevenueModel != "" {
		if v, ok := ParseUSDMillions(t.RevenueModel); ok {
			arr = &v
		}
	}
	if arr != nil {
		score = math.Max(50, math.Min(100, *arr/50.0*100))
	}

	if len(t.Partnerships) > 0 {
		if hasMajorPartner(t.Partnerships) {
			score += 20
		} else {
			score += 10
		}
	}

	if f := strings.ToLower(t.FundingText); strings.Contains(f, "million") || strings.Contains(f, "billion") || strings.Contains(f, "$") {
		score += 5
	}

	return clamp(score, 0, 100)
}

var majorPartners = []string{"microsoft", "aws", "amazon", "google", "meta", "fortune"}

func hasMajorPartner(partners []string) bool {
	for _, p := range partners {
		lower := strings.ToLower(p)
		for _, big := range majorPartners {
			if strings.Contains(lower, big) {
				return true
			}
		}
	}
	return false
}

// scoreDeal is neutral until deal-term signals are modeled.
func scoreDeal(_ Input) float64 { return neutralScore }

// Score computes the full deterministic outcome for one normalized input.
// It never fails and never calls out of process.
func Score(in Input, th config.Thresholds) Outcome {
	components := map[string]ComponentScore{
		"market": {
			Score:     scoreMarket(in.Market),
			Weight:    WeightMarket,
			Rationale: "TAM, growth rate and problem fit",
		},
		"technology": {
			Score:     scoreTechnology(in.Technology),
			Weight:    WeightTechnology,
			Rationale: "performance delta, platform checklist, IP and scalability",
		},
		"competition": {
			Score:     scoreCompetition(in.Competition),
			Weight:    WeightCompetition,
			Rationale: "differentiation and moat net of overlap penalty",
		},
		"traction": {
			Score:     scoreTraction(in.Traction),
			Weight:    WeightTraction,
			Rationale: "revenue scale, partnerships and funding",
		},
		"deal": {
			Score:     scoreDeal(in),
			Weight:    WeightDeal,
			Rationale: "deal terms unavailable, neutral",
		},
	}

	weighted := 0.0
	for _, c := range components {
		weighted += c.Weight * c.Score
	}

	penalty := PenaltyPct(AggregateRisk(in.Risks))
	total := clamp(weighted*(1-penalty/100), 0, 100)

	risks := make([]string, 0, len(in.Risks))
	for _, r := range in.Risks {
		risks = append(risks, r.Text)
	}

	return Outcome{
		Total:          total,
		Components:     components,
		RiskPenaltyPct: penalty,
		Label:          Classify(total, th),
		Risks:          risks,
	}
}

// thesisResponse is the schema for the advisory rationale call.
type thesisResponse struct {
	Thesis string `json:"thesis"`
}

// Engine wraps the pure scorer with the advisory thesis generator.
type Engine struct {
	LLM        llm.Client
	Thresholds config.Thresholds

	log *slog.Logger
}

// NewEngine builds an engine. client may be nil, in which case outcomes
// carry an empty thesis.
func NewEngine(client llm.Client, th config.Thresholds) *Engine {
	return &Engine{LLM: client, Thresholds: th, log: logging.New("decide")}
}

// Decide scores the input and attaches an advisory investment thesis. A
// failed thesis call degrades to an empty thesis; the numeric decision
// stands regardless.
func (e *Engine) Decide(ctx context.Context, in Input) Outcome {
	out := Score(in, e.Thresholds)
	if e.LLM == nil {
		return out
	}

	var resp thesisResponse
	req := llm.Request{
		Schema: "investment_thesis",
		System: "You are a venture capital analyst. Output only valid JSON.",
		Prompt: thesisPrompt(in.Company, out),
	}
	if err := e.LLM.Complete(ctx, req, &resp); err != nil {
		e.log.Warn("thesis generation failed, continuing without rationale",
			"company", in.Company, "error", err)
		return out
	}
	out.Thesis = strings.TrimSpace(resp.Thesis)
	return out
}

func thesisPrompt(company string, out Outcome) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write a 4-5 sentence investment thesis for %s.\n", company)
	fmt.Fprintf(&b, "Component scores (0-100): market %.1f, technology %.1f, competition %.1f, traction %.1f, deal %.1f.\n",
		out.Components["market"].Score,
		out.Components["technology"].Score,
		out.Components["competition"].Score,
		out.Components["traction"].Score,
		out.Components["deal"].Score)
	fmt.Fprintf(&b, "Adjusted total: %.1f. Classification: %s.\n", out.Total, out.Label)
	if len(out.Risks) > 0 {
		fmt.Fprintf(&b, "Key risks: %s.\n", strings.Join(out.Risks, "; "))
	}
	b.WriteString("Lead with the market opportunity, name the concrete technology and competitive risks, and close with the recommendation.\n")
	b.WriteString(`Return JSON: {"thesis": "<text>"}`)
	return b.String()
}
