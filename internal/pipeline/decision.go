package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"prospect/internal/decide"
	"prospect/internal/llm"
	"prospect/internal/logging"
)

// DecisionStage normalizes the accumulated analysis records, gathers the
// qualitative ratings, and runs the decision engine. Every evaluator call is
// advisory; a failure leaves the corresponding signal unset and the engine
// falls back to its neutral default.
type DecisionStage struct {
	Engine *decide.Engine
	LLM    llm.Client

	log *slog.Logger
}

// NewDecisionStage wires the decision stage.
func NewDecisionStage(engine *decide.Engine, client llm.Client) *DecisionStage {
	return &DecisionStage{Engine: engine, LLM: client, log: logging.New("decision")}
}

// Decide produces the outcome for the current company. It always returns a
// fully shaped outcome, regardless of how sparse the inputs are.
func (s *DecisionStage) Decide(ctx context.Context, company Company, tech *TechRecord, market *MarketRecord, comp *CompetitorRecord) decide.Outcome {
	in := decide.Input{
		Company:     company.Name,
		Market:      s.marketInput(ctx, market),
		Technology:  s.technologyInput(ctx, tech),
		Competition: s.competitionInput(ctx, comp),
		Traction:    tractionInput(market),
		Risks:       s.assessRisks(ctx, tech, comp),
	}
	out := s.Engine.Decide(ctx, in)
	s.log.Info("decision computed", "company", company.Name,
		"total", out.Total, "label", string(out.Label), "penalty_pct", out.RiskPenaltyPct)
	return out
}

func (s *DecisionStage) marketInput(ctx context.Context, market *MarketRecord) *decide.MarketInput {
	if market == nil {
		return nil
	}
	in := &decide.MarketInput{}
	if known(market.MarketSize) {
		if v, ok := decide.ParseUSDBillions(market.MarketSize); ok {
			in.TAMUSDBillions = &v
		}
	}
	if known(market.CAGR) {
		if v, ok := decide.ParsePercent(market.CAGR); ok {
			in.CAGRPct = &v
		}
	}
	if known(market.ProblemFit) {
		if rating, ok := s.rate(ctx, "problem_fit", problemFitPrompt(market)); ok {
			in.ProblemFit0to5 = &rating
		}
	}
	return in
}

func (s *DecisionStage) technologyInput(ctx context.Context, tech *TechRecord) *decide.TechnologyInput {
	if tech == nil {
		return nil
	}
	in := &decide.TechnologyInput{}
	if known(tech.SOTAPerformance) {
		in.SOTANote = tech.SOTAPerformance
	}
	if known(tech.IPPatentStatus) {
		in.IPStatus = tech.IPPatentStatus
	}
	if known(tech.Scalability) {
		in.ScalabilityNote = tech.Scalability
	}
	if known(tech.Summary) {
		if checklist, ok := s.checklist(ctx, tech); ok {
			in.Checklist = checklist
		}
	}
	return in
}

func (s *DecisionStage) competitionInput(ctx context.Context, comp *CompetitorRecord) *decide.CompetitionInput {
	if comp == nil {
		return nil
	}
	in := &decide.CompetitionInput{}
	for _, c := range comp.Competitors {
		overlap, diff, moat := c.Overlap, c.Differentiation, c.Moat
		in.Competitors = append(in.Competitors, decide.CompetitorScore{
			Name:            c.Name,
			Overlap:         &overlap,
			Differentiation: &diff,
			Moat:            &moat,
		})
	}
	if len(comp.Competitors) > 0 {
		if rating, ok := s.rate(ctx, "competitive_positioning", positioningPrompt(comp)); ok {
			in.Positioning0to5 = &rating
		}
	}
	return in
}

func tractionInput(market *MarketRecord) *decide.TractionInput {
	if market == nil {
		return nil
	}
	in := &decide.TractionInput{Partnerships: market.Partnerships}
	if known(market.RevenueModel) {
		in.RevenueModel = market.RevenueModel
	}
	if known(market.Funding) {
		in.FundingText = market.Funding
	}
	return in
}

type ratingResponse struct {
	Rating    int    `json:"rating"`
	Rationale string `json:"rationale"`
}

// rate asks for a 0-5 rating under the given schema. ok is false when the
// service is absent or fails.
func (s *DecisionStage) rate(ctx context.Context, schema, prompt string) (int, bool) {
	if s.LLM == nil {
		return 0, false
	}
	var resp ratingResponse
	req := llm.Request{
		Schema: schema,
		System: "You are a strict JSON generator. Output only valid JSON.",
		Prompt: prompt,
	}
	if err := s.LLM.Complete(ctx, req, &resp); err != nil {
		s.log.Warn("qualitative rating unavailable", "schema", schema, "error", err)
		return 0, false
	}
	if resp.Rating < 0 {
		resp.Rating = 0
	}
	if resp.Rating > 5 {
		resp.Rating = 5
	}
	return resp.Rating, true
}

type checklistResponse struct {
	Checklist struct {
		API                 int `json:"api"`
		MultiTenancy        int `json:"multi_tenancy"`
		SDKDocs             int `json:"sdk_docs"`
		Automation          int `json:"automation"`
		DomainExtensibility int `json:"domain_extensibility"`
	} `json:"checklist"`
}

func (s *DecisionStage) checklist(ctx context.Context, tech *TechRecord) ([]int, bool) {
	if s.LLM == nil {
		return nil, false
	}
	var resp checklistResponse
	req := llm.Request{
		Schema: "tech_checklist",
		System: "You are a strict JSON generator. Output only valid JSON.",
		Prompt: checklistPrompt(tech),
	}
	if err := s.LLM.Complete(ctx, req, &resp); err != nil {
		s.log.Warn("platform checklist unavailable", "company", tech.Company, "error", err)
		return nil, false
	}
	c := resp.Checklist
	return []int{c.API, c.MultiTenancy, c.SDKDocs, c.Automation, c.DomainExtensibility}, true
}

type riskResponse struct {
	Risks []decide.Risk `json:"risks"`
}

// assessRisks groups the raw risk texts from the tech record and the SWOT
// weaknesses and threats into typed risks. On failure every raw text becomes
// a medium risk so the penalty still reflects volume.
func (s *DecisionStage) assessRisks(ctx context.Context, tech *TechRecord, comp *CompetitorRecord) []decide.Risk {
	var texts []string
	if tech != nil {
		texts = append(texts, tech.Risks...)
	}
	if comp != nil {
		texts = append(texts, comp.SWOT.Weaknesses...)
		texts = append(texts, comp.SWOT.Threats...)
	}
	if len(texts) == 0 {
		return nil
	}

	if s.LLM != nil {
		var resp riskResponse
		req := llm.Request{
			Schema: "risk_assessment",
			System: "You are a strict JSON generator. Output only valid JSON.",
			Prompt: riskPrompt(texts),
		}
		if err := s.LLM.Complete(ctx, req, &resp); err == nil && len(resp.Risks) > 0 {
			return resp.Risks
		} else if err != nil {
			s.log.Warn("risk grouping unavailable, defaulting to medium", "error", err)
		}
	}

	risks := make([]decide.Risk, 0, len(texts))
	for _, t := range texts {
		risks = append(risks, decide.Risk{Type: "other", Text: t, Severity: 2, Likelihood: 2})
	}
	return risks
}

func problemFitPrompt(market *MarketRecord) string {
	return fmt.Sprintf(`Problem fit: %s
Demand drivers: %s

Rate problem fit 0-5 (0 = no stated problem, 5 = specific problem with urgency, willingness to pay and no substitutes).
Return JSON: {"rating": 0, "rationale": "..."}`, market.ProblemFit, strings.Join(market.DemandDrivers, "; "))
}

func positioningPrompt(comp *CompetitorRecord) string {
	var lines []string
	for _, c := range comp.Competitors {
		lines = append(lines, fmt.Sprintf("%s: %s", c.Name, c.Positioning))
	}
	return fmt.Sprintf(`Target positioning vs competitors:
%s

Rate the target's positioning 0-5 (0 = indistinguishable, 5 = distinct ecosystem with network effects).
Return JSON: {"rating": 0, "rationale": "..."}`, strings.Join(lines, "\n"))
}

func checklistPrompt(tech *TechRecord) string {
	return fmt.Sprintf(`Technology summary: %s
Scalability: %s

Mark each capability 0 or 1: api, multi_tenancy, sdk_docs, automation, domain_extensibility.
Return JSON: {"checklist": {"api": 0, "multi_tenancy": 0, "sdk_docs": 0, "automation": 0, "domain_extensibility": 0}}`,
		tech.Summary, tech.Scalability)
}

func riskPrompt(texts []string) string {
	return fmt.Sprintf(`Risk texts:
- %s

Group similar risks. For each, assign type (cost, data, regulatory, competitive, ops, product, other), severity 1-3 and likelihood 1-3.
Return JSON: {"risks": [{"type": "...", "text": "...", "severity": 2, "likelihood": 2}]}`,
		strings.Join(texts, "\n- "))
}
