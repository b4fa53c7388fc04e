package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"prospect/internal/evidence"
	"prospect/internal/llm"
	"prospect/internal/logging"
)

// MarketAnalyst runs the market stage. Same degradation contract as the
// technology stage.
type MarketAnalyst struct {
	Evidence    *evidence.Chain
	LLM         llm.Client
	MinEvidence int

	log *slog.Logger
}

// NewMarketAnalyst wires the market stage.
func NewMarketAnalyst(chain *evidence.Chain, client llm.Client, minEvidence int) *MarketAnalyst {
	return &MarketAnalyst{
		Evidence:    chain,
		LLM:         client,
		MinEvidence: minEvidence,
		log:         logging.New("market"),
	}
}

// Analyze produces the market record for one company together with the
// provenance of the evidence consulted.
func (a *MarketAnalyst) Analyze(ctx context.Context, company Company) (*MarketRecord, []string) {
	query := fmt.Sprintf("%s market size growth funding traction", company.Name)
	res := a.Evidence.Fetch(ctx, query, a.MinEvidence)
	if res.Insufficient(a.MinEvidence) {
		a.log.Warn("insufficient market evidence", "company", company.Name,
			"items", len(res.Items), "reason", res.Reason)
	}

	rec := UnknownMarketRecord(company.Name)
	if a.LLM == nil {
		return rec, res.Provenance
	}

	var resp MarketRecord
	req := llm.Request{
		Schema: "market_analysis",
		System: "You are a market research analyst. Output only valid JSON.",
		Prompt: marketPrompt(company, res.Items),
	}
	if err := a.LLM.Complete(ctx, req, &resp); err != nil {
		a.log.Warn("market extraction failed, using unknown-filled record",
			"company", company.Name, "error", err)
		return rec, res.Provenance
	}

	rec.MarketSize = fillUnknown(resp.MarketSize)
	rec.CAGR = fillUnknown(resp.CAGR)
	rec.ProblemFit = fillUnknown(resp.ProblemFit)
	rec.RevenueModel = fillUnknown(resp.RevenueModel)
	rec.Funding = fillUnknown(resp.Funding)
	if len(resp.DemandDrivers) > 0 {
		rec.DemandDrivers = resp.DemandDrivers
	}
	if len(resp.Investors) > 0 {
		rec.Investors = resp.Investors
	}
	if len(resp.Partnerships) > 0 {
		rec.Partnerships = resp.Partnerships
	}
	if len(resp.CustomerSegments) > 0 {
		rec.CustomerSegments = resp.CustomerSegments
	}
	return rec, res.Provenance
}

func marketPrompt(company Company, items []evidence.Item) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Assess the market position of %s (%s).\n\n", company.Name, company.Industry)
	writeEvidence(&b, items)
	b.WriteString(`Return JSON with exactly these fields, using "unknown" where evidence is missing:
{"company": "...", "market_size": "...", "cagr": "...", "problem_fit": "...", "demand_drivers": ["..."], "revenue_model": "...", "funding": "...", "investors": ["..."], "partnerships": ["..."], "customer_segments": ["..."]}`)
	return b.String()
}
