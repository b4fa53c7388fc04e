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

// TechAnalyst runs the technology stage: evidence retrieval plus structured
// extraction. Partial data never fails the stage; missing fields fall back
// to the unknown marker.
type TechAnalyst struct {
	Evidence    *evidence.Chain
	LLM         llm.Client
	MinEvidence int

	log *slog.Logger
}

// NewTechAnalyst wires the technology stage.
func NewTechAnalyst(chain *evidence.Chain, client llm.Client, minEvidence int) *TechAnalyst {
	return &TechAnalyst{
		Evidence:    chain,
		LLM:         client,
		MinEvidence: minEvidence,
		log:         logging.New("tech"),
	}
}

// Analyze produces the tech record for one company together with the
// provenance of the evidence consulted.
func (a *TechAnalyst) Analyze(ctx context.Context, company Company) (*TechRecord, []string) {
	query := fmt.Sprintf("%s technology architecture performance", company.Name)
	res := a.Evidence.Fetch(ctx, query, a.MinEvidence)
	if res.Insufficient(a.MinEvidence) {
		a.log.Warn("insufficient technology evidence", "company", company.Name,
			"items", len(res.Items), "reason", res.Reason)
	}

	rec := UnknownTechRecord(company.Name)
	if a.LLM == nil {
		return rec, res.Provenance
	}

	var resp TechRecord
	req := llm.Request{
		Schema: "tech_analysis",
		System: "You are a technical due diligence analyst. Output only valid JSON.",
		Prompt: techPrompt(company, res.Items),
	}
	if err := a.LLM.Complete(ctx, req, &resp); err != nil {
		a.log.Warn("tech extraction failed, using unknown-filled record",
			"company", company.Name, "error", err)
		return rec, res.Provenance
	}

	rec.Summary = fillUnknown(resp.Summary)
	rec.CoreTechnology = fillUnknown(resp.CoreTechnology)
	rec.SOTAPerformance = fillUnknown(resp.SOTAPerformance)
	rec.ReproductionDifficulty = fillUnknown(resp.ReproductionDifficulty)
	rec.IPPatentStatus = fillUnknown(resp.IPPatentStatus)
	rec.Scalability = fillUnknown(resp.Scalability)
	if len(resp.Infrastructure) > 0 {
		rec.Infrastructure = resp.Infrastructure
	}
	if len(resp.Risks) > 0 {
		rec.Risks = resp.Risks
	}
	return rec, res.Provenance
}

func techPrompt(company Company, items []evidence.Item) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Assess the technology of %s (%s).\n\n", company.Name, company.Industry)
	writeEvidence(&b, items)
	b.WriteString(`Return JSON with exactly these fields, using "unknown" where evidence is missing:
{"company": "...", "technology_summary": "...", "core_technology": "...", "sota_performance": "...", "reproduction_difficulty": "...", "infrastructure_requirements": ["..."], "ip_patent_status": "...", "scalability": "...", "tech_risks": ["..."]}`)
	return b.String()
}

// writeEvidence renders retrieved items as a numbered context block.
func writeEvidence(b *strings.Builder, items []evidence.Item) {
	if len(items) == 0 {
		b.WriteString("No evidence was retrieved; answer from general knowledge and mark uncertain fields unknown.\n\n")
		return
	}
	b.WriteString("Evidence:\n")
	for i, it := range items {
		fmt.Fprintf(b, "%d. %s — %s\n", i+1, it.Title, it.Snippet)
	}
	b.WriteString("\n")
}
