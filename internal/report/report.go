// Package report renders investment reports for companies that pass the
// decision gate. The HTML renderer is the base; the PDF renderer prints the
// HTML artifact through headless Chrome.
package report

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"prospect/internal/config"
	"prospect/internal/llm"
	"prospect/internal/logging"
	"prospect/internal/pipeline"
)

// data is the template input assembled from the run's analysis slots.
type data struct {
	Company     pipeline.Company
	GeneratedAt string
	Author      string
	Tech        *pipeline.TechRecord
	Market      *pipeline.MarketRecord
	Competitor  *pipeline.CompetitorRecord
	Decision    *decisionView
	Summary     string
}

type decisionView struct {
	Total      float64
	Label      string
	PenaltyPct float64
	Components []componentRow
	Risks      []string
	Thesis     string
}

type componentRow struct {
	Name   string
	Score  float64
	Weight float64
}

// HTMLRenderer writes one HTML artifact per investable company.
type HTMLRenderer struct {
	OutDir string
	Author string
	LLM    llm.Client // optional, drives the executive summary

	log *slog.Logger
}

// NewHTMLRenderer builds a renderer from config. client may be nil.
func NewHTMLRenderer(cfg config.Report, client llm.Client) *HTMLRenderer {
	return &HTMLRenderer{
		OutDir: cfg.OutDir,
		Author: cfg.Author,
		LLM:    client,
		log:    logging.New("report"),
	}
}

// Render implements pipeline.Renderer. The executive summary call is
// advisory; on failure the report ships with the decision thesis instead.
func (r *HTMLRenderer) Render(ctx context.Context, company pipeline.Company, an pipeline.Analyses) (string, error) {
	if err := os.MkdirAll(r.OutDir, 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}

	d := r.assemble(ctx, company, an)

	path := filepath.Join(r.OutDir, slug(company.Name)+".html")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create report file: %w", err)
	}
	defer f.Close()

	if err := reportTemplate.Execute(f, d); err != nil {
		return "", fmt.Errorf("render report: %w", err)
	}
	r.log.Info("report written", "company", company.Name, "path", path)
	return path, nil
}

func (r *HTMLRenderer) assemble(ctx context.Context, company pipeline.Company, an pipeline.Analyses) data {
	d := data{
		Company:     company,
		GeneratedAt: time.Now().UTC().Format("2006-01-02 15:04 UTC"),
		Author:      r.Author,
		Tech:        an.Tech,
		Market:      an.Market,
		Competitor:  an.Competitor,
	}
	if an.Decision != nil {
		view := &decisionView{
			Total:      an.Decision.Total,
			Label:      string(an.Decision.Label),
			PenaltyPct: an.Decision.RiskPenaltyPct,
			Risks:      an.Decision.Risks,
			Thesis:     an.Decision.Thesis,
		}
		for _, name := range []string{"market", "technology", "competition", "traction", "deal"} {
			c := an.Decision.Components[name]
			view.Components = append(view.Components, componentRow{Name: name, Score: c.Score, Weight: c.Weight})
		}
		d.Decision = view
	}
	d.Summary = r.executiveSummary(ctx, company, d)
	return d
}

type summaryResponse struct {
	Summary string `json:"summary"`
}

func (r *HTMLRenderer) executiveSummary(ctx context.Context, company pipeline.Company, d data) string {
	fallback := ""
	if d.Decision != nil {
		fallback = d.Decision.Thesis
	}
	if r.LLM == nil || d.Decision == nil {
		return fallback
	}

	var resp summaryResponse
	req := llm.Request{
		Schema: "executive_summary",
		System: "You are a venture capital analyst. Output only valid JSON.",
		Prompt: summaryPrompt(company, d),
	}
	if err := r.LLM.Complete(ctx, req, &resp); err != nil {
		r.log.Warn("executive summary unavailable, using thesis", "company", company.Name, "error", err)
		return fallback
	}
	if s := strings.TrimSpace(resp.Summary); s != "" {
		return s
	}
	return fallback
}

func summaryPrompt(company pipeline.Company, d data) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write a 3-4 sentence executive summary of the investment case for %s (%s).\n",
		company.Name, company.Industry)
	fmt.Fprintf(&b, "Total score %.1f, classification %s, risk penalty %.0f%%.\n",
		d.Decision.Total, d.Decision.Label, d.Decision.PenaltyPct)
	if d.Tech != nil {
		fmt.Fprintf(&b, "Technology: %s\n", d.Tech.Summary)
	}
	if d.Market != nil {
		fmt.Fprintf(&b, "Market: size %s, growth %s\n", d.Market.MarketSize, d.Market.CAGR)
	}
	b.WriteString(`Return JSON: {"summary": "<text>"}`)
	return b.String()
}

// slug turns a company name into a file-system friendly identifier.
func slug(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_' || r == '.':
			b.WriteRune('-')
		}
	}
	out := strings.Trim(b.String(), "-")
	if out == "" {
		out = "report"
	}
	return out
}
