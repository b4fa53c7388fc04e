package main

import (
	"fmt"

	"prospect/internal/config"
	"prospect/internal/decide"
	"prospect/internal/evidence"
	"prospect/internal/llm"
	"prospect/internal/pipeline"
	"prospect/internal/report"
	"prospect/internal/store"
)

// openStore opens the SQLite evidence store, or an in-memory store when no
// path is configured.
func openStore(cfg config.Config) (store.Store, error) {
	if cfg.Evidence.StorePath == "" {
		return store.NewMemStore(store.HashEmbedder{}), nil
	}
	st, err := store.Open(cfg.Evidence.StorePath, store.HashEmbedder{})
	if err != nil {
		return nil, fmt.Errorf("open evidence store: %w", err)
	}
	return st, nil
}

// buildChain assembles the store-first, web-fallback retrieval chain.
// Configured RSS feeds are merged behind the web search client.
func buildChain(cfg config.Config, st store.Store) *evidence.Chain {
	var web evidence.Source = evidence.NewWebClient(cfg.Search)
	if len(cfg.Search.Feeds) > 0 {
		web = evidence.Multi{web, evidence.NewFeedSource(cfg.Search.Feeds)}
	}
	return evidence.NewChain(evidence.StoreSource{Store: st}, web)
}

// buildMachine wires the full pipeline from configuration.
func buildMachine(cfg config.Config, st store.Store) *pipeline.Machine {
	client := llm.NewHTTPClient(cfg.LLM)
	chain := buildChain(cfg, st)
	engine := decide.NewEngine(client, cfg.Thresholds)

	m := pipeline.NewMachine(
		pipeline.NewDiscoverer(client, 5),
		pipeline.NewTechAnalyst(chain, client, cfg.Evidence.MinimumItems),
		pipeline.NewMarketAnalyst(chain, client, cfg.Evidence.MinimumItems),
		pipeline.NewCompetitorAnalyst(chain, client, cfg.Evidence.MinimumItems),
		pipeline.NewDecisionStage(engine, client),
	)
	m.Store = st
	m.Renderer = buildRenderer(cfg, client)
	return m
}

// buildRenderer maps the configured renderer name to an implementation.
// "none" or a disabled report section turns the branch off entirely.
func buildRenderer(cfg config.Config, client llm.Client) pipeline.Renderer {
	if !cfg.Report.Enabled || cfg.Report.Renderer == "none" {
		return nil
	}
	html := report.NewHTMLRenderer(cfg.Report, client)
	if cfg.Report.Renderer == "pdf" {
		return report.NewPDFRenderer(html)
	}
	return html
}
