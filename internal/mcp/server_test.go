package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"

	"prospect/internal/config"
	"prospect/internal/decide"
	"prospect/internal/evidence"
	"prospect/internal/llm"
	"prospect/internal/logging"
	"prospect/internal/pipeline"
	"prospect/internal/store"
)

func init() {
	logging.Init(slog.LevelError, "text")
}

// discoveryOnlyClient answers discovery and fails every other schema so the
// run completes on neutral defaults.
type discoveryOnlyClient struct {
	companies []pipeline.Company
}

func (c *discoveryOnlyClient) Complete(_ context.Context, req llm.Request, out any) error {
	if req.Schema != "company_discovery" {
		return &llm.Error{Kind: llm.KindProvider, Err: fmt.Errorf("no response for %s", req.Schema)}
	}
	raw, err := json.Marshal(map[string]any{"companies": c.companies})
	if err != nil {
		return err
	}
	return llm.DecodeJSON(string(raw), out)
}

func newTestFactory(companies []pipeline.Company, st store.Store) MachineFactory {
	client := &discoveryOnlyClient{companies: companies}
	return func() *pipeline.Machine {
		chain := evidence.NewChain(nil, nil)
		engine := decide.NewEngine(client, config.Thresholds{Invest: 50, Conditional: 30})
		m := pipeline.NewMachine(
			pipeline.NewDiscoverer(client, 5),
			pipeline.NewTechAnalyst(chain, client, 2),
			pipeline.NewMarketAnalyst(chain, client, 2),
			pipeline.NewCompetitorAnalyst(chain, client, 2),
			pipeline.NewDecisionStage(engine, client),
		)
		m.Store = st
		return m
	}
}

func waitDone(t *testing.T, sess *Session) {
	t.Helper()
	select {
	case <-sess.Done():
	case <-time.After(10 * time.Second):
		t.Fatal("session did not finish")
	}
}

func TestServer_StartRunAndStatus(t *testing.T) {
	mem := store.NewMemStore(store.HashEmbedder{})
	srv := NewServer(newTestFactory([]pipeline.Company{{Name: "Acme AI"}}, mem), mem)

	_, started, err := srv.handleStartRun(context.Background(), nil, startRunInput{Query: "ai video"})
	if err != nil {
		t.Fatalf("start_run: %v", err)
	}
	if started.SessionID == "" || started.Status != string(StateRunning) {
		t.Fatalf("unexpected start output: %+v", started)
	}

	waitDone(t, srv.session)

	_, status, err := srv.handleGetStatus(context.Background(), nil, getStatusInput{SessionID: started.SessionID})
	if err != nil {
		t.Fatalf("get_status: %v", err)
	}
	if status.Status != string(StateDone) {
		t.Fatalf("status = %q, want done", status.Status)
	}
	if len(status.Companies) != 1 || status.Companies[0] != "Acme AI" {
		t.Fatalf("companies = %v", status.Companies)
	}
	if status.Cursor != 1 {
		t.Fatalf("cursor = %d, want 1", status.Cursor)
	}

	_, decisions, err := srv.handleListDecisions(context.Background(), nil, listDecisionsInput{})
	if err != nil {
		t.Fatalf("list_decisions: %v", err)
	}
	if len(decisions.Decisions) != 1 || decisions.Decisions[0].Company != "Acme AI" {
		t.Fatalf("decisions = %+v", decisions.Decisions)
	}
}

func TestServer_ReplacesFinishedSession(t *testing.T) {
	mem := store.NewMemStore(store.HashEmbedder{})
	srv := NewServer(newTestFactory(nil, mem), mem)

	_, first, err := srv.handleStartRun(context.Background(), nil, startRunInput{Query: "q1"})
	if err != nil {
		t.Fatalf("start_run: %v", err)
	}
	waitDone(t, srv.session)

	// finished sessions are replaced without force
	_, second, err := srv.handleStartRun(context.Background(), nil, startRunInput{Query: "q2"})
	if err != nil {
		t.Fatalf("start_run after done: %v", err)
	}
	if second.SessionID == first.SessionID {
		t.Fatal("expected a fresh session ID")
	}
	waitDone(t, srv.session)
}

func TestServer_GetReportsRequiresFinishedRun(t *testing.T) {
	mem := store.NewMemStore(store.HashEmbedder{})
	srv := NewServer(newTestFactory(nil, mem), mem)

	if _, _, err := srv.handleGetReports(context.Background(), nil, getReportsInput{}); err == nil {
		t.Fatal("expected error with no session")
	}

	_, started, err := srv.handleStartRun(context.Background(), nil, startRunInput{Query: "q"})
	if err != nil {
		t.Fatalf("start_run: %v", err)
	}
	waitDone(t, srv.session)

	_, reports, err := srv.handleGetReports(context.Background(), nil, getReportsInput{SessionID: started.SessionID})
	if err != nil {
		t.Fatalf("get_reports: %v", err)
	}
	if len(reports.Reports) != 0 {
		t.Fatalf("reports = %+v, want none", reports.Reports)
	}
}

func TestServer_ExportGraph(t *testing.T) {
	srv := NewServer(newTestFactory(nil, nil), nil)
	_, out, err := srv.handleExportGraph(context.Background(), nil, exportGraphInput{})
	if err != nil {
		t.Fatalf("export_graph: %v", err)
	}
	if !strings.Contains(out.DOT, "deciding") {
		t.Fatalf("DOT output missing phases:\n%s", out.DOT)
	}
}
