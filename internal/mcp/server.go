// Package mcp exposes the analysis pipeline over the Model Context Protocol
// so agent frontends can start runs and pull results as tools.
package mcp

import (
	"context"
	"fmt"
	"strings"
	"sync"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"prospect/internal/logging"
	"prospect/internal/pipeline"
	"prospect/internal/store"
)

// MachineFactory builds a fresh machine per run so sessions never share
// per-run state.
type MachineFactory func() *pipeline.Machine

// Server wraps the MCP SDK server and manages one run session at a time.
type Server struct {
	MCPServer *sdkmcp.Server
	Store     store.Store // optional, backs list_decisions

	factory MachineFactory

	mu      sync.Mutex
	session *Session
}

// NewServer creates the server and registers the pipeline tools.
func NewServer(factory MachineFactory, st store.Store) *Server {
	s := &Server{factory: factory, Store: st}
	s.MCPServer = sdkmcp.NewServer(
		&sdkmcp.Implementation{Name: "prospect", Version: "dev"},
		nil,
	)
	s.registerTools()
	return s
}

// Run serves MCP over the given transport until the context ends.
func (s *Server) Run(ctx context.Context, transport sdkmcp.Transport) error {
	return s.MCPServer.Run(ctx, transport)
}

func (s *Server) registerTools() {
	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "start_run",
		Description: "Start an analysis run for a free-text investment query. Returns a session ID; the run continues in the background.",
	}, s.handleStartRun)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "get_status",
		Description: "Get the status of a run session: running, done or failed, plus discovered companies and report count once finished.",
	}, s.handleGetStatus)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "get_reports",
		Description: "List report artifacts produced by a finished run session.",
	}, s.handleGetReports)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "list_decisions",
		Description: "List persisted decision outcomes, optionally filtered by company name.",
	}, s.handleListDecisions)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "export_graph",
		Description: "Export the pipeline phase graph in Graphviz DOT format.",
	}, s.handleExportGraph)
}

// --- Tool input/output types ---

type startRunInput struct {
	Query string `json:"query" jsonschema:"free-text investment thesis to discover and analyze companies for"`
	Force bool   `json:"force,omitempty" jsonschema:"cancel any running session and start fresh"`
}

type startRunOutput struct {
	SessionID string `json:"session_id"`
	Status    string `json:"status"`
}

type getStatusInput struct {
	SessionID string `json:"session_id" jsonschema:"session ID from start_run"`
}

type getStatusOutput struct {
	Status    string   `json:"status"`
	Query     string   `json:"query"`
	Companies []string `json:"companies,omitempty"`
	Cursor    int      `json:"cursor"`
	Reports   int      `json:"reports"`
	Error     string   `json:"error,omitempty"`
}

type getReportsInput struct {
	SessionID string `json:"session_id" jsonschema:"session ID from start_run"`
}

type getReportsOutput struct {
	Reports []pipeline.Report `json:"reports"`
}

type listDecisionsInput struct {
	Company string `json:"company,omitempty" jsonschema:"filter by company name (case-insensitive); empty lists all"`
}

type decisionEntry struct {
	Company  string  `json:"company"`
	Label    string  `json:"label"`
	Total    float64 `json:"total"`
	Artifact string  `json:"artifact,omitempty"`
}

type listDecisionsOutput struct {
	Decisions []decisionEntry `json:"decisions"`
}

type exportGraphInput struct{}

type exportGraphOutput struct {
	DOT string `json:"dot"`
}

// --- Tool handlers ---

func (s *Server) handleStartRun(ctx context.Context, _ *sdkmcp.CallToolRequest, input startRunInput) (*sdkmcp.CallToolResult, startRunOutput, error) {
	if strings.TrimSpace(input.Query) == "" {
		return nil, startRunOutput{}, fmt.Errorf("query must not be empty")
	}

	logger := logging.New("mcp")
	s.mu.Lock()
	if s.session != nil {
		select {
		case <-s.session.Done():
			// finished, safe to replace
		default:
			if !input.Force {
				id := s.session.ID
				s.mu.Unlock()
				return nil, startRunOutput{}, fmt.Errorf("a run is already in progress (id=%s)", id)
			}
			logger.Warn("force-replacing active session", "old_id", s.session.ID)
			s.session.Cancel()
		}
	}
	sess := NewSession(ctx, s.factory(), input.Query)
	s.session = sess
	s.mu.Unlock()

	logger.Info("run started", "session", sess.ID, "query", input.Query)
	return nil, startRunOutput{SessionID: sess.ID, Status: string(StateRunning)}, nil
}

func (s *Server) handleGetStatus(_ context.Context, _ *sdkmcp.CallToolRequest, input getStatusInput) (*sdkmcp.CallToolResult, getStatusOutput, error) {
	sess, err := s.getSession(input.SessionID)
	if err != nil {
		return nil, getStatusOutput{}, err
	}

	out := getStatusOutput{Status: string(sess.State()), Query: sess.Query}
	st, _, runErr := sess.Snapshot()
	if st != nil {
		for _, c := range st.Companies {
			out.Companies = append(out.Companies, c.Name)
		}
		out.Cursor = st.Cursor
		out.Reports = len(st.Reports)
	}
	if runErr != nil {
		out.Error = runErr.Error()
	}
	return nil, out, nil
}

func (s *Server) handleGetReports(_ context.Context, _ *sdkmcp.CallToolRequest, input getReportsInput) (*sdkmcp.CallToolResult, getReportsOutput, error) {
	sess, err := s.getSession(input.SessionID)
	if err != nil {
		return nil, getReportsOutput{}, err
	}
	st, _, _ := sess.Snapshot()
	if st == nil {
		return nil, getReportsOutput{}, fmt.Errorf("session %s is still running", sess.ID)
	}
	reports := st.Reports
	if reports == nil {
		reports = []pipeline.Report{}
	}
	return nil, getReportsOutput{Reports: reports}, nil
}

func (s *Server) handleListDecisions(ctx context.Context, _ *sdkmcp.CallToolRequest, input listDecisionsInput) (*sdkmcp.CallToolResult, listDecisionsOutput, error) {
	if s.Store == nil {
		return nil, listDecisionsOutput{}, fmt.Errorf("no decision store configured")
	}
	decisions, err := s.Store.ListDecisions(ctx, input.Company)
	if err != nil {
		return nil, listDecisionsOutput{}, fmt.Errorf("list decisions: %w", err)
	}
	out := listDecisionsOutput{Decisions: []decisionEntry{}}
	for _, d := range decisions {
		out.Decisions = append(out.Decisions, decisionEntry{
			Company:  d.Company,
			Label:    d.Label,
			Total:    d.Total,
			Artifact: d.Artifact,
		})
	}
	return nil, out, nil
}

func (s *Server) handleExportGraph(_ context.Context, _ *sdkmcp.CallToolRequest, _ exportGraphInput) (*sdkmcp.CallToolResult, exportGraphOutput, error) {
	var b strings.Builder
	if err := pipeline.WriteDOT(&b); err != nil {
		return nil, exportGraphOutput{}, fmt.Errorf("export graph: %w", err)
	}
	return nil, exportGraphOutput{DOT: b.String()}, nil
}

func (s *Server) getSession(id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session == nil {
		return nil, fmt.Errorf("no active session; call start_run first")
	}
	if id != "" && s.session.ID != id {
		return nil, fmt.Errorf("unknown session %q", id)
	}
	return s.session, nil
}
