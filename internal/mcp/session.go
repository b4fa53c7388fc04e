package mcp

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"

	"prospect/internal/logging"
	"prospect/internal/pipeline"
)

// SessionState is the lifecycle of one analysis run.
type SessionState string

const (
	StateRunning SessionState = "running"
	StateDone    SessionState = "done"
	StateFailed  SessionState = "failed"
)

// Session owns one pipeline run executing in a background goroutine. The
// final state is published once; readers only ever see the finished snapshot.
type Session struct {
	ID      string
	Query   string
	Started time.Time

	cancel context.CancelFunc
	done   chan struct{}

	mu     sync.Mutex
	result *pipeline.State
	trace  []pipeline.Transition
	runErr error
}

// NewSession starts the machine for a query and returns immediately. The run
// outlives the originating tool call's context.
func NewSession(parent context.Context, machine *pipeline.Machine, query string) *Session {
	ctx, cancel := context.WithCancel(context.WithoutCancel(parent))
	s := &Session{
		ID:      newSessionID(),
		Query:   query,
		Started: time.Now().UTC(),
		cancel:  cancel,
		done:    make(chan struct{}),
	}

	log := logging.New("mcp-session")
	go func() {
		defer close(s.done)
		st, err := machine.Run(ctx, query)
		s.mu.Lock()
		s.result = st
		s.trace = machine.Trace()
		s.runErr = err
		s.mu.Unlock()
		if err != nil {
			log.Warn("run finished with error", "session", s.ID, "error", err)
			return
		}
		log.Info("run finished", "session", s.ID,
			"companies", len(st.Companies), "reports", len(st.Reports))
	}()
	return s
}

// Done exposes completion for select-based waits.
func (s *Session) Done() <-chan struct{} { return s.done }

// Cancel aborts the run.
func (s *Session) Cancel() { s.cancel() }

// State reports the lifecycle state.
func (s *Session) State() SessionState {
	select {
	case <-s.done:
	default:
		return StateRunning
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.runErr != nil {
		return StateFailed
	}
	return StateDone
}

// Snapshot returns the finished run state, or nils while still running.
func (s *Session) Snapshot() (*pipeline.State, []pipeline.Transition, error) {
	select {
	case <-s.done:
	default:
		return nil, nil, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result, s.trace, s.runErr
}

func newSessionID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "session-unknown"
	}
	return hex.EncodeToString(b)
}
