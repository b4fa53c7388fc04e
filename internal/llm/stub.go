package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Stub is a canned-response Client for tests and offline runs. Responses are
// keyed by Request.Schema; unknown schemas return a provider error so tests
// notice unexpected calls.
type Stub struct {
	mu        sync.Mutex
	responses map[string]string
	failures  map[string]*Error
	calls     map[string]int
}

// NewStub returns an empty stub; use Respond and Fail to program it.
func NewStub() *Stub {
	return &Stub{
		responses: make(map[string]string),
		failures:  make(map[string]*Error),
		calls:     make(map[string]int),
	}
}

// Respond registers a JSON reply for a schema. v may be a raw JSON string or
// any value that marshals to the reply.
func (s *Stub) Respond(schema string, v any) *Stub {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch t := v.(type) {
	case string:
		s.responses[schema] = t
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			panic(fmt.Sprintf("stub respond %s: %v", schema, err))
		}
		s.responses[schema] = string(raw)
	}
	return s
}

// Fail registers a typed failure for a schema, taking precedence over any
// registered response.
func (s *Stub) Fail(schema string, kind Kind) *Stub {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[schema] = &Error{Kind: kind, Err: fmt.Errorf("stubbed %s failure", kind)}
	return s
}

// Calls reports how many times a schema was requested.
func (s *Stub) Calls(schema string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[schema]
}

// Complete implements Client.
func (s *Stub) Complete(ctx context.Context, req Request, out any) error {
	if err := ctx.Err(); err != nil {
		return &Error{Kind: KindTimeout, Err: err}
	}
	s.mu.Lock()
	s.calls[req.Schema]++
	failure := s.failures[req.Schema]
	reply, ok := s.responses[req.Schema]
	s.mu.Unlock()

	if failure != nil {
		return failure
	}
	if !ok {
		return &Error{Kind: KindProvider, Err: fmt.Errorf("no stub response for schema %q", req.Schema)}
	}
	if err := DecodeJSON(reply, out); err != nil {
		return &Error{Kind: KindMalformed, Err: err}
	}
	return nil
}
