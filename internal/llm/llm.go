// Package llm is the language model service boundary. Analysis stages send a
// structured request naming a response schema and decode the JSON reply into
// their own record types. Failures are typed so callers can tell a timeout
// from a malformed reply from a provider fault; all of them are recoverable
// at the stage level.
package llm

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies a service failure.
type Kind string

const (
	KindTimeout   Kind = "timeout"
	KindMalformed Kind = "malformed-output"
	KindProvider  Kind = "provider-error"
)

// Error is the typed failure returned by Complete.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the failure kind of err, or "" when err is not a service
// failure.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}

// Request is a structured completion request. Schema names the expected
// response shape; implementations may use it for routing (the stub does) or
// ignore it (the HTTP client relies on the prompt to pin the shape).
type Request struct {
	Schema    string // e.g. "discovery", "tech", "swot", "risks"
	System    string
	Prompt    string
	MaxTokens int
}

// Client completes a request and decodes the JSON reply into out.
// A malformed reply is retried once with a corrective instruction before
// being surfaced as KindMalformed.
type Client interface {
	Complete(ctx context.Context, req Request, out any) error
}
