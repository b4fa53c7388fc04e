package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"prospect/internal/config"
)

func TestExtractJSON(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"fenced", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"prose around", "Here you go:\n{\"a\":1}\nHope that helps!", `{"a":1}`},
		{"nested braces", `{"a":{"b":2}}`, `{"a":{"b":2}}`},
		{"none", "no json here", ""},
	}
	for _, tc := range cases {
		if got := ExtractJSON(tc.in); got != tc.want {
			t.Errorf("%s: ExtractJSON = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestDecodeJSON(t *testing.T) {
	var out struct {
		Score int `json:"score"`
	}
	if err := DecodeJSON("```json\n{\"score\": 4}\n```", &out); err != nil {
		t.Fatalf("DecodeJSON: %v", err)
	}
	if out.Score != 4 {
		t.Errorf("score: got %d, want 4", out.Score)
	}
	if err := DecodeJSON("not json", &out); err == nil {
		t.Fatal("expected error for non-JSON input")
	}
}

func TestStub_RespondAndCount(t *testing.T) {
	stub := NewStub().Respond("tech", map[string]any{"core_technology": "diffusion"})

	var out struct {
		CoreTechnology string `json:"core_technology"`
	}
	if err := stub.Complete(context.Background(), Request{Schema: "tech"}, &out); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if out.CoreTechnology != "diffusion" {
		t.Errorf("got %q", out.CoreTechnology)
	}
	if stub.Calls("tech") != 1 {
		t.Errorf("calls: got %d, want 1", stub.Calls("tech"))
	}
}

func TestStub_TypedFailure(t *testing.T) {
	stub := NewStub().Fail("risks", KindTimeout)
	var out map[string]any
	err := stub.Complete(context.Background(), Request{Schema: "risks"}, &out)
	if KindOf(err) != KindTimeout {
		t.Fatalf("kind: got %v, want timeout", KindOf(err))
	}
}

func TestHTTPClient_MalformedRetriesOnce(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		var req chatRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		content := "sorry, I cannot do that"
		if calls > 1 {
			// corrective instruction must be present on the retry
			last := req.Messages[len(req.Messages)-1].Content
			if last != correctiveInstruction {
				t.Errorf("retry missing corrective instruction, got %q", last)
			}
			content = `{"ok": true}`
		}
		fmt.Fprintf(w, `{"choices":[{"message":{"content":%q}}]}`, content)
	}))
	defer srv.Close()

	c := &HTTPClient{BaseURL: srv.URL, Model: "test", HTTP: srv.Client()}
	var out struct {
		OK bool `json:"ok"`
	}
	if err := c.Complete(context.Background(), Request{Schema: "x", Prompt: "p"}, &out); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if calls != 2 {
		t.Errorf("calls: got %d, want 2", calls)
	}
	if !out.OK {
		t.Error("retry reply not decoded")
	}
}

func TestHTTPClient_MalformedTwiceIsTyped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"choices":[{"message":{"content":"still not json"}}]}`)
	}))
	defer srv.Close()

	c := &HTTPClient{BaseURL: srv.URL, Model: "test", HTTP: srv.Client()}
	var out map[string]any
	err := c.Complete(context.Background(), Request{Schema: "x", Prompt: "p"}, &out)
	if KindOf(err) != KindMalformed {
		t.Fatalf("kind: got %v, want malformed-output", KindOf(err))
	}
}

func TestHTTPClient_ProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := &HTTPClient{BaseURL: srv.URL, Model: "test", HTTP: srv.Client()}
	var out map[string]any
	err := c.Complete(context.Background(), Request{Schema: "x", Prompt: "p"}, &out)
	if KindOf(err) != KindProvider {
		t.Fatalf("kind: got %v, want provider-error", KindOf(err))
	}
}

func TestNewHTTPClient_Config(t *testing.T) {
	c := NewHTTPClient(config.LLM{BaseURL: "http://x/v1/", Model: "m", Timeout: time.Second})
	if c.BaseURL != "http://x/v1" {
		t.Errorf("base url not trimmed: %q", c.BaseURL)
	}
	if c.HTTP.Timeout != time.Second {
		t.Errorf("timeout: got %v", c.HTTP.Timeout)
	}
}
