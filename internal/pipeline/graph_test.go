package pipeline

import (
	"context"
	"strings"
	"testing"
)

func TestPhaseGraph_AcyclicAndComplete(t *testing.T) {
	g, err := PhaseGraph()
	if err != nil {
		t.Fatalf("PhaseGraph: %v", err)
	}
	edges, err := g.Edges()
	if err != nil {
		t.Fatalf("Edges: %v", err)
	}
	if len(edges) != len(phaseEdges) {
		t.Fatalf("edges = %d, want %d", len(edges), len(phaseEdges))
	}
}

func TestWriteDOT(t *testing.T) {
	var b strings.Builder
	if err := WriteDOT(&b); err != nil {
		t.Fatalf("WriteDOT: %v", err)
	}
	out := b.String()
	for _, phase := range []Phase{PhaseDiscovering, PhaseDeciding, PhaseReporting, PhaseDone} {
		if !strings.Contains(out, string(phase)) {
			t.Errorf("DOT output missing phase %q", phase)
		}
	}
}

func TestDiscover_DeduplicatesByNormalizedName(t *testing.T) {
	client := &scriptedLLM{
		discover: func() discoveryResponse {
			return discoveryResponse{Companies: []Company{
				{Name: "Acme AI"},
				{Name: "acme ai"}, // duplicate under normalization
				{Name: ""},
				{Name: "Beta Robotics", Industry: "robotics"},
			}}
		},
	}
	rec := NewDiscoverer(client, 5).Discover(context.Background(), "ai startups")

	if len(rec.Companies) != 2 {
		t.Fatalf("companies = %+v, want 2 after dedupe", rec.Companies)
	}
	if rec.Companies[0].Name != "Acme AI" || rec.Companies[1].Name != "Beta Robotics" {
		t.Fatalf("order not preserved: %+v", rec.Companies)
	}
	if rec.Companies[0].Industry != Unknown {
		t.Fatalf("missing industry must be marked unknown, got %q", rec.Companies[0].Industry)
	}
}

func TestDiscover_CapsAtMax(t *testing.T) {
	client := &scriptedLLM{
		discover: func() discoveryResponse {
			return discoveryResponse{Companies: []Company{
				{Name: "One"}, {Name: "Two"}, {Name: "Three"},
			}}
		},
	}
	rec := NewDiscoverer(client, 2).Discover(context.Background(), "q")
	if len(rec.Companies) != 2 {
		t.Fatalf("companies = %d, want 2", len(rec.Companies))
	}
}
