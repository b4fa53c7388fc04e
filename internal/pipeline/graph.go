package pipeline

import (
	"fmt"
	"io"

	"github.com/dominikbraun/graph"
	"github.com/dominikbraun/graph/draw"
)

// phaseEdges enumerates the machine's transitions. The decision branch is
// the only fork; reporting and skipping rejoin before advancing.
var phaseEdges = []struct {
	from, to Phase
	label    string
}{
	{PhaseDiscovering, PhaseSelectingCompany, ""},
	{PhaseSelectingCompany, PhaseAnalyzingTech, "company remaining"},
	{PhaseSelectingCompany, PhaseAnalyzingMarket, "company remaining"},
	{PhaseSelectingCompany, PhaseDone, "cursor exhausted"},
	{PhaseAnalyzingTech, PhaseAnalyzingCompetitor, "join"},
	{PhaseAnalyzingMarket, PhaseAnalyzingCompetitor, "join"},
	{PhaseAnalyzingCompetitor, PhaseDeciding, ""},
	{PhaseDeciding, PhaseReporting, "invest"},
	{PhaseDeciding, PhaseSkipping, "conditional / hold / reject"},
	{PhaseReporting, PhaseAdvancing, ""},
	{PhaseSkipping, PhaseAdvancing, ""},
}

// PhaseGraph builds the directed phase graph. The Advancing loop back to
// SelectingCompany is deliberately left out so the graph stays acyclic and
// validates with cycle prevention on.
func PhaseGraph() (graph.Graph[string, string], error) {
	g := graph.New(graph.StringHash, graph.Directed(), graph.PreventCycles())

	phases := []Phase{
		PhaseDiscovering, PhaseSelectingCompany,
		PhaseAnalyzingTech, PhaseAnalyzingMarket, PhaseAnalyzingCompetitor,
		PhaseDeciding, PhaseReporting, PhaseSkipping, PhaseAdvancing, PhaseDone,
	}
	for _, p := range phases {
		if err := g.AddVertex(string(p)); err != nil {
			return nil, fmt.Errorf("add vertex %s: %w", p, err)
		}
	}
	for _, e := range phaseEdges {
		var opts []func(*graph.EdgeProperties)
		if e.label != "" {
			opts = append(opts, graph.EdgeAttribute("label", e.label))
		}
		if err := g.AddEdge(string(e.from), string(e.to), opts...); err != nil {
			return nil, fmt.Errorf("add edge %s -> %s: %w", e.from, e.to, err)
		}
	}
	return g, nil
}

// WriteDOT renders the phase graph in Graphviz DOT format.
func WriteDOT(w io.Writer) error {
	g, err := PhaseGraph()
	if err != nil {
		return err
	}
	return draw.DOT(g, w)
}
