package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"prospect/internal/decide"
	"prospect/internal/logging"
	"prospect/internal/store"
)

// Phase names the state machine positions.
type Phase string

const (
	PhaseDiscovering         Phase = "discovering"
	PhaseSelectingCompany    Phase = "selecting_company"
	PhaseAnalyzingTech       Phase = "analyzing_tech"
	PhaseAnalyzingMarket     Phase = "analyzing_market"
	PhaseAnalyzingCompetitor Phase = "analyzing_competitor"
	PhaseDeciding            Phase = "deciding"
	PhaseReporting           Phase = "reporting"
	PhaseSkipping            Phase = "skipping"
	PhaseAdvancing           Phase = "advancing"
	PhaseDone                Phase = "done"
)

// Transition is one recorded machine step, kept for the execution trace.
type Transition struct {
	From    Phase
	To      Phase
	Company string
}

// Renderer produces a report artifact for an investable company.
type Renderer interface {
	Render(ctx context.Context, company Company, an Analyses) (artifact string, err error)
}

// Machine sequences the stages, evaluates the decision branch, and drives
// the company iteration loop. One machine runs one query at a time; no two
// companies are ever processed concurrently.
type Machine struct {
	Discoverer *Discoverer
	Tech       *TechAnalyst
	Market     *MarketAnalyst
	Competitor *CompetitorAnalyst
	Decision   *DecisionStage
	Renderer   Renderer    // nil disables the report branch
	Store      store.Store // nil disables decision persistence

	trace []Transition
	log   *slog.Logger
}

// NewMachine assembles a machine from its stages.
func NewMachine(d *Discoverer, t *TechAnalyst, m *MarketAnalyst, c *CompetitorAnalyst, dec *DecisionStage) *Machine {
	return &Machine{
		Discoverer: d,
		Tech:       t,
		Market:     m,
		Competitor: c,
		Decision:   dec,
		log:        logging.New("pipeline"),
	}
}

// Trace returns the recorded transitions of the last run.
func (mc *Machine) Trace() []Transition { return mc.trace }

func (mc *Machine) step(from, to Phase, company string) Phase {
	mc.trace = append(mc.trace, Transition{From: from, To: to, Company: company})
	mc.log.Debug("transition", "from", string(from), "to", string(to), "company", company)
	return to
}

// Run executes the full pipeline for one discovery query. The run always
// completes; per-company stage failures degrade to defaults and only context
// cancellation aborts early.
func (mc *Machine) Run(ctx context.Context, query string) (*State, error) {
	mc.trace = nil
	st := NewState(query)

	disc := mc.Discoverer.Discover(ctx, query)
	st.Companies = disc.Companies
	phase := mc.step(PhaseDiscovering, PhaseSelectingCompany, "")

	for {
		if err := ctx.Err(); err != nil {
			return st, fmt.Errorf("run aborted: %w", err)
		}

		company, ok := st.CurrentCompany()
		if !ok {
			mc.step(phase, PhaseDone, "")
			mc.log.Info("run complete", "companies", len(st.Companies), "reports", len(st.Reports))
			return st, nil
		}
		mc.log.Info("analyzing company", "company", company.Name,
			"position", st.Cursor+1, "of", len(st.Companies))

		// Tech and Market have no data dependency on each other; they are
		// the only sanctioned parallelism across stages. The trace records
		// the fan-out as two transitions from SelectingCompany and the join
		// as one from each branch, matching the phase graph edges.
		mc.step(phase, PhaseAnalyzingTech, company.Name)
		mc.step(phase, PhaseAnalyzingMarket, company.Name)
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			rec, sources := mc.Tech.Analyze(gctx, company)
			st.Analyses.Tech = rec
			st.AddSources(StageTech, sources...)
			return nil
		})
		g.Go(func() error {
			rec, sources := mc.Market.Analyze(gctx, company)
			st.Analyses.Market = rec
			st.AddSources(StageMarket, sources...)
			return nil
		})
		_ = g.Wait() // stages degrade internally, never error

		mc.step(PhaseAnalyzingTech, PhaseAnalyzingCompetitor, company.Name)
		phase = mc.step(PhaseAnalyzingMarket, PhaseAnalyzingCompetitor, company.Name)
		compRec, sources := mc.Competitor.Analyze(ctx, company, st.Analyses.Tech, st.Analyses.Market)
		st.Analyses.Competitor = compRec
		st.AddSources(StageCompetitor, sources...)

		phase = mc.step(phase, PhaseDeciding, company.Name)
		outcome := mc.Decision.Decide(ctx, company, st.Analyses.Tech, st.Analyses.Market, st.Analyses.Competitor)
		st.Analyses.Decision = &outcome

		artifact := ""
		if outcome.Label.Investable() && mc.Renderer != nil {
			phase = mc.step(phase, PhaseReporting, company.Name)
			ref, err := mc.Renderer.Render(ctx, company, st.Analyses)
			if err != nil {
				mc.log.Warn("report rendering failed", "company", company.Name, "error", err)
			} else {
				artifact = ref
				st.Reports = append(st.Reports, Report{Company: company.Name, Artifact: ref})
			}
		} else {
			phase = mc.step(phase, PhaseSkipping, company.Name)
		}

		mc.persistDecision(ctx, company, outcome, artifact)

		phase = mc.step(phase, PhaseAdvancing, company.Name)
		st.Advance()
		phase = mc.step(phase, PhaseSelectingCompany, "")
	}
}

func (mc *Machine) persistDecision(ctx context.Context, company Company, out decide.Outcome, artifact string) {
	if mc.Store == nil {
		return
	}
	_, err := mc.Store.SaveDecision(ctx, &store.Decision{
		Company:  company.Name,
		Label:    string(out.Label),
		Total:    out.Total,
		Artifact: artifact,
	})
	if err != nil {
		mc.log.Warn("decision persistence failed", "company", company.Name, "error", err)
	}
}
