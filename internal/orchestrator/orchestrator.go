// Package orchestrator drives one triage pass.
//
// A pass ingests new documents from the configured sources, then claims and
// processes every ledger event that is new, subscribed to the agent, and
// not already covered by a case record. Failures are classified with typed
// kinds; only critical kinds fail the run.
package orchestrator

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/parkrow-labs/triaged/internal/agent"
	"github.com/parkrow-labs/triaged/internal/casefile"
	"github.com/parkrow-labs/triaged/internal/event"
	"github.com/parkrow-labs/triaged/internal/intake"
	"github.com/parkrow-labs/triaged/internal/ledger"
	"github.com/parkrow-labs/triaged/internal/metrics"
)

// Document is one unit of raw content produced by an ingest source.
type Document struct {
	// Content is the raw text.
	Content string
	// Source is the opaque source reference (see event.ParseSource).
	Source string
}

// Source produces new documents for intake. Implementations wrap their
// errors in *SourceError when the failure should not fail the run.
type Source interface {
	// Name identifies the source in logs and results.
	Name() string
	// Poll returns documents not yet ingested.
	Poll(ctx context.Context) ([]Document, error)
	// MarkProcessed records that a document was ingested so it is not
	// returned again.
	MarkProcessed(ctx context.Context, doc Document) error
}

// Result summarizes one pass. Failures holds only critical failures;
// non-critical ones are logged and dropped from the report.
type Result struct {
	DocumentsIngested int       `json:"documents_ingested"`
	EventsCreated     int       `json:"events_created"`
	CasesCreated      int       `json:"cases_created"`
	EventsSkipped     int       `json:"events_skipped"`
	Failures          []Failure `json:"failures,omitempty"`
}

// Success reports whether the pass completed without critical failures.
func (r Result) Success() bool {
	return len(r.Failures) == 0
}

// Orchestrator runs triage passes.
type Orchestrator struct {
	sources []Source
	creator *intake.Creator
	ledger  *ledger.Ledger
	cases   *casefile.Store
	engine  *agent.Engine
	agentID string
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// New creates an orchestrator.
func New(sources []Source, creator *intake.Creator, led *ledger.Ledger, cases *casefile.Store, engine *agent.Engine, agentID string, logger *zap.Logger, m *metrics.Metrics) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if m == nil {
		m = metrics.Nop()
	}
	return &Orchestrator{
		sources: sources,
		creator: creator,
		ledger:  led,
		cases:   cases,
		engine:  engine,
		agentID: agentID,
		logger:  logger,
		metrics: m,
	}
}

// RunOnce performs a single pass: ingest, then process.
func (o *Orchestrator) RunOnce(ctx context.Context) Result {
	o.metrics.ScanRuns.Inc()
	var res Result

	o.ingest(ctx, &res)
	o.process(ctx, &res)

	if !res.Success() {
		o.metrics.ScanFailures.Inc()
	}
	o.logger.Info("triage pass complete",
		zap.Int("documents_ingested", res.DocumentsIngested),
		zap.Int("events_created", res.EventsCreated),
		zap.Int("cases_created", res.CasesCreated),
		zap.Int("events_skipped", res.EventsSkipped),
		zap.Int("failures", len(res.Failures)),
	)
	return res
}

// ingest drains every source into the ledger.
func (o *Orchestrator) ingest(ctx context.Context, res *Result) {
	for _, src := range o.sources {
		docs, err := src.Poll(ctx)
		if err != nil {
			o.recordError(res, "", err, zap.String("source", src.Name()))
			continue
		}
		for _, doc := range docs {
			res.DocumentsIngested++
			ev, err := o.creator.Create(ctx, doc.Content, doc.Source)
			if err != nil {
				res.Failures = append(res.Failures, newFailure(KindLedger, "", err))
				continue
			}
			res.EventsCreated++
			o.metrics.EventsCreated.Inc()

			if err := src.MarkProcessed(ctx, doc); err != nil {
				o.recordError(res, ev.ID, err, zap.String("source", src.Name()))
			}
		}
	}
}

// process claims and routes every eligible ledger event.
func (o *Orchestrator) process(ctx context.Context, res *Result) {
	events, err := o.ledger.List(ctx)
	if err != nil {
		res.Failures = append(res.Failures, newFailure(KindLedger, "", err))
		return
	}

	for _, ev := range events {
		if ev.Status != event.StatusNew || !ev.SubscribedTo(o.agentID) {
			continue
		}

		// Replay protection: an existing case record means this event was
		// already processed, regardless of what the ledger row says.
		if o.cases.Exists(ev.ID) {
			o.logger.Debug("skipping event with existing case record", zap.String("event_id", ev.ID))
			res.EventsSkipped++
			continue
		}

		// Conditional claim: only one pass can move the row out of new.
		if err := o.ledger.Claim(ctx, ev.ID); err != nil {
			if errors.Is(err, ledger.ErrNotClaimable) {
				res.EventsSkipped++
				continue
			}
			res.Failures = append(res.Failures, newFailure(KindLedger, ev.ID, err))
			continue
		}

		if _, err := o.engine.Process(ctx, ev, ""); err != nil {
			res.Failures = append(res.Failures, newFailure(KindCaseStore, ev.ID, err))
			continue
		}
		res.CasesCreated++
		o.metrics.CasesCreated.Inc()

		status := event.StatusProcessed
		if err := o.ledger.Update(ctx, ev.ID, ledger.Fields{Status: &status}); err != nil {
			res.Failures = append(res.Failures, newFailure(KindLedger, ev.ID, err))
		}
	}
}

// recordError classifies err and either logs it (non-critical) or appends
// it to the run's failures.
func (o *Orchestrator) recordError(res *Result, eventID string, err error, fields ...zap.Field) {
	var srcErr *SourceError
	if errors.As(err, &srcErr) && !srcErr.Kind.Critical() {
		o.logger.Warn("non-critical source error",
			append(fields, zap.String("kind", srcErr.Kind.String()), zap.Error(err))...)
		return
	}
	kind := KindInternal
	if srcErr != nil {
		kind = srcErr.Kind
	}
	res.Failures = append(res.Failures, newFailure(kind, eventID, err))
}
