// Package agent implements the classification and routing engine.
//
// Processing an event is a linear pipeline with no branching back:
// determine the repair type, select a vendor from the roster, draft the
// three notification emails, then persist the case record in one atomic
// write. Every step is recorded as a case record action, and every
// external-call failure substitutes a documented default so that the event
// always ends with a complete audit trail.
package agent

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/parkrow-labs/triaged/internal/casefile"
	"github.com/parkrow-labs/triaged/internal/completion"
	"github.com/parkrow-labs/triaged/internal/event"
	"github.com/parkrow-labs/triaged/internal/ledger"
	"github.com/parkrow-labs/triaged/internal/roster"
)

// Recipient roles, in the fixed drafting order.
const (
	RecipientPropertyManager = "property_manager"
	RecipientVendor          = "vendor"
	RecipientTenant          = "tenant"
)

// noVendorPlaceholder is recorded as the vendor email body when selection
// produced no vendor.
const noVendorPlaceholder = "No maintenance vendor selected."

// fastPathMinSummary is the minimum summary length for classifying from
// the summary alone; shorter summaries fall back to the full description.
const fastPathMinSummary = 20

// maxFallbackDescription caps how much raw content is used when no summary
// is available.
const maxFallbackDescription = 500

// RosterLoader returns the current vendor roster.
type RosterLoader func() ([]roster.Vendor, error)

// Engine processes claimed events into case records.
type Engine struct {
	completer  completion.Completer
	cases      *casefile.Store
	ledger     *ledger.Ledger
	loadRoster RosterLoader
	logger     *zap.Logger
}

// New creates an engine.
func New(completer completion.Completer, cases *casefile.Store, led *ledger.Ledger, loadRoster RosterLoader, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		completer:  completer,
		cases:      cases,
		ledger:     led,
		loadRoster: loadRoster,
		logger:     logger,
	}
}

// Process runs the pipeline for one claimed event. The optional content is
// the full raw document; when empty, the ledger metadata carries the
// pipeline alone. The returned record has already been persisted.
func (e *Engine) Process(ctx context.Context, ev event.Event, content string) (*casefile.Record, error) {
	log := e.logger.With(zap.String("event_id", ev.ID))

	description := content
	if description == "" {
		description = ev.Summary
	}
	if len(description) > maxFallbackDescription {
		description = description[:maxFallbackDescription]
	}

	rec := casefile.New(ev.ID, casefile.Snapshot{
		EventID:     ev.ID,
		EventType:   ev.Type,
		Source:      ev.Source.Type + ":" + ev.Source.ID,
		Urgency:     ev.Urgency,
		Location:    ev.Location,
		Summary:     ev.Summary,
		Description: description,
	})

	// Step 1: repair type.
	repairType := e.determineRepairType(ctx, ev, description)
	rec.EventData.RepairType = repairType
	rec.AddAction("determined_repair_type", map[string]any{"repair_type": repairType})
	log.Info("determined repair type", zap.String("repair_type", repairType))

	// Step 2: vendor selection.
	vendor, vendorErr := e.selectVendor(ctx, repairType, description)
	if vendorErr != nil {
		rec.AddAction("selected_vendor", map[string]any{"vendor": nil, "error": vendorErr.Error()})
		log.Warn("no vendor selected", zap.Error(vendorErr))
	} else {
		rec.EventData.Vendor = vendor.Name
		rec.AddAction("selected_vendor", map[string]any{"vendor": vendor})
		log.Info("selected vendor", zap.String("vendor", vendor.Name))
	}

	// Step 3: draft the three notifications in fixed order.
	rec.AddEmail(RecipientPropertyManager, e.draftEmail(ctx, RecipientPropertyManager, rec.EventData))
	if vendorErr != nil {
		rec.AddEmail(RecipientVendor, noVendorPlaceholder)
	} else {
		rec.AddEmail(RecipientVendor, e.draftEmail(ctx, RecipientVendor, rec.EventData))
	}
	rec.AddEmail(RecipientTenant, e.draftEmail(ctx, RecipientTenant, rec.EventData))

	// Step 4: persist once, atomically.
	if err := e.cases.Save(rec); err != nil {
		return nil, fmt.Errorf("failed to persist case record for %s: %w", ev.ID, err)
	}

	// Reflect the event type back into the ledger row so it stays useful on
	// its own. Failure here is logged, not fatal: the case record is the
	// durable artifact.
	eventType := rec.EventData.EventType
	if uerr := e.ledger.Update(ctx, ev.ID, ledger.Fields{EventType: &eventType}); uerr != nil {
		log.Warn("failed to update ledger row", zap.Error(uerr))
	}

	log.Info("case record created", zap.Int("actions", len(rec.Actions)), zap.Int("emails", len(rec.Emails)))
	return rec, nil
}

const classifySystem = "You are a helpful assistant that categorizes maintenance requests. Respond with only the repair type."

const classifyPromptTemplate = `Based on the following maintenance request description, determine the repair type.

Description: %s

Choose the most appropriate repair type from: plumbing, electrical, hvac, appliance, structural, painting, flooring, general, other.

Respond with only the repair type (single word).`

// determineRepairType derives the single-word repair category. The summary
// is the fast path; short or missing summaries fall back to the full
// description. A failed call defaults to "other".
func (e *Engine) determineRepairType(ctx context.Context, ev event.Event, description string) string {
	basis := description
	if len(strings.TrimSpace(ev.Summary)) > fastPathMinSummary {
		basis = ev.Summary
	}

	raw, err := e.completer.Complete(ctx, completion.Request{
		System:      classifySystem,
		Prompt:      fmt.Sprintf(classifyPromptTemplate, basis),
		Temperature: 0.3,
	})
	if err != nil {
		e.logger.Warn("repair type classification failed", zap.String("event_id", ev.ID), zap.Error(err))
		return "other"
	}

	repairType := strings.ToLower(strings.TrimSpace(raw))
	repairType = strings.Trim(repairType, `"'.`)
	if repairType == "" {
		return "other"
	}
	return repairType
}
