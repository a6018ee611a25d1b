package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/parkrow-labs/triaged/internal/completion"
	"github.com/parkrow-labs/triaged/internal/roster"
)

// ErrNoVendor indicates the roster yielded no vendor for the repair.
var ErrNoVendor = errors.New("no vendor available")

const selectSystem = "You are a helpful assistant that selects maintenance vendors. Respond with only the vendor name."

const selectPromptTemplate = `Select the best maintenance vendor for this repair request.

Repair Type: %s
Description: %s

Available Vendors:
%s

Select the most appropriate vendor based on the repair type and description.
Respond with only the vendor name (exactly as it appears in the list).`

// selectVendor picks a vendor for the repair type.
//
// The roster is filtered by specialty first; a vendor with no specialties
// declared matches any repair. A single survivor wins outright. Zero or
// multiple survivors delegate the choice to the completion service, whose
// answer is matched back to the roster by case-insensitive substring in
// either direction, falling back to the first candidate.
func (e *Engine) selectVendor(ctx context.Context, repairType, description string) (roster.Vendor, error) {
	vendors, err := e.loadRoster()
	if err != nil {
		return roster.Vendor{}, fmt.Errorf("failed to load vendor roster: %w", err)
	}
	if len(vendors) == 0 {
		return roster.Vendor{}, ErrNoVendor
	}

	var matching []roster.Vendor
	for _, v := range vendors {
		if v.HandlesRepairType(repairType) {
			matching = append(matching, v)
		}
	}

	switch len(matching) {
	case 1:
		return matching[0], nil
	case 0:
		// Nothing claims this specialty; let the completion service pick
		// from the whole roster.
		return e.disambiguate(ctx, vendors, repairType, description), nil
	default:
		return e.disambiguate(ctx, matching, repairType, description), nil
	}
}

// disambiguate asks the completion service to choose among candidates.
// Any failure falls back to the first candidate: an arbitrary vendor beats
// an aborted pipeline.
func (e *Engine) disambiguate(ctx context.Context, candidates []roster.Vendor, repairType, description string) roster.Vendor {
	listing, err := json.MarshalIndent(candidates, "", "  ")
	if err != nil {
		return candidates[0]
	}

	raw, err := e.completer.Complete(ctx, completion.Request{
		System:      selectSystem,
		Prompt:      fmt.Sprintf(selectPromptTemplate, repairType, description, string(listing)),
		Temperature: 0.3,
	})
	if err != nil {
		e.logger.Warn("vendor disambiguation failed, using first candidate", zap.Error(err))
		return candidates[0]
	}

	selected := strings.ToLower(strings.TrimSpace(raw))
	for _, v := range candidates {
		name := strings.ToLower(v.Name)
		if name == "" {
			continue
		}
		if strings.Contains(name, selected) || strings.Contains(selected, name) {
			return v
		}
	}
	return candidates[0]
}
