// Package intake creates ledger events from raw content.
//
// Intake extracts lightweight metadata, parses the source reference, maps
// the issue type to an event type, and appends a new ledger row subscribed
// to the processing agent. Raw content is never stored, only the source
// reference needed to find it again.
package intake

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/parkrow-labs/triaged/internal/event"
	"github.com/parkrow-labs/triaged/internal/extract"
	"github.com/parkrow-labs/triaged/internal/ledger"
)

// Creator registers new events in the ledger.
type Creator struct {
	extractor *extract.Extractor
	ledger    *ledger.Ledger
	agentID   string
	logger    *zap.Logger
}

// New creates an event creator subscribing new events to agentID.
func New(extractor *extract.Extractor, led *ledger.Ledger, agentID string, logger *zap.Logger) *Creator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Creator{
		extractor: extractor,
		ledger:    led,
		agentID:   agentID,
		logger:    logger,
	}
}

// Create extracts metadata from content and appends a new event row.
// Extraction cannot fail (it degrades to defaults), so the only error paths
// are the ledger append itself.
func (c *Creator) Create(ctx context.Context, content, source string) (event.Event, error) {
	md := c.extractor.Extract(ctx, content)
	src := event.ParseSource(source)

	ev := event.Event{
		ID:               NewEventID(),
		Timestamp:        time.Now().UTC(),
		Type:             event.EventTypeForIssue(md.IssueType),
		Source:           src,
		Urgency:          md.Urgency,
		Location:         md.Location,
		Summary:          md.Summary,
		SubscribedAgents: []string{c.agentID},
		Status:           event.StatusNew,
	}

	if err := c.ledger.Append(ctx, ev); err != nil {
		return event.Event{}, fmt.Errorf("failed to register event: %w", err)
	}

	c.logger.Info("event created",
		zap.String("event_id", ev.ID),
		zap.String("event_type", ev.Type),
		zap.String("urgency", ev.Urgency),
		zap.String("source_type", src.Type),
	)
	return ev, nil
}

// NewEventID generates an opaque, stable event identifier.
func NewEventID() string {
	return "evt_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}
