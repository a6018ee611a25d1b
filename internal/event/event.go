// Package event defines the core event model for property-maintenance triage.
//
// An Event is a unit of incoming unstructured information: an email, a
// dropped document, or any other source that needs triage. Events live in
// the shared ledger (see internal/ledger) and are claimed by processing
// agents subscribed to them.
package event

import (
	"strings"
	"time"
)

// Status values for an event's lifecycle. Transitions are forward-only in
// the happy path: new -> processing -> processed -> closed. There is no
// transition back to StatusNew.
const (
	StatusNew        = "new"
	StatusProcessing = "processing"
	StatusProcessed  = "processed"
	StatusClosed     = "closed"
)

// Urgency values. Anything else is normalized to UrgencyRoutine before an
// event is created.
const (
	UrgencyUrgent  = "urgent"
	UrgencyRoutine = "routine"
)

// Well-known event types assigned during intake.
const (
	TypeMaintenanceRequest = "maintenance_request"
	TypeInquiry            = "inquiry"
	TypeComplaint          = "complaint"
	TypeDocumentAdded      = "document_added"
)

// Event is one row of the shared ledger.
type Event struct {
	ID               string    `json:"event_id"`
	Timestamp        time.Time `json:"timestamp"`
	Type             string    `json:"event_type"`
	Source           Source    `json:"source"`
	Urgency          string    `json:"urgency"`
	Location         string    `json:"location"`
	Summary          string    `json:"summary"`
	SubscribedAgents []string  `json:"subscribed_agents"`
	Status           string    `json:"status"`
}

// SubscribedTo reports whether agentID is entitled to claim this event.
func (e Event) SubscribedTo(agentID string) bool {
	for _, a := range e.SubscribedAgents {
		if a == agentID {
			return true
		}
	}
	return false
}

// EventTypeForIssue maps an extracted issue type to an event type.
// Maintenance-flavored issues become maintenance requests; everything
// unrecognized is a generic document_added event.
func EventTypeForIssue(issueType string) string {
	switch strings.ToLower(strings.TrimSpace(issueType)) {
	case "leak", "hvac", "appliance", "electrical", "plumbing":
		return TypeMaintenanceRequest
	case "inquiry":
		return TypeInquiry
	case "complaint":
		return TypeComplaint
	default:
		return TypeDocumentAdded
	}
}
