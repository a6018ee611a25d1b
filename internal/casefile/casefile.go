// Package casefile implements the durable audit record of an event's
// processing.
//
// A case record is created exactly once per processed event. Actions and
// drafted emails are appended in memory during the pipeline and the whole
// record is persisted as a single write at the end. Afterwards the only
// permitted mutation is flipping an email's sent flag via the store.
package casefile

import (
	"time"
)

// Record is the audit trail for one event.
type Record struct {
	EventID   string    `json:"event_id"`
	EventData Snapshot  `json:"event_data"`
	CreatedAt time.Time `json:"created_at"`
	Status    string    `json:"status"`
	Actions   []Action  `json:"actions"`
	Emails    []Email   `json:"emails"`
}

// Snapshot captures the event fields used during processing. It is frozen
// into the record when processing starts and updated only as the pipeline
// itself derives new values (repair type, vendor).
type Snapshot struct {
	EventID     string `json:"event_id"`
	EventType   string `json:"event_type"`
	Source      string `json:"source"`
	Urgency     string `json:"urgency"`
	Location    string `json:"location"`
	Summary     string `json:"summary"`
	Description string `json:"description,omitempty"`
	RepairType  string `json:"repair_type,omitempty"`
	Vendor      string `json:"vendor,omitempty"`
}

// Action is one append-only pipeline step entry.
type Action struct {
	Timestamp  time.Time      `json:"timestamp"`
	ActionType string         `json:"action_type"`
	Data       map[string]any `json:"data"`
}

// Email is one drafted notification. Sent may be set once by an external
// approval; everything else is immutable after append.
type Email struct {
	Timestamp time.Time `json:"timestamp"`
	Recipient string    `json:"recipient"`
	Content   string    `json:"content"`
	Sent      bool      `json:"sent"`
}

// New creates an in-memory record for an event. Nothing is persisted until
// the store's Save is called.
func New(eventID string, data Snapshot) *Record {
	return &Record{
		EventID:   eventID,
		EventData: data,
		CreatedAt: time.Now().UTC(),
		Status:    "open",
		Actions:   []Action{},
		Emails:    []Email{},
	}
}

// AddAction appends a pipeline step to the record.
func (r *Record) AddAction(actionType string, data map[string]any) {
	r.Actions = append(r.Actions, Action{
		Timestamp:  time.Now().UTC(),
		ActionType: actionType,
		Data:       data,
	})
}

// AddEmail appends a drafted email to the record.
func (r *Record) AddEmail(recipient, content string) {
	r.Emails = append(r.Emails, Email{
		Timestamp: time.Now().UTC(),
		Recipient: recipient,
		Content:   content,
	})
}
