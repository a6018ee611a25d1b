package orchestrator

import "fmt"

// Kind classifies an orchestration failure. Kinds are produced at the call
// site that observed the failure, never inferred from error message text.
type Kind int

const (
	// KindInternal is an unclassified failure. Critical.
	KindInternal Kind = iota
	// KindLedger covers ledger read/write failures. Critical.
	KindLedger
	// KindCaseStore covers case record persistence failures. Critical.
	KindCaseStore
	// KindCompletion covers completion-service failures that escaped the
	// pipeline's own defaults. Critical.
	KindCompletion
	// KindSourceDisabled means an ingest source's backing service is not
	// enabled or reachable. Non-critical: a configuration gap, not a scan
	// failure.
	KindSourceDisabled
	// KindSourceDenied means an ingest source lacks permission for a
	// follow-up action (marking a document processed). Non-critical: the
	// document was still ingested.
	KindSourceDenied
)

// String returns the kind's name.
func (k Kind) String() string {
	switch k {
	case KindLedger:
		return "ledger"
	case KindCaseStore:
		return "case_store"
	case KindCompletion:
		return "completion"
	case KindSourceDisabled:
		return "source_disabled"
	case KindSourceDenied:
		return "source_denied"
	default:
		return "internal"
	}
}

// Critical reports whether a failure of this kind fails the whole run.
func (k Kind) Critical() bool {
	switch k {
	case KindSourceDisabled, KindSourceDenied:
		return false
	default:
		return true
	}
}

// Failure is one classified error from a run.
type Failure struct {
	Kind    Kind   `json:"kind"`
	EventID string `json:"event_id,omitempty"`
	Err     error  `json:"-"`
	Message string `json:"message"`
}

func newFailure(kind Kind, eventID string, err error) Failure {
	return Failure{Kind: kind, EventID: eventID, Err: err, Message: err.Error()}
}

// Error implements the error interface.
func (f Failure) Error() string {
	if f.EventID != "" {
		return fmt.Sprintf("%s (%s): %s", f.Kind, f.EventID, f.Message)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

// Unwrap returns the underlying error.
func (f Failure) Unwrap() error {
	return f.Err
}

// SourceError lets an ingest source report a pre-classified failure.
// Sources wrap their errors in this type so the orchestrator never has to
// guess criticality from message content.
type SourceError struct {
	Kind Kind
	Err  error
}

// Error implements the error interface.
func (e *SourceError) Error() string {
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *SourceError) Unwrap() error {
	return e.Err
}
