// Package ledger implements the shared event ledger.
//
// The ledger is the system of record for every event: intake appends rows,
// the orchestration pass lists and claims them, and the routing engine
// updates them as it works. The table keeps the strict, ordered column
// contract of the original tabular store — event_id, timestamp, event_type,
// source_type, source_id, urgency, location, summary, subscribed_agents,
// status — and reordering columns is a breaking change for anything reading
// the ledger directly.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/parkrow-labs/triaged/internal/event"
)

// ErrNotFound indicates no ledger row exists for the event id.
var ErrNotFound = errors.New("event not found in ledger")

// ErrNotClaimable indicates a conditional claim failed because the row is
// no longer in the new state.
var ErrNotClaimable = errors.New("event is not claimable")

const schema = `
CREATE TABLE IF NOT EXISTS events (
	event_id          TEXT PRIMARY KEY,
	timestamp         TEXT NOT NULL,
	event_type        TEXT NOT NULL DEFAULT '',
	source_type       TEXT NOT NULL DEFAULT '',
	source_id         TEXT NOT NULL DEFAULT '',
	urgency           TEXT NOT NULL DEFAULT 'routine',
	location          TEXT NOT NULL DEFAULT 'unknown',
	summary           TEXT NOT NULL DEFAULT '',
	subscribed_agents TEXT NOT NULL DEFAULT '',
	status            TEXT NOT NULL DEFAULT 'new'
);
`

// Ledger is a SQLite-backed event ledger.
type Ledger struct {
	db *sql.DB
}

// Open opens (creating if necessary) the ledger database at path.
func Open(path string) (*Ledger, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("ledger path is required")
	}
	dsn := path + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open ledger db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping ledger db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create ledger schema: %w", err)
	}
	return &Ledger{db: db}, nil
}

// Close closes the database handle.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// Append inserts a new event row.
func (l *Ledger) Append(ctx context.Context, ev event.Event) error {
	if ev.ID == "" {
		return fmt.Errorf("event id is required")
	}
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO events (event_id, timestamp, event_type, source_type, source_id,
			urgency, location, summary, subscribed_agents, status)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.ID,
		ev.Timestamp.UTC().Format(time.RFC3339),
		ev.Type,
		ev.Source.Type,
		ev.Source.ID,
		ev.Urgency,
		ev.Location,
		ev.Summary,
		strings.Join(ev.SubscribedAgents, ","),
		ev.Status,
	)
	if err != nil {
		return fmt.Errorf("append event %s: %w", ev.ID, err)
	}
	return nil
}

// List returns all event rows in insertion order.
func (l *Ledger) List(ctx context.Context) ([]event.Event, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT event_id, timestamp, event_type, source_type, source_id,
			urgency, location, summary, subscribed_agents, status
		FROM events ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []event.Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

// Get returns a single event row by id. Returns ErrNotFound if absent.
func (l *Ledger) Get(ctx context.Context, eventID string) (event.Event, error) {
	row := l.db.QueryRowContext(ctx, `
		SELECT event_id, timestamp, event_type, source_type, source_id,
			urgency, location, summary, subscribed_agents, status
		FROM events WHERE event_id = ?`, eventID)
	ev, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return event.Event{}, ErrNotFound
	}
	return ev, err
}

// Fields holds the mutable columns of a ledger row. Nil pointers leave the
// column untouched.
type Fields struct {
	EventType *string
	Urgency   *string
	Location  *string
	Summary   *string
	Status    *string
}

// Update modifies the given fields on the row with the matching event id.
// There is no upsert: a missing row surfaces as ErrNotFound.
func (l *Ledger) Update(ctx context.Context, eventID string, fields Fields) error {
	sets := make([]string, 0, 5)
	args := make([]any, 0, 6)
	add := func(col string, v *string) {
		if v != nil {
			sets = append(sets, col+" = ?")
			args = append(args, *v)
		}
	}
	add("event_type", fields.EventType)
	add("urgency", fields.Urgency)
	add("location", fields.Location)
	add("summary", fields.Summary)
	add("status", fields.Status)

	if len(sets) == 0 {
		return nil
	}
	args = append(args, eventID)

	res, err := l.db.ExecContext(ctx,
		"UPDATE events SET "+strings.Join(sets, ", ")+" WHERE event_id = ?", args...)
	if err != nil {
		return fmt.Errorf("update event %s: %w", eventID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update event %s: %w", eventID, err)
	}
	if n == 0 {
		return fmt.Errorf("update event %s: %w", eventID, ErrNotFound)
	}
	return nil
}

// Claim transitions a row from new to processing, failing if the row is
// absent or no longer new. This is the conditional update that keeps two
// concurrent passes from both processing the same event.
func (l *Ledger) Claim(ctx context.Context, eventID string) error {
	res, err := l.db.ExecContext(ctx,
		`UPDATE events SET status = ? WHERE event_id = ? AND status = ?`,
		event.StatusProcessing, eventID, event.StatusNew)
	if err != nil {
		return fmt.Errorf("claim event %s: %w", eventID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("claim event %s: %w", eventID, err)
	}
	if n == 0 {
		return fmt.Errorf("claim event %s: %w", eventID, ErrNotClaimable)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEvent(row scanner) (event.Event, error) {
	var ev event.Event
	var ts, agents string
	err := row.Scan(&ev.ID, &ts, &ev.Type, &ev.Source.Type, &ev.Source.ID,
		&ev.Urgency, &ev.Location, &ev.Summary, &agents, &ev.Status)
	if err != nil {
		return event.Event{}, err
	}
	if parsed, perr := time.Parse(time.RFC3339, ts); perr == nil {
		ev.Timestamp = parsed
	}
	if agents != "" {
		ev.SubscribedAgents = strings.Split(agents, ",")
	}
	return ev, nil
}
