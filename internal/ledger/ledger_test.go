package ledger

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parkrow-labs/triaged/internal/event"
)

func newTestLedger(t *testing.T) *Ledger {
	t.Helper()
	led, err := Open(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { led.Close() })
	return led
}

func sampleEvent(id string) event.Event {
	return event.Event{
		ID:               id,
		Timestamp:        time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC),
		Type:             event.TypeMaintenanceRequest,
		Source:           event.Source{Type: "mail", ID: "msg1"},
		Urgency:          event.UrgencyUrgent,
		Location:         "Unit 3B",
		Summary:          "Pipe leaking under kitchen sink.",
		SubscribedAgents: []string{"property_manager_agent_001"},
		Status:           event.StatusNew,
	}
}

func TestAppendAndGet(t *testing.T) {
	led := newTestLedger(t)
	ctx := context.Background()
	ev := sampleEvent("evt_000000000001")

	require.NoError(t, led.Append(ctx, ev))

	got, err := led.Get(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, ev, got)
}

func TestAppendRequiresID(t *testing.T) {
	led := newTestLedger(t)
	assert.Error(t, led.Append(context.Background(), event.Event{}))
}

func TestGetMissing(t *testing.T) {
	led := newTestLedger(t)
	_, err := led.Get(context.Background(), "evt_missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListInsertionOrder(t *testing.T) {
	led := newTestLedger(t)
	ctx := context.Background()

	for _, id := range []string{"evt_c", "evt_a", "evt_b"} {
		require.NoError(t, led.Append(ctx, sampleEvent(id)))
	}

	events, err := led.List(ctx)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, "evt_c", events[0].ID)
	assert.Equal(t, "evt_a", events[1].ID)
	assert.Equal(t, "evt_b", events[2].ID)
}

func TestUpdateFields(t *testing.T) {
	led := newTestLedger(t)
	ctx := context.Background()
	ev := sampleEvent("evt_upd")
	require.NoError(t, led.Append(ctx, ev))

	eventType := event.TypeComplaint
	status := event.StatusProcessed
	require.NoError(t, led.Update(ctx, ev.ID, Fields{
		EventType: &eventType,
		Status:    &status,
	}))

	got, err := led.Get(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, event.TypeComplaint, got.Type)
	assert.Equal(t, event.StatusProcessed, got.Status)
	// Untouched columns keep their values.
	assert.Equal(t, "Unit 3B", got.Location)
	assert.Equal(t, event.UrgencyUrgent, got.Urgency)
}

func TestUpdateMissingRowIsNotUpsert(t *testing.T) {
	led := newTestLedger(t)
	status := event.StatusProcessed

	err := led.Update(context.Background(), "evt_ghost", Fields{Status: &status})
	assert.ErrorIs(t, err, ErrNotFound)

	events, lerr := led.List(context.Background())
	require.NoError(t, lerr)
	assert.Empty(t, events)
}

func TestUpdateNoFieldsIsNoop(t *testing.T) {
	led := newTestLedger(t)
	assert.NoError(t, led.Update(context.Background(), "evt_any", Fields{}))
}

func TestClaim(t *testing.T) {
	led := newTestLedger(t)
	ctx := context.Background()
	ev := sampleEvent("evt_claim")
	require.NoError(t, led.Append(ctx, ev))

	require.NoError(t, led.Claim(ctx, ev.ID))

	got, err := led.Get(ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, event.StatusProcessing, got.Status)

	// A second claim loses the race.
	assert.ErrorIs(t, led.Claim(ctx, ev.ID), ErrNotClaimable)
}

func TestClaimProcessedRowFails(t *testing.T) {
	led := newTestLedger(t)
	ctx := context.Background()
	ev := sampleEvent("evt_done")
	ev.Status = event.StatusProcessed
	require.NoError(t, led.Append(ctx, ev))

	assert.ErrorIs(t, led.Claim(ctx, ev.ID), ErrNotClaimable)
}

func TestClaimMissingRowFails(t *testing.T) {
	led := newTestLedger(t)
	assert.ErrorIs(t, led.Claim(context.Background(), "evt_ghost"), ErrNotClaimable)
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open("  ")
	assert.Error(t, err)
}

func TestReopenKeepsRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	ctx := context.Background()

	led, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, led.Append(ctx, sampleEvent("evt_durable")))
	require.NoError(t, led.Close())

	led2, err := Open(path)
	require.NoError(t, err)
	defer led2.Close()

	got, err := led2.Get(ctx, "evt_durable")
	require.NoError(t, err)
	assert.Equal(t, "evt_durable", got.ID)
}
