package casefile

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func sampleRecord() *Record {
	rec := New("evt_abc123def456", Snapshot{
		EventID:   "evt_abc123def456",
		EventType: "maintenance_request",
		Source:    "mail:tenant@example.com:msg1",
		Urgency:   "urgent",
		Location:  "Unit 3B",
		Summary:   "Pipe leaking under kitchen sink.",
	})
	rec.AddAction("determined_repair_type", map[string]any{"repair_type": "plumbing"})
	rec.AddAction("selected_vendor", map[string]any{"vendor": "Ace Plumbing"})
	rec.AddEmail("property_manager", "Manager update.")
	rec.AddEmail("vendor", "Vendor dispatch.")
	rec.AddEmail("tenant", "Tenant acknowledgement.")
	return rec
}

func TestNewRecordDefaults(t *testing.T) {
	rec := New("evt_1", Snapshot{EventID: "evt_1"})

	assert.Equal(t, "open", rec.Status)
	assert.NotNil(t, rec.Actions)
	assert.NotNil(t, rec.Emails)
	assert.WithinDuration(t, time.Now().UTC(), rec.CreatedAt, time.Minute)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store := newTestStore(t)
	rec := sampleRecord()
	require.NoError(t, store.Save(rec))

	got, err := store.Load(rec.EventID)
	require.NoError(t, err)

	assert.Equal(t, rec.EventID, got.EventID)
	assert.Equal(t, rec.EventData, got.EventData)
	assert.Equal(t, "open", got.Status)

	// Append order survives persistence.
	require.Len(t, got.Actions, 2)
	assert.Equal(t, "determined_repair_type", got.Actions[0].ActionType)
	assert.Equal(t, "selected_vendor", got.Actions[1].ActionType)

	require.Len(t, got.Emails, 3)
	assert.Equal(t, "property_manager", got.Emails[0].Recipient)
	assert.Equal(t, "vendor", got.Emails[1].Recipient)
	assert.Equal(t, "tenant", got.Emails[2].Recipient)
	for _, email := range got.Emails {
		assert.False(t, email.Sent)
	}
}

func TestLoadMissing(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Load("evt_missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestExists(t *testing.T) {
	store := newTestStore(t)
	rec := sampleRecord()

	assert.False(t, store.Exists(rec.EventID))
	require.NoError(t, store.Save(rec))
	assert.True(t, store.Exists(rec.EventID))
}

func TestListNewestFirst(t *testing.T) {
	store := newTestStore(t)

	older := New("evt_older", Snapshot{EventID: "evt_older"})
	older.CreatedAt = time.Now().UTC().Add(-time.Hour)
	newer := New("evt_newer", Snapshot{EventID: "evt_newer"})

	require.NoError(t, store.Save(older))
	require.NoError(t, store.Save(newer))

	records, err := store.List()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "evt_newer", records[0].EventID)
	assert.Equal(t, "evt_older", records[1].EventID)
}

func TestListSkipsUnreadable(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)

	require.NoError(t, store.Save(sampleRecord()))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "evt_bad.json"), []byte("{not json"), 0o644))

	records, err := store.List()
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestMarkEmailSentOnce(t *testing.T) {
	store := newTestStore(t)
	rec := sampleRecord()
	require.NoError(t, store.Save(rec))

	require.NoError(t, store.MarkEmailSent(rec.EventID, 1))

	got, err := store.Load(rec.EventID)
	require.NoError(t, err)
	assert.False(t, got.Emails[0].Sent)
	assert.True(t, got.Emails[1].Sent)
	assert.False(t, got.Emails[2].Sent)

	// Second approval of the same email is rejected.
	assert.ErrorIs(t, store.MarkEmailSent(rec.EventID, 1), ErrEmailSent)
}

func TestMarkEmailSentBounds(t *testing.T) {
	store := newTestStore(t)
	rec := sampleRecord()
	require.NoError(t, store.Save(rec))

	assert.Error(t, store.MarkEmailSent(rec.EventID, -1))
	assert.Error(t, store.MarkEmailSent(rec.EventID, 3))
	assert.ErrorIs(t, store.MarkEmailSent("evt_missing", 0), ErrNotFound)
}
