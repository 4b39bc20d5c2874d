package playlog

import (
	"errors"
	"testing"
)

func event(t *testing.T, track, artist, raw string, offset int) PlayEvent {
	t.Helper()
	lt, err := NormalizeTimestamp(raw, offset)
	if err != nil {
		t.Fatalf("NormalizeTimestamp(%q): %v", raw, err)
	}
	return PlayEvent{Key: key(track, artist), PlayedAt: lt}
}

func TestLogIngester_groups_by_local_date(t *testing.T) {
	store, _ := newTestStore(t)
	ing := NewLogIngester(store)

	// Both plays land on local date 2024-01-01 at UTC-6 even though the
	// second is past midnight UTC.
	events := []PlayEvent{
		event(t, "T1", "A1", "2024-01-01T23:30:00Z", -6),
		event(t, "T1", "A1", "2024-01-02T00:10:00Z", -6),
	}

	if err := ing.Ingest(events); err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	day, err := store.Load("2024-01-01")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := day.Plays(key("T1", "A1")); got != 2 {
		t.Errorf("plays on 2024-01-01: got %d, want 2", got)
	}

	next, err := store.Load("2024-01-02")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if next.TotalPlays() != 0 {
		t.Errorf("2024-01-02 should be empty, total=%d", next.TotalPlays())
	}
}

func TestLogIngester_accumulates_across_runs(t *testing.T) {
	store, _ := newTestStore(t)
	ing := NewLogIngester(store)

	batch := []PlayEvent{
		event(t, "T1", "A1", "2024-01-01T10:00:00Z", -6),
		event(t, "T2", "A2", "2024-01-01T11:00:00Z", -6),
	}

	if err := ing.Ingest(batch); err != nil {
		t.Fatalf("first Ingest: %v", err)
	}
	// Re-delivering the same batch doubles counts: the ingester trusts
	// its input to be new plays, dedup is an upstream concern.
	if err := ing.Ingest(batch); err != nil {
		t.Fatalf("second Ingest: %v", err)
	}

	day, err := store.Load("2024-01-01")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if day.TotalPlays() != 4 {
		t.Errorf("TotalPlays after re-delivery: got %d, want 4", day.TotalPlays())
	}
	if day.Plays(key("T1", "A1")) != 2 {
		t.Errorf("T1 plays: got %d, want 2", day.Plays(key("T1", "A1")))
	}
}

// failingStore fails persists for one specific date.
type failingStore struct {
	SnapshotStore
	failDate string
}

var errDisk = errors.New("disk full")

func (s *failingStore) Persist(b *DayBucket) error {
	if b.Date() == s.failDate {
		return errDisk
	}
	return s.SnapshotStore.Persist(b)
}

func TestLogIngester_partial_progress(t *testing.T) {
	inner, _ := newTestStore(t)
	store := &failingStore{SnapshotStore: inner, failDate: "2024-01-02"}
	ing := NewLogIngester(store)

	events := []PlayEvent{
		event(t, "T1", "A1", "2024-01-01T10:00:00Z", 0),
		event(t, "T2", "A2", "2024-01-02T10:00:00Z", 0),
	}

	err := ing.Ingest(events)
	var ingErr *IngestError
	if !errors.As(err, &ingErr) {
		t.Fatalf("got %v, want *IngestError", err)
	}
	if ingErr.Date != "2024-01-02" {
		t.Errorf("failed date: got %s, want 2024-01-02", ingErr.Date)
	}
	if !errors.Is(err, errDisk) {
		t.Errorf("cause not wrapped: %v", err)
	}

	// The earlier date stays committed; dates are independently durable.
	day, loadErr := inner.Load("2024-01-01")
	if loadErr != nil {
		t.Fatalf("Load: %v", loadErr)
	}
	if day.TotalPlays() != 1 {
		t.Errorf("2024-01-01 not committed: total=%d", day.TotalPlays())
	}
}

func TestLogIngester_invalid_key_leaves_snapshot_untouched(t *testing.T) {
	store, _ := newTestStore(t)
	ing := NewLogIngester(store)

	if err := ing.Ingest([]PlayEvent{event(t, "T1", "A1", "2024-01-01T10:00:00Z", 0)}); err != nil {
		t.Fatalf("setup Ingest: %v", err)
	}

	lt, _ := NormalizeTimestamp("2024-01-01T12:00:00Z", 0)
	bad := PlayEvent{Key: TrackKey{Track: "T2"}, PlayedAt: lt}
	err := ing.Ingest([]PlayEvent{event(t, "T3", "A3", "2024-01-01T11:00:00Z", 0), bad})
	if !errors.Is(err, ErrInvalidTrackKey) {
		t.Fatalf("got %v, want ErrInvalidTrackKey", err)
	}

	// The failed merge must not overwrite the previously persisted day.
	day, loadErr := store.Load("2024-01-01")
	if loadErr != nil {
		t.Fatalf("Load: %v", loadErr)
	}
	if day.TotalPlays() != 1 {
		t.Errorf("snapshot changed by failed merge: total=%d, want 1", day.TotalPlays())
	}
}
