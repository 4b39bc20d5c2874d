package playlog

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestStore(t *testing.T) (*FileStore, *fakeFeatures) {
	t.Helper()
	src := &fakeFeatures{}
	store, err := NewFileStore(t.TempDir(), NewBatchEnricher(src))
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	return store, src
}

func TestFileStore_Load_missing_is_empty(t *testing.T) {
	store, _ := newTestStore(t)

	b, err := store.Load("2024-01-01")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if b.TotalPlays() != 0 {
		t.Errorf("empty day: total=%d", b.TotalPlays())
	}

	snap, err := store.LoadSnapshot("2024-01-01")
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
	if snap.Summary.TotalPlays != 0 || len(snap.Tracks) != 0 {
		t.Errorf("empty snapshot: %+v", snap)
	}
}

func TestFileStore_persist_load_round_trip(t *testing.T) {
	store, _ := newTestStore(t)

	b := NewDayBucket("2024-01-01")
	_ = b.Add(key("T1", "A1"))
	_ = b.Add(key("T1", "A1"))
	_ = b.Add(key("T2", "A2"))

	if err := store.Persist(b); err != nil {
		t.Fatalf("Persist: %v", err)
	}

	got, err := store.Load("2024-01-01")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.TotalPlays() != 3 {
		t.Errorf("TotalPlays: got %d, want 3", got.TotalPlays())
	}
	if got.Plays(key("T1", "A1")) != 2 || got.Plays(key("T2", "A2")) != 1 {
		t.Errorf("counts lost in round trip: %+v", got.Tracks())
	}
}

func TestFileStore_persist_idempotent(t *testing.T) {
	store, _ := newTestStore(t)

	b := NewDayBucket("2024-01-01")
	_ = b.Add(key("T1", "A1"))
	_ = b.Add(key("T2", "A2"))

	if err := store.Persist(b); err != nil {
		t.Fatalf("Persist: %v", err)
	}
	path := filepath.Join(store.daysDir, "2024-01-01.json")
	first, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	// persist(load(date)) right after a persist must be a byte-identical no-op.
	reloaded, err := store.Load("2024-01-01")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := store.Persist(reloaded); err != nil {
		t.Fatalf("Persist again: %v", err)
	}
	second, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}

	if !bytes.Equal(first, second) {
		t.Errorf("snapshots differ:\n%s\n---\n%s", first, second)
	}
}

func TestFileStore_summary_unweighted_mean(t *testing.T) {
	store, src := newTestStore(t)

	b := NewDayBucket("2024-01-01")
	// T1 has 5 plays, T2 has 1, but the day-level average is a plain mean
	// over the two distinct tracks.
	for i := 0; i < 5; i++ {
		_ = b.Add(key("T1", "A1"))
	}
	_ = b.Add(key("T2", "A2"))

	if err := store.Persist(b); err != nil {
		t.Fatalf("Persist: %v", err)
	}

	if len(src.calls) != 1 {
		t.Fatalf("enrichment calls: got %d, want 1", len(src.calls))
	}
	if len(src.calls[0]) != 2 {
		t.Errorf("enriched ids: got %v, want the 2 distinct tracks", src.calls[0])
	}

	f1 := featuresFor("id-T1")
	f2 := featuresFor("id-T2")
	snap, err := store.LoadSnapshot("2024-01-01")
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
	if want := roundTo((f1.Energy+f2.Energy)/2, 3); snap.Summary.AvgEnergy != want {
		t.Errorf("AvgEnergy: got %v, want %v", snap.Summary.AvgEnergy, want)
	}
	if want := roundTo((f1.Tempo+f2.Tempo)/2, 1); snap.Summary.AvgTempo != want {
		t.Errorf("AvgTempo: got %v, want %v", snap.Summary.AvgTempo, want)
	}
	if want := roundTo((f1.Valence+f2.Valence)/2, 3); snap.Summary.AvgValence != want {
		t.Errorf("AvgValence: got %v, want %v", snap.Summary.AvgValence, want)
	}
}

func TestFileStore_summary_top_artists_capped(t *testing.T) {
	store, _ := newTestStore(t)

	b := NewDayBucket("2024-01-01")
	for _, artist := range []string{"A1", "A2", "A3", "A4", "A5", "A6", "A7"} {
		_ = b.Add(key("T-"+artist, artist))
	}
	if err := store.Persist(b); err != nil {
		t.Fatalf("Persist: %v", err)
	}

	snap, err := store.LoadSnapshot("2024-01-01")
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}
	if len(snap.Summary.TopArtists) != 5 {
		t.Errorf("top artists: got %d, want 5", len(snap.Summary.TopArtists))
	}
	if snap.Summary.TotalPlays != 7 {
		t.Errorf("total plays: got %d, want 7", snap.Summary.TotalPlays)
	}
}

func TestFileStore_persist_enrichment_failure_keeps_old_snapshot(t *testing.T) {
	store, src := newTestStore(t)

	b := NewDayBucket("2024-01-01")
	_ = b.Add(key("T1", "A1"))
	if err := store.Persist(b); err != nil {
		t.Fatalf("Persist: %v", err)
	}

	src.err = errors.New("status 503")
	_ = b.Add(key("T2", "A2"))
	if err := store.Persist(b); !errors.Is(err, ErrEnrichment) {
		t.Fatalf("Persist with failing enrichment: got %v, want ErrEnrichment", err)
	}

	// The previous snapshot must survive a failed persist untouched.
	got, err := store.Load("2024-01-01")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.TotalPlays() != 1 {
		t.Errorf("old snapshot overwritten: total=%d, want 1", got.TotalPlays())
	}
}

func TestFileStore_no_temp_file_leftovers(t *testing.T) {
	store, _ := newTestStore(t)

	b := NewDayBucket("2024-01-01")
	_ = b.Add(key("T1", "A1"))
	if err := store.Persist(b); err != nil {
		t.Fatalf("Persist: %v", err)
	}

	entries, err := os.ReadDir(store.daysDir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	for _, e := range entries {
		if strings.Contains(e.Name(), ".tmp") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
	if store.DayCount() != 1 {
		t.Errorf("DayCount: got %d, want 1", store.DayCount())
	}
}

func TestFileStore_WriteSummary(t *testing.T) {
	store, _ := newTestStore(t)

	if err := store.WriteSummary("2024-01-01-2024-01-31.txt", "Summary\n"); err != nil {
		t.Fatalf("WriteSummary: %v", err)
	}
	data, err := os.ReadFile(filepath.Join(store.summariesDir, "2024-01-01-2024-01-31.txt"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "Summary\n" {
		t.Errorf("content: got %q", data)
	}
}
