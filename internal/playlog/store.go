package playlog

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
)

const topArtistCount = 5

// SnapshotStore is the persistence abstraction for per-day aggregates.
// Loads of missing dates never fail; they yield an empty day.
type SnapshotStore interface {
	// Load returns the DayBucket for a date, rebuilt from the persisted
	// track list. The stored summary is ignored; it is derived state.
	Load(date string) (*DayBucket, error)

	// LoadSnapshot returns the persisted snapshot for a date as written,
	// including its summary. Missing dates yield an empty snapshot.
	LoadSnapshot(date string) (*DaySnapshot, error)

	// Persist recomputes the bucket's summary and atomically replaces the
	// date's snapshot. Persisting the same bucket twice is byte-identical.
	Persist(b *DayBucket) error
}

// FileStore keeps one JSON snapshot file per calendar date under
// root/days, and rendered range reports under root/summaries.
type FileStore struct {
	daysDir      string
	summariesDir string
	enricher     *BatchEnricher
}

// NewFileStore creates the store layout under root. The enricher is used
// at persist time to compute each day's feature averages.
func NewFileStore(root string, enricher *BatchEnricher) (*FileStore, error) {
	s := &FileStore{
		daysDir:      filepath.Join(root, "days"),
		summariesDir: filepath.Join(root, "summaries"),
		enricher:     enricher,
	}
	for _, dir := range []string{s.daysDir, s.summariesDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
	}
	return s, nil
}

func (s *FileStore) dayPath(date string) string {
	return filepath.Join(s.daysDir, date+".json")
}

// Load implements SnapshotStore.Load.
func (s *FileStore) Load(date string) (*DayBucket, error) {
	snap, err := s.LoadSnapshot(date)
	if err != nil {
		return nil, err
	}

	bucket := NewDayBucket(date)
	for _, rec := range snap.Tracks {
		for i := 0; i < rec.Plays; i++ {
			if err := bucket.Add(rec.Key()); err != nil {
				return nil, fmt.Errorf("replay snapshot %s: %w", date, err)
			}
		}
	}
	return bucket, nil
}

// LoadSnapshot implements SnapshotStore.LoadSnapshot.
func (s *FileStore) LoadSnapshot(date string) (*DaySnapshot, error) {
	data, err := os.ReadFile(s.dayPath(date))
	if os.IsNotExist(err) {
		return &DaySnapshot{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot %s: %w", date, err)
	}

	var snap DaySnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", date, err)
	}
	return &snap, nil
}

// Persist implements SnapshotStore.Persist. The summary's feature averages
// are an unweighted mean across the day's distinct tracks, resolved with a
// single enrichment pass; per-track play counts do not enter the day-level
// average.
func (s *FileStore) Persist(b *DayBucket) error {
	summary, err := s.summarize(b)
	if err != nil {
		return err
	}

	tracks := make([]TrackRecord, 0, len(b.Tracks()))
	for _, tp := range b.Tracks() {
		tracks = append(tracks, TrackRecord{
			Track:   tp.Track,
			Artist:  tp.Artist,
			Album:   tp.Album,
			TrackID: tp.TrackID,
			Plays:   tp.Plays,
		})
	}

	snap := DaySnapshot{Summary: summary, Tracks: tracks}
	data, err := json.MarshalIndent(&snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot %s: %w", b.Date(), err)
	}

	return atomicWrite(s.dayPath(b.Date()), append(data, '\n'))
}

func (s *FileStore) summarize(b *DayBucket) (DaySummary, error) {
	artists := b.MostPlayedArtists()
	if len(artists) > topArtistCount {
		artists = artists[:topArtistCount]
	}

	summary := DaySummary{
		TotalPlays: b.TotalPlays(),
		TopArtists: artists,
	}
	if summary.TopArtists == nil {
		summary.TopArtists = []ArtistPlays{}
	}

	ids := b.TrackIDs()
	if len(ids) == 0 {
		return summary, nil
	}

	feats, err := s.enricher.Enrich(ids)
	if err != nil {
		return DaySummary{}, fmt.Errorf("summarize %s: %w", b.Date(), err)
	}

	var energy, tempo, valence float64
	for _, f := range feats {
		energy += f.Energy
		tempo += f.Tempo
		valence += f.Valence
	}
	n := float64(len(feats))
	summary.AvgEnergy = roundTo(energy/n, 3)
	summary.AvgTempo = roundTo(tempo/n, 1)
	summary.AvgValence = roundTo(valence/n, 3)
	return summary, nil
}

// WriteSummary persists a rendered range report. The report is an
// output-only artifact; nothing reads it back.
func (s *FileStore) WriteSummary(name, content string) error {
	return atomicWrite(filepath.Join(s.summariesDir, name), []byte(content))
}

// DayCount returns the number of dates with a persisted snapshot.
func (s *FileStore) DayCount() int {
	entries, err := os.ReadDir(s.daysDir)
	if err != nil {
		return 0
	}
	n := 0
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".json") {
			n++
		}
	}
	return n
}

// atomicWrite replaces path with data via a temp file and rename, so an
// interrupted write leaves the previous file intact.
func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func roundTo(v float64, decimals int) float64 {
	scale := math.Pow(10, float64(decimals))
	return math.Round(v*scale) / scale
}
