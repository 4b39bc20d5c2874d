package playlog

import (
	"fmt"
	"sync"
)

// IngestError wraps a failure while folding one date's events. Dates
// processed earlier in the same batch stay committed; each date is
// independently durable.
type IngestError struct {
	Date string
	Err  error
}

func (e *IngestError) Error() string {
	return fmt.Sprintf("ingest %s: %v", e.Date, e.Err)
}

func (e *IngestError) Unwrap() error {
	return e.Err
}

// LogIngester folds batches of normalized play events into per-day
// snapshots via the store's load-merge-persist cycle. Because each
// persisted snapshot already encodes all prior history for its date,
// repeated scrapes accumulate without re-reading raw logs.
//
// The cycle for a given date is a lost-update race if run concurrently,
// so the ingester serializes work per date with a keyed lock.
type LogIngester struct {
	store SnapshotStore

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewLogIngester returns an ingester backed by store.
func NewLogIngester(store SnapshotStore) *LogIngester {
	return &LogIngester{store: store, locks: make(map[string]*sync.Mutex)}
}

// Ingest groups events by local calendar date and, for each date in
// first-encounter order, loads the existing bucket, adds every event, and
// persists. On failure the date's previous snapshot is left untouched and
// an IngestError naming the date is returned; there is no rollback of
// dates already persisted in this call.
//
// Ingest trusts its input to be new plays: re-delivering the same batch
// doubles counts. Deduplication is an upstream concern.
func (ing *LogIngester) Ingest(events []PlayEvent) error {
	var dates []string
	byDate := make(map[string][]TrackKey)
	for _, ev := range events {
		date := ev.PlayedAt.Date()
		if _, seen := byDate[date]; !seen {
			dates = append(dates, date)
		}
		byDate[date] = append(byDate[date], ev.Key)
	}

	for _, date := range dates {
		if err := ing.ingestDate(date, byDate[date]); err != nil {
			return &IngestError{Date: date, Err: err}
		}
	}
	return nil
}

func (ing *LogIngester) ingestDate(date string, keys []TrackKey) error {
	unlock := ing.lockDate(date)
	defer unlock()

	bucket, err := ing.store.Load(date)
	if err != nil {
		return err
	}
	for _, key := range keys {
		if err := bucket.Add(key); err != nil {
			return err
		}
	}
	return ing.store.Persist(bucket)
}

func (ing *LogIngester) lockDate(date string) (unlock func()) {
	ing.mu.Lock()
	l, ok := ing.locks[date]
	if !ok {
		l = &sync.Mutex{}
		ing.locks[date] = l
	}
	ing.mu.Unlock()

	l.Lock()
	return l.Unlock
}
