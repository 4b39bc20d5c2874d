package playlog

import (
	"sort"
	"time"
)

// RangeAggregator computes rollups over an inclusive date range from
// persisted day snapshots. Days are always folded in ascending date
// order; that order is what makes tie-breaking deterministic.
type RangeAggregator struct {
	store SnapshotStore
}

// NewRangeAggregator returns an aggregator reading from store.
func NewRangeAggregator(store SnapshotStore) *RangeAggregator {
	return &RangeAggregator{store: store}
}

// MostPlayed returns up to n tracks in the range sorted by total play
// count descending. Counts for the same TrackKey are summed across days.
// Ties keep the order keys were first encountered while folding days
// ascending. n <= 0 returns all tracks. Missing days contribute nothing.
func (a *RangeAggregator) MostPlayed(startDate, endDate string, n int) ([]TrackPlays, error) {
	merged, err := a.mergeRange(startDate, endDate)
	if err != nil {
		return nil, err
	}

	out := merged.tracks()
	sort.SliceStable(out, func(i, j int) bool { return out[i].Plays > out[j].Plays })
	return capTracks(out, n), nil
}

// MostPlayedArtists returns up to n artists in the range sorted by total
// play count descending. Artist counts are derived from the merged track
// map, not from per-day artist summaries, so an artist spanning several
// days is counted once across the whole range.
func (a *RangeAggregator) MostPlayedArtists(startDate, endDate string, n int) ([]ArtistPlays, error) {
	merged, err := a.mergeRange(startDate, endDate)
	if err != nil {
		return nil, err
	}

	var order []string
	counts := make(map[string]int)
	for _, tp := range merged.tracks() {
		if _, seen := counts[tp.Artist]; !seen {
			order = append(order, tp.Artist)
		}
		counts[tp.Artist] += tp.Plays
	}

	out := make([]ArtistPlays, 0, len(order))
	for _, artist := range order {
		out = append(out, ArtistPlays{Artist: artist, Plays: counts[artist]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Plays > out[j].Plays })
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out, nil
}

// AnalyzeRange returns the play-weighted mean of the stored day-level
// feature averages: sum(dayAvg * dayPlays) / sum(dayPlays). Days with
// zero plays are excluded from both sides of the division, and a range
// with no plays at all reports zeroes. Note the asymmetry with persist
// time, where a day's own average is an unweighted mean over its
// distinct tracks.
func (a *RangeAggregator) AnalyzeRange(startDate, endDate string) (RangeStats, error) {
	var stats RangeStats
	var totalPlays int

	err := a.eachDate(startDate, endDate, func(date string) error {
		snap, err := a.store.LoadSnapshot(date)
		if err != nil {
			return err
		}
		if snap.Summary.TotalPlays == 0 {
			return nil
		}
		plays := float64(snap.Summary.TotalPlays)
		totalPlays += snap.Summary.TotalPlays
		stats.AvgEnergy += snap.Summary.AvgEnergy * plays
		stats.AvgTempo += snap.Summary.AvgTempo * plays
		stats.AvgValence += snap.Summary.AvgValence * plays
		return nil
	})
	if err != nil {
		return RangeStats{}, err
	}

	if totalPlays == 0 {
		return RangeStats{}, nil
	}
	n := float64(totalPlays)
	stats.AvgEnergy /= n
	stats.AvgTempo /= n
	stats.AvgValence /= n
	return stats, nil
}

// DaySections returns each day's stored summary for the range, ascending,
// for per-day report blocks.
func (a *RangeAggregator) DaySections(startDate, endDate string) ([]DaySection, error) {
	var out []DaySection
	err := a.eachDate(startDate, endDate, func(date string) error {
		snap, err := a.store.LoadSnapshot(date)
		if err != nil {
			return err
		}
		out = append(out, DaySection{Date: date, Summary: snap.Summary})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// mergedCounts accumulates track counts across days in first-encounter
// order.
type mergedCounts struct {
	order  []TrackKey
	counts map[TrackKey]int
}

func (m *mergedCounts) add(tp TrackPlays) {
	if _, seen := m.counts[tp.TrackKey]; !seen {
		m.order = append(m.order, tp.TrackKey)
	}
	m.counts[tp.TrackKey] += tp.Plays
}

func (m *mergedCounts) tracks() []TrackPlays {
	out := make([]TrackPlays, 0, len(m.order))
	for _, key := range m.order {
		out = append(out, TrackPlays{TrackKey: key, Plays: m.counts[key]})
	}
	return out
}

func (a *RangeAggregator) mergeRange(startDate, endDate string) (*mergedCounts, error) {
	merged := &mergedCounts{counts: make(map[TrackKey]int)}
	err := a.eachDate(startDate, endDate, func(date string) error {
		bucket, err := a.store.Load(date)
		if err != nil {
			return err
		}
		for _, tp := range bucket.Tracks() {
			merged.add(tp)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return merged, nil
}

// eachDate invokes fn for every date from startDate through endDate
// inclusive, ascending.
func (a *RangeAggregator) eachDate(startDate, endDate string, fn func(date string) error) error {
	start, err := ParseDate(startDate)
	if err != nil {
		return err
	}
	end, err := ParseDate(endDate)
	if err != nil {
		return err
	}

	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if err := fn(d.Format(time.DateOnly)); err != nil {
			return err
		}
	}
	return nil
}

func capTracks(tracks []TrackPlays, n int) []TrackPlays {
	if n > 0 && len(tracks) > n {
		return tracks[:n]
	}
	return tracks
}
