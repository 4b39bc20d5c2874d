package playlog

import (
	"errors"
	"sort"
)

// ErrInvalidTrackKey is returned when a play is recorded with a partially
// populated identity tuple.
var ErrInvalidTrackKey = errors.New("track key missing identity field")

// DayBucket is the in-memory play-count aggregate for one calendar date.
// It records how many times each distinct TrackKey was played, a derived
// per-artist view, and a running total. First-seen order of keys is kept
// so that ties in sorted views break deterministically rather than by map
// iteration order.
//
// A bucket is owned exclusively by the operation processing its date;
// it is not safe for concurrent use.
type DayBucket struct {
	date string

	order  []TrackKey
	counts map[TrackKey]int

	artistOrder  []string
	artistCounts map[string]int

	totalPlays int
}

// NewDayBucket returns an empty bucket for the given ISO date.
func NewDayBucket(date string) *DayBucket {
	return &DayBucket{
		date:         date,
		counts:       make(map[TrackKey]int),
		artistCounts: make(map[string]int),
	}
}

// Date returns the bucket's ISO day key.
func (b *DayBucket) Date() string {
	return b.date
}

// Add records one play of the given track. Counts only ever increment;
// plays are never removed from a bucket.
func (b *DayBucket) Add(key TrackKey) error {
	if !key.Valid() {
		return ErrInvalidTrackKey
	}

	if _, seen := b.counts[key]; !seen {
		b.order = append(b.order, key)
	}
	b.counts[key]++

	if _, seen := b.artistCounts[key.Artist]; !seen {
		b.artistOrder = append(b.artistOrder, key.Artist)
	}
	b.artistCounts[key.Artist]++

	b.totalPlays++
	return nil
}

// TotalPlays returns the sum of all track counts.
func (b *DayBucket) TotalPlays() int {
	return b.totalPlays
}

// Plays returns the play count for a single track, zero if never played.
func (b *DayBucket) Plays(key TrackKey) int {
	return b.counts[key]
}

// Tracks returns every distinct track with its count, in first-seen order.
func (b *DayBucket) Tracks() []TrackPlays {
	out := make([]TrackPlays, 0, len(b.order))
	for _, key := range b.order {
		out = append(out, TrackPlays{TrackKey: key, Plays: b.counts[key]})
	}
	return out
}

// TrackIDs returns the distinct track identifiers in first-seen order.
func (b *DayBucket) TrackIDs() []string {
	ids := make([]string, 0, len(b.order))
	for _, key := range b.order {
		ids = append(ids, key.TrackID)
	}
	return ids
}

// MostPlayedTracks returns all distinct tracks sorted by count descending.
// Ties keep first-seen order.
func (b *DayBucket) MostPlayedTracks() []TrackPlays {
	out := b.Tracks()
	sort.SliceStable(out, func(i, j int) bool { return out[i].Plays > out[j].Plays })
	return out
}

// MostPlayedArtists returns all artists sorted by play count descending.
// Ties keep first-seen order.
func (b *DayBucket) MostPlayedArtists() []ArtistPlays {
	out := make([]ArtistPlays, 0, len(b.artistOrder))
	for _, artist := range b.artistOrder {
		out = append(out, ArtistPlays{Artist: artist, Plays: b.artistCounts[artist]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Plays > out[j].Plays })
	return out
}
