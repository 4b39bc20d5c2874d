package playlog

import (
	"encoding/json"
	"fmt"
)

// TrackKey is the identity tuple used as the counting unit. Two plays with
// the same TrackKey are the same song regardless of when they happened.
// All four fields are required.
type TrackKey struct {
	Track   string `json:"track"`
	Artist  string `json:"artist"`
	Album   string `json:"album"`
	TrackID string `json:"trackId"`
}

// Valid reports whether every identity field is populated.
func (k TrackKey) Valid() bool {
	return k.Track != "" && k.Artist != "" && k.Album != "" && k.TrackID != ""
}

// PlayEvent is one observed play: an identity plus the normalized local
// time it was played. Events are ephemeral; ingestion folds them into a
// DayBucket and discards them.
type PlayEvent struct {
	Key      TrackKey
	PlayedAt LocalTime
}

// TrackPlays pairs a TrackKey with its play count.
type TrackPlays struct {
	TrackKey
	Plays int `json:"plays"`
}

// ArtistPlays pairs an artist name with a play count. It marshals as a
// two-element array ["name", count], which is the snapshot wire form for
// top-artist lists.
type ArtistPlays struct {
	Artist string
	Plays  int
}

// MarshalJSON implements json.Marshaler.
func (a ArtistPlays) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{a.Artist, a.Plays})
}

// UnmarshalJSON implements json.Unmarshaler.
func (a *ArtistPlays) UnmarshalJSON(data []byte) error {
	var pair [2]json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("artist pair: %w", err)
	}
	if err := json.Unmarshal(pair[0], &a.Artist); err != nil {
		return fmt.Errorf("artist pair name: %w", err)
	}
	if err := json.Unmarshal(pair[1], &a.Plays); err != nil {
		return fmt.Errorf("artist pair count: %w", err)
	}
	return nil
}

// AudioFeatures holds the three audio features tracked per song.
type AudioFeatures struct {
	Energy  float64 `json:"energy"`
	Tempo   float64 `json:"tempo"`
	Valence float64 `json:"valence"`
}

// RangeStats is the play-weighted feature average over a date range.
type RangeStats struct {
	AvgEnergy  float64 `json:"avgEnergy"`
	AvgTempo   float64 `json:"avgTempo"`
	AvgValence float64 `json:"avgValence"`
}

// DaySummary is the derived metadata section of a persisted day snapshot.
// It is always a pure function of the track list: it is recomputed at
// persist time and never trusted on load.
type DaySummary struct {
	TotalPlays int           `json:"totalPlays"`
	TopArtists []ArtistPlays `json:"topArtists"`
	AvgEnergy  float64       `json:"avgEnergy"`
	AvgTempo   float64       `json:"avgTempo"`
	AvgValence float64       `json:"avgValence"`
}

// TrackRecord is one distinct song and its play count in a snapshot.
type TrackRecord struct {
	Track   string `json:"track"`
	Artist  string `json:"artist"`
	Album   string `json:"album"`
	TrackID string `json:"trackId"`
	Plays   int    `json:"plays"`
}

// Key returns the record's identity tuple.
func (r TrackRecord) Key() TrackKey {
	return TrackKey{Track: r.Track, Artist: r.Artist, Album: r.Album, TrackID: r.TrackID}
}

// DaySnapshot is the durable form of a DayBucket: recomputed summary plus
// the full per-track play list. The track list round-trips losslessly back
// into a bucket.
type DaySnapshot struct {
	Summary DaySummary    `json:"summary"`
	Tracks  []TrackRecord `json:"tracks"`
}
