package main

import (
	"testing"

	"playlog/internal/playlog"
)

func TestLatestPlayedMs(t *testing.T) {
	mustNormalize := func(raw string) playlog.LocalTime {
		lt, err := playlog.NormalizeTimestamp(raw, -6)
		if err != nil {
			t.Fatalf("NormalizeTimestamp(%q): %v", raw, err)
		}
		return lt
	}
	event := func(raw string) playlog.PlayEvent {
		return playlog.PlayEvent{
			Key: playlog.TrackKey{
				Track: "T", Artist: "A", Album: "Al", TrackID: "id",
			},
			PlayedAt: mustNormalize(raw),
		}
	}

	newest := mustNormalize("2024-01-02T12:00:00Z").Time().UnixMilli()
	events := []playlog.PlayEvent{
		event("2024-01-01T10:00:00Z"),
		event("2024-01-02T12:00:00Z"),
		event("2024-01-02T08:00:00Z"),
	}

	if got := latestPlayedMs(events, 0); got != newest {
		t.Errorf("latestPlayedMs: got %d, want %d", got, newest)
	}

	// The cursor never moves backward: a fallback newer than every
	// event wins, and an empty batch leaves it untouched.
	ahead := newest + 1
	if got := latestPlayedMs(events, ahead); got != ahead {
		t.Errorf("latestPlayedMs with newer fallback: got %d, want %d", got, ahead)
	}
	if got := latestPlayedMs(nil, 42); got != 42 {
		t.Errorf("latestPlayedMs empty: got %d, want 42", got)
	}
}
