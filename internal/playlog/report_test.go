package playlog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestBuildRangeReport(t *testing.T) {
	tracks := []TrackPlays{
		{TrackKey: key("T1", "A1"), Plays: 5},
		{TrackKey: key("T2", "A2"), Plays: 2},
	}
	artists := []ArtistPlays{
		{Artist: "A1", Plays: 5},
		{Artist: "A2", Plays: 2},
	}
	stats := RangeStats{AvgEnergy: 0.812, AvgTempo: 118.46, AvgValence: 0.333}
	days := []DaySection{
		{
			Date: "2024-01-01",
			Summary: DaySummary{
				TotalPlays: 7,
				TopArtists: []ArtistPlays{{Artist: "A1", Plays: 5}},
				AvgEnergy:  0.8,
				AvgTempo:   120,
				AvgValence: 0.3,
			},
		},
	}

	report := BuildRangeReport("2024-01-01", "2024-01-01", tracks, artists, stats, days)

	for _, want := range []string{
		"Summary for 2024-01-01 to 2024-01-01\n",
		"\tTop Tracks:\n",
		"\t\tT1 by A1 with 5 plays\n",
		"\t\tT2 by A2 with 2 plays\n",
		"\tTop Artists:\n",
		"\t\tA1 with 5 plays\n",
		"\tAverage Energy: 0.812\n",
		"\tAverage Tempo: 118.5\n",
		"\tAverage Valence: 0.333\n",
		"2024-01-01\n",
		"\tTotal Plays: 7\n",
		"\tAverage Tempo: 120.0\n",
	} {
		if !strings.Contains(report, want) {
			t.Errorf("report missing %q:\n%s", want, report)
		}
	}
}

func TestBuildRangeReport_empty_range(t *testing.T) {
	report := BuildRangeReport("2024-01-01", "2024-01-02", nil, nil, RangeStats{}, nil)

	if !strings.Contains(report, "Summary for 2024-01-01 to 2024-01-02\n") {
		t.Errorf("missing header:\n%s", report)
	}
	if !strings.Contains(report, "\tAverage Energy: 0.000\n") {
		t.Errorf("empty range should render zero metrics:\n%s", report)
	}
}

func TestService_WriteRangeReport(t *testing.T) {
	store, _ := newTestStore(t)
	svc := NewService(store)

	seedDay(t, store, "2024-01-01", map[string]int{"T1": 2})

	report, err := svc.WriteRangeReport("2024-01-01", "2024-01-02")
	if err != nil {
		t.Fatalf("WriteRangeReport: %v", err)
	}
	if !strings.Contains(report, "T1 by artist-T1 with 2 plays") {
		t.Errorf("report missing top track:\n%s", report)
	}

	data, err := os.ReadFile(filepath.Join(store.summariesDir, "2024-01-01-2024-01-02.txt"))
	if err != nil {
		t.Fatalf("report not persisted: %v", err)
	}
	if string(data) != report {
		t.Errorf("persisted report differs from returned report")
	}

	// Two per-day blocks, the second for the empty day.
	if !strings.Contains(report, "2024-01-02\n\tTotal Plays: 0\n") {
		t.Errorf("missing empty day block:\n%s", report)
	}
}

func TestService_DaySnapshot_bad_date(t *testing.T) {
	store, _ := newTestStore(t)
	svc := NewService(store)

	if _, err := svc.DaySnapshot("not-a-date"); err == nil {
		t.Error("expected error for malformed date")
	}
}
