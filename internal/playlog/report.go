package playlog

import (
	"fmt"
	"strings"
)

// DaySection is one per-day block of a range report: the date and the
// day's stored summary.
type DaySection struct {
	Date    string
	Summary DaySummary
}

// BuildRangeReport renders the human-readable summary for a date range:
// header, top tracks, top artists, the three range-average metrics, then
// one block per day. The report is write-only output; nothing parses it
// back.
func BuildRangeReport(startDate, endDate string, tracks []TrackPlays, artists []ArtistPlays, stats RangeStats, days []DaySection) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Summary for %s to %s\n", startDate, endDate)

	b.WriteString("\tTop Tracks:\n")
	for _, tp := range tracks {
		fmt.Fprintf(&b, "\t\t%s by %s with %d plays\n", tp.Track, tp.Artist, tp.Plays)
	}

	b.WriteString("\tTop Artists:\n")
	for _, ap := range artists {
		fmt.Fprintf(&b, "\t\t%s with %d plays\n", ap.Artist, ap.Plays)
	}

	writeMetrics(&b, stats.AvgEnergy, stats.AvgTempo, stats.AvgValence)

	for _, day := range days {
		b.WriteString(day.Date)
		b.WriteString("\n")
		fmt.Fprintf(&b, "\tTotal Plays: %d\n", day.Summary.TotalPlays)
		b.WriteString("\tTop Artists:\n")
		for _, ap := range day.Summary.TopArtists {
			fmt.Fprintf(&b, "\t\t%s with %d plays\n", ap.Artist, ap.Plays)
		}
		writeMetrics(&b, day.Summary.AvgEnergy, day.Summary.AvgTempo, day.Summary.AvgValence)
	}

	return b.String()
}

func writeMetrics(b *strings.Builder, energy, tempo, valence float64) {
	fmt.Fprintf(b, "\tAverage Energy: %.3f\n", energy)
	fmt.Fprintf(b, "\tAverage Tempo: %.1f\n", tempo)
	fmt.Fprintf(b, "\tAverage Valence: %.3f\n\n", valence)
}
