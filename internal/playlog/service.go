package playlog

// Rollup widths for the range sections of a report. Per-day artist
// lists are capped at persist time instead.
const (
	reportTopTracks  = 10
	reportTopArtists = 10
)

// Service ties the ingester, aggregator, and store together behind the
// operations the HTTP layer and the scraper call. It holds no state of
// its own; every operation is a load-compute-persist cycle keyed by date.
type Service struct {
	store    *FileStore
	ingester *LogIngester
	agg      *RangeAggregator
}

// NewService wires a Service on top of store.
func NewService(store *FileStore) *Service {
	return &Service{
		store:    store,
		ingester: NewLogIngester(store),
		agg:      NewRangeAggregator(store),
	}
}

// Ingest folds a batch of normalized play events into day snapshots.
func (s *Service) Ingest(events []PlayEvent) error {
	return s.ingester.Ingest(events)
}

// DaySnapshot returns the persisted snapshot for a date, empty if the
// date was never played.
func (s *Service) DaySnapshot(date string) (*DaySnapshot, error) {
	if _, err := ParseDate(date); err != nil {
		return nil, err
	}
	return s.store.LoadSnapshot(date)
}

// MostPlayed returns the top-n tracks over the inclusive range.
func (s *Service) MostPlayed(startDate, endDate string, n int) ([]TrackPlays, error) {
	return s.agg.MostPlayed(startDate, endDate, n)
}

// MostPlayedArtists returns the top-n artists over the inclusive range.
func (s *Service) MostPlayedArtists(startDate, endDate string, n int) ([]ArtistPlays, error) {
	return s.agg.MostPlayedArtists(startDate, endDate, n)
}

// AnalyzeRange returns the play-weighted feature averages for the range.
func (s *Service) AnalyzeRange(startDate, endDate string) (RangeStats, error) {
	return s.agg.AnalyzeRange(startDate, endDate)
}

// WriteRangeReport renders the range summary, persists it under the
// store's summaries directory as <start>-<end>.txt, and returns the
// rendered text.
func (s *Service) WriteRangeReport(startDate, endDate string) (string, error) {
	tracks, err := s.agg.MostPlayed(startDate, endDate, reportTopTracks)
	if err != nil {
		return "", err
	}
	artists, err := s.agg.MostPlayedArtists(startDate, endDate, reportTopArtists)
	if err != nil {
		return "", err
	}
	stats, err := s.agg.AnalyzeRange(startDate, endDate)
	if err != nil {
		return "", err
	}
	days, err := s.agg.DaySections(startDate, endDate)
	if err != nil {
		return "", err
	}

	report := BuildRangeReport(startDate, endDate, tracks, artists, stats, days)
	if err := s.store.WriteSummary(startDate+"-"+endDate+".txt", report); err != nil {
		return "", err
	}
	return report, nil
}
