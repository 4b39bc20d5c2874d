package main

import (
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"playlog/internal/platform/config"
	"playlog/internal/platform/logger"
	"playlog/internal/playlog"
	"playlog/internal/spotify"
)

// The catalog only keeps the last 50 plays, so scraping more often than
// every couple of hours just burns quota. Polling stays short so a laptop
// waking from sleep catches up quickly.
const (
	scrapeThreshold = 2 * time.Hour
	pollInterval    = 15 * time.Minute
)

// latestPlayedMs returns the unix millisecond timestamp of the newest
// event, or fallback when no event is newer.
func latestPlayedMs(events []playlog.PlayEvent, fallback int64) int64 {
	latest := fallback
	for _, ev := range events {
		if ms := ev.PlayedAt.Time().UnixMilli(); ms > latest {
			latest = ms
		}
	}
	return latest
}

func main() {
	_ = config.Load()

	logLevel := config.GetEnv("LOG_LEVEL", "info")
	logFormat := config.GetEnv("LOG_FORMAT", "text")
	offsetHours := config.GetEnvInt("TZ_OFFSET_HOURS", -6)
	afterMs := int64(config.GetEnvInt("SCRAPE_AFTER_MS", 0))
	dataDir := config.DataDir()

	log := logger.New(logLevel, logFormat)

	token := config.GetEnv("SPOTIFY_TOKEN", "")
	if token == "" {
		var err error
		token, err = spotify.Authenticate(
			config.GetEnv("SPOTIFY_CLIENT_ID", ""),
			config.GetEnv("SPOTIFY_CLIENT_SECRET", ""),
		)
		if err != nil {
			log.Error("spotify authentication failed", "error", err)
			os.Exit(1)
		}
	}
	catalog := spotify.New(config.GetEnv("SPOTIFY_BASE_URL", spotify.DefaultBaseURL), token)

	enricher := playlog.NewBatchEnricher(catalog)
	store, err := playlog.NewFileStore(dataDir, enricher)
	if err != nil {
		log.Error("store init failed", "error", err)
		os.Exit(1)
	}
	ingester := playlog.NewLogIngester(store)

	log.Info("scraper starting",
		"data_dir", dataDir,
		"tz_offset_hours", offsetHours,
		"after_ms", afterMs,
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	lastScrape := time.UnixMilli(afterMs)
	scrape := func() {
		plays, err := catalog.RecentlyPlayed(afterMs)
		if err != nil {
			log.Error("scrape failed", "error", err)
			return
		}
		if len(plays) == 0 {
			log.Debug("no new plays")
			lastScrape = time.Now()
			return
		}

		events := make([]playlog.PlayEvent, 0, len(plays))
		for _, p := range plays {
			lt, err := playlog.NormalizeTimestamp(p.PlayedAt, offsetHours)
			if err != nil {
				log.Warn("skipping play with malformed timestamp",
					"played_at", p.PlayedAt, "track", p.Track)
				continue
			}
			events = append(events, playlog.PlayEvent{
				Key: playlog.TrackKey{
					Track:   p.Track,
					Artist:  p.Artist,
					Album:   p.Album,
					TrackID: p.TrackID,
				},
				PlayedAt: lt,
			})
		}

		if err := ingester.Ingest(events); err != nil {
			var ingErr *playlog.IngestError
			if errors.As(err, &ingErr) {
				log.Error("ingest failed, will retry next run",
					"date", ingErr.Date, "error", err)
			} else {
				log.Error("ingest failed, will retry next run", "error", err)
			}
			return
		}

		log.Info("scrape run complete", "plays", len(events))
		lastScrape = time.Now()
		// Advance the cursor to the newest ingested play, not to now;
		// plays landing between the fetch and this point must stay
		// inside the next query window.
		afterMs = latestPlayedMs(events, afterMs)
	}

	if time.Since(lastScrape) > scrapeThreshold {
		scrape()
	}

	for {
		select {
		case <-sigCh:
			log.Info("scraper stopped")
			return
		case <-ticker.C:
			if time.Since(lastScrape) > scrapeThreshold {
				scrape()
			}
		}
	}
}
