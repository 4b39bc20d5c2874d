// Command playlist turns listening data into a Spotify playlist: either
// the most played tracks over a date range, or a user's Last.fm top-track
// chart resolved against the Spotify catalog.
package main

import (
	"flag"
	"fmt"
	"os"

	"playlog/internal/lastfm"
	"playlog/internal/platform/config"
	"playlog/internal/platform/logger"
	"playlog/internal/playlog"
	"playlog/internal/spotify"
)

func main() {
	var (
		mode       = flag.String("mode", "range", `playlist source: "range" or "lastfm"`)
		startDate  = flag.String("start", "", "range start date (YYYY-MM-DD)")
		endDate    = flag.String("end", "", "range end date (YYYY-MM-DD), defaults to start")
		size       = flag.Int("n", 50, "number of tracks")
		userID     = flag.String("user", "", "Spotify user id owning the playlist")
		lastfmUser = flag.String("lastfm-user", "", "Last.fm username (lastfm mode)")
		period     = flag.String("period", "1month", "Last.fm chart period (lastfm mode)")
	)
	flag.Parse()

	_ = config.Load()
	log := logger.New(config.GetEnv("LOG_LEVEL", "info"), config.GetEnv("LOG_FORMAT", "text"))

	if *userID == "" {
		fmt.Fprintln(os.Stderr, "missing -user")
		os.Exit(2)
	}

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
	manager := playlog.NewPlaylistManager(catalog)

	switch *mode {
	case "range":
		if *startDate == "" {
			fmt.Fprintln(os.Stderr, "missing -start")
			os.Exit(2)
		}
		if *endDate == "" {
			*endDate = *startDate
		}

		store, err := playlog.NewFileStore(config.DataDir(), playlog.NewBatchEnricher(catalog))
		if err != nil {
			log.Error("store init failed", "error", err)
			os.Exit(1)
		}
		agg := playlog.NewRangeAggregator(store)

		tracks, err := agg.MostPlayed(*startDate, *endDate, *size)
		if err != nil {
			log.Error("rollup failed", "error", err)
			os.Exit(1)
		}
		if len(tracks) == 0 {
			log.Info("no plays in range, nothing to do",
				"start", *startDate, "end", *endDate)
			return
		}

		id, err := manager.PlaylistFromTracks(*userID, *startDate, *endDate, tracks)
		if err != nil {
			log.Error("playlist creation failed", "error", err)
			os.Exit(1)
		}
		log.Info("playlist created", "playlist_id", id, "tracks", len(tracks))

	case "lastfm":
		if *lastfmUser == "" {
			fmt.Fprintln(os.Stderr, "missing -lastfm-user")
			os.Exit(2)
		}

		charts := lastfm.New(
			config.GetEnv("LASTFM_API_KEY", ""),
			config.GetEnv("LASTFM_API_SECRET", ""),
		)
		top, err := charts.TopTracks(*lastfmUser, *period, *size)
		if err != nil {
			log.Error("lastfm chart fetch failed", "error", err)
			os.Exit(1)
		}

		// Last.fm has no Spotify ids; resolve each chart entry against
		// the catalog and drop the ones that do not match.
		uris := make([]string, 0, len(top))
		for _, t := range top {
			match, err := catalog.SearchTrack(t.Track, t.Artist)
			if err != nil {
				log.Warn("no catalog match", "track", t.Track, "artist", t.Artist, "error", err)
				continue
			}
			if match.Track != t.Track || match.Artist != t.Artist {
				log.Info("inexact catalog match",
					"want", t.Track+" by "+t.Artist,
					"got", match.Track+" by "+match.Artist)
			}
			uris = append(uris, match.URI)
		}
		if len(uris) == 0 {
			log.Info("no chart entries matched the catalog, nothing to do")
			return
		}

		name := fmt.Sprintf("%s %s top tracks", *lastfmUser, *period)
		desc := fmt.Sprintf("Top %d Last.fm tracks for %s (%s)", len(uris), *lastfmUser, *period)
		id, err := manager.PlaylistFromIDs(*userID, name, desc, playlog.TrackIDs(uris))
		if err != nil {
			log.Error("playlist creation failed", "error", err)
			os.Exit(1)
		}
		log.Info("playlist created", "playlist_id", id, "tracks", len(uris))

	default:
		fmt.Fprintf(os.Stderr, "unknown mode %q\n", *mode)
		os.Exit(2)
	}
}
