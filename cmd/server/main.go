package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"playlog/internal/platform/config"
	"playlog/internal/platform/logger"
	"playlog/internal/platform/metrics"
	"playlog/internal/playlog"
	"playlog/internal/spotify"

	"github.com/go-chi/chi/v5"
)

const shutdownTimeout = 10 * time.Second

// meteredFeatures counts every outbound feature lookup.
type meteredFeatures struct {
	src playlog.FeatureSource
	met *metrics.Metrics
}

func (m meteredFeatures) AudioFeatures(ids []string) ([]playlog.AudioFeatures, error) {
	m.met.IncEnrichmentRequests()
	return m.src.AudioFeatures(ids)
}

func main() {
	_ = config.Load()

	port := config.GetEnv("PORT", "8080")
	logLevel := config.GetEnv("LOG_LEVEL", "info")
	logFormat := config.GetEnv("LOG_FORMAT", "json")
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

	met := metrics.New()
	enricher := playlog.NewBatchEnricher(meteredFeatures{src: catalog, met: met})

	store, err := playlog.NewFileStore(dataDir, enricher)
	if err != nil {
		log.Error("store init failed", "error", err)
		os.Exit(1)
	}

	svc := playlog.NewService(store)
	h := playlog.NewHandler(svc, log, met)

	r := chi.NewRouter()
	r.Use(logger.RequestLogger(log))
	r.Use(metrics.RequestMiddleware(met))
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		met.Handler(func() { met.SetTrackedDays(store.DayCount()) }).ServeHTTP(w, r)
	})
	h.Routes(r)

	addr := ":" + port
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	log.Info("server starting",
		"port", port,
		"data_dir", dataDir,
		"log_level", logLevel,
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Info("shutdown signal received, draining connections")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("shutdown error", "error", err)
		os.Exit(1)
	}

	log.Info("server stopped")
}
