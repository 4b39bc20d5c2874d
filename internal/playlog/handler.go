package playlog

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"playlog/internal/platform/metrics"

	"github.com/go-chi/chi/v5"
)

const defaultRollupSize = 10

// Handler exposes playlog HTTP endpoints using go-chi.
type Handler struct {
	svc     *Service
	log     *slog.Logger
	metrics *metrics.Metrics
}

// NewHandler returns a Handler that uses the given Service, Logger, and
// optional Metrics. Metrics may be nil to disable metric recording (e.g.
// in tests).
func NewHandler(svc *Service, log *slog.Logger, m *metrics.Metrics) *Handler {
	return &Handler{svc: svc, log: log, metrics: m}
}

// Routes mounts all playlog endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/ingest", h.IngestEvents)
	r.Get("/days/{date}", h.GetDay)
	r.Route("/rollups", func(r chi.Router) {
		r.Get("/tracks", h.TopTracks)
		r.Get("/artists", h.TopArtists)
		r.Get("/features", h.RangeFeatures)
	})
	r.Post("/reports", h.WriteReport)
}

// rawEvent is the ingest wire form: identity fields plus the raw source
// timestamp, not yet shifted to the local zone.
type rawEvent struct {
	Track    string `json:"track"`
	Artist   string `json:"artist"`
	Album    string `json:"album"`
	TrackID  string `json:"trackId"`
	PlayedAt string `json:"playedAt"`
}

type ingestRequest struct {
	OffsetHours int        `json:"offsetHours"`
	Events      []rawEvent `json:"events"`
}

type ingestResponse struct {
	Plays   int `json:"plays"`
	Skipped int `json:"skipped"`
}

// IngestEvents handles POST /ingest. The body carries raw play events and
// the UTC hour offset; events are normalized here and folded into day
// snapshots. Events with malformed timestamps are skipped and counted,
// aborting only themselves.
func (h *Handler) IngestEvents(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log.Debug("invalid ingest body", slog.String("error", err.Error()))
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	events := make([]PlayEvent, 0, len(req.Events))
	skipped := 0
	for _, re := range req.Events {
		key := TrackKey{Track: re.Track, Artist: re.Artist, Album: re.Album, TrackID: re.TrackID}
		if !key.Valid() {
			h.log.Debug("rejecting event with partial track key", slog.String("track", re.Track))
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		lt, err := NormalizeTimestamp(re.PlayedAt, req.OffsetHours)
		if err != nil {
			h.log.Warn("skipping event with malformed timestamp",
				slog.String("played_at", re.PlayedAt),
				slog.String("track", re.Track))
			skipped++
			continue
		}
		events = append(events, PlayEvent{Key: key, PlayedAt: lt})
	}

	if len(events) > 0 {
		if err := h.svc.Ingest(events); err != nil {
			var ingErr *IngestError
			if errors.As(err, &ingErr) {
				h.log.Error("ingest failed",
					slog.String("date", ingErr.Date),
					slog.String("error", err.Error()))
			} else {
				h.log.Error("ingest failed", slog.String("error", err.Error()))
			}
			if errors.Is(err, ErrEnrichment) {
				w.WriteHeader(http.StatusBadGateway)
			} else {
				w.WriteHeader(http.StatusInternalServerError)
			}
			return
		}
	}

	h.log.Info("events ingested",
		slog.Int("plays", len(events)),
		slog.Int("skipped", skipped))
	if h.metrics != nil {
		h.metrics.AddPlaysIngested(len(events))
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(ingestResponse{Plays: len(events), Skipped: skipped})
}

// GetDay handles GET /days/{date}. Dates never played return an empty
// snapshot, not an error.
func (h *Handler) GetDay(w http.ResponseWriter, r *http.Request) {
	date := chi.URLParam(r, "date")

	snap, err := h.svc.DaySnapshot(date)
	if err != nil {
		if errors.Is(err, ErrMalformedTimestamp) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		h.log.Error("load day failed", slog.String("date", date), slog.String("error", err.Error()))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	if snap.Summary.TopArtists == nil {
		snap.Summary.TopArtists = []ArtistPlays{}
	}
	if snap.Tracks == nil {
		snap.Tracks = []TrackRecord{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(snap)
}

// TopTracks handles GET /rollups/tracks?start=...&end=...&n=....
func (h *Handler) TopTracks(w http.ResponseWriter, r *http.Request) {
	start, end, n, ok := h.rangeParams(w, r)
	if !ok {
		return
	}

	tracks, err := h.svc.MostPlayed(start, end, n)
	if err != nil {
		h.rangeError(w, "most played", err)
		return
	}
	if tracks == nil {
		tracks = []TrackPlays{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(tracks)
}

// TopArtists handles GET /rollups/artists?start=...&end=...&n=....
func (h *Handler) TopArtists(w http.ResponseWriter, r *http.Request) {
	start, end, n, ok := h.rangeParams(w, r)
	if !ok {
		return
	}

	artists, err := h.svc.MostPlayedArtists(start, end, n)
	if err != nil {
		h.rangeError(w, "most played artists", err)
		return
	}
	if artists == nil {
		artists = []ArtistPlays{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(artists)
}

// RangeFeatures handles GET /rollups/features?start=...&end=....
func (h *Handler) RangeFeatures(w http.ResponseWriter, r *http.Request) {
	start, end, _, ok := h.rangeParams(w, r)
	if !ok {
		return
	}

	stats, err := h.svc.AnalyzeRange(start, end)
	if err != nil {
		h.rangeError(w, "analyze range", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}

// WriteReport handles POST /reports?start=...&end=.... The rendered
// report is persisted under the summaries directory and returned as the
// response body.
func (h *Handler) WriteReport(w http.ResponseWriter, r *http.Request) {
	start, end, _, ok := h.rangeParams(w, r)
	if !ok {
		return
	}

	report, err := h.svc.WriteRangeReport(start, end)
	if err != nil {
		h.rangeError(w, "write report", err)
		return
	}

	h.log.Info("range report written", slog.String("start", start), slog.String("end", end))
	if h.metrics != nil {
		h.metrics.IncReportsWritten()
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusCreated)
	w.Write([]byte(report))
}

// rangeParams extracts start, end, and n query parameters, writing a 400
// and returning ok=false on bad input. end defaults to start; n defaults
// to defaultRollupSize.
func (h *Handler) rangeParams(w http.ResponseWriter, r *http.Request) (start, end string, n int, ok bool) {
	q := r.URL.Query()
	start = q.Get("start")
	end = q.Get("end")
	if end == "" {
		end = start
	}
	if start == "" {
		w.WriteHeader(http.StatusBadRequest)
		return "", "", 0, false
	}

	n = defaultRollupSize
	if s := q.Get("n"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 {
			w.WriteHeader(http.StatusBadRequest)
			return "", "", 0, false
		}
		n = v
	}
	return start, end, n, true
}

func (h *Handler) rangeError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, ErrMalformedTimestamp) {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	h.log.Error(op+" failed", slog.String("error", err.Error()))
	w.WriteHeader(http.StatusInternalServerError)
}
