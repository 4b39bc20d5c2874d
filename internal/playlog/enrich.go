package playlog

import (
	"errors"
	"fmt"
)

// BatchLimit is the maximum number of track ids the external feature
// lookup accepts per call.
const BatchLimit = 100

var (
	// ErrEmptyBatch is returned when enrichment is requested with no ids.
	ErrEmptyBatch = errors.New("enrichment batch is empty")

	// ErrEnrichment wraps any failure of the external feature lookup.
	ErrEnrichment = errors.New("enrichment failed")
)

// FeatureSource is the external collaborator that resolves track ids to
// audio features. Implementations must return exactly one feature record
// per requested id, in request order, and must be called with at most
// BatchLimit ids.
type FeatureSource interface {
	AudioFeatures(ids []string) ([]AudioFeatures, error)
}

// BatchEnricher partitions arbitrary-length id lists into BatchLimit-sized
// chunks and reassembles the per-chunk results in input order.
type BatchEnricher struct {
	src   FeatureSource
	limit int
}

// NewBatchEnricher returns an enricher that delegates lookups to src.
func NewBatchEnricher(src FeatureSource) *BatchEnricher {
	return &BatchEnricher{src: src, limit: BatchLimit}
}

// Enrich resolves features for every id, issuing one external call per
// chunk of at most BatchLimit ids. The result has exactly one record per
// input id, in input order. A failing chunk fails the whole call; no
// partial results are returned and no retry is attempted here.
func (e *BatchEnricher) Enrich(ids []string) ([]AudioFeatures, error) {
	if len(ids) == 0 {
		return nil, ErrEmptyBatch
	}

	out := make([]AudioFeatures, 0, len(ids))
	for start := 0; start < len(ids); start += e.limit {
		end := start + e.limit
		if end > len(ids) {
			end = len(ids)
		}
		chunk := ids[start:end]

		feats, err := e.src.AudioFeatures(chunk)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrEnrichment, err)
		}
		if len(feats) != len(chunk) {
			return nil, fmt.Errorf("%w: got %d features for %d ids", ErrEnrichment, len(feats), len(chunk))
		}
		out = append(out, feats...)
	}
	return out, nil
}
