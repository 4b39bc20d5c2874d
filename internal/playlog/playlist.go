package playlog

import (
	"fmt"
	"strings"
)

const trackURIPrefix = "spotify:track:"

// PlaylistService is the external collaborator that owns playlist
// lifecycle on the catalog side.
type PlaylistService interface {
	CreatePlaylist(userID, name, description string) (playlistID string, err error)
	PopulatePlaylist(playlistID string, uris []string) error
	DeletePlaylist(playlistID string) error
}

// PlaylistManager turns rollup results into playlists.
type PlaylistManager struct {
	svc PlaylistService
}

// NewPlaylistManager returns a manager that delegates playlist calls to svc.
func NewPlaylistManager(svc PlaylistService) *PlaylistManager {
	return &PlaylistManager{svc: svc}
}

// PreparePlaylist creates an empty playlist and fills it with the given
// track URIs. If populating fails the half-made playlist is deleted
// before the error is returned.
func (m *PlaylistManager) PreparePlaylist(userID, name, description string, uris []string) (string, error) {
	playlistID, err := m.svc.CreatePlaylist(userID, name, description)
	if err != nil {
		return "", fmt.Errorf("create playlist: %w", err)
	}
	if err := m.svc.PopulatePlaylist(playlistID, uris); err != nil {
		if delErr := m.svc.DeletePlaylist(playlistID); delErr != nil {
			return "", fmt.Errorf("populate playlist: %w (cleanup failed: %v)", err, delErr)
		}
		return "", fmt.Errorf("populate playlist: %w", err)
	}
	return playlistID, nil
}

// PlaylistFromTracks builds a "<start> to <end>" playlist from ranked
// rollup results, e.g. the output of RangeAggregator.MostPlayed.
func (m *PlaylistManager) PlaylistFromTracks(userID, startDate, endDate string, tracks []TrackPlays) (string, error) {
	ids := make([]string, 0, len(tracks))
	for _, tp := range tracks {
		ids = append(ids, tp.TrackID)
	}
	name := fmt.Sprintf("%s to %s", startDate, endDate)
	desc := fmt.Sprintf("Top %d songs from %s to %s", len(ids), startDate, endDate)
	return m.PreparePlaylist(userID, name, desc, TrackURIs(ids))
}

// PlaylistFromIDs builds a playlist from raw track identifiers. This and
// PlaylistFromTracks are deliberately two named entry points; which shape
// the caller holds is decided at the call site.
func (m *PlaylistManager) PlaylistFromIDs(userID, name, description string, ids []string) (string, error) {
	return m.PreparePlaylist(userID, name, description, TrackURIs(ids))
}

// TrackURIs converts catalog track ids to playable URIs.
func TrackURIs(ids []string) []string {
	uris := make([]string, 0, len(ids))
	for _, id := range ids {
		uris = append(uris, trackURIPrefix+id)
	}
	return uris
}

// TrackIDs converts playable URIs back to catalog track ids.
func TrackIDs(uris []string) []string {
	ids := make([]string, 0, len(uris))
	for _, uri := range uris {
		ids = append(ids, strings.TrimPrefix(uri, trackURIPrefix))
	}
	return ids
}
