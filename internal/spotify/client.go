// Package spotify is the thin client for the remote music catalog. The
// aggregation core only depends on the contracts exposed here; request
// shaping and status handling stay in this package.
package spotify

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"playlog/internal/playlog"

	"github.com/go-resty/resty/v2"
)

// DefaultBaseURL is the catalog API root.
const DefaultBaseURL = "https://api.spotify.com/v1"

const defaultTokenURL = "https://accounts.spotify.com/api/token"

// StatusError reports a non-success response from the catalog API.
type StatusError struct {
	Endpoint string
	Code     int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("spotify %s: status %d", e.Endpoint, e.Code)
}

// Client talks to the catalog API with a bearer token.
type Client struct {
	http *resty.Client
}

// New returns a Client rooted at baseURL using the given bearer token.
// Pass DefaultBaseURL outside of tests.
func New(baseURL, token string) *Client {
	return &Client{
		http: resty.New().SetBaseURL(baseURL).SetAuthToken(token),
	}
}

// Authenticate exchanges client credentials for a bearer token.
func Authenticate(clientID, clientSecret string) (string, error) {
	return authenticate(defaultTokenURL, clientID, clientSecret)
}

func authenticate(tokenURL, clientID, clientSecret string) (string, error) {
	resp, err := resty.New().R().
		SetBasicAuth(clientID, clientSecret).
		SetHeader("Content-Type", "application/x-www-form-urlencoded").
		SetBody("grant_type=client_credentials").
		Post(tokenURL)
	if err != nil {
		return "", fmt.Errorf("token request: %w", err)
	}
	if resp.StatusCode() != 200 {
		return "", &StatusError{Endpoint: "token", Code: resp.StatusCode()}
	}

	var result struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if result.AccessToken == "" {
		return "", fmt.Errorf("token response missing access_token")
	}
	return result.AccessToken, nil
}

// RawPlay is one recently-played record as scraped: identity fields plus
// the raw UTC timestamp. Timezone normalization is the core's job, not
// the scraper's.
type RawPlay struct {
	Track    string
	Artist   string
	Album    string
	TrackID  string
	PlayedAt string
}

type trackJSON struct {
	Name    string `json:"name"`
	ID      string `json:"id"`
	URI     string `json:"uri"`
	Album   struct {
		Name string `json:"name"`
	} `json:"album"`
	Artists []struct {
		Name string `json:"name"`
	} `json:"artists"`
}

func (t trackJSON) artistName() string {
	if len(t.Artists) == 0 {
		return ""
	}
	return t.Artists[0].Name
}

// RecentlyPlayed returns up to 50 plays observed after the given unix
// millisecond timestamp, most recent first, exactly as the catalog
// reports them.
func (c *Client) RecentlyPlayed(afterMs int64) ([]RawPlay, error) {
	resp, err := c.http.R().
		SetQueryParams(map[string]string{
			"limit": "50",
			"after": strconv.FormatInt(afterMs, 10),
		}).
		Get("/me/player/recently-played")
	if err != nil {
		return nil, fmt.Errorf("recently played: %w", err)
	}
	if resp.StatusCode() != 200 {
		return nil, &StatusError{Endpoint: "recently-played", Code: resp.StatusCode()}
	}

	var result struct {
		Items []struct {
			Track    trackJSON `json:"track"`
			PlayedAt string    `json:"played_at"`
		} `json:"items"`
	}
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, fmt.Errorf("decode recently played: %w", err)
	}

	out := make([]RawPlay, 0, len(result.Items))
	for _, item := range result.Items {
		out = append(out, RawPlay{
			Track:    item.Track.Name,
			Artist:   item.Track.artistName(),
			Album:    item.Track.Album.Name,
			TrackID:  item.Track.ID,
			PlayedAt: item.PlayedAt,
		})
	}
	return out, nil
}

// AudioFeatures resolves audio features for at most playlog.BatchLimit
// track ids, one record per id in request order. It implements
// playlog.FeatureSource; chunking larger lists is the BatchEnricher's
// job.
func (c *Client) AudioFeatures(ids []string) ([]playlog.AudioFeatures, error) {
	resp, err := c.http.R().
		SetQueryParam("ids", strings.Join(ids, ",")).
		Get("/audio-features")
	if err != nil {
		return nil, fmt.Errorf("audio features: %w", err)
	}
	if resp.StatusCode() != 200 {
		return nil, &StatusError{Endpoint: "audio-features", Code: resp.StatusCode()}
	}

	var result struct {
		AudioFeatures []playlog.AudioFeatures `json:"audio_features"`
	}
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, fmt.Errorf("decode audio features: %w", err)
	}
	return result.AudioFeatures, nil
}

// TrackMatch is a search hit.
type TrackMatch struct {
	Track  string
	Artist string
	URI    string
}

// SearchTrack looks a song up by name and artist. If the first hit does
// not match the requested names exactly, the second hit is returned
// instead; search ranking puts covers and remasters first surprisingly
// often.
func (c *Client) SearchTrack(track, artist string) (TrackMatch, error) {
	resp, err := c.http.R().
		SetQueryParams(map[string]string{
			"q":    fmt.Sprintf("%q %s", artist, track),
			"type": "track",
		}).
		Get("/search")
	if err != nil {
		return TrackMatch{}, fmt.Errorf("search: %w", err)
	}
	if resp.StatusCode() != 200 {
		return TrackMatch{}, &StatusError{Endpoint: "search", Code: resp.StatusCode()}
	}

	var result struct {
		Tracks struct {
			Items []trackJSON `json:"items"`
		} `json:"tracks"`
	}
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return TrackMatch{}, fmt.Errorf("decode search: %w", err)
	}

	items := result.Tracks.Items
	if len(items) == 0 {
		return TrackMatch{}, fmt.Errorf("search %q by %q: no results", track, artist)
	}

	hit := items[0]
	if (hit.artistName() != artist || !strings.EqualFold(hit.Name, track)) && len(items) > 1 {
		hit = items[1]
	}
	return TrackMatch{Track: hit.Name, Artist: hit.artistName(), URI: hit.URI}, nil
}

// TopTracks returns the URIs of the listener's top 50 tracks over the
// short term (roughly the past month).
func (c *Client) TopTracks() ([]string, error) {
	resp, err := c.http.R().
		SetQueryParams(map[string]string{
			"limit":      "50",
			"time_range": "short_term",
		}).
		Get("/me/top/tracks")
	if err != nil {
		return nil, fmt.Errorf("top tracks: %w", err)
	}
	if resp.StatusCode() != 200 {
		return nil, &StatusError{Endpoint: "top-tracks", Code: resp.StatusCode()}
	}

	var result struct {
		Items []struct {
			URI string `json:"uri"`
		} `json:"items"`
	}
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, fmt.Errorf("decode top tracks: %w", err)
	}

	uris := make([]string, 0, len(result.Items))
	for _, item := range result.Items {
		uris = append(uris, item.URI)
	}
	return uris, nil
}

// CreatePlaylist makes an empty private playlist for the user and returns
// its id.
func (c *Client) CreatePlaylist(userID, name, description string) (string, error) {
	resp, err := c.http.R().
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]any{
			"name":        name,
			"public":      false,
			"description": description,
		}).
		Post("/users/" + userID + "/playlists")
	if err != nil {
		return "", fmt.Errorf("create playlist: %w", err)
	}
	if resp.StatusCode() != 200 && resp.StatusCode() != 201 {
		return "", &StatusError{Endpoint: "create-playlist", Code: resp.StatusCode()}
	}

	var result struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return "", fmt.Errorf("decode create playlist: %w", err)
	}
	return result.ID, nil
}

// PopulatePlaylist appends the given track URIs to a playlist.
func (c *Client) PopulatePlaylist(playlistID string, uris []string) error {
	resp, err := c.http.R().
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]any{"uris": uris}).
		Post("/playlists/" + playlistID + "/tracks")
	if err != nil {
		return fmt.Errorf("populate playlist: %w", err)
	}
	if resp.StatusCode() != 201 {
		return &StatusError{Endpoint: "populate-playlist", Code: resp.StatusCode()}
	}
	return nil
}

// DeletePlaylist removes the playlist from the user's library. The
// catalog models this as unfollowing.
func (c *Client) DeletePlaylist(playlistID string) error {
	resp, err := c.http.R().Delete("/playlists/" + playlistID + "/followers")
	if err != nil {
		return fmt.Errorf("delete playlist: %w", err)
	}
	if resp.StatusCode() != 200 {
		return &StatusError{Endpoint: "delete-playlist", Code: resp.StatusCode()}
	}
	return nil
}
