// Package lastfm imports listening data from Last.fm, the secondary
// source for playlist seeding when Spotify history is unavailable.
package lastfm

import (
	"fmt"
	"strconv"

	"github.com/shkh/lastfm-go/lastfm"
)

// Client wraps the Last.fm API for read-only track imports.
type Client struct {
	api *lastfm.Api
}

// New creates a client with the given API credentials.
func New(apiKey, apiSecret string) *Client {
	return &Client{api: lastfm.New(apiKey, apiSecret)}
}

// TopTrack is one entry of a user's top-track chart.
type TopTrack struct {
	Track  string
	Artist string
	Plays  int
}

// TopTracks returns up to limit of the user's most played tracks over the
// given period ("7day", "1month", "12month", "overall", ...).
func (c *Client) TopTracks(user, period string, limit int) ([]TopTrack, error) {
	params := lastfm.P{"user": user, "period": period}
	if limit > 0 {
		params["limit"] = limit
	}

	result, err := c.api.User.GetTopTracks(params)
	if err != nil {
		return nil, fmt.Errorf("lastfm top tracks for %s: %w", user, err)
	}

	out := make([]TopTrack, 0, len(result.Tracks))
	for _, t := range result.Tracks {
		plays, _ := strconv.Atoi(t.PlayCount)
		out = append(out, TopTrack{
			Track:  t.Name,
			Artist: t.Artist.Name,
			Plays:  plays,
		})
	}
	return out, nil
}
