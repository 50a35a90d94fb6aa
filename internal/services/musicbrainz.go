package services

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/egecelikci/favorites/internal/cache"
	"github.com/egecelikci/favorites/internal/fetch"
	"github.com/egecelikci/favorites/internal/shared"
)

const musicBrainzBaseURL = "https://musicbrainz.org/ws/2"

// MusicBrainzMetadata fetches release group documents from the MusicBrainz web service.
type MusicBrainzMetadata struct {
	baseURL string
	client  *fetch.Client
}

// NewMusicBrainzMetadata creates a metadata source. An empty baseURL uses the public API.
func NewMusicBrainzMetadata(baseURL string, client *fetch.Client) *MusicBrainzMetadata {
	if baseURL == "" {
		baseURL = musicBrainzBaseURL
	}
	return &MusicBrainzMetadata{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

func (s *MusicBrainzMetadata) Name() string { return "MusicBrainz" }

// MetadataURL returns the release group lookup URL for id.
func (s *MusicBrainzMetadata) MetadataURL(id string) string {
	return s.baseURL + "/release-group/" + url.PathEscape(id) + "?fmt=json&inc=artist-credits"
}

// FetchMetadata stores the release group document verbatim under [cache.MetadataKey].
// Documents never expire once on disk.
func (s *MusicBrainzMetadata) FetchMetadata(ctx context.Context, id string) (*fetch.Response, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: release group id", shared.ErrMissingArgument)
	}

	key := cache.MetadataKey(id)
	resp, err := s.client.Fetch(ctx, s.MetadataURL(id), fetch.Request{
		Type:     cache.JSON,
		Duration: shared.Forever,
		Key:      &key,
		Headers:  map[string]string{"Accept": "application/json"},
	})
	if err != nil {
		return resp, fmt.Errorf("failed to fetch metadata for %s: %w", id, err)
	}
	return resp, nil
}
