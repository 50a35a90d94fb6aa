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

const coverArtArchiveBaseURL = "https://coverartarchive.org"

// CoverArtArchive fetches front covers from the Cover Art Archive.
type CoverArtArchive struct {
	baseURL string
	client  *fetch.Client
}

// NewCoverArtArchive creates a cover source. An empty baseURL uses the public archive.
func NewCoverArtArchive(baseURL string, client *fetch.Client) *CoverArtArchive {
	if baseURL == "" {
		baseURL = coverArtArchiveBaseURL
	}
	return &CoverArtArchive{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

func (s *CoverArtArchive) Name() string { return "Cover Art Archive" }

// CoverURL returns the 500px front cover URL for id.
func (s *CoverArtArchive) CoverURL(id string) string {
	return s.baseURL + "/release-group/" + url.PathEscape(id) + "/front-500"
}

// FetchCover stores the raw cover bytes under [cache.CoverKey].
func (s *CoverArtArchive) FetchCover(ctx context.Context, id string) (*fetch.Response, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: release group id", shared.ErrMissingArgument)
	}

	key := cache.CoverKey(id)
	resp, err := s.client.FetchBuffer(ctx, s.CoverURL(id), fetch.Request{
		Duration: shared.Forever,
		Key:      &key,
	})
	if err != nil {
		return resp, fmt.Errorf("failed to fetch cover for %s: %w", id, err)
	}
	return resp, nil
}
