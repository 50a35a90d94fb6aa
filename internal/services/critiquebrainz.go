package services

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/egecelikci/favorites/internal/fetch"
	"github.com/egecelikci/favorites/internal/models"
	"github.com/egecelikci/favorites/internal/shared"
)

const critiqueBrainzBaseURL = "https://critiquebrainz.org/ws/1"

// CritiqueBrainzReviews reads the review listing of one CritiqueBrainz user.
type CritiqueBrainzReviews struct {
	baseURL string
	account string
	client  *fetch.Client

	// TTL is how long a fetched page may be reused. Zero fetches every page live;
	// a cached page is then only served when the network fails.
	TTL time.Duration
}

// NewCritiqueBrainzReviews creates a review source for account. An empty baseURL uses the public API.
func NewCritiqueBrainzReviews(baseURL, account string, client *fetch.Client) (*CritiqueBrainzReviews, error) {
	if account == "" {
		return nil, fmt.Errorf("%w: review account", shared.ErrMissingArgument)
	}
	if baseURL == "" {
		baseURL = critiqueBrainzBaseURL
	}
	return &CritiqueBrainzReviews{
		baseURL: strings.TrimRight(baseURL, "/"),
		account: account,
		client:  client,
	}, nil
}

func (s *CritiqueBrainzReviews) Name() string { return "CritiqueBrainz" }

// PageURL returns the listing URL for one page.
func (s *CritiqueBrainzReviews) PageURL(offset, limit int) string {
	q := url.Values{}
	q.Set("user_id", s.account)
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))
	return s.baseURL + "/review?" + q.Encode()
}

// Reviews fetches one page.
func (s *CritiqueBrainzReviews) Reviews(ctx context.Context, offset, limit int) ([]models.Review, error) {
	var page models.ReviewPage
	if _, err := s.client.FetchJSON(ctx, s.PageURL(offset, limit), fetch.Request{Duration: s.TTL}, &page); err != nil {
		return nil, fmt.Errorf("failed to fetch reviews at offset %d: %w", offset, err)
	}
	return page.Reviews, nil
}
