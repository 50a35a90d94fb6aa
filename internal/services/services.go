// package services defines the remote collaborators of the favorites pipeline
//
// CritiqueBrainz (reviews), MusicBrainz (metadata), Cover Art Archive (covers)
package services

import (
	"context"

	"github.com/egecelikci/favorites/internal/fetch"
	"github.com/egecelikci/favorites/internal/models"
)

// Source is implemented by every remote collaborator.
type Source interface {
	// Name returns the name of the service (e.g., "MusicBrainz")
	Name() string
}

// ReviewSource lists the reviews of the configured account.
type ReviewSource interface {
	Source

	// Reviews returns one page of reviews starting at offset.
	// An empty page marks the end of the listing.
	Reviews(ctx context.Context, offset, limit int) ([]models.Review, error)
}

// MetadataSource fetches the metadata document of a favorite and persists it in the cache.
type MetadataSource interface {
	Source

	// FetchMetadata fetches the document for id. The returned [fetch.Response] reports whether the network was used.
	FetchMetadata(ctx context.Context, id string) (*fetch.Response, error)
}

// CoverSource fetches the raw cover image of a favorite and persists it in the cache.
type CoverSource interface {
	Source

	// FetchCover fetches the cover for id. The returned [fetch.Response] reports whether the network was used.
	FetchCover(ctx context.Context, id string) (*fetch.Response, error)
}
