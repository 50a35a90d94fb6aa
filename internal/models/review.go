package models

const (
	FavoriteRating     = 5
	ReleaseGroupEntity = "release_group"
)

// Review is a single record from the review source.
type Review struct {
	ID         string `json:"id"`
	EntityID   string `json:"entity_id"`
	EntityType string `json:"entity_type"`
	Rating     int    `json:"rating"` // Null ratings decode as zero
}

// IsFavorite reports whether the review marks its release group as a favorite.
func (r Review) IsFavorite() bool {
	return r.Rating == FavoriteRating && r.EntityType == ReleaseGroupEntity && r.EntityID != ""
}

// ReviewPage is one page of the paginated review listing.
type ReviewPage struct {
	Count   int      `json:"count"`
	Limit   int      `json:"limit"`
	Offset  int      `json:"offset"`
	Reviews []Review `json:"reviews"`
}

// FavoriteIDs filters reviews down to favorites and returns their entity IDs, deduplicated in first-seen order.
func FavoriteIDs(reviews []Review) []string {
	seen := make(map[string]struct{}, len(reviews))
	ids := make([]string, 0, len(reviews))
	for _, r := range reviews {
		if !r.IsFavorite() {
			continue
		}
		if _, ok := seen[r.EntityID]; ok {
			continue
		}
		seen[r.EntityID] = struct{}{}
		ids = append(ids, r.EntityID)
	}
	return ids
}
