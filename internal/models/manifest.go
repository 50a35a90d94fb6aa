package models

// Manifest is the published favorites document.
type Manifest struct {
	Albums []*Album `json:"albums"`
}

// NewManifest sorts albums and wraps them in a Manifest. A nil slice encodes as an empty array.
func NewManifest(albums []*Album) *Manifest {
	if albums == nil {
		albums = []*Album{}
	}
	SortAlbums(albums)
	return &Manifest{Albums: albums}
}
