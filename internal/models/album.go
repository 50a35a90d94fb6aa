package models

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/egecelikci/favorites/internal/shared"
)

// releaseDateLayouts are tried in order; partial dates resolve to the start of their period.
var releaseDateLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"2006-01",
	"2006",
}

// Album is a favorite's metadata document.
//
// The document is passed through to the manifest untouched; only the fields needed for
// sorting and display are parsed out of it.
type Album struct {
	ID          string
	Title       string
	Artist      string
	ReleaseDate time.Time // Zero when the document has no usable date
	Raw         json.RawMessage
}

type artistCredit struct {
	Name string `json:"name"`
}

// ParseAlbum parses a metadata document. Anything other than a JSON object wraps [shared.ErrMetadataParse].
func ParseAlbum(id string, data []byte) (*Album, error) {
	trimmed := strings.TrimSpace(string(data))
	if !strings.HasPrefix(trimmed, "{") {
		return nil, fmt.Errorf("%w: %s: not a JSON object", shared.ErrMetadataParse, id)
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", shared.ErrMetadataParse, id, err)
	}

	date := stringField(doc, "firstReleaseDate")
	if date == "" {
		date = stringField(doc, "first-release-date")
	}

	var credits []artistCredit
	if raw, ok := doc["artist-credit"]; ok {
		json.Unmarshal(raw, &credits)
	}
	names := make([]string, 0, len(credits))
	for _, c := range credits {
		names = append(names, c.Name)
	}

	return &Album{
		ID:          id,
		Title:       stringField(doc, "title"),
		Artist:      strings.Join(names, ", "),
		ReleaseDate: ParseReleaseDate(date),
		Raw:         json.RawMessage(trimmed),
	}, nil
}

// stringField returns doc[name] when it is a JSON string.
func stringField(doc map[string]json.RawMessage, name string) string {
	var s string
	if raw, ok := doc[name]; ok {
		json.Unmarshal(raw, &s)
	}
	return s
}

// MarshalJSON emits the original document.
func (a *Album) MarshalJSON() ([]byte, error) {
	if len(a.Raw) == 0 {
		return []byte("null"), nil
	}
	return a.Raw, nil
}

// ParseReleaseDate parses YYYY, YYYY-MM, YYYY-MM-DD or RFC 3339 dates.
// Empty or unparseable input returns the zero time, which sorts last.
func ParseReleaseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range releaseDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// SortAlbums orders albums newest first. Equal dates keep their input order.
func SortAlbums(albums []*Album) {
	sort.SliceStable(albums, func(i, j int) bool {
		return albums[i].ReleaseDate.After(albums[j].ReleaseDate)
	})
}
