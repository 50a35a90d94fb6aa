package models

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/egecelikci/favorites/internal/shared"
)

func TestFavoriteIDs(t *testing.T) {
	reviews := []Review{
		{EntityID: "a", EntityType: ReleaseGroupEntity, Rating: 5},
		{EntityID: "b", EntityType: ReleaseGroupEntity, Rating: 4},
		{EntityID: "c", EntityType: "event", Rating: 5},
		{EntityID: "d", EntityType: ReleaseGroupEntity, Rating: 5},
		{EntityID: "a", EntityType: ReleaseGroupEntity, Rating: 5},
		{EntityID: "", EntityType: ReleaseGroupEntity, Rating: 5},
	}

	got := FavoriteIDs(reviews)
	want := []string{"a", "d"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("index %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestReviewPageDecodesNullRating(t *testing.T) {
	var page ReviewPage
	data := `{"count":1,"limit":50,"offset":0,"reviews":[{"entity_id":"x","entity_type":"release_group","rating":null}]}`
	if err := json.Unmarshal([]byte(data), &page); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if page.Reviews[0].IsFavorite() {
		t.Error("expected unrated review not to be a favorite")
	}
}

func TestParseReleaseDate(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2021", time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)},
		{"2021-06", time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC)},
		{"2021-06-15", time.Date(2021, 6, 15, 0, 0, 0, 0, time.UTC)},
		{"2021-06-15T10:00:00Z", time.Date(2021, 6, 15, 10, 0, 0, 0, time.UTC)},
		{"", time.Time{}},
		{"soon", time.Time{}},
		{"2021-13-01", time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseReleaseDate(tt.in); !got.Equal(tt.want) {
				t.Errorf("ParseReleaseDate(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseAlbum(t *testing.T) {
	t.Run("CamelCase Date Wins", func(t *testing.T) {
		a, err := ParseAlbum("x", []byte(`{"firstReleaseDate":"2020","first-release-date":"1999","title":"T"}`))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if a.ReleaseDate.Year() != 2020 {
			t.Errorf("expected 2020, got %v", a.ReleaseDate)
		}
		if a.Title != "T" {
			t.Errorf("expected title T, got %q", a.Title)
		}
	})

	t.Run("Kebab Date And Artist Credit", func(t *testing.T) {
		doc := `{"first-release-date":"1997-05-21","artist-credit":[{"name":"Radiohead"}]}`
		a, err := ParseAlbum("x", []byte(doc))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if a.ReleaseDate.Year() != 1997 || a.ReleaseDate.Month() != time.May {
			t.Errorf("unexpected date %v", a.ReleaseDate)
		}
		if a.Artist != "Radiohead" {
			t.Errorf("expected artist Radiohead, got %q", a.Artist)
		}
	})

	t.Run("Unexpected Field Types Are Tolerated", func(t *testing.T) {
		a, err := ParseAlbum("x", []byte(`{"title":7,"firstReleaseDate":null}`))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !a.ReleaseDate.IsZero() {
			t.Error("expected zero release date")
		}
	})

	t.Run("Corrupt", func(t *testing.T) {
		for _, doc := range []string{`{"title":`, `[]`, `null`, ``} {
			if _, err := ParseAlbum("x", []byte(doc)); !errors.Is(err, shared.ErrMetadataParse) {
				t.Errorf("%q: expected ErrMetadataParse, got %v", doc, err)
			}
		}
	})

	t.Run("Marshals Verbatim", func(t *testing.T) {
		doc := `{"id":"x","z":1,"a":[1,2]}`
		a, _ := ParseAlbum("x", []byte(doc))
		out, err := json.Marshal(a)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if string(out) != doc {
			t.Errorf("expected %s, got %s", doc, out)
		}
	})
}

func TestSortAlbums(t *testing.T) {
	mk := func(id, date string) *Album {
		return &Album{ID: id, ReleaseDate: ParseReleaseDate(date)}
	}
	albums := []*Album{
		mk("old", "1990"),
		mk("none", ""),
		mk("new", "2022-01-01"),
		mk("tie-a", "2000"),
		mk("tie-b", "2000-01-01"),
		mk("bad", "??"),
	}

	SortAlbums(albums)

	want := []string{"new", "tie-a", "tie-b", "old", "none", "bad"}
	for i, id := range want {
		if albums[i].ID != id {
			t.Errorf("position %d: expected %s, got %s", i, id, albums[i].ID)
		}
	}
	for i := 1; i < len(albums); i++ {
		if albums[i].ReleaseDate.After(albums[i-1].ReleaseDate) {
			t.Errorf("albums %d and %d out of order", i-1, i)
		}
	}
}

func TestNewManifest(t *testing.T) {
	out, err := json.Marshal(NewManifest(nil))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if string(out) != `{"albums":[]}` {
		t.Errorf("expected empty albums array, got %s", out)
	}
}

func TestRunRecord(t *testing.T) {
	start := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	r := NewRunRecord("run-1", start)

	if err := r.Validate(); err != nil {
		t.Fatalf("expected valid record, got %v", err)
	}
	if r.UpdatedAt() != start {
		t.Error("expected UpdatedAt to equal start while running")
	}

	r.Finish(RunPartial, "", start.Add(time.Minute))
	if r.Duration() != time.Minute {
		t.Errorf("expected 1m, got %v", r.Duration())
	}
	if r.Status != RunPartial {
		t.Errorf("expected partial, got %s", r.Status)
	}

	t.Run("Invalid", func(t *testing.T) {
		tests := []struct {
			name string
			rec  *RunRecord
		}{
			{"missing id", NewRunRecord("", start)},
			{"missing start", NewRunRecord("x", time.Time{})},
			{"bad status", &RunRecord{id: "x", Status: "weird", StartedAt: start}},
		}
		for _, tt := range tests {
			if err := tt.rec.Validate(); err == nil {
				t.Errorf("%s: expected validation error", tt.name)
			}
		}
	})
	t.Run("JSON", func(t *testing.T) {
		r.Sequence = 4
		r.Albums = 9
		data, err := json.Marshal(r)
		if err != nil {
			t.Fatalf("marshal failed: %v", err)
		}

		var fields map[string]any
		if err := json.Unmarshal(data, &fields); err != nil {
			t.Fatalf("unmarshal failed: %v", err)
		}
		if fields["id"] != "run-1" || fields["status"] != "partial" {
			t.Errorf("unexpected fields: %s", data)
		}
		if _, ok := fields["error"]; ok {
			t.Errorf("empty error should be omitted: %s", data)
		}

		var back RunRecord
		if err := json.Unmarshal(data, &back); err != nil {
			t.Fatalf("decode failed: %v", err)
		}
		if back.ID() != "run-1" || back.Sequence != 4 || back.Albums != 9 || back.Duration() != time.Minute {
			t.Errorf("unexpected decoded run: %+v", back)
		}
	})
}
