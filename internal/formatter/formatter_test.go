package formatter

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/egecelikci/favorites/internal/models"
	"github.com/egecelikci/favorites/internal/shared"
	th "github.com/egecelikci/favorites/internal/testing"
)

func mustAlbum(t *testing.T, id, doc string) *models.Album {
	t.Helper()
	a, err := models.ParseAlbum(id, []byte(doc))
	if err != nil {
		t.Fatalf("failed to parse %s: %v", id, err)
	}
	return a
}

func testManifest(t *testing.T) *models.Manifest {
	t.Helper()
	return models.NewManifest([]*models.Album{
		mustAlbum(t, "a1", `{"id":"a1","title":"Kid A","first-release-date":"2000-10-02","artist-credit":[{"name":"Radiohead"}]}`),
		mustAlbum(t, "b2", `{"id":"b2","title":"Untitled","first-release-date":""}`),
		mustAlbum(t, "c3", `{"id":"c3","title":"In Rainbows","firstReleaseDate":"2007-10-10","artist-credit":[{"name":"Radiohead"}]}`),
	})
}

func TestManifest(t *testing.T) {
	t.Run("EncodeManifest", func(t *testing.T) {
		data, err := EncodeManifest(testManifest(t))
		if err != nil {
			t.Fatalf("EncodeManifest failed: %v", err)
		}

		out := string(data)
		if !strings.HasPrefix(out, "{\n  \"albums\": [\n    {\n      \"id\": \"c3\"") {
			t.Errorf("expected two-space indented output sorted newest first, got:\n%s", out)
		}
		if !strings.HasSuffix(out, "}\n") {
			t.Error("expected trailing newline")
		}
	})

	t.Run("Empty Manifest", func(t *testing.T) {
		data, err := EncodeManifest(models.NewManifest(nil))
		if err != nil {
			t.Fatalf("EncodeManifest failed: %v", err)
		}
		if string(data) != "{\n  \"albums\": []\n}\n" {
			t.Errorf("unexpected empty manifest %q", data)
		}
	})

	t.Run("WriteManifest And ReadManifest", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "_data", "favorites.json")
		if err := WriteManifest(path, testManifest(t)); err != nil {
			t.Fatalf("WriteManifest failed: %v", err)
		}
		th.AssertFileExists(t, path)

		m, err := ReadManifest(path)
		if err != nil {
			t.Fatalf("ReadManifest failed: %v", err)
		}
		if len(m.Albums) != 3 || m.Albums[0].ID != "c3" {
			t.Errorf("unexpected albums after round trip: %d", len(m.Albums))
		}

		again, _ := EncodeManifest(m)
		if th.MustReadFile(t, path) != string(again) {
			t.Error("expected re-encoding to be byte identical")
		}
	})

	t.Run("ReadManifest Corrupt", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "favorites.json")
		th.MustWriteFile(t, path, []byte(`{"albums":`))

		if _, err := ReadManifest(path); !errors.Is(err, shared.ErrMetadataParse) {
			t.Errorf("expected ErrMetadataParse, got %v", err)
		}
	})
}

func TestExporters(t *testing.T) {
	m := testManifest(t)

	t.Run("ExportToCSV", func(t *testing.T) {
		data, err := ExportToCSV(m)
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		if lines[0] != "ID,Title,Artist,Released" {
			t.Errorf("CSV missing headers, got: %s", lines[0])
		}
		if lines[1] != "c3,In Rainbows,Radiohead,2007-10-10" {
			t.Errorf("unexpected first record: %s", lines[1])
		}
		if !strings.HasSuffix(lines[3], ",unknown") {
			t.Errorf("expected unknown release date, got %s", lines[3])
		}
	})

	t.Run("ExportToMarkdown", func(t *testing.T) {
		data, err := ExportToMarkdown(m, "covers/colored")
		if err != nil {
			t.Fatalf("ExportToMarkdown failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, "# Favorites") {
			t.Error("Markdown missing heading")
		}
		if !strings.Contains(output, "1. Radiohead - In Rainbows [2007-10-10]") {
			t.Errorf("Markdown missing first entry, got:\n%s", output)
		}
		if !strings.Contains(output, "![In Rainbows](covers/colored/c3.png)") {
			t.Error("Markdown missing cover link")
		}
	})

	t.Run("ExportToText", func(t *testing.T) {
		data, err := ExportToText(m)
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}
		if !strings.Contains(string(data), "Favorites: 3") {
			t.Error("Text missing count")
		}
	})

	t.Run("Export Unknown Format", func(t *testing.T) {
		if _, err := Export(m, "yaml"); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})
}

func TestFormatRunSummary(t *testing.T) {
	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	t.Run("Partial", func(t *testing.T) {
		run := models.NewRunRecord("run-1", start)
		run.Favorites = 3
		run.Albums = 2
		run.Failures = 1
		run.Finish(models.RunPartial, "", start.Add(2*time.Second))

		out := FormatRunSummary(run, "_data/favorites.json", []FailureLine{
			{ID: "c3", Phase: "fetch_covers", Err: errors.New("HTTP 404")},
		})

		for _, want := range []string{"completed with 1 failures", "favorites", "_data/favorites.json", "c3 [fetch_covers] HTTP 404", "run-1"} {
			if !strings.Contains(out, want) {
				t.Errorf("summary missing %q:\n%s", want, out)
			}
		}
	})

	t.Run("Noop Hides Manifest", func(t *testing.T) {
		run := models.NewRunRecord("run-2", start)
		run.Finish(models.RunNoop, "", start)

		out := FormatRunSummary(run, "_data/favorites.json", nil)
		if strings.Contains(out, "_data/favorites.json") {
			t.Error("expected manifest path to be omitted for a no-op run")
		}
	})
}

func TestFormatRuns(t *testing.T) {
	if out := FormatRuns(nil); !strings.Contains(out, "no runs recorded") {
		t.Errorf("unexpected empty output %q", out)
	}

	run := models.NewRunRecord("run-1", time.Now())
	run.Albums = 7
	run.Finish(models.RunSucceeded, "", time.Now())

	out := FormatRuns([]*models.RunRecord{run})
	if !strings.Contains(out, "run-1") || !strings.Contains(out, "succeeded") {
		t.Errorf("unexpected table:\n%s", out)
	}
}
