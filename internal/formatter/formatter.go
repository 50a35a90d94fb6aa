// package formatter encodes the favorites manifest and exports it to various formats (CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/egecelikci/favorites/internal/models"
	"github.com/egecelikci/favorites/internal/shared"
)

// Format is an export format for [Export].
type Format string

const (
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatText     Format = "text"
)

// EncodeManifest renders the manifest as pretty-printed JSON with two-space indentation and a trailing newline.
func EncodeManifest(m *models.Manifest) ([]byte, error) {
	if m == nil {
		m = models.NewManifest(nil)
	}
	if m.Albums == nil {
		m.Albums = []*models.Album{}
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode manifest: %w", err)
	}
	return append(data, '\n'), nil
}

// WriteManifest encodes m and atomically replaces the file at path.
func WriteManifest(path string, m *models.Manifest) error {
	data, err := EncodeManifest(m)
	if err != nil {
		return err
	}
	if err := shared.WriteFileAtomic(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

// ReadManifest loads a manifest written by [WriteManifest].
func ReadManifest(path string) (*models.Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var doc struct {
		Albums []json.RawMessage `json:"albums"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: manifest: %v", shared.ErrMetadataParse, err)
	}

	albums := make([]*models.Album, 0, len(doc.Albums))
	for i, raw := range doc.Albums {
		var id struct {
			ID string `json:"id"`
		}
		json.Unmarshal(raw, &id)
		if id.ID == "" {
			id.ID = fmt.Sprintf("#%d", i+1)
		}

		album, err := models.ParseAlbum(id.ID, raw)
		if err != nil {
			return nil, err
		}
		albums = append(albums, album)
	}

	return &models.Manifest{Albums: albums}, nil
}

// ExportToCSV converts a manifest to CSV format with columns: ID, Title, Artist, Released
func ExportToCSV(m *models.Manifest) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Title", "Artist", "Released"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, album := range m.Albums {
		record := []string{
			album.ID,
			album.Title,
			album.Artist,
			releaseDate(album),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a manifest to a Markdown list, linking each entry to its colored cover
// when coverDir is set.
func ExportToMarkdown(m *models.Manifest, coverDir string) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# Favorites\n\n")
	buf.WriteString(fmt.Sprintf("**Albums**: %d\n\n", len(m.Albums)))

	for i, album := range m.Albums {
		title := album.Title
		if title == "" {
			title = album.ID
		}
		artistPart := ""
		if album.Artist != "" {
			artistPart = album.Artist + " - "
		}
		buf.WriteString(fmt.Sprintf("%d. %s%s [%s]\n", i+1, artistPart, title, releaseDate(album)))
		if coverDir != "" {
			buf.WriteString(fmt.Sprintf("   ![%s](%s)\n", title, filepath.ToSlash(filepath.Join(coverDir, album.ID+".png"))))
		}
	}

	return buf.Bytes(), nil
}

// ExportToText converts a manifest to plain text format
func ExportToText(m *models.Manifest) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Favorites: %d\n\n", len(m.Albums)))
	for i, album := range m.Albums {
		buf.WriteString(fmt.Sprintf("%d. %s - %s (%s)\n", i+1, album.Artist, album.Title, releaseDate(album)))
	}

	return buf.Bytes(), nil
}

// Export renders m in the given format.
func Export(m *models.Manifest, format Format) ([]byte, error) {
	switch format {
	case FormatJSON, "":
		return EncodeManifest(m)
	case FormatCSV:
		return ExportToCSV(m)
	case FormatMarkdown:
		return ExportToMarkdown(m, "")
	case FormatText:
		return ExportToText(m)
	default:
		return nil, fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidInput, format)
	}
}

func releaseDate(a *models.Album) string {
	if a.ReleaseDate.IsZero() {
		return "unknown"
	}
	return a.ReleaseDate.Format("2006-01-02")
}
