package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/egecelikci/favorites/internal/shared"
)

// Type is the content type of a cache entry.
type Type string

const (
	JSON   Type = "json"
	Buffer Type = "buffer"
	Text   Type = "text"
)

// Ext returns the file extension used for entries of type t.
func (t Type) Ext() string {
	switch t {
	case JSON:
		return ".json"
	case Text:
		return ".txt"
	default:
		return ".buffer"
	}
}

const (
	httpDir     = "http"
	metadataDir = "albums/data"
	coverDir    = "albums/covers"
)

// Key addresses a single cache entry.
type Key struct {
	Dir  string // Directory relative to the cache root
	Name string // File name without extension
	Type Type
}

// KeyOptions are the request fields that take part in a [KeyFor] fingerprint.
type KeyOptions struct {
	Method  string
	Headers map[string]string
	Body    []byte
	Type    Type
}

// KeyFor returns a deterministic key for identity (usually a URL) and the request options that change its response.
//
// Header names are case-insensitive and sorted, so map ordering never changes the fingerprint.
func KeyFor(identity string, opts KeyOptions) Key {
	method := strings.ToUpper(opts.Method)
	if method == "" {
		method = "GET"
	}

	h := sha256.New()
	fmt.Fprintf(h, "%s\n%s\n", method, identity)

	names := make([]string, 0, len(opts.Headers))
	lower := make(map[string]string, len(opts.Headers))
	for k, v := range opts.Headers {
		name := strings.ToLower(k)
		names = append(names, name)
		lower[name] = v
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(h, "%s: %s\n", name, lower[name])
	}
	h.Write(opts.Body)

	t := opts.Type
	if t == "" {
		t = JSON
	}

	return Key{Dir: httpDir, Name: hex.EncodeToString(h.Sum(nil)), Type: t}
}

// MetadataKey addresses the metadata document of a favorite.
func MetadataKey(id string) Key {
	return Key{Dir: metadataDir, Name: id, Type: JSON}
}

// CoverKey addresses the raw cover image of a favorite.
func CoverKey(id string) Key {
	return Key{Dir: coverDir, Name: id, Type: Buffer}
}

// Store is a key-addressed on-disk cache rooted at a directory.
type Store struct {
	root string
}

// NewStore creates a Store rooted at root. The directory is created lazily on first write.
func NewStore(root string) *Store {
	return &Store{root: root}
}

// Root returns the cache root directory.
func (s *Store) Root() string {
	return s.root
}

// Path returns the file path of key.
func (s *Store) Path(key Key) string {
	return filepath.Join(s.root, filepath.FromSlash(key.Dir), key.Name+key.Type.Ext())
}

// Dir returns the directory holding entries for keys with the given directory.
func (s *Store) Dir(key Key) string {
	return filepath.Join(s.root, filepath.FromSlash(key.Dir))
}

// Exists reports whether an entry is on disk, regardless of its age or contents.
func (s *Store) Exists(key Key) bool {
	return shared.FileExists(s.Path(key))
}

// Age returns how long ago the entry was written.
func (s *Store) Age(key Key) (time.Duration, bool) {
	info, err := os.Stat(s.Path(key))
	if err != nil {
		return 0, false
	}
	return time.Since(info.ModTime()), true
}

// Read returns the raw entry for key if it exists and is no older than maxAge.
//
// JSON entries that do not parse read as absent. Errors are never returned: any failure is a miss.
func (s *Store) Read(key Key, maxAge time.Duration) ([]byte, bool) {
	if maxAge <= 0 {
		return nil, false
	}

	path := s.Path(key)
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return nil, false
	}
	if maxAge != shared.Forever && time.Since(info.ModTime()) > maxAge {
		return nil, false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	if key.Type == JSON && !json.Valid(data) {
		return nil, false
	}

	return data, true
}

// ReadJSON decodes a fresh JSON entry into out and reports whether it was present.
func (s *Store) ReadJSON(key Key, maxAge time.Duration, out any) bool {
	data, ok := s.Read(key, maxAge)
	if !ok {
		return false
	}
	return json.Unmarshal(data, out) == nil
}

// ReadBuffer returns a fresh binary entry.
func (s *Store) ReadBuffer(key Key, maxAge time.Duration) ([]byte, bool) {
	key.Type = Buffer
	return s.Read(key, maxAge)
}

// ReadText returns a fresh text entry.
func (s *Store) ReadText(key Key, maxAge time.Duration) (string, bool) {
	data, ok := s.Read(key, maxAge)
	return string(data), ok
}

// Write serializes value according to the key type and overwrites the entry.
//
// JSON keys accept raw JSON ([]byte, [json.RawMessage]) which is stored verbatim, or any value to marshal.
// Buffer keys accept []byte; text keys accept string or []byte.
func (s *Store) Write(key Key, value any) error {
	data, err := encode(key.Type, value)
	if err != nil {
		return fmt.Errorf("failed to encode %s entry %s: %w", key.Type, key.Name, err)
	}

	if err := shared.WriteFileAtomic(s.Path(key), data, 0644); err != nil {
		return fmt.Errorf("failed to write cache entry %s: %w", key.Name, err)
	}

	return nil
}

// WriteJSON marshals value into a JSON entry.
func (s *Store) WriteJSON(key Key, value any) error {
	key.Type = JSON
	return s.Write(key, value)
}

// WriteBuffer stores data as a binary entry.
func (s *Store) WriteBuffer(key Key, data []byte) error {
	key.Type = Buffer
	return s.Write(key, data)
}

// WriteText stores text as a text entry.
func (s *Store) WriteText(key Key, text string) error {
	key.Type = Text
	return s.Write(key, text)
}

// Remove deletes an entry. Missing entries are not an error.
func (s *Store) Remove(key Key) error {
	if err := os.Remove(s.Path(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove cache entry %s: %w", key.Name, err)
	}
	return nil
}

// Section summarizes the entries under one cache directory.
type Section struct {
	Name    string
	Dir     string
	Entries int
	Bytes   int64
}

// Stat walks the known cache directories and counts their entries. Missing directories count as empty.
func (s *Store) Stat() ([]Section, error) {
	sections := []Section{
		{Name: "http", Dir: httpDir},
		{Name: "metadata", Dir: metadataDir},
		{Name: "covers", Dir: coverDir},
	}

	for i := range sections {
		root := filepath.Join(s.root, filepath.FromSlash(sections[i].Dir))
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if errors.Is(err, fs.ErrNotExist) {
					return filepath.SkipDir
				}
				return err
			}
			if !d.Type().IsRegular() || strings.HasPrefix(d.Name(), ".") {
				return nil
			}
			info, err := d.Info()
			if err != nil {
				return err
			}
			sections[i].Entries++
			sections[i].Bytes += info.Size()
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", sections[i].Name, err)
		}
	}

	return sections, nil
}

func encode(t Type, value any) ([]byte, error) {
	switch t {
	case JSON:
		switch v := value.(type) {
		case json.RawMessage:
			return validJSON(v)
		case []byte:
			return validJSON(v)
		default:
			return json.Marshal(v)
		}
	case Buffer:
		v, ok := value.([]byte)
		if !ok {
			return nil, fmt.Errorf("buffer entries must be []byte, got %T", value)
		}
		return v, nil
	case Text:
		switch v := value.(type) {
		case string:
			return []byte(v), nil
		case []byte:
			return v, nil
		default:
			return nil, fmt.Errorf("text entries must be string or []byte, got %T", value)
		}
	default:
		return nil, fmt.Errorf("unknown content type %q", t)
	}
}

func validJSON(data []byte) ([]byte, error) {
	if !json.Valid(data) {
		return nil, fmt.Errorf("value is not valid JSON")
	}
	return data, nil
}
