package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/egecelikci/favorites/internal/models"
	tu "github.com/egecelikci/favorites/internal/testing"
)

type fakeRuns struct {
	runs     []*models.RunRecord
	err      error
	criteria map[string]any
}

func (f *fakeRuns) List(criteria map[string]any) ([]*models.RunRecord, error) {
	f.criteria = criteria
	return f.runs, f.err
}

func TestBasicRouter(t *testing.T) {
	t.Run("Handle Filters Method", func(t *testing.T) {
		var router Router = NewBasicRouter()
		router.Handle("get", "/ping", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, "pong")
		}))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
		if rec.Code != http.StatusOK || rec.Body.String() != "pong" {
			t.Errorf("unexpected response %d %q", rec.Code, rec.Body.String())
		}

		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ping", nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", rec.Code)
		}
	})

	t.Run("Middleware Order", func(t *testing.T) {
		var order []string
		mark := func(name string) Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, r)
				})
			}
		}

		router := NewBasicRouter()
		router.Use(mark("first"), mark("second"))
		router.Handle(http.MethodGet, "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			order = append(order, "handler")
		}))

		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
		if got := strings.Join(order, ","); got != "first,second,handler" {
			t.Errorf("unexpected order %s", got)
		}
	})
}

func TestMiddleware(t *testing.T) {
	t.Run("Logging", func(t *testing.T) {
		var buf bytes.Buffer
		logger := log.New(&buf)

		handler := Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTeapot)
			io.WriteString(w, "short and stout")
		}))
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/pot", nil))

		out := buf.String()
		for _, want := range []string{"path=/pot", "status=418", "bytes=15"} {
			if !strings.Contains(out, want) {
				t.Errorf("expected %q in log line %q", want, out)
			}
		}
	})

	t.Run("Recover", func(t *testing.T) {
		handler := Recover(log.New(io.Discard))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("boom")
		}))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", rec.Code)
		}
	})
}

func TestFavoritesHandler(t *testing.T) {
	dir := t.TempDir()
	manifest := filepath.Join(dir, "_data", "favorites.json")
	coverRoot := filepath.Join(dir, "public", "covers")
	cover := tu.MustEncodePNG(t, tu.GradientImage(4, 4))

	start := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	run := models.NewRunRecord("run-1", start)
	run.Finish(models.RunSucceeded, "", start.Add(time.Second))
	runs := &fakeRuns{runs: []*models.RunRecord{run}}

	router := NewBasicRouter()
	router.Use(Recover(log.New(io.Discard)))
	router.Handler(NewFavoritesHandler(FavoritesOpts{
		Manifest:  manifest,
		CoverRoot: coverRoot,
		Runs:      runs,
		Logger:    log.New(io.Discard),
	}))
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	get := func(t *testing.T, path string) (*http.Response, []byte) {
		t.Helper()
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatalf("GET %s failed: %v", path, err)
		}
		defer resp.Body.Close()
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			t.Fatalf("failed to read body: %v", err)
		}
		return resp, body
	}

	t.Run("Health", func(t *testing.T) {
		resp, body := get(t, "/healthz")
		if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), `"ok"`) {
			t.Errorf("unexpected health response %d %s", resp.StatusCode, body)
		}
	})

	t.Run("Manifest Missing", func(t *testing.T) {
		resp, _ := get(t, "/favorites.json")
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("expected 404 before the first sync, got %d", resp.StatusCode)
		}
	})

	t.Run("Manifest", func(t *testing.T) {
		tu.MustWriteFile(t, manifest, []byte("{\n  \"albums\": []\n}\n"))

		resp, body := get(t, "/favorites.json")
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}
		if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("unexpected content type %s", ct)
		}
		if string(body) != "{\n  \"albums\": []\n}\n" {
			t.Errorf("manifest not served verbatim: %q", body)
		}
	})

	t.Run("Covers", func(t *testing.T) {
		tu.MustWriteFile(t, filepath.Join(coverRoot, "colored", "rg-1.png"), cover)

		tests := []struct {
			path string
			want int
		}{
			{"/covers/colored/rg-1.png", http.StatusOK},
			{"/covers/monochrome/rg-1.png", http.StatusNotFound},
			{"/covers/sepia/rg-1.png", http.StatusNotFound},
			{"/covers/colored/rg-1.jpg", http.StatusBadRequest},
			{"/covers/colored/.hidden.png", http.StatusBadRequest},
		}
		for _, tt := range tests {
			t.Run(tt.path, func(t *testing.T) {
				resp, body := get(t, tt.path)
				if resp.StatusCode != tt.want {
					t.Errorf("expected %d, got %d", tt.want, resp.StatusCode)
				}
				if tt.want == http.StatusOK && !bytes.Equal(body, cover) {
					t.Error("cover bytes differ")
				}
			})
		}
	})

	t.Run("Runs", func(t *testing.T) {
		resp, body := get(t, "/runs?limit=5&status=succeeded")
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", resp.StatusCode, body)
		}

		var got []*models.RunRecord
		if err := json.Unmarshal(body, &got); err != nil {
			t.Fatalf("failed to decode runs: %v", err)
		}
		if len(got) != 1 || got[0].ID() != "run-1" || got[0].Status != models.RunSucceeded {
			t.Errorf("unexpected runs %s", body)
		}
		if runs.criteria["limit"] != 5 || runs.criteria["status"] != "succeeded" {
			t.Errorf("unexpected criteria %v", runs.criteria)
		}
	})

	t.Run("Runs Bad Query", func(t *testing.T) {
		for _, q := range []string{"?limit=zero", "?limit=-1", "?status=weird"} {
			if resp, _ := get(t, "/runs"+q); resp.StatusCode != http.StatusBadRequest {
				t.Errorf("%s: expected 400, got %d", q, resp.StatusCode)
			}
		}
	})

	t.Run("Runs Error", func(t *testing.T) {
		runs.err = errors.New("db gone")
		defer func() { runs.err = nil }()

		if resp, _ := get(t, "/runs"); resp.StatusCode != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", resp.StatusCode)
		}
	})
}

func TestFavoritesHandlerWithoutHistory(t *testing.T) {
	h := NewFavoritesHandler(FavoritesOpts{Logger: log.New(io.Discard)})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/runs", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rec.Code)
	}
}
