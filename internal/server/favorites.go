package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/egecelikci/favorites/internal/models"
)

// RunLister reads the run history. Implemented by repositories.RunRepository.
type RunLister interface {
	List(criteria map[string]any) ([]*models.RunRecord, error)
}

// coverVariants maps URL segments onto directories under the covers root.
var coverVariants = map[string]bool{"monochrome": true, "colored": true}

// FavoritesHandler serves the manifest, processed covers and run history read-only.
type FavoritesHandler struct {
	manifest  string
	coverRoot string
	runs      RunLister
	logger    *log.Logger
	mux       *http.ServeMux
}

// FavoritesOpts configures a [FavoritesHandler]. Runs is optional.
type FavoritesOpts struct {
	Manifest  string // Path of the manifest JSON
	CoverRoot string // Directory holding the monochrome/ and colored/ subdirectories
	Runs      RunLister
	Logger    *log.Logger
}

// NewFavoritesHandler creates a handler over the given sync outputs.
func NewFavoritesHandler(opts FavoritesOpts) *FavoritesHandler {
	if opts.Logger == nil {
		opts.Logger = log.New(os.Stderr)
	}

	h := &FavoritesHandler{
		manifest:  opts.Manifest,
		coverRoot: opts.CoverRoot,
		runs:      opts.Runs,
		logger:    opts.Logger,
		mux:       http.NewServeMux(),
	}
	h.mux.HandleFunc("GET /healthz", h.health)
	h.mux.HandleFunc("GET /favorites.json", h.serveManifest)
	h.mux.HandleFunc("GET /covers/{variant}/{file}", h.serveCover)
	h.mux.HandleFunc("GET /runs", h.serveRuns)
	return h
}

// Routes returns the HTTP routes this handler serves.
func (h *FavoritesHandler) Routes() []string {
	return []string{"GET /healthz", "GET /favorites.json", "GET /covers/{variant}/{file}", "GET /runs"}
}

func (h *FavoritesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *FavoritesHandler) health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *FavoritesHandler) serveManifest(w http.ResponseWriter, r *http.Request) {
	if _, err := os.Stat(h.manifest); errors.Is(err, os.ErrNotExist) {
		h.writeError(w, http.StatusNotFound, "manifest not written yet, run sync first")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	http.ServeFile(w, r, h.manifest)
}

// serveCover serves public/covers/<variant>/<id>.png. Anything but a bare file name is rejected.
func (h *FavoritesHandler) serveCover(w http.ResponseWriter, r *http.Request) {
	variant := r.PathValue("variant")
	file := r.PathValue("file")

	if !coverVariants[variant] {
		h.writeError(w, http.StatusNotFound, "unknown cover variant")
		return
	}
	if filepath.Ext(file) != ".png" || strings.ContainsAny(file, `/\`) || strings.HasPrefix(file, ".") {
		h.writeError(w, http.StatusBadRequest, "invalid cover name")
		return
	}

	path := filepath.Join(h.coverRoot, variant, file)
	if _, err := os.Stat(path); err != nil {
		h.writeError(w, http.StatusNotFound, "cover not found")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	http.ServeFile(w, r, path)
}

func (h *FavoritesHandler) serveRuns(w http.ResponseWriter, r *http.Request) {
	if h.runs == nil {
		h.writeError(w, http.StatusServiceUnavailable, "run history is disabled")
		return
	}

	criteria := map[string]any{}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			h.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		criteria["limit"] = n
	}
	if v := r.URL.Query().Get("status"); v != "" {
		if !models.RunStatus(v).Valid() {
			h.writeError(w, http.StatusBadRequest, "unknown status")
			return
		}
		criteria["status"] = v
	}

	runs, err := h.runs.List(criteria)
	if err != nil {
		h.logger.Error("failed to list runs", "err", err)
		h.writeError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}
	if runs == nil {
		runs = []*models.RunRecord{}
	}
	h.writeJSON(w, http.StatusOK, runs)
}

func (h *FavoritesHandler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Warn("failed to encode response", "err", err)
	}
}

func (h *FavoritesHandler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, map[string]string{"error": msg})
}
