package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/egecelikci/favorites/internal/server"
	"github.com/egecelikci/favorites/internal/shared"
)

// previewHandler builds the preview router. The returned close func releases the history database.
func (r *Runner) previewHandler(config *shared.Config) (http.Handler, func(), error) {
	opts := server.FavoritesOpts{
		Manifest:  config.Paths.Manifest,
		CoverRoot: filepath.Dir(r.paths(config).ColorDir()),
		Logger:    shared.WithLogger(r.logger, "component", "server"),
	}

	closeFn := func() {}
	repo, db, err := r.openHistory(config)
	if err != nil {
		return nil, nil, err
	}
	if repo != nil {
		opts.Runs = repo
		closeFn = func() { db.Close() }
	}

	router := server.NewBasicRouter()
	router.Use(server.Recover(opts.Logger), server.Logging(opts.Logger))
	router.Handler(server.NewFavoritesHandler(opts))

	return router, closeFn, nil
}

// Serve runs the preview server until the context is cancelled.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	config, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}

	handler, closeFn, err := r.previewHandler(config)
	if err != nil {
		return err
	}
	defer closeFn()

	addr := cmd.String("addr")
	if addr == "" {
		addr = config.ServerAddr()
	}

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Info("starting preview server", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
		close(serverErrors)
	}()

	r.writePlain("→ serving http://%s/favorites.json\n", addr)

	select {
	case err, ok := <-serverErrors:
		if ok {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		r.logger.Warn("error shutting down server", "error", err)
	}
	return nil
}
