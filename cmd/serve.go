package cmd

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/audioforge/audioforge/pkg/api"
	"github.com/audioforge/audioforge/pkg/convert"
	"github.com/audioforge/audioforge/pkg/environment"
	"github.com/audioforge/audioforge/pkg/logging"
	"github.com/audioforge/audioforge/pkg/pool"
	"github.com/audioforge/audioforge/pkg/store"
	"github.com/gin-gonic/gin"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

const shutdownGrace = 10 * time.Second

// NewServeCommand returns the command that runs the HTTP API server.
func NewServeCommand(fs afero.Fs, ctx context.Context, env *environment.Environment, logger *logging.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunServer(fs, ctx, env, logger)
		},
	}
}

// RunServer wires the store, worker pool, conversion pipeline and HTTP layer
// together and serves until the context is canceled. Everything is
// constructed once here and injected; nothing reaches for globals.
func RunServer(fs afero.Fs, ctx context.Context, env *environment.Environment, logger *logging.Logger) error {
	if env.Debug != "1" {
		gin.SetMode(gin.ReleaseMode)
	}

	st, err := store.Open(env.DatabasePath, logger)
	if err != nil {
		return err
	}
	defer st.Close()
	if err := st.Migrate(ctx); err != nil {
		return err
	}

	workers := pool.New(env.MaxWorkers, logger)
	defer workers.Stop()

	encoder := convert.NewEncoder(env.FFmpegBin,
		time.Duration(env.ConvertTimeoutSec)*time.Second, logger)
	alloc := convert.NewPathAllocator(fs, env.MediaRoot)
	orchestrator := convert.NewOrchestrator(
		fs, st, st, encoder, alloc, workers, env.DownloadBase(), logger)

	server := api.NewServer(fs, orchestrator, st, st, logger)
	httpServer := &http.Server{
		Addr:              env.ListenAddr(),
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown failed", "error", err)
		}
	}()

	logger.Info("starting API server", "addr", env.ListenAddr(), "workers", workers.Workers())
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
