package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/audioforge/audioforge/cmd"
	"github.com/audioforge/audioforge/pkg/environment"
	"github.com/audioforge/audioforge/pkg/logging"
	"github.com/spf13/afero"
)

func main() {
	fs := afero.NewOsFs()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := logging.GetLogger()

	env, err := environment.NewEnvironment(fs, nil)
	if err != nil {
		logger.Error("failed to set up environment", "error", err)
		os.Exit(1)
	}

	setupSignalHandler(cancel, logger)

	rootCmd := cmd.NewRootCommand(fs, ctx, env, logger)
	if err := rootCmd.Execute(); err != nil {
		logger.Error("command failed", "error", err)
		os.Exit(1)
	}
}

// setupSignalHandler cancels the root context on SIGINT/SIGTERM so the server
// can drain in-flight conversions before exiting.
func setupSignalHandler(cancel context.CancelFunc, logger *logging.Logger) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		logger.Debug("received signal", "signal", sig)
		cancel()
	}()
}
