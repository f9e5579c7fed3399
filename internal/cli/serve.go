package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pagecraft/pagecraft/internal/config"
	"github.com/pagecraft/pagecraft/internal/engine"
	"github.com/pagecraft/pagecraft/internal/server"
	"github.com/pagecraft/pagecraft/internal/tracking"
	"github.com/spf13/cobra"
)

var port int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the pagecraft HTTP server.

The server provides:
  - Assignment endpoint for visitor bucketing
  - Admin stats and experiment update endpoints
  - Health check endpoint

Example:
  pagecraft serve --port 8080`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&port, "port", "p", settings.Port, "port to listen on")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := slog.Default()

	store := config.NewStore(contentDir, logger)
	tracker := tracking.New(stateFile, store, logger)
	eng := engine.New(store, tracker, logger)

	watcher, err := store.Watch()
	if err != nil {
		logger.Warn("content watch unavailable, external edits need manual invalidation", "error", err)
	} else {
		defer watcher.Close()
	}

	stopFlusher := tracker.StartFlusher(settings.FlushInterval)
	defer stopFlusher()

	srv := server.New(store, eng, tracker, port, tokenFilePath(), logger)

	errc := make(chan error, 1)
	go func() { errc <- srv.Start() }()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errc:
		return err
	case sig := <-sigc:
		logger.Info("shutting down", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}
}
