package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jparise/gh-search/internal/activity"
	"github.com/jparise/gh-search/internal/github"
	"github.com/jparise/gh-search/internal/logger"
	"github.com/jparise/gh-search/internal/search"
	"github.com/jparise/gh-search/internal/server"
	"github.com/jparise/gh-search/internal/storage/sqlite"
)

const shutdownTimeout = 10 * time.Second

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the search API over HTTP",
	Long: `Serve runs the search API as a JSON HTTP service.

Requests are attributed to the user named by the X-User-ID header, which is
expected to be set by an authenticating proxy. Search history, feedback and
notifications are kept in the local database unless storage is disabled.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "",
		"address to listen on (default from config, localhost:8080)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("addr") {
		cfg.Server.Addr = serveAddr
	}

	client, err := github.NewClient(cfg.ClientOptions())
	if err != nil {
		return err
	}

	opts := server.Options{
		Searcher:       search.NewAggregator(client, cfg.AggregatorOptions()),
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Admins:         cfg.Admin.Users,
		PageSize:       cfg.Server.PageSize,
		MaxSessions:    cfg.Server.MaxSessions,
	}

	if !cfg.Storage.Disabled {
		store, err := sqlite.NewStore(cfg.Storage.DataDir)
		if err != nil {
			return err
		}
		defer store.Close()

		recorder := activity.NewRecorder(store.History(), store.Feedback(), activity.DefaultQueueSize)
		defer recorder.Close()

		opts.Users = store.Users()
		opts.History = store.History()
		opts.Feedback = store.Feedback()
		opts.Notifications = store.Notifications()
		opts.Recorder = recorder

		logger.Info("Using database %s", store.Path())
	}

	srv, err := server.New(opts)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		errc <- httpServer.ListenAndServe()
	}()

	output := newOutput(cmd)
	output.Infof("Listening on http://%s", cfg.Server.Addr)

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
