// Command harvester drives the crawl: paginated discovery of the
// listing site, diff against the store, and bounded-concurrency
// fetch-and-ingest of new papers.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"searxiv/internal/config"
	"searxiv/internal/harvest"
	"searxiv/internal/ratelimit"
	"searxiv/internal/store"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			os.Exit(130)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	var (
		startPage     int
		maxPages      int
		papersPerPage int
		dataDir       string
	)

	root := &cobra.Command{
		Use:   "harvester",
		Short: "Harvest scholarly pre-print metadata and full text into the store",
		RunE: func(cmd *cobra.Command, args []string) error {
			return harvestRun(cmd.Context(), harvest.Config{
				StartPage:     startPage,
				MaxPages:      maxPages,
				PapersPerPage: papersPerPage,
			}, dataDir)
		},
	}

	root.Flags().IntVar(&startPage, "start-page", 0, "first listing page offset to crawl")
	root.Flags().IntVar(&maxPages, "max-pages", 1, "maximum number of listing pages to walk")
	root.Flags().IntVar(&papersPerPage, "papers-per-page", 25, "papers requested per listing page")
	root.Flags().StringVar(&dataDir, "data-dir", "", "override the config file's database_url (sqlite path)")

	return root.ExecuteContext(ctx)
}

func harvestRun(ctx context.Context, cfg harvest.Config, dataDir string) error {
	appCfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if dataDir != "" {
		appCfg.DatabaseURL = dataDir
	}

	logger := config.NewLogger(appCfg)
	slog.SetDefault(logger)

	db, err := store.Open(appCfg.DatabaseURL, logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	gw := store.NewGateway(db)

	gov := ratelimit.New(ratelimit.DefaultBurstSize, ratelimit.DefaultBurstWindow, logger)

	logger.Info("harvest starting",
		slog.Int("start_page", cfg.StartPage),
		slog.Int("max_pages", cfg.MaxPages),
		slog.Int("papers_per_page", cfg.PapersPerPage),
	)

	prog := harvest.NewProgress(os.Stderr)
	if err := harvest.Run(ctx, cfg, gov, gw, logger, prog); err != nil {
		logger.Error("harvest failed", slog.String("error", err.Error()))
		return err
	}

	logger.Info("harvest complete", slog.Int64("http_requests", gov.Requests()))
	return nil
}
