// Command search is the search service entry point: it builds or opens
// the on-disk inverted index, loads the spelling/synonym dictionaries,
// and serves queries through either the interactive prompt (`cli`
// subcommand) or the HTTP API (`server` subcommand), both accepting
// `--prune`.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"searxiv/internal/api"
	"searxiv/internal/config"
	"searxiv/internal/embedding"
	"searxiv/internal/rewrite"
	"searxiv/internal/searchengine"
	"searxiv/internal/searchindex"
	"searxiv/internal/store"
	"searxiv/internal/tui"
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
	root := &cobra.Command{
		Use:   "search",
		Short: "Serve ranked free-text search over the harvested corpus",
	}

	var cliPrune bool
	cliCmd := &cobra.Command{
		Use:   "cli",
		Short: "Interactive read-query-print loop",
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, _, embedder, err := bootstrap(cmd.Context(), cliPrune)
			if err != nil {
				return err
			}
			defer closeEmbedder(embedder)
			return tui.Run(engine)
		},
	}
	cliCmd.Flags().BoolVar(&cliPrune, "prune", false, "delete the index cache directory before startup")

	var serverPrune bool
	serverCmd := &cobra.Command{
		Use:   "server",
		Short: "Serve the search HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, appCfg, embedder, err := bootstrap(cmd.Context(), serverPrune)
			if err != nil {
				return err
			}
			defer closeEmbedder(embedder)
			return serve(cmd.Context(), engine, appCfg)
		},
	}
	serverCmd.Flags().BoolVar(&serverPrune, "prune", false, "delete the index cache directory before startup")

	root.AddCommand(cliCmd, serverCmd)
	return root.ExecuteContext(ctx)
}

// bootstrap performs the shared construction order both subcommands
// need: config -> logger -> (prune) -> store -> embedder -> index ->
// dictionaries -> engine. It returns the embedder alongside the engine so callers
// can release any resources it holds (e.g. an onnxruntime session) on
// shutdown.
func bootstrap(ctx context.Context, prune bool) (*searchengine.Engine, *config.Config, embedding.Embedder, error) {
	appCfg, err := config.Load()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}

	logger := config.NewLogger(appCfg)
	slog.SetDefault(logger)

	indexDir, err := config.IndexCacheDir()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("resolve index cache dir: %w", err)
	}

	if prune {
		logger.Info("pruning index cache", slog.String("path", indexDir))
		if err := os.RemoveAll(indexDir); err != nil {
			return nil, nil, nil, fmt.Errorf("prune index: %w", err)
		}
	}

	db, err := store.Open(appCfg.DatabaseURL, logger)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open store: %w", err)
	}
	gw := store.NewGateway(db)

	embedder, err := embedding.Select(appCfg.Embedding.ModelPath, appCfg.Embedding.VocabPath, appCfg.Embedding.Dimension, logger)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("select embedder: %w", err)
	}

	idx, err := searchindex.OpenOrBuild(ctx, indexDir, gw, embedder, searchindex.BuildConfig{
		ZstdCompressionLevel: appCfg.IndexZstdCompressionLevel,
		DocstoreBlocksize:    appCfg.IndexDocstoreBlocksize,
		WriterMemoryBudget:   appCfg.IndexWriterMemoryBudget,
	}, logger)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open or build index: %w", err)
	}

	rewriter, err := loadRewriter(appCfg.DictionariesPath, logger)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load dictionaries: %w", err)
	}

	engine := searchengine.New(idx, embedder, rewriter, appCfg.MaxResults, logger)
	return engine, appCfg, embedder, nil
}

// closeEmbedder releases the embedder's resources if it holds any
// (the ONNX binding owns a runtime session; the hash embedder is a
// no-op here).
func closeEmbedder(embedder embedding.Embedder) {
	if closer, ok := embedder.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			slog.Warn("embedder close failed", slog.String("error", err.Error()))
		}
	}
}

// loadRewriter loads the dictionary files from dictionariesPath, if
// set. A missing or empty path yields a Rewriter with no-op stages
// rather than an error, since spelling/synonyms are a quality
// improvement, not a hard dependency of search.
func loadRewriter(dictionariesPath string, logger *slog.Logger) (*rewrite.Rewriter, error) {
	if dictionariesPath == "" {
		logger.Warn("no dictionaries_path configured, query rewriting disabled")
		return rewrite.New(nil, nil), nil
	}

	spell := rewrite.NewSpellCorrector()
	unigramPath := filepath.Join(dictionariesPath, "LScD.txt")
	if err := spell.LoadDictionary(unigramPath); err != nil {
		return nil, fmt.Errorf("load unigram dictionary: %w", err)
	}
	bigramPath := filepath.Join(dictionariesPath, "FrequencyBigramdictionary.txt")
	if err := spell.LoadDictionary(bigramPath); err != nil {
		logger.Warn("bigram dictionary not loaded", slog.String("error", err.Error()))
	}

	synonyms := rewrite.NewSynonymTable()
	synonymPath := filepath.Join(dictionariesPath, "WordnetSynonyms.txt")
	if err := synonyms.LoadCSV(synonymPath); err != nil {
		return nil, fmt.Errorf("load synonyms: %w", err)
	}

	logger.Info("dictionaries loaded",
		slog.String("path", dictionariesPath),
		slog.Int("dictionary_words", spell.TrainedWords()),
		slog.Int("synonym_entries", synonyms.Len()),
	)
	return rewrite.New(spell, synonyms), nil
}

// serve runs the HTTP server with graceful shutdown on ctx
// cancellation (SIGINT/SIGTERM), draining in-flight requests before
// exit.
func serve(ctx context.Context, engine *searchengine.Engine, appCfg *config.Config) error {
	router := api.NewRouter(engine, slog.Default())
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", appCfg.ServerSpecific.Port),
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", slog.Int("port", appCfg.ServerSpecific.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
