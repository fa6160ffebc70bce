// Package harvest orchestrates the crawl: it drives the paginated
// walk, diffs candidate URLs against the store, and fans out per-paper
// scrapes with bounded concurrency.
package harvest

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"path"
	"time"

	"golang.org/x/sync/errgroup"

	"searxiv/internal/config"
	"searxiv/internal/ratelimit"
	"searxiv/internal/scrape"
	"searxiv/internal/store"
)

// maxInFlight bounds how many paper fetches run concurrently.
const maxInFlight = 25

// Config parameterizes one harvest run.
type Config struct {
	StartPage     int
	MaxPages      int
	PapersPerPage int
}

// ListingURL builds the advanced-search listing URL for a given page:
// computer-science classification, all dates, newest announcements
// first.
func ListingURL(cfg Config, page int) string {
	start := (cfg.StartPage + page) * cfg.PapersPerPage
	return fmt.Sprintf(
		"https://arxiv.org/search/advanced?advanced=&terms-0-operator=AND"+
			"&terms-0-term=&terms-0-field=title"+
			"&classification-computer_science=y"+
			"&classification-physics_archives=all"+
			"&classification-include_cross_list=include"+
			"&date-filter_by=all_dates&date-year="+
			"&date-from_date=&date-to_date="+
			"&date-date_type=submitted_date&abstracts=show"+
			"&size=%d&order=-announced_date_first"+
			"&start=%d",
		cfg.PapersPerPage, start,
	)
}

// Run executes one full harvest: discovery, diff, and bounded fetch.
// prog may be nil to run without progress rendering.
func Run(ctx context.Context, cfg Config, gov *ratelimit.Governor, gw store.Gateway, logger *slog.Logger, prog *Progress) error {
	discovered, err := discover(ctx, ListingURL(cfg, 0), cfg.MaxPages, gov, logger, prog)
	if err != nil {
		return err
	}

	toFetch, err := diff(ctx, gw, discovered)
	if err != nil {
		return err
	}
	logger.Info("diff phase complete", slog.Int("discovered", len(discovered)), slog.Int("new", len(toFetch)))

	return fetch(ctx, gov, gw, logger, prog, toFetch)
}

// discover walks up to maxPages listing pages sequentially from
// startURL, accumulating paper URLs.
func discover(ctx context.Context, startURL string, maxPages int, gov *ratelimit.Governor, logger *slog.Logger, prog *Progress) ([]string, error) {
	var urls []string
	next := startURL

	for page := 0; page < maxPages; page++ {
		if next == "" {
			break
		}
		result, err := scrape.ScrapeListing(ctx, gov, next)
		if err != nil {
			return nil, err
		}
		urls = append(urls, result.PaperURLs...)
		logger.Info("discovery progress", slog.Int("page", page+1), slog.Int("total_urls", len(urls)))
		prog.DiscoveredPage(page+1, len(urls))
		next = result.NextPageURL
	}

	return urls, nil
}

// diff rewrites each URL's host to the export mirror and keeps only
// those not already in the store.
func diff(ctx context.Context, gw store.Gateway, urls []string) ([]string, error) {
	var toFetch []string
	for _, raw := range urls {
		mirrored := rewriteToExportMirror(raw)
		exists, err := gw.PaperExists(ctx, mirrored)
		if err != nil {
			return nil, err
		}
		if !exists {
			toFetch = append(toFetch, mirrored)
		}
	}
	return toFetch, nil
}

// fetch scrapes each paper with bounded concurrency; any single
// failure aborts the whole batch.
func fetch(ctx context.Context, gov *ratelimit.Governor, gw store.Gateway, logger *slog.Logger, prog *Progress, urls []string) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxInFlight)

	for _, landingURL := range urls {
		landingURL := landingURL
		g.Go(func() error {
			taskCtx := config.WithRequestContext(gctx, &config.RequestContext{
				RequestID: path.Base(landingURL),
				Operation: "scrape_paper",
				StartTime: time.Now(),
			})
			if err := scrape.ScrapePaper(taskCtx, gov, gw, logger, landingURL); err != nil {
				return err
			}
			config.LogWithContext(taskCtx, logger, slog.LevelInfo, "paper ingested", slog.String("url", landingURL))
			prog.PaperDone(len(urls))
			return nil
		})
	}

	return g.Wait()
}

// rewriteToExportMirror normalizes hosts before dedup:
// arxiv.org -> export.arxiv.org.
func rewriteToExportMirror(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	if u.Host == "arxiv.org" {
		u.Host = "export.arxiv.org"
	}
	return u.String()
}
