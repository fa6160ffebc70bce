package harvest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"searxiv/internal/ratelimit"
	"searxiv/internal/store"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// wideOpenGovernor rate-limits loosely enough that only the errgroup
// bound shapes the fetch phase's concurrency.
func wideOpenGovernor() *ratelimit.Governor {
	return ratelimit.New(1000, time.Millisecond, discardLogger())
}

func newHarvestGateway(t *testing.T) store.Gateway {
	t.Helper()
	db, err := store.Open(":memory:", discardLogger())
	require.NoError(t, err)
	return store.NewGateway(db)
}

func TestListingURL(t *testing.T) {
	cfg := Config{StartPage: 2, MaxPages: 1, PapersPerPage: 25}
	url := ListingURL(cfg, 0)
	assert.Contains(t, url, "size=25")
	assert.Contains(t, url, "start=50")
	assert.Contains(t, url, "classification-computer_science=y")
}

func TestRewriteToExportMirror(t *testing.T) {
	assert.Equal(t, "https://export.arxiv.org/abs/1111.1111", rewriteToExportMirror("https://arxiv.org/abs/1111.1111"))
	assert.Equal(t, "https://export.arxiv.org/abs/1111.1111", rewriteToExportMirror("https://export.arxiv.org/abs/1111.1111"))
}

func TestDiscover_FollowsPagination(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/p1":
			fmt.Fprintf(w, `<html><body>
				<p class="list-title"><a href="https://arxiv.org/abs/1">one</a></p>
				<p class="list-title"><a href="https://arxiv.org/abs/2">two</a></p>
				<a class="pagination-next" href="%s/p2">next</a>
				</body></html>`, srv.URL)
		case "/p2":
			fmt.Fprint(w, `<html><body>
				<p class="list-title"><a href="https://arxiv.org/abs/3">three</a></p>
				</body></html>`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	urls, err := discover(context.Background(), srv.URL+"/p1", 5, wideOpenGovernor(), discardLogger(), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"https://arxiv.org/abs/1",
		"https://arxiv.org/abs/2",
		"https://arxiv.org/abs/3",
	}, urls)
}

func TestDiscover_StopsAtMaxPages(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Every page links to another, so only maxPages can stop the walk.
		fmt.Fprintf(w, `<html><body>
			<p class="list-title"><a href="https://arxiv.org/abs/x">x</a></p>
			<a class="pagination-next" href="%s/more">next</a>
			</body></html>`, srv.URL)
	}))
	defer srv.Close()

	urls, err := discover(context.Background(), srv.URL, 3, wideOpenGovernor(), discardLogger(), nil)
	require.NoError(t, err)
	assert.Len(t, urls, 3)
}

func TestDiff_SkipsExistingPapers(t *testing.T) {
	gw := newHarvestGateway(t)
	ctx := context.Background()

	_, err := gw.IngestPaperTx(ctx, store.NewPaper{URL: "https://export.arxiv.org/abs/1"}, nil, nil)
	require.NoError(t, err)

	toFetch, err := diff(ctx, gw, []string{
		"https://arxiv.org/abs/1",
		"https://arxiv.org/abs/2",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"https://export.arxiv.org/abs/2"}, toFetch)
}

// landingHandler serves minimal paper landing pages under /abs/ and
// deliberately-unparseable PDF bytes under /pdf/, tracking the peak
// number of in-flight requests.
type landingHandler struct {
	mu       sync.Mutex
	inFlight int
	peak     int
}

func (h *landingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	h.inFlight++
	if h.inFlight > h.peak {
		h.peak = h.inFlight
	}
	h.mu.Unlock()
	defer func() {
		h.mu.Lock()
		h.inFlight--
		h.mu.Unlock()
	}()

	time.Sleep(10 * time.Millisecond)
	fmt.Fprintf(w, `<html><body>
		<h1 class="title">Title:Paper %s</h1>
		<blockquote class="abstract">Abstract: About %s.</blockquote>
		<div class="authors"><a>Author %s</a></div>
		</body></html>`, r.URL.Path, r.URL.Path, r.URL.Path)
}

func (h *landingHandler) peakInFlight() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.peak
}

func TestFetch_BoundedConcurrencyIngestsAll(t *testing.T) {
	handler := &landingHandler{}
	srv := httptest.NewServer(handler)
	defer srv.Close()

	const papers = 30
	urls := make([]string, papers)
	for i := range urls {
		urls[i] = fmt.Sprintf("%s/abs/%d", srv.URL, i)
	}

	gw := newHarvestGateway(t)
	err := fetch(context.Background(), wideOpenGovernor(), gw, discardLogger(), nil, urls)
	require.NoError(t, err)

	count, err := gw.CountPapers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(papers), count)

	peak := handler.peakInFlight()
	assert.LessOrEqual(t, peak, maxInFlight)
	assert.Greater(t, peak, 1)
}

// failingGateway fails ingestion for one URL and delegates the rest.
type failingGateway struct {
	store.Gateway
	failURL string
}

func (g *failingGateway) IngestPaperTx(ctx context.Context, paper store.NewPaper, authors, subjects []string) (uint, error) {
	if paper.URL == g.failURL {
		return 0, fmt.Errorf("ingest %s: boom", paper.URL)
	}
	return g.Gateway.IngestPaperTx(ctx, paper, authors, subjects)
}

func TestFetch_AbortsBatchOnSingleFailure(t *testing.T) {
	handler := &landingHandler{}
	srv := httptest.NewServer(handler)
	defer srv.Close()

	urls := make([]string, 10)
	for i := range urls {
		urls[i] = fmt.Sprintf("%s/abs/%d", srv.URL, i)
	}

	gw := &failingGateway{Gateway: newHarvestGateway(t), failURL: urls[3]}
	err := fetch(context.Background(), wideOpenGovernor(), gw, discardLogger(), nil, urls)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}
