package scrape

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"searxiv/internal/ratelimit"
)

const listingFixture = `
<html><body>
<p class="list-title"><a href="https://arxiv.org/abs/1111.1111">Paper One</a></p>
<p class="list-title"><a href="https://arxiv.org/abs/2222.2222">Paper Two</a></p>
<a class="pagination-next" href="/search/advanced?start=25">next</a>
</body></html>`

func TestScrapeListing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(listingFixture))
	}))
	defer srv.Close()

	gov := ratelimit.New(4, time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))
	result, err := ScrapeListing(context.Background(), gov, srv.URL)
	require.NoError(t, err)

	require.Len(t, result.PaperURLs, 2)
	require.Equal(t, "https://arxiv.org/abs/1111.1111", result.PaperURLs[0])
	require.Equal(t, "https://arxiv.org/search/advanced?start=25", result.NextPageURL)
}

func TestScrapeListing_NoNextPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><p class="list-title"><a href="/abs/1">one</a></p></body></html>`))
	}))
	defer srv.Close()

	gov := ratelimit.New(4, time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))
	result, err := ScrapeListing(context.Background(), gov, srv.URL)
	require.NoError(t, err)
	require.Empty(t, result.NextPageURL)
}
