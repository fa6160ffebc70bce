package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"searxiv/internal/api/middleware"
	"searxiv/internal/errs"
	"searxiv/internal/searchengine"
)

// SearchResult is the `/search` response shape.
type SearchResult struct {
	Title       string `json:"title"`
	Authors     string `json:"authors"`
	Description string `json:"description"`
	URL         string `json:"url"`
}

// SearchHandler exposes the search engine over HTTP.
type SearchHandler struct {
	Engine *searchengine.Engine
	Logger *slog.Logger
}

// fail logs op's error kind tagged with the request's correlation id,
// then surfaces a bare 5xx without body disclosure.
func (h *SearchHandler) fail(c *gin.Context, op string, err error) {
	kind, _ := errs.KindOf(err)
	middleware.LoggerWithRequestID(c, h.Logger).Error(op+" failed",
		slog.String("kind", string(kind)), slog.String("error", err.Error()))
	c.Status(http.StatusInternalServerError)
}

// Search implements `GET /search?query=<string>`: it runs the full
// rewrite/lexical/re-rank pipeline and returns the JSON array. Errors
// are surfaced as a bare 500, no body disclosure.
func (h *SearchHandler) Search(c *gin.Context) {
	query := c.Query("query")
	if query == "" {
		c.JSON(http.StatusOK, []SearchResult{})
		return
	}

	results, err := h.Engine.Search(c.Request.Context(), query)
	if err != nil {
		h.fail(c, "search", err)
		return
	}

	out := make([]SearchResult, len(results))
	for i, r := range results {
		out[i] = SearchResult{
			Title:       r.Title,
			Authors:     r.Authors,
			Description: r.Description,
			URL:         r.URL,
		}
	}
	c.JSON(http.StatusOK, out)
}

// IndexSize implements `GET /index-size`: the document count.
func (h *SearchHandler) IndexSize(c *gin.Context) {
	count, err := h.Engine.DocCount()
	if err != nil {
		h.fail(c, "index-size", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}

// Banner implements `GET /`: a static banner.
func (h *SearchHandler) Banner(c *gin.Context) {
	c.String(http.StatusOK, "searxiv — scholarly pre-print search")
}
