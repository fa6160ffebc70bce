// Package api is the search HTTP surface: three read-only GET routes
// over the search engine plus a health endpoint and the OpenAPI/
// RapiDoc documentation pages.
package api

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"searxiv/internal/api/handlers"
	"searxiv/internal/api/middleware"
	"searxiv/internal/searchengine"
)

// NewRouter builds the gin engine wired to engine, with the middleware
// chain run through slog.
func NewRouter(engine *searchengine.Engine, logger *slog.Logger) *gin.Engine {
	router := gin.New()

	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.CorsMiddleware(middleware.DefaultCorsConfig()))
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.StructuredLoggingMiddleware(logger))
	router.Use(gin.Recovery())

	search := &handlers.SearchHandler{Engine: engine, Logger: logger}
	router.GET("/", search.Banner)
	router.GET("/health", handlers.Health)
	router.GET("/index-size", search.IndexSize)
	router.GET("/search", search.Search)

	router.GET("/api-docs/openapi.json", func(c *gin.Context) {
		c.Data(200, "application/json", []byte(openAPISpec))
	})
	router.GET("/docs", func(c *gin.Context) {
		c.Data(200, "text/html; charset=utf-8", []byte(rapiDocPage))
	})

	return router
}
