package api

// openAPISpec is served at /api-docs/openapi.json. The document is a
// hand-written embedded literal so the server carries no codegen step.
const openAPISpec = `{
  "openapi": "3.0.3",
  "info": {
    "title": "SearXiv Search API",
    "version": "1.0.0",
    "description": "Ranked full-text search over a harvested scholarly pre-print corpus."
  },
  "paths": {
    "/": {
      "get": {
        "summary": "Static banner",
        "responses": {"200": {"description": "Banner text"}}
      }
    },
    "/health": {
      "get": {
        "summary": "Liveness check",
        "responses": {"200": {"description": "Service is alive"}}
      }
    },
    "/index-size": {
      "get": {
        "summary": "Indexed document count",
        "responses": {"200": {"description": "Document count"}}
      }
    },
    "/search": {
      "get": {
        "summary": "Ranked free-text search",
        "parameters": [
          {
            "name": "query",
            "in": "query",
            "required": true,
            "schema": {"type": "string"}
          }
        ],
        "responses": {
          "200": {
            "description": "Re-ranked results",
            "content": {
              "application/json": {
                "schema": {
                  "type": "array",
                  "items": {
                    "type": "object",
                    "properties": {
                      "title": {"type": "string"},
                      "authors": {"type": "string"},
                      "description": {"type": "string"},
                      "url": {"type": "string"}
                    }
                  }
                }
              }
            }
          },
          "500": {"description": "Internal error"}
        }
      }
    }
  }
}`

// rapiDocPage serves the RapiDoc web component against the embedded
// OpenAPI document.
const rapiDocPage = `<!doctype html>
<html>
<head>
  <meta charset="utf-8">
  <title>SearXiv API Docs</title>
  <script type="module" src="https://unpkg.com/rapidoc/dist/rapidoc-min.js"></script>
</head>
<body>
  <rapi-doc spec-url="/api-docs/openapi.json" render-style="view" theme="light"></rapi-doc>
</body>
</html>`
