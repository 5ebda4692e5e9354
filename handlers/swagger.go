package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers minimal Swagger/OpenAPI endpoints.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(rg gin.IRoutes) {
	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(swaggerJSON))
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>The Dividend API | Swagger</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@4/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@4/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/swagger/doc.json',
        dom_id: '#swagger-ui',
      })
    </script>
  </body>
</html>`

const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "the-dividend", "version": "v0.1.0" },
  "components": { "securitySchemes": { "bearer": { "type": "http", "scheme": "bearer" } } },
  "paths": {
    "/api/articles": {
      "get": { "summary": "List published articles", "parameters": [
        {"name":"category","in":"query","schema":{"type":"string"}},
        {"name":"featured","in":"query","schema":{"type":"boolean"}},
        {"name":"editors_pick","in":"query","schema":{"type":"boolean"}},
        {"name":"page","in":"query","schema":{"type":"integer"}},
        {"name":"pageSize","in":"query","schema":{"type":"integer"}}
      ], "responses": { "200": { "description": "page of articles" } } }
    },
    "/api/articles/{slug}": {
      "get": { "summary": "Read a published article (counts a view)", "responses": { "200": { "description": "article" }, "404": { "description": "not found" } } }
    },
    "/api/articles/{slug}/html": {
      "get": { "summary": "Rendered article body", "responses": { "200": { "description": "text/html" }, "404": { "description": "not found" } } }
    },
    "/api/admin/articles": {
      "get": { "summary": "List all articles including drafts", "security": [{"bearer": []}], "responses": { "200": { "description": "page of articles" } } },
      "post": { "summary": "Create article", "security": [{"bearer": []}], "responses": { "201": { "description": "created" }, "409": { "description": "slug in use" } } }
    },
    "/api/admin/articles/{id}": {
      "patch": { "summary": "Update article", "security": [{"bearer": []}], "responses": { "200": { "description": "updated" } } },
      "delete": { "summary": "Delete article", "security": [{"bearer": []}], "responses": { "204": { "description": "deleted" } } }
    },
    "/api/admin/articles/{id}/featured": {
      "post": { "summary": "Toggle featured", "security": [{"bearer": []}], "responses": { "200": { "description": "updated" } } }
    },
    "/api/admin/articles/{id}/editors-pick": {
      "post": { "summary": "Toggle editor's pick", "security": [{"bearer": []}], "responses": { "200": { "description": "updated" } } }
    },
    "/api/books": {
      "get": { "summary": "List books", "responses": { "200": { "description": "books" } } },
      "post": { "summary": "Create book", "security": [{"bearer": []}], "responses": { "201": { "description": "created" } } }
    },
    "/api/books/{id}": {
      "get": { "summary": "Get book", "responses": { "200": { "description": "book" }, "404": { "description": "not found" } } },
      "delete": { "summary": "Delete book", "security": [{"bearer": []}], "responses": { "204": { "description": "deleted" } } }
    },
    "/api/paystack/initialize": {
      "post": { "summary": "Start a checkout for a book", "security": [{"bearer": []}],
        "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"bookId":{"type":"string"},"email":{"type":"string"}}}}}},
        "responses": { "200": { "description": "authorization_url and reference" }, "404": { "description": "unknown book" } } }
    },
    "/api/paystack/verify": {
      "get": { "summary": "Checkout return; verifies the reference and redirects", "parameters": [
        {"name":"reference","in":"query","schema":{"type":"string"}},
        {"name":"trxref","in":"query","schema":{"type":"string"}}
      ], "responses": { "302": { "description": "redirect to purchases or bookstore" } } }
    },
    "/api/paystack/webhook": {
      "post": { "summary": "Gateway webhook (x-paystack-signature required)", "responses": { "200": { "description": "acknowledged" }, "401": { "description": "invalid signature" }, "500": { "description": "webhook error" } } }
    },
    "/api/purchases": {
      "get": { "summary": "Current user's purchases", "security": [{"bearer": []}], "responses": { "200": { "description": "purchases" } } }
    },
    "/api/notifications": {
      "get": { "summary": "Current user's notifications", "security": [{"bearer": []}], "responses": { "200": { "description": "notifications" } } }
    },
    "/api/notifications/{id}/read": {
      "patch": { "summary": "Mark one notification read", "security": [{"bearer": []}], "responses": { "204": { "description": "marked" } } }
    },
    "/api/notifications/read-all": {
      "post": { "summary": "Mark all notifications read", "security": [{"bearer": []}], "responses": { "200": { "description": "count" } } }
    },
    "/api/notifications/stream": {
      "get": { "summary": "Websocket notification stream", "security": [{"bearer": []}], "responses": { "101": { "description": "switching protocols" } } }
    },
    "/api/bookmarks": {
      "get": { "summary": "List bookmarks", "security": [{"bearer": []}], "responses": { "200": { "description": "bookmarks" } } }
    },
    "/api/bookmarks/{articleId}": {
      "put": { "summary": "Bookmark an article", "security": [{"bearer": []}], "responses": { "200": { "description": "bookmark" } } },
      "delete": { "summary": "Remove bookmark", "security": [{"bearer": []}], "responses": { "204": { "description": "removed" } } }
    },
    "/api/history": {
      "get": { "summary": "Reading history", "security": [{"bearer": []}], "responses": { "200": { "description": "entries" } } }
    },
    "/api/uploads/{bucket}": {
      "post": { "summary": "Upload an image", "security": [{"bearer": []}], "responses": { "201": { "description": "key and url" } } }
    },
    "/api/media/{key}": {
      "get": { "summary": "Read an uploaded image", "responses": { "200": { "description": "file" } } }
    },
    "/api/v1/me": {
      "get": { "summary": "Current user", "security": [{"bearer": []}], "responses": { "200": { "description": "user" } } }
    },
    "/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } },
    "/metrics": { "get": { "summary": "Prometheus metrics", "responses": { "200": { "description": "metrics" } } } }
  }
}`
