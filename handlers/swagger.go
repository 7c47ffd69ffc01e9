package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers minimal Swagger/OpenAPI endpoints for the donr API.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(rg *gin.Engine) {
	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Header("Content-Type", "text/html; charset=utf-8")
		c.String(http.StatusOK, swaggerHTML)
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json", []byte(swaggerJSON))
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>donr-api — Swagger</title>
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

// Minimal OpenAPI document describing the donation platform endpoints.
const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "donr-api", "version": "v0.1.0" },
  "paths": {
    "/api/users": {
      "post": { "summary": "Create user profile", "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"name":{"type":"string"},"role":{"type":"string","enum":["donator","distributor","acceptor"]},"lat":{"type":"number"},"lng":{"type":"number"},"fcmToken":{"type":"string"}}}}}}, "responses": { "201": { "description": "profile created" }, "400": { "description": "validation error" } } }
    },
    "/api/users/me": {
      "get": { "summary": "Get own profile", "responses": { "200": { "description": "profile" }, "404": { "description": "no profile" } } },
      "put": { "summary": "Update own profile (role immutable)", "responses": { "200": { "description": "updated profile" } } }
    },
    "/api/donations": {
      "post": { "summary": "Create donation (donator)", "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"foodType":{"type":"string"},"quantity":{"type":"string"},"expirationDate":{"type":"string","format":"date-time"},"address":{"type":"string"},"lat":{"type":"number"},"lng":{"type":"number"}}}}}}, "responses": { "201": { "description": "donation created" } } },
      "get": { "summary": "List nearby available donations, nearest first", "parameters": [{"name":"lat","in":"query","schema":{"type":"number"}},{"name":"lng","in":"query","schema":{"type":"number"}},{"name":"radius","in":"query","schema":{"type":"number"}}], "responses": { "200": { "description": "matches with distance" } } }
    },
    "/api/donations/{id}/claim": {
      "put": { "summary": "Claim an available donation (distributor)", "responses": { "200": { "description": "claimed" }, "409": { "description": "already claimed or expired" } } }
    },
    "/api/donations/{id}/distribute": {
      "put": { "summary": "Mark a claimed donation distributed (claimant only)", "responses": { "200": { "description": "distributed" }, "403": { "description": "not the claimant" } } }
    },
    "/api/requests": {
      "post": { "summary": "Create food request (acceptor)", "responses": { "201": { "description": "request created" } } },
      "get": { "summary": "List food requests", "responses": { "200": { "description": "requests" } } }
    },
    "/api/requests/{id}/status": {
      "put": { "summary": "Update request status (distributor)", "responses": { "200": { "description": "updated" }, "400": { "description": "invalid status" } } }
    },
    "/api/centers": {
      "get": { "summary": "List distribution centers", "responses": { "200": { "description": "centers" } } },
      "post": { "summary": "Register a distribution center (distributor)", "responses": { "201": { "description": "created" } } }
    },
    "/api/notifications/send": {
      "post": { "summary": "Send a push notification to a user", "responses": { "200": { "description": "message id" } } }
    },
    "/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } }
  }
}`
