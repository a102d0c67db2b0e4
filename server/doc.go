// Package server provides the HTTP server: a Gin engine behind a ServeMux,
// served over HTTP/1.1 and h2c, with lifecycle management through the
// component registry.
//
// # Middleware
//
// See server/middleware. Recovery, request ids and request logging run
// inside Gin; CORS and body size limits wrap the whole mux. The auth gate
// and rate limiter are applied per route group by the API packages.
//
// # Endpoints
//
// RegisterDefaultEndpoints mounts /health, /readiness, /liveness, /info,
// /version and /metrics (see server/endpoint).
//
// # Static files
//
// With Config.StaticDir set, GET requests outside /api that match no route
// are served from that directory.
package server
