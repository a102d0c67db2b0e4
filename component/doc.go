// Package component defines the lifecycle contract for long-lived
// infrastructure (database, HTTP server) and a registry that starts
// components in order and stops them in reverse.
package component
