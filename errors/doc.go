// Package errors defines the API's error taxonomy.
//
// Every failure that reaches a client is an *AppError carrying a stable
// machine-readable code and the HTTP status it should be rendered with.
// The underlying cause is kept for logging and never serialized.
package errors
