// Package version reports build metadata set with -ldflags or read from
// the module's embedded VCS information.
package version
