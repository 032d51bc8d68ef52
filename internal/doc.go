// Package internal contains shared types and utilities for gitoff.
//
// It provides configuration loading, request identifiers, scoped cleanup
// of repository handles, tracing setup, and the I/O abstraction used by
// the git and web packages.
package internal
