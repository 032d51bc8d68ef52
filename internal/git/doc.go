// Package git discovers bare repositories on disk and reads their object
// graph.
//
// Discover scans a directory tree for repositories and returns a Registry.
// A Repository from the registry is opened into a Handle, whose methods
// produce the data behind every page: the commit log, tree listings and
// blobs, references, and commit details with diff statistics. Handles
// never outlive the request that opened them.
package git
