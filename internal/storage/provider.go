// Package storage defines the read-only report file store.
package storage

import (
	"io/fs"
	"os"
)

// Provider is the interface for report file access.
type Provider interface {
	// Open opens the regular file at path (relative to the root) for reading.
	Open(path string) (*os.File, fs.FileInfo, error)
	// Stat returns file info for path (relative to the root).
	Stat(path string) (fs.FileInfo, error)
	// Missing returns the paths that do not resolve to a regular file.
	Missing(paths []string) []string
}
