// Package storage defines the site file-system abstraction.
package storage

import "github.com/starford/dailybrief/internal/models"

// Provider is the interface for site file operations. Paths are relative to
// the site root.
type Provider interface {
	// List returns metadata for every file directly under dir whose name ends
	// with ext. A missing dir yields an empty list.
	List(dir, ext string) ([]models.PostMetadata, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path, creating parent directories.
	Write(path string, content []byte) error
	// Exists reports whether a file exists at path.
	Exists(path string) (bool, error)
	// Root returns the absolute site root.
	Root() string
}
