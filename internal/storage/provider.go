// Package storage defines the content-root file-system abstraction.
package storage

import "github.com/starford/ansuz/internal/models"

// Provider is the interface for reading the instruction corpus.
type Provider interface {
	// List returns metadata for every .md file under dir (relative to the
	// content root), in walk order.
	List(dir string) ([]models.FileInfo, error)
	// Read returns the raw bytes of the file at path (relative to the root).
	Read(path string) ([]byte, error)
}
