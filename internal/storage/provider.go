// Package storage is the markdown directory that notes are imported from and
// exported to.
package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// File describes one markdown file under the root.
type File struct {
	Path     string    // relative to the root, slash-separated
	Checksum string    // see Checksum
	ModTime  time.Time
}

// Provider is the interface for markdown directory operations. Paths are
// relative to the root; anything resolving outside it is rejected.
type Provider interface {
	// List returns every .md file under dir, skipping hidden directories.
	List(dir string) ([]File, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically replaces the file at path, creating parent dirs.
	Write(path string, content []byte) error
	// Delete removes the file at path.
	Delete(path string) error
	// Root returns the absolute root directory.
	Root() string
}

// Checksum returns the hex-encoded SHA-256 digest of data.
func Checksum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
