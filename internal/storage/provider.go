// Package storage defines the catalog directory abstraction.
package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// FileMeta describes one catalog file on disk.
type FileMeta struct {
	Name      string
	Checksum  string
	UpdatedAt time.Time
}

// Provider is the interface for catalog file operations.
type Provider interface {
	// Root returns the absolute catalog directory.
	Root() string
	// List returns metadata for every .json file directly under the root.
	List() ([]FileMeta, error)
	// Read returns the raw bytes of the named file.
	Read(name string) ([]byte, error)
	// Write atomically replaces the named file with content.
	Write(name string, content []byte) error
}

// Checksum returns the hex SHA-256 of a catalog file's content. The index
// compares it with the stored value to skip unchanged files.
func Checksum(content []byte) string {
	h := sha256.Sum256(content)
	return hex.EncodeToString(h[:])
}
