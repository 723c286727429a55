// Package storage defines the key/blob abstraction behind persisted state.
package storage

import "time"

// Entry describes one stored blob.
type Entry struct {
	Key       string
	Checksum  string
	UpdatedAt time.Time
}

// Provider is the interface for blob operations. Keys are relative paths.
type Provider interface {
	// List returns an entry for every blob whose key ends with suffix.
	List(suffix string) ([]Entry, error)
	// Read returns the bytes stored under key. A missing key wraps os.ErrNotExist.
	Read(key string) ([]byte, error)
	// Write atomically replaces the bytes stored under key.
	Write(key string, content []byte) error
	// Root is the absolute directory the keys resolve against.
	Root() string
}
