// Package storage provides read access to the local document mirror.
package storage

// Provider is the interface for mirror file lookups.
type Provider interface {
	// Read returns the raw bytes of the file at path (relative to the mirror root).
	Read(path string) ([]byte, error)
}
