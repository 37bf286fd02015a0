package backend

import (
	"context"

	"recorridos/internal/cache"
	"recorridos/internal/ports"
)

// Backend is everything the web layer needs from a data source.
type Backend interface {
	ports.Store
	ports.Authenticator
	ports.TokenVerifier
	Ping(ctx context.Context) error
	Name() string
}

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the backend, an optional cleanup function and the
// caches it owns, keyed by name for the cache manager.
type BackendResult struct {
	Backend Backend
	Cleanup CleanupFunc
	Caches  map[string]cache.Cleaner
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// BackendType represents the type of backend
type BackendType string

const (
	APIBackend    BackendType = "api"
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case APIBackend, SQLiteBackend, MemoryBackend:
		return true
	default:
		return false
	}
}

// LocalAuth reports whether usuarios are authenticated in-process.
func (bt BackendType) LocalAuth() bool {
	return bt == SQLiteBackend || bt == MemoryBackend
}
