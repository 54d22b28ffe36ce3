// Package storage defines the key-value persistence substrate the note index
// is written to, and its drivers.
package storage

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned by Get when no value is stored under the key.
var ErrNotFound = errors.New("storage: key not found")

// Drivers.
const (
	DriverFS       = "fs"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Provider is a byte store addressed by key. Set replaces the whole value in
// a single write.
type Provider interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes key. Removing a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases the driver's resources.
	Close() error
}

// Watcher is implemented by providers that can observe writes made by other
// processes. Watch blocks until ctx is cancelled, calling fn after each
// burst of changes to key.
type Watcher interface {
	Watch(ctx context.Context, key string, fn func()) error
}

// Open returns the provider for driver. path is used by the fs (directory)
// and sqlite (database file) drivers, dsn by postgres.
func Open(ctx context.Context, driver, path, dsn string) (Provider, error) {
	switch driver {
	case DriverFS:
		return NewFS(path)
	case DriverSQLite:
		return NewSQLite(path)
	case DriverPostgres:
		return NewPostgres(ctx, dsn)
	default:
		return nil, fmt.Errorf("storage: unknown driver %q", driver)
	}
}
