// Package kv provides the string-keyed storage used to persist vector store
// snapshots.
package kv

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned by Get when no value is stored under the key.
var ErrNotFound = errors.New("key not found")

// Store is a minimal string key-value capability.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

// Backend types
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMinIO  = "minio"
)

// Config selects and configures a backend.
type Config struct {
	Backend string
	// Path is the directory for the file backend and the database file for sqlite.
	Path  string
	MinIO MinIOConfig
}

// Open builds the configured backend. The returned close function releases
// backend resources and is never nil.
func Open(ctx context.Context, cfg Config) (Store, func() error, error) {
	noop := func() error { return nil }
	switch cfg.Backend {
	case BackendMemory:
		return NewMemory(), noop, nil
	case BackendFile, "":
		s, err := NewFile(cfg.Path)
		if err != nil {
			return nil, noop, err
		}
		return s, noop, nil
	case BackendSQLite:
		s, err := OpenSQLite(ctx, cfg.Path)
		if err != nil {
			return nil, noop, err
		}
		return s, s.Close, nil
	case BackendMinIO:
		s, err := NewMinIO(ctx, cfg.MinIO)
		if err != nil {
			return nil, noop, err
		}
		return s, noop, nil
	default:
		return nil, noop, fmt.Errorf("unknown kv backend: %s", cfg.Backend)
	}
}
