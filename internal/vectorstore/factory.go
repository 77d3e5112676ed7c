package vectorstore

import (
	"context"
	"errors"

	"github.com/hashicorp/go-hclog"

	"ragcore/internal/domain"
	"ragcore/internal/kv"
	"ragcore/internal/similarity"
	"ragcore/internal/vectorstore/memory"
	"ragcore/internal/vectorstore/persistent"
)

// Store types
const (
	TypeMemory     = "memory"
	TypePersistent = "persistent"
)

// Config selects and configures a store implementation.
type Config struct {
	Type         string
	Dimensions   int
	Metric       similarity.Metric
	MaxDocuments int
	// Key names the snapshot in the key-value store of a persistent store.
	Key string
}

// New builds the configured store. The key-value store is required only for
// the persistent type.
func New(ctx context.Context, cfg Config, snapshots kv.Store, logger hclog.Logger) (Storage, error) {
	inner, err := memory.NewStorage(memory.Config{
		Dimensions:   cfg.Dimensions,
		Metric:       cfg.Metric,
		MaxDocuments: cfg.MaxDocuments,
	})
	if err != nil {
		return nil, err
	}

	switch cfg.Type {
	case TypeMemory, "":
		return inner, nil
	case TypePersistent:
		if snapshots == nil {
			return nil, errors.New("persistent vector store requires a key-value store")
		}
		return persistent.New(ctx, inner, snapshots, cfg.Key, logger)
	default:
		return nil, domain.ConfigErrorf("unknown vector store: %s", cfg.Type)
	}
}
