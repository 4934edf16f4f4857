package storage

import (
	"context"
	"fmt"
	"io"
)

// KV is what every backend in this package implements.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	io.Closer
}

type Options struct {
	Backend       string // sqlite, mongo or memory
	DBPath        string
	MongoURI      string
	MongoDatabase string
}

// Open returns the backend named by opts.Backend.
func Open(ctx context.Context, opts Options) (KV, error) {
	switch opts.Backend {
	case "", "sqlite":
		db, err := NewDatabase(opts.DBPath)
		if err != nil {
			return nil, err
		}
		return db, nil
	case "mongo":
		m, err := OpenMongo(ctx, opts.MongoURI, opts.MongoDatabase)
		if err != nil {
			return nil, err
		}
		return m, nil
	case "memory":
		return NewMemory(), nil
	}
	return nil, fmt.Errorf("unknown storage backend %q", opts.Backend)
}
