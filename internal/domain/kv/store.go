package kv

import (
	"context"
	"errors"
)

// ErrUnavailable marks failures of the backing store itself, as opposed to
// missing keys.
var ErrUnavailable = errors.New("persistence unavailable")

// Store is an opaque key/value persistence collaborator. Every operation is
// atomic per key and reads observe prior writes to the same key.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Put(ctx context.Context, key string, value []byte) error
	ListKeys(ctx context.Context, prefix string) ([]string, error)
}
