package blob

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrNotFound         = errors.New("blob_not_found")
	ErrCapacityExceeded = errors.New("blob_capacity_exceeded")
)

// KV is a single-value-per-key store. Put replaces the whole value.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
}

type limited struct {
	next     KV
	maxBytes int64
}

// Limited rejects writes larger than maxBytes before they reach next.
// A non-positive maxBytes disables the check.
func Limited(next KV, maxBytes int64) KV {
	if maxBytes <= 0 {
		return next
	}
	return &limited{next: next, maxBytes: maxBytes}
}

func (l *limited) Get(ctx context.Context, key string) ([]byte, error) {
	return l.next.Get(ctx, key)
}

func (l *limited) Put(ctx context.Context, key string, value []byte) error {
	if int64(len(value)) > l.maxBytes {
		return fmt.Errorf("%w: %d bytes > %d", ErrCapacityExceeded, len(value), l.maxBytes)
	}
	return l.next.Put(ctx, key, value)
}
