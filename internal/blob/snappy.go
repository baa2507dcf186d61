package blob

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang/snappy"
)

var ErrCorrupt = errors.New("blob_corrupt")

type compressed struct {
	next KV
}

// Snappy stores values as snappy blocks. The capacity limit should wrap the
// result so it applies to the encoded size.
func Snappy(next KV) KV {
	return &compressed{next: next}
}

func (c *compressed) Get(ctx context.Context, key string) ([]byte, error) {
	raw, err := c.next.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	decoded, err := snappy.Decode(nil, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return decoded, nil
}

func (c *compressed) Put(ctx context.Context, key string, value []byte) error {
	return c.next.Put(ctx, key, snappy.Encode(nil, value))
}
