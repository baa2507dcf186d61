package boltkv

import (
	"context"
	"time"

	"github.com/smallbiznis/scanprice/internal/blob"
	"github.com/smallbiznis/scanprice/internal/config"
	bolt "go.etcd.io/bbolt"
	"go.uber.org/fx"
)

var bucketName = []byte("blobs")

type store struct {
	db *bolt.DB
}

// Open opens (or creates) the bolt file and its bucket.
func Open(path string) (*bolt.DB, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func New(db *bolt.DB) blob.KV {
	return &store{db: db}
}

func (s *store) Get(_ context.Context, key string) ([]byte, error) {
	var out []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		value := tx.Bucket(bucketName).Get([]byte(key))
		if value == nil {
			return blob.ErrNotFound
		}
		// bolt values are only valid inside the transaction.
		out = append([]byte(nil), value...)
		return nil
	})
	return out, err
}

func (s *store) Put(_ context.Context, key string, value []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).Put([]byte(key), value)
	})
}

func Provide(lc fx.Lifecycle, cfg config.Config) (*bolt.DB, error) {
	db, err := Open(cfg.BoltPath)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return db.Close()
		},
	})
	return db, nil
}
