package sqlkv

import (
	"context"
	"errors"
	"time"

	"github.com/smallbiznis/scanprice/internal/blob"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Blob is one row of the kv_blobs table.
type Blob struct {
	Key       string `gorm:"column:blob_key;primaryKey;size:191"`
	Value     []byte `gorm:"not null"`
	UpdatedAt time.Time
}

func (Blob) TableName() string { return "kv_blobs" }

type store struct {
	db *gorm.DB
}

func New(db *gorm.DB) blob.KV {
	return &store{db: db}
}

func (s *store) Get(ctx context.Context, key string) ([]byte, error) {
	var row Blob
	err := s.db.WithContext(ctx).Where("blob_key = ?", key).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, blob.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return row.Value, nil
}

// Put upserts the row in a single statement.
func (s *store) Put(ctx context.Context, key string, value []byte) error {
	row := Blob{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "blob_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&row).Error
}
