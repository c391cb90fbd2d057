package store

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

var ErrRecordNotFound = errors.New("record not found")

type Store struct {
	DB *gorm.DB
}

func New(db *gorm.DB) *Store { return &Store{DB: db} }

func (s *Store) WithTx(ctx context.Context, fn func(tx *Store) error) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{DB: tx})
	})
}

// Visible is the soft-delete visibility predicate. Every default read of a
// soft-deletable entity goes through it; reads that need deleted rows opt out
// explicitly instead of relying on an implicit global filter.
func Visible(db *gorm.DB) *gorm.DB {
	return db.Where("is_active = ?", true)
}
