// Package store is typed access to the users, categories, tags, articles and
// article_tags tables. Lookups return (nil, nil) when no row matches; callers
// decide whether absence is an error. Every other failure comes back as an
// apperr kind: Conflict for unique keys, Store for anything the database rejects.
package store

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"kbdesk/apperr"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) conn(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx)
}

// Transaction runs fn against a Store bound to a single transaction. An
// error from fn rolls everything back and is returned unchanged.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	err := s.conn(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
	return apperr.Store("transaction failed", err)
}

// first runs a First query and folds ErrRecordNotFound into found=false.
func first(q *gorm.DB, dest interface{}) (bool, error) {
	err := q.First(dest).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
