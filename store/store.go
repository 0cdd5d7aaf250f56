// Package store is the entity store for posts, images, likes and comments.
// All mutations go through its atomic operations; structural invariants
// (unique like per user, cascade on post delete) are enforced here at the
// storage layer rather than in handlers.
package store

import (
	"errors"

	"gorm.io/gorm"
)

var (
	// ErrValidation marks malformed or incomplete input. Nothing is mutated.
	ErrValidation = errors.New("validation error")
	// ErrNotFound marks an absent resource or parent resource.
	ErrNotFound = errors.New("not found")
	// ErrConflict marks a uniqueness violation such as a duplicate like.
	ErrConflict = errors.New("conflict")
)

// Store wraps a gorm DB handle. The DB must be opened with TranslateError
// enabled so unique-index violations surface as gorm.ErrDuplicatedKey.
type Store struct {
	db *gorm.DB
}

// New creates a Store on top of an initialized database.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// translate maps gorm errors onto the store taxonomy.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrConflict
	default:
		return err
	}
}
