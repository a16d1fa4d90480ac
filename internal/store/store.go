// Package store persists users and one-time codes. It's the only package that
// talks to gorm directly and the only source of truth, nothing is cached.
package store

import (
	"bitwise74/otp-api/internal/model"
	"bitwise74/otp-api/pkg/security"
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

type Store struct {
	db    *gorm.DB
	Users *Users
	OTPs  *OTPs
}

func New(db *gorm.DB, hasher *security.ArgonHash) *Store {
	return &Store{
		db:    db,
		Users: &Users{db: db, hasher: hasher},
		OTPs:  &OTPs{db: db},
	}
}

// Transaction runs fn inside a single database transaction. The store passed
// to fn is bound to it and must not escape.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(New(tx, s.Users.hasher))
	})
	if err != nil {
		return wrap(err)
	}

	return nil
}

// ResetAll deletes every user and every code
func (s *Store) ResetAll(ctx context.Context) error {
	return s.Transaction(ctx, func(tx *Store) error {
		if err := tx.db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&model.OTP{}).Error; err != nil {
			return err
		}

		return tx.db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&model.User{}).Error
	})
}

// wrap translates gorm errors into the model error taxonomy. Errors that are
// already translated pass through unchanged.
func wrap(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, model.ErrNotFound),
		errors.Is(err, model.ErrConflict),
		errors.Is(err, model.ErrStorageUnavailable):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return model.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return model.ErrConflict
	default:
		return fmt.Errorf("%w: %w", model.ErrStorageUnavailable, err)
	}
}
