package store

import (
	"bitwise74/otp-api/internal/model"
	"bitwise74/otp-api/pkg/security"
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Users is the credential store
type Users struct {
	db     *gorm.DB
	hasher *security.ArgonHash

	dummyOnce sync.Once
	dummyHash string
}

// Create hashes password and inserts a new unverified user. Duplicate
// usernames or emails fail with model.ErrConflict.
func (u *Users) Create(ctx context.Context, username, email, password string) (*model.User, error) {
	hash, err := u.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password, %w", err)
	}

	user := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
	}

	if err := u.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, wrap(err)
	}

	return user, nil
}

func (u *Users) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	return u.findOne(ctx, "username = ?", username)
}

func (u *Users) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return u.findOne(ctx, "email = ?", email)
}

func (u *Users) FindByID(ctx context.Context, id uint) (*model.User, error) {
	return u.findOne(ctx, "id = ?", id)
}

func (u *Users) findOne(ctx context.Context, query string, arg any) (*model.User, error) {
	var user model.User

	if err := u.db.WithContext(ctx).Where(query, arg).First(&user).Error; err != nil {
		return nil, wrap(err)
	}

	return &user, nil
}

// VerifyCredentials looks the user up by username and checks the password.
// A wrong password and an unknown username both return (nil, false, nil) and
// take roughly the same time. Only storage failures return an error.
func (u *Users) VerifyCredentials(ctx context.Context, username, password string) (*model.User, bool, error) {
	user, err := u.FindByUsername(ctx, username)
	if errors.Is(err, model.ErrNotFound) {
		u.hasher.Compare(password, u.dummy())
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	ok, err := u.hasher.Compare(password, user.PasswordHash)
	if err != nil {
		zap.L().Error("Stored password hash is unreadable", zap.Error(err), zap.Uint("userID", user.ID))
		return nil, false, nil
	}

	if !ok {
		return nil, false, nil
	}

	return user, true, nil
}

// MarkVerified flips is_verified for the user owning email. It's a no-op when
// no such user exists.
func (u *Users) MarkVerified(ctx context.Context, email string) error {
	err := u.db.WithContext(ctx).
		Model(&model.User{}).
		Where("email = ?", email).
		Update("is_verified", true).
		Error

	return wrap(err)
}

func (u *Users) dummy() string {
	u.dummyOnce.Do(func() {
		u.dummyHash, _ = u.hasher.Hash("dummy-password")
	})

	return u.dummyHash
}
