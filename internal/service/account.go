package service

import (
	"bitwise74/otp-api/internal/model"
	"bitwise74/otp-api/internal/store"
	"context"
	"errors"

	"go.uber.org/zap"
)

const fallbackUsername = "User"

// Accounts drives the per-user state machine
//
//	Unregistered -> PendingVerification -> Verified
//
// Register enters PendingVerification, Resend loops on it and Verify leaves
// it. There is no way back from Verified other than ResetAll.
type Accounts struct {
	store *store.Store
	otp   *OTPManager
	mail  *Mailer
}

func NewAccounts(s *store.Store, otp *OTPManager, mail *Mailer) *Accounts {
	return &Accounts{
		store: s,
		otp:   otp,
		mail:  mail,
	}
}

// Register creates the user and issues the first code. When issuing or
// mailing the code fails the user row stays, so a non-nil user is returned
// together with the error and the caller should offer a resend.
func (a *Accounts) Register(ctx context.Context, username, email, password string) (*model.User, error) {
	user, err := a.store.Users.Create(ctx, username, email, password)
	if err != nil {
		return nil, err
	}

	if _, err := a.otp.Issue(ctx, email); err != nil {
		return user, err
	}

	return user, nil
}

// Verify checks the code and, on success, marks the owner verified and drops
// every code for email in one transaction. The success mail is best effort.
// A wrong or expired code returns model.ErrInvalidCredential.
func (a *Accounts) Verify(ctx context.Context, email, code string) (*model.User, error) {
	ok, err := a.otp.Validate(ctx, email, code)
	if err != nil {
		return nil, err
	}

	if !ok {
		return nil, model.ErrInvalidCredential
	}

	err = a.store.Transaction(ctx, func(tx *store.Store) error {
		if err := tx.Users.MarkVerified(ctx, email); err != nil {
			return err
		}

		_, err := tx.OTPs.DeleteByEmail(ctx, email)
		return err
	})
	if err != nil {
		return nil, err
	}

	username := fallbackUsername

	user, err := a.store.Users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		username = user.Username
	case errors.Is(err, model.ErrNotFound):
		user = nil
	default:
		zap.L().Warn("Failed to load verified user", zap.Error(err), zap.String("email", email))
		user = nil
	}

	if err := a.mail.SendVerified(ctx, email, username); err != nil {
		zap.L().Warn("Failed to send verification success mail", zap.Error(err), zap.String("email", email))
	}

	return user, nil
}

// Resend replaces any outstanding codes for email with a fresh one. It works
// even when no code exists, which recovers users whose first code was never
// stored.
func (a *Accounts) Resend(ctx context.Context, email string) error {
	_, err := a.otp.Reissue(ctx, email)
	return err
}

// Login checks credentials and gates on verification. Wrong passwords and
// unknown usernames both return model.ErrInvalidCredential. A correct password
// for an unverified user returns the user with model.ErrVerificationRequired.
func (a *Accounts) Login(ctx context.Context, username, password string) (*model.User, error) {
	user, ok, err := a.store.Users.VerifyCredentials(ctx, username, password)
	if err != nil {
		return nil, err
	}

	if !ok {
		return nil, model.ErrInvalidCredential
	}

	if !user.IsVerified {
		return user, model.ErrVerificationRequired
	}

	return user, nil
}

// User returns the user behind an authenticated session
func (a *Accounts) User(ctx context.Context, id uint) (*model.User, error) {
	return a.store.Users.FindByID(ctx, id)
}

// ResetAll wipes every user and every code
func (a *Accounts) ResetAll(ctx context.Context) error {
	return a.store.ResetAll(ctx)
}
