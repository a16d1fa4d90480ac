package service

import (
	"bitwise74/otp-api/internal/model"
	"bitwise74/otp-api/internal/store"
	"bitwise74/otp-api/pkg/clock"
	"bitwise74/otp-api/pkg/security"
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const DefaultOTPTTL = 5 * time.Minute

type OTPOpts struct {
	Length int
	TTL    time.Duration
	Clock  clock.Clock
}

// OTPManager owns the code lifecycle: generation, persistence with expiry,
// validation and cleanup
type OTPManager struct {
	store  *store.Store
	mail   *Mailer
	clock  clock.Clock
	length int
	ttl    time.Duration
}

func NewOTPManager(s *store.Store, mail *Mailer, o OTPOpts) *OTPManager {
	if o.Length <= 0 {
		o.Length = security.DefaultCodeLength
	}

	if o.TTL <= 0 {
		o.TTL = DefaultOTPTTL
	}

	if o.Clock == nil {
		o.Clock = clock.New()
	}

	return &OTPManager{
		store:  s,
		mail:   mail,
		clock:  o.Clock,
		length: o.Length,
		ttl:    o.TTL,
	}
}

func (m *OTPManager) TTL() time.Duration {
	return m.ttl
}

// GenerateCode returns a fresh code of the configured length. Nothing is stored.
func (m *OTPManager) GenerateCode() (string, error) {
	return security.GenerateCode(m.length)
}

// Issue stores a new code for email and mails it. The row is kept even when
// sending fails, in which case the code is returned together with an error
// wrapping model.ErrDeliveryUnavailable.
func (m *OTPManager) Issue(ctx context.Context, email string) (string, error) {
	e, err := m.newEntry(email)
	if err != nil {
		return "", err
	}

	if err := m.store.OTPs.Create(ctx, e); err != nil {
		return "", fmt.Errorf("failed to store code, %w", err)
	}

	return e.Code, m.deliver(ctx, e)
}

// Reissue replaces every code for email with a new one in a single
// transaction and mails it. It works whether or not earlier codes exist.
func (m *OTPManager) Reissue(ctx context.Context, email string) (string, error) {
	e, err := m.newEntry(email)
	if err != nil {
		return "", err
	}

	if err := m.store.OTPs.Replace(ctx, e); err != nil {
		return "", fmt.Errorf("failed to replace codes, %w", err)
	}

	return e.Code, m.deliver(ctx, e)
}

// Validate reports whether a row with this exact (email, code) pair exists and
// expires strictly after now. Rows with unreadable timestamps never count. The
// row is left in place.
func (m *OTPManager) Validate(ctx context.Context, email, code string) (bool, error) {
	if email == "" || code == "" {
		return false, nil
	}

	entries, err := m.store.OTPs.Find(ctx, email, code)
	if err != nil {
		return false, err
	}

	now := m.clock.Now()
	for _, e := range entries {
		if !e.ExpiresAt.Valid {
			zap.L().Warn("Ignoring code with unreadable expiry", zap.Uint("otpID", e.ID), zap.String("email", email))
			continue
		}

		if e.ExpiresAt.After(now) {
			return true, nil
		}
	}

	return false, nil
}

func (m *OTPManager) newEntry(email string) (*model.OTP, error) {
	code, err := m.GenerateCode()
	if err != nil {
		return nil, fmt.Errorf("failed to generate code, %w", err)
	}

	now := m.clock.Now()

	return &model.OTP{
		Email:     email,
		Code:      code,
		CreatedAt: model.NewTimestamp(now),
		ExpiresAt: model.NewTimestamp(now.Add(m.ttl)),
	}, nil
}

func (m *OTPManager) deliver(ctx context.Context, e *model.OTP) error {
	if err := m.mail.SendOTP(ctx, e.Email, e.Code, m.ttl); err != nil {
		zap.L().Error("Failed to send verification code", zap.Error(err), zap.String("email", e.Email))
		return err
	}

	return nil
}
