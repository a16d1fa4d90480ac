package service

import (
	"bitwise74/otp-api/internal/model"
	"bitwise74/otp-api/pkg/mailer"
	"context"
	"fmt"
	"time"
)

const (
	otpSubject      = "Your Verification Code"
	verifiedSubject = "Account Verified Successfully"
)

// Mailer renders account mails and hands them to the sender together with the
// configuration that is current at call time
type Mailer struct {
	sender   mailer.Sender
	settings *mailer.Settings
}

func NewMailer(sender mailer.Sender, settings *mailer.Settings) *Mailer {
	return &Mailer{
		sender:   sender,
		settings: settings,
	}
}

// SendOTP mails code to the given address. Every failure, including an
// unconfigured sender, is reported as model.ErrDeliveryUnavailable.
func (m *Mailer) SendOTP(ctx context.Context, to, code string, ttl time.Duration) error {
	return m.send(ctx, mailer.Message{
		To:      to,
		Subject: otpSubject,
		Body: fmt.Sprintf(`Hello,

Your verification code is: %s

This code will expire in %s.

If you didn't request this code, please ignore this email.

Best regards,
The Website Team
`, code, humanDuration(ttl)),
	})
}

// SendVerified tells username that their account is now verified
func (m *Mailer) SendVerified(ctx context.Context, to, username string) error {
	return m.send(ctx, mailer.Message{
		To:      to,
		Subject: verifiedSubject,
		Body: fmt.Sprintf(`Hello %s,

Congratulations! Your account has been successfully verified.

You can now log in to your account and access all features.

Thank you for joining our community!

Best regards,
The Website Team
`, username),
	})
}

func (m *Mailer) send(ctx context.Context, msg mailer.Message) error {
	cfg := m.settings.Current()
	if cfg == nil {
		return fmt.Errorf("%w: %w", model.ErrDeliveryUnavailable, mailer.ErrNotConfigured)
	}

	if err := m.sender.Send(ctx, cfg, msg); err != nil {
		return fmt.Errorf("%w: %w", model.ErrDeliveryUnavailable, err)
	}

	return nil
}

func humanDuration(d time.Duration) string {
	if d%time.Minute == 0 {
		if d == time.Minute {
			return "1 minute"
		}

		return fmt.Sprintf("%d minutes", int(d/time.Minute))
	}

	return d.String()
}
