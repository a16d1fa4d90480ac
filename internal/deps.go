package internal

import (
	"bitwise74/otp-api/internal/service"
	"bitwise74/otp-api/internal/store"
	"bitwise74/otp-api/pkg/clock"
	"bitwise74/otp-api/pkg/mailer"
	"bitwise74/otp-api/pkg/security"
	"bitwise74/otp-api/pkg/session"
	"time"

	"gorm.io/gorm"
)

type Deps struct {
	DB       *gorm.DB
	Argon    *security.ArgonHash
	Store    *store.Store
	Mail     *mailer.Settings
	Mailer   *service.Mailer
	OTP      *service.OTPManager
	Accounts *service.Accounts
	Sessions *session.Codec

	// SecureCookies marks the session cookie Secure when served over TLS
	SecureCookies bool
}

type DepsOpts struct {
	DB     *gorm.DB
	Argon  *security.ArgonHash
	Sender mailer.Sender
	Clock  clock.Clock

	MailHost   string
	MailPort   int
	MailUseTLS bool

	OTPLength int
	OTPTTL    time.Duration

	SessionSecret string
	SessionMaxAge time.Duration
	SecureCookies bool
}

// NewDeps wires the services together. Mail starts unconfigured; credentials
// only ever arrive through the admin endpoint.
func NewDeps(o DepsOpts) *Deps {
	if o.Argon == nil {
		o.Argon = security.New()
	}

	if o.Sender == nil {
		o.Sender = mailer.NewSMTP()
	}

	s := store.New(o.DB, o.Argon)
	settings := mailer.NewSettings(o.MailHost, o.MailPort, o.MailUseTLS)
	m := service.NewMailer(o.Sender, settings)
	otp := service.NewOTPManager(s, m, service.OTPOpts{
		Length: o.OTPLength,
		TTL:    o.OTPTTL,
		Clock:  o.Clock,
	})

	return &Deps{
		DB:            o.DB,
		Argon:         o.Argon,
		Store:         s,
		Mail:          settings,
		Mailer:        m,
		OTP:           otp,
		Accounts:      service.NewAccounts(s, otp, m),
		Sessions:      session.NewCodec(o.SessionSecret, o.SessionMaxAge),
		SecureCookies: o.SecureCookies,
	}
}
