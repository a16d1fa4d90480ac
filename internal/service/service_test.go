package service

import (
	"bitwise74/otp-api/db"
	"bitwise74/otp-api/internal/model"
	"bitwise74/otp-api/internal/store"
	"bitwise74/otp-api/pkg/clock"
	"bitwise74/otp-api/pkg/mailer"
	"bitwise74/otp-api/pkg/security"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type mockSender struct{ mock.Mock }

func (m *mockSender) Send(ctx context.Context, cfg *mailer.Config, msg mailer.Message) error {
	return m.Called(ctx, cfg, msg).Error(0)
}

type fixture struct {
	db       *gorm.DB
	store    *store.Store
	sender   *mockSender
	settings *mailer.Settings
	clock    *clock.Fixed
	otp      *OTPManager
	accounts *Accounts
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	d, err := db.New(db.Opts{Driver: "sqlite", Path: "file:" + name + "?mode=memory&cache=shared"})
	require.NoError(t, err)

	t.Cleanup(func() {
		sqlDB, _ := d.DB()
		sqlDB.Close()
	})

	hasher := &security.ArgonHash{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}
	s := store.New(d, hasher)

	settings := mailer.NewSettings("smtp.example.com", 587, true)
	_, err = settings.Configure(mailer.Update{Username: "bot@example.com", Password: "secret"})
	require.NoError(t, err)

	f := &fixture{
		db:       d,
		store:    s,
		sender:   &mockSender{},
		settings: settings,
		clock:    clock.NewFixed(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)),
	}

	m := NewMailer(f.sender, settings)
	f.otp = NewOTPManager(s, m, OTPOpts{Clock: f.clock})
	f.accounts = NewAccounts(s, f.otp, m)

	return f
}

func (f *fixture) codes(t *testing.T, email string) []string {
	t.Helper()

	var codes []string
	require.NoError(t, f.db.Model(&model.OTP{}).Where("email = ?", email).Pluck("code", &codes).Error)
	return codes
}

func subjectIs(subject string) interface{} {
	return mock.MatchedBy(func(msg mailer.Message) bool {
		return msg.Subject == subject
	})
}
