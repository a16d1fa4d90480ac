package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	v "github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func run(t *testing.T, args ...string) error {
	t.Helper()

	v.Reset()
	t.Cleanup(v.Reset)

	return setup(pflag.NewFlagSet("test", pflag.ContinueOnError), args)
}

func TestSetupDefaults(t *testing.T) {
	path := writeConfig(t, `
[session]
secret = "s3cret"
`)

	require.NoError(t, run(t, "--config", path))

	assert.Equal(t, 8080, v.GetInt("host.port"))
	assert.Equal(t, "sqlite", v.GetString("database.driver"))
	assert.Equal(t, 6, v.GetInt("otp.length"))
	assert.Equal(t, 5*time.Minute, v.GetDuration("otp.ttl"))
	assert.Equal(t, "smtp.gmail.com", v.GetString("mail.host"))
	assert.Equal(t, 587, v.GetInt("mail.port"))
	assert.True(t, v.GetBool("mail.tls"))
}

func TestSetupOverrides(t *testing.T) {
	path := writeConfig(t, `
[session]
secret = "s3cret"

[otp]
ttl = "90s"
`)

	t.Setenv("MAIL_PORT", "2525")

	require.NoError(t, run(t, "--config", path, "--port", "9000"))

	assert.Equal(t, 9000, v.GetInt("host.port"))
	assert.Equal(t, 90*time.Second, v.GetDuration("otp.ttl"))
	assert.Equal(t, 2525, v.GetInt("mail.port"))
}

func TestSetupRejects(t *testing.T) {
	tests := map[string]string{
		"log level": `app = { log_level = "loud" }`,
		"driver":    `database = { driver = "mysql" }`,
		"dsn":       `database = { driver = "postgres" }`,
		"otp":       `otp = { length = 2 }`,
		"ttl":       `otp = { ttl = "-1m" }`,
	}

	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			path := writeConfig(t, body+"\n[session]\nsecret = \"s3cret\"\n")
			assert.Error(t, run(t, "--config", path))
		})
	}
}

func TestSetupMissingSecret(t *testing.T) {
	path := writeConfig(t, `app = { log_level = "debug" }`)
	assert.ErrorIs(t, run(t, "--config", path), ErrNoSecret)
}

func TestSetupMissingExplicitFile(t *testing.T) {
	assert.Error(t, run(t, "--config", filepath.Join(t.TempDir(), "nope.toml")))
}
