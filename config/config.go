// Package config contains code to set the default values and read
// config files to be used throughout the whole application
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/spf13/pflag"
	v "github.com/spf13/viper"
)

var (
	validLogLevels = []string{"debug", "info", "warn", "error", "fatal"}
	validDrivers   = []string{"sqlite", "postgres"}

	// ErrNoSecret is returned when session.secret is unset. A suggested
	// secret has already been printed by then.
	ErrNoSecret = errors.New("no session secret provided")
)

func genSecret() string {
	b := make([]byte, 64)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// Setup prepares everything config-related so that the app can
// start working. Function will return an error if something
// is critically wrong and the application can't run because of
// that.
func Setup() error {
	return setup(pflag.CommandLine, os.Args[1:])
}

func setup(fs *pflag.FlagSet, args []string) error {
	configPath := fs.String("config", "", "Path to a config.toml file")
	fs.Int("port", 0, "Port to listen on, overrides host.port")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if p := fs.Lookup("port"); p != nil && p.Changed {
		v.BindPFlag("host.port", p)
	}

	if *configPath != "" {
		v.SetConfigFile(*configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(".")
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	//
	// ENVS
	//
	v.BindEnv("app.log_level", "APP_LOG_LEVEL")

	v.BindEnv("host.port", "HOST_PORT")
	v.BindEnv("host.cors", "HOST_CORS")
	v.BindEnv("host.ssl.enabled", "HOST_SSL_ENABLED")
	v.BindEnv("host.ssl.certificate_path", "HOST_SSL_CERTIFICATE_PATH")
	v.BindEnv("host.ssl.certificate_key_path", "HOST_SSL_CERTIFICATE_KEY_PATH")

	v.BindEnv("database.driver", "DATABASE_DRIVER")
	v.BindEnv("database.path", "DATABASE_PATH")
	v.BindEnv("database.dsn", "DATABASE_DSN")

	v.BindEnv("session.secret", "SESSION_SECRET")
	v.BindEnv("session.max_age", "SESSION_MAX_AGE")

	v.BindEnv("otp.length", "OTP_LENGTH")
	v.BindEnv("otp.ttl", "OTP_TTL")

	v.BindEnv("mail.host", "MAIL_HOST")
	v.BindEnv("mail.port", "MAIL_PORT")
	v.BindEnv("mail.tls", "MAIL_TLS")

	v.BindEnv("upload.max_body", "UPLOAD_MAX_BODY")

	//
	// Defaults
	//
	v.SetDefault("app.log_level", "info")

	v.SetDefault("host.port", 8080)
	v.SetDefault("host.cors", []string{"http://localhost:5173"})
	v.SetDefault("host.ssl.enabled", false)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "users.db")

	v.SetDefault("session.max_age", "720h")

	v.SetDefault("otp.length", 6)
	v.SetDefault("otp.ttl", "5m")

	v.SetDefault("mail.host", "smtp.gmail.com")
	v.SetDefault("mail.port", 587)
	v.SetDefault("mail.tls", true)

	v.SetDefault("upload.max_body", 1<<20)

	// The file is optional, defaults and env cover a local run
	if err := v.ReadInConfig(); err != nil {
		var notFound v.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || *configPath != "" {
			return fmt.Errorf("failed to read config file, %w", err)
		}
	}

	if !slices.Contains(validLogLevels, v.GetString("app.log_level")) {
		return errors.New("invalid log level provided")
	}

	if v.GetInt("host.port") <= 0 || v.GetInt("host.port") > 65535 {
		return errors.New("invalid port provided")
	}

	if v.GetBool("host.ssl.enabled") {
		if v.GetString("host.ssl.certificate_path") == "" {
			return errors.New("no ssl certificate path provided")
		}

		if v.GetString("host.ssl.certificate_key_path") == "" {
			return errors.New("no ssl certificate key path provided")
		}
	}

	switch driver := v.GetString("database.driver"); {
	case !slices.Contains(validDrivers, driver):
		return errors.New("invalid database driver provided")
	case driver == "sqlite" && v.GetString("database.path") == "":
		return errors.New("database.path can't be empty")
	case driver == "postgres" && v.GetString("database.dsn") == "":
		return errors.New("database.dsn can't be empty")
	}

	if n := v.GetInt("otp.length"); n < 4 || n > 12 {
		return errors.New("otp.length must be between 4 and 12")
	}

	if v.GetDuration("otp.ttl") <= 0 {
		return errors.New("otp.ttl must be bigger than 0")
	}

	if v.GetDuration("session.max_age") <= 0 {
		return errors.New("session.max_age must be bigger than 0")
	}

	if v.GetString("mail.host") == "" || v.GetInt("mail.port") <= 0 {
		return errors.New("invalid mail server provided")
	}

	if v.GetInt64("upload.max_body") <= 0 {
		return errors.New("upload.max_body must be bigger than 0")
	}

	if v.GetString("session.secret") == "" {
		fmt.Println("WARNING: You haven't set a session secret, so one has been generated for you. Please set it as an environment variable or in the config.toml file.\nYour random session secret:\n\n" + genSecret() + "\n\nPaste it into your config.toml file.")
		return ErrNoSecret
	}

	return nil
}
