// Package mailer delivers plain text emails over SMTP. The core only ever
// sees success or failure; transport details stay in here.
package mailer

import (
	"errors"
	"sync"
)

var (
	ErrNotConfigured  = errors.New("mail sender is not configured")
	ErrNoCredentials  = errors.New("mail username and password are required")
	ErrInvalidAddress = errors.New("mail server host and port are required")
)

// Config is everything needed to deliver one message. A nil *Config means
// the sender is unconfigured.
//
// UseTLS makes STARTTLS mandatory. Both transports upgrade whenever the
// server offers STARTTLS regardless of the flag, so false only permits
// plaintext against servers that don't support it. Port 465 always uses
// implicit TLS.
type Config struct {
	Host     string
	Port     int
	UseTLS   bool
	Username string
	Password string
	From     string
}

// Sender is the From address, defaulting to the login
func (c *Config) Sender() string {
	if c.From != "" {
		return c.From
	}

	return c.Username
}

// Update carries the fields accepted by the runtime configuration call. Nil
// server fields keep their current value.
type Update struct {
	Username string
	Password string
	From     string
	Host     *string
	Port     *int
	UseTLS   *bool
}

// Settings holds the mail configuration set at runtime. The server address
// is known from startup but credentials only arrive through Configure, so
// the zero state is unconfigured.
type Settings struct {
	mu     sync.RWMutex
	host   string
	port   int
	useTLS bool
	cfg    *Config
}

func NewSettings(host string, port int, useTLS bool) *Settings {
	return &Settings{
		host:   host,
		port:   port,
		useTLS: useTLS,
	}
}

// Current returns a copy of the active configuration or nil if unconfigured
func (s *Settings) Current() *Config {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.cfg == nil {
		return nil
	}

	c := *s.cfg
	return &c
}

func (s *Settings) Configured() bool {
	return s.Current() != nil
}

// Server returns the server address that will be used, configured or not
func (s *Settings) Server() (host string, port int, useTLS bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.host, s.port, s.useTLS
}

// Configure validates u and replaces the active configuration
func (s *Settings) Configure(u Update) (Config, error) {
	if u.Username == "" || u.Password == "" {
		return Config{}, ErrNoCredentials
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	host, port, useTLS := s.host, s.port, s.useTLS
	if u.Host != nil {
		host = *u.Host
	}
	if u.Port != nil {
		port = *u.Port
	}
	if u.UseTLS != nil {
		useTLS = *u.UseTLS
	}

	if host == "" || port <= 0 {
		return Config{}, ErrInvalidAddress
	}

	s.host, s.port, s.useTLS = host, port, useTLS
	s.cfg = &Config{
		Host:     host,
		Port:     port,
		UseTLS:   useTLS,
		Username: u.Username,
		Password: u.Password,
		From:     u.From,
	}

	return *s.cfg, nil
}

// Reset drops the credentials, returning to the unconfigured state
func (s *Settings) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cfg = nil
}
