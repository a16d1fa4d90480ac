// Package session holds the caller-side identity pointer. It's carried in a
// signed cookie and never persisted on the server.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid session token")

type Session struct {
	// VerifyEmail is the address waiting for OTP confirmation
	VerifyEmail string `json:"verify_email,omitempty"`
	UserID      uint   `json:"user_id,omitempty"`
	Username    string `json:"username,omitempty"`
}

func (s *Session) Authenticated() bool {
	return s.UserID != 0
}

func (s *Session) Empty() bool {
	return *s == Session{}
}

// Clear forgets everything. With preserveVerification the pending email and
// the username that goes with it survive.
func (s *Session) Clear(preserveVerification bool) {
	if preserveVerification && s.VerifyEmail != "" {
		*s = Session{VerifyEmail: s.VerifyEmail, Username: s.Username}
		return
	}

	*s = Session{}
}

type claims struct {
	Session
	jwt.RegisteredClaims
}

// Codec signs and verifies session tokens with HS256
type Codec struct {
	secret []byte
	maxAge time.Duration
	now    func() time.Time
}

func NewCodec(secret string, maxAge time.Duration) *Codec {
	return &Codec{
		secret: []byte(secret),
		maxAge: maxAge,
		now:    time.Now,
	}
}

func (c *Codec) MaxAge() time.Duration {
	return c.maxAge
}

func (c *Codec) Encode(s Session) (string, error) {
	now := c.now()

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Session: s,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.maxAge)),
		},
	})

	return t.SignedString(c.secret)
}

func (c *Codec) Decode(token string) (Session, error) {
	var cl claims

	_, err := jwt.ParseWithClaims(token, &cl, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %s", t.Method.Alg())
		}

		return c.secret, nil
	}, jwt.WithTimeFunc(c.now), jwt.WithExpirationRequired())
	if err != nil {
		return Session{}, fmt.Errorf("%w, %w", ErrInvalidToken, err)
	}

	return cl.Session, nil
}
