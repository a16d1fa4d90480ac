package session

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodecRoundTrip(t *testing.T) {
	c := NewCodec("secret", time.Hour)

	in := Session{VerifyEmail: "a@x.com", UserID: 7, Username: "alice"}
	token, err := c.Encode(in)
	require.NoError(t, err)

	out, err := c.Decode(token)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestCodecRejectsTampering(t *testing.T) {
	token, err := NewCodec("secret", time.Hour).Encode(Session{UserID: 1})
	require.NoError(t, err)

	_, err = NewCodec("other", time.Hour).Decode(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = NewCodec("secret", time.Hour).Decode(token + "x")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = NewCodec("secret", time.Hour).Decode("")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestCodecRejectsOtherAlgorithms(t *testing.T) {
	tok := jwt.NewWithClaims(jwt.SigningMethodHS512, claims{
		Session:          Session{UserID: 1},
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	})
	signed, err := tok.SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = NewCodec("secret", time.Hour).Decode(signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestCodecExpiry(t *testing.T) {
	c := NewCodec("secret", time.Minute)
	now := time.Now()
	c.now = func() time.Time { return now }

	token, err := c.Encode(Session{UserID: 1})
	require.NoError(t, err)

	c.now = func() time.Time { return now.Add(2 * time.Minute) }
	_, err = c.Decode(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestClear(t *testing.T) {
	s := Session{VerifyEmail: "a@x.com", UserID: 3, Username: "alice"}
	s.Clear(true)
	assert.Equal(t, Session{VerifyEmail: "a@x.com", Username: "alice"}, s)

	s.Clear(false)
	assert.True(t, s.Empty())

	s = Session{UserID: 3, Username: "alice"}
	s.Clear(true)
	assert.True(t, s.Empty())
}
