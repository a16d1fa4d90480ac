package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lightArgon() *ArgonHash {
	return &ArgonHash{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}
}

func TestArgonRoundTrip(t *testing.T) {
	a := lightArgon()

	encoded, err := a.Hash("pw1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(encoded, "$argon2id$v=19$m=1024,t=1,p=1$"))
	assert.NotContains(t, encoded, "pw1")

	ok, err := a.Compare("pw1", encoded)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = a.Compare("pw2", encoded)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestArgonSaltsDiffer(t *testing.T) {
	a := lightArgon()

	h1, err := a.Hash("same")
	require.NoError(t, err)
	h2, err := a.Hash("same")
	require.NoError(t, err)

	assert.NotEqual(t, h1, h2)
}

func TestArgonCompareUsesEncodedParams(t *testing.T) {
	encoded, err := lightArgon().Hash("pw")
	require.NoError(t, err)

	ok, err := New().Compare("pw", encoded)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestArgonCompareRejectsMalformed(t *testing.T) {
	a := lightArgon()

	for _, e := range []string{
		"",
		"plaintext",
		"$bcrypt$v=19$m=1024,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=18$m=1024,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$garbage$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=1024,t=1,p=1$!!!$aGFzaA",
		"$argon2id$v=19$m=1024,t=1,p=1$c2FsdA$",
	} {
		ok, err := a.Compare("pw", e)
		assert.ErrorIs(t, err, ErrInvalidHash, e)
		assert.False(t, ok)
	}
}

func TestGenerateCode(t *testing.T) {
	for _, n := range []int{1, 4, DefaultCodeLength, 10} {
		code, err := GenerateCode(n)
		require.NoError(t, err)
		assert.Len(t, code, n)

		for _, r := range code {
			assert.True(t, r >= '0' && r <= '9', "non digit %q in %q", r, code)
		}
	}

	_, err := GenerateCode(0)
	assert.ErrorIs(t, err, ErrCodeLength)
}

func TestGenerateCodeUsesAllDigits(t *testing.T) {
	seen := map[rune]bool{}
	for range 200 {
		code, err := GenerateCode(DefaultCodeLength)
		require.NoError(t, err)

		for _, r := range code {
			seen[r] = true
		}
	}

	assert.Len(t, seen, 10)
}
