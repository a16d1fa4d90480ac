package security

import (
	"errors"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

const (
	digits = "0123456789"

	DefaultCodeLength = 6
)

var ErrCodeLength = errors.New("code length must be bigger than 0")

// GenerateCode returns a string of n decimal digits, each drawn uniformly
func GenerateCode(n int) (string, error) {
	if n <= 0 {
		return "", ErrCodeLength
	}

	return gonanoid.Generate(digits, n)
}
