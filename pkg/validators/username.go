package validators

import (
	"errors"
	"strings"
	"unicode"
)

var (
	ErrUsernameEmpty   = errors.New("no username provided")
	ErrUsernameTooLong = errors.New("username is too long")
	ErrUsernameInvalid = errors.New("username contains invalid characters")
)

const maxUsernameLength = 64

func UsernameValidator(u string) error {
	if strings.TrimSpace(u) == "" {
		return ErrUsernameEmpty
	}

	if len(u) > maxUsernameLength {
		return ErrUsernameTooLong
	}

	for _, r := range u {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return ErrUsernameInvalid
		}
	}

	return nil
}
