// Package validators holds the per-field checks the resolvers run
// before anything touches storage
package validators

import (
	"errors"
	"net/mail"
)

var (
	ErrEmailEmpty   = errors.New("e-mail address is empty")
	ErrEmailInvalid = errors.New("e-mail address is not parseable")
)

// EmailValidator accepts anything that parses as a single RFC 5322
// address. Registration collapses both failures into one user-facing
// message, the distinct sentinels exist for logging
func EmailValidator(e string) error {
	if e == "" {
		return ErrEmailEmpty
	}

	if _, err := mail.ParseAddress(e); err != nil {
		return ErrEmailInvalid
	}

	return nil
}
