package validators

import (
	"errors"
	"unicode/utf8"
)

// Titles, contents and passwords all share the same floor
const minFieldLength = 5

var (
	ErrPasswordTooShort = errors.New("password must be at least 5 characters long")
	ErrPasswordTooLong  = errors.New("password is too long")
	ErrTitleTooShort    = errors.New("title must be at least 5 characters long")
	ErrContentTooShort  = errors.New("content must be at least 5 characters long")
)

func PasswordValidator(p string) error {
	if utf8.RuneCountInString(p) < minFieldLength {
		return ErrPasswordTooShort
	}

	if len(p) > 255 {
		return ErrPasswordTooLong
	}

	return nil
}

func TitleValidator(t string) error {
	if utf8.RuneCountInString(t) < minFieldLength {
		return ErrTitleTooShort
	}

	return nil
}

func ContentValidator(c string) error {
	if utf8.RuneCountInString(c) < minFieldLength {
		return ErrContentTooShort
	}

	return nil
}
