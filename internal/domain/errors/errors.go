package errors

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrAlreadyExists     = errors.New("already exists")
	ErrConflict          = errors.New("conflicting concurrent update")
	ErrNotEligible       = errors.New("not eligible")
	ErrNoWinnerFound     = errors.New("no participation holds the winning number")
	ErrInvalidDrawInput  = errors.New("invalid draw input")
	ErrInvalidDrawRecord = errors.New("invalid draw record")
)
