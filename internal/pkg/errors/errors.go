package errors

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalid      = errors.New("invalid")
	ErrConflict     = errors.New("conflict")
	ErrTooMany      = errors.New("too many requests")
	ErrInternal     = errors.New("internal")

	ErrInvalidCode = errors.New("invalid code")
	ErrExpiredCode = errors.New("expired code")

	ErrInvalidFile       = errors.New("invalid file")
	ErrFileTooLarge      = errors.New("file too large")
	ErrPaymentRequired   = errors.New("payment required")
	ErrSignatureMismatch = errors.New("signature mismatch")
	ErrOrderNotFound     = errors.New("order not found")
	ErrJobNotReady       = errors.New("job not ready")
	ErrDelivery          = errors.New("delivery failed")
)

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}
