package gateway

import (
	"errors"
	"fmt"
)

// ErrTransient and ErrPermanent are the sentinel errors the retry policy
// keys on. Transient failures (network blips, timeouts, gateway overload)
// are worth retrying; permanent failures (rejected requests) are not.
var (
	ErrTransient = errors.New("transient gateway error")
	ErrPermanent = errors.New("permanent gateway error")
)

// WrapTransient annotates an error so callers can detect transient failures
func WrapTransient(err error) error {
	if err == nil {
		return ErrTransient
	}
	return fmt.Errorf("%w: %v", ErrTransient, err)
}

// WrapPermanent annotates an error as permanent
func WrapPermanent(err error) error {
	if err == nil {
		return ErrPermanent
	}
	return fmt.Errorf("%w: %v", ErrPermanent, err)
}

// IsTransient reports whether the error is classified as retryable
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient)
}

// IsPermanent reports whether the error is classified as non-retryable
func IsPermanent(err error) bool {
	return errors.Is(err, ErrPermanent)
}

// ErrorType returns the classification label stored on dead letter entries
func ErrorType(err error) string {
	switch {
	case IsTransient(err):
		return "transient"
	case IsPermanent(err):
		return "permanent"
	default:
		return "unknown"
	}
}
