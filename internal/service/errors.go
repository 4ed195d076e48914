package service

import (
	"errors"
	"fmt"
)

// Base error kinds. Callers match them with errors.Is; every error a service
// returns either wraps one of these or is unexpected.
var (
	ErrValidation      = errors.New("validation error")
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("access denied")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrRateLimited     = errors.New("too many requests")
	ErrExternalService = errors.New("external service error")
)

var (
	ErrEmptyCart           = fmt.Errorf("%w: cart is empty", ErrValidation)
	ErrInvalidTransition   = fmt.Errorf("%w: invalid order status transition", ErrConflict)
	ErrInvalidState        = fmt.Errorf("%w: order can no longer be cancelled", ErrConflict)
	ErrInvalidOrExpiredOTP = fmt.Errorf("%w: invalid or expired OTP", ErrValidation)
	ErrPaymentNotConfirmed = fmt.Errorf("%w: payment not confirmed", ErrValidation)
	ErrInvalidCredentials  = fmt.Errorf("%w: invalid email or password", ErrUnauthenticated)
	ErrMisconfigured       = fmt.Errorf("%w: service is not configured", ErrExternalService)
)

func validationError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func notFoundError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}
