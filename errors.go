package vitrine

import (
	"errors"
	"fmt"

	"github.com/xraph/vitrine/session"
	"github.com/xraph/vitrine/user"
)

// Sentinel errors for common failure scenarios.
var (
	// General errors
	ErrNotFound      = errors.New("vitrine: not found")
	ErrAlreadyExists = errors.New("vitrine: already exists")
	ErrInvalidInput  = errors.New("vitrine: invalid input")

	// Catalog errors
	ErrArtifactNotFound = errors.New("vitrine: artifact not found")

	// Entitlement errors
	ErrPaymentRequired        = errors.New("vitrine: payment required")
	ErrPaymentRecordNotFound  = errors.New("vitrine: payment record not found")
	ErrPaymentAlreadyComplete = errors.New("vitrine: payment already completed for pair")

	// Store errors
	ErrStoreUnavailable = errors.New("vitrine: store unavailable")
	ErrStoreClosed      = errors.New("vitrine: store is closed")
	ErrMigrationFailed  = errors.New("vitrine: migration failed")
)

// Credential and session sentinels are owned by their packages;
// re-exported here so callers can match them alongside the rest of the
// taxonomy.
var (
	ErrInvalidCredentials = user.ErrInvalidCredentials
	ErrUsernameTaken      = user.ErrUsernameTaken
	ErrUnauthenticated    = session.ErrUnauthenticated
	ErrSessionExpired     = session.ErrSessionExpired
)

// PaymentError reports a failed payment confirmation. Retriable is true when
// the caller may safely retry: a prior successful attempt short-circuits on
// re-entry, so retries never double-charge.
type PaymentError struct {
	Reason    string
	Retriable bool
	Err       error
}

func (e *PaymentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("vitrine: payment failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("vitrine: payment failed: %s", e.Reason)
}

// Unwrap exposes the underlying cause for errors.Is/As chains.
func (e *PaymentError) Unwrap() error { return e.Err }

// AsPaymentError extracts a *PaymentError from an error chain, or nil.
func AsPaymentError(err error) *PaymentError {
	var pe *PaymentError
	if errors.As(err, &pe) {
		return pe
	}
	return nil
}

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrArtifactNotFound) ||
		errors.Is(err, ErrPaymentRecordNotFound)
}

// IsUnauthenticated returns true if the error indicates a missing or
// invalid session identity.
func IsUnauthenticated(err error) bool {
	return errors.Is(err, ErrUnauthenticated) ||
		errors.Is(err, ErrSessionExpired) ||
		errors.Is(err, ErrInvalidCredentials)
}

// IsRetryable returns true if the error is temporary and the operation can be retried.
func IsRetryable(err error) bool {
	if pe := AsPaymentError(err); pe != nil {
		return pe.Retriable
	}
	return errors.Is(err, ErrStoreUnavailable)
}
