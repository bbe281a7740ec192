package domain

import (
	"errors"
	"net/http"
)

// HTTPError defines errors that can be mapped to HTTP status codes.
// Implementing this interface lets boundary handlers translate any domain
// failure without enumerating concrete types.
type HTTPError interface {
	error
	StatusCode() int
}

// Domain error types implementing HTTPError interface
type (
	// NotFoundError indicates a resource was not found, including remote
	// folders that have been deleted on the storage provider.
	NotFoundError struct {
		Message string
	}

	// ValidationError indicates invalid input
	ValidationError struct {
		Message string
	}

	// UnauthorizedError indicates authentication failure
	UnauthorizedError struct {
		Message string
	}

	// ForbiddenError indicates authorization failure: no usable credential,
	// or the caller lacks permission on the node.
	ForbiddenError struct {
		Message string
	}

	// AuthExpiredError indicates the stored OAuth token could not be
	// refreshed. Surfaced as access-denied.
	AuthExpiredError struct {
		Message string
	}

	// TransientError indicates the storage provider exhausted its retry
	// budget (network fault, rate limit). The client may retry the request.
	TransientError struct {
		Message string
	}

	// AddonError indicates local addon misconfiguration: the node has no
	// linked credential or no configured folder.
	AddonError struct {
		Message string
	}
)

// Error implementations
func (e *NotFoundError) Error() string     { return e.Message }
func (e *ValidationError) Error() string   { return e.Message }
func (e *UnauthorizedError) Error() string { return e.Message }
func (e *ForbiddenError) Error() string    { return e.Message }
func (e *AuthExpiredError) Error() string  { return e.Message }
func (e *TransientError) Error() string    { return e.Message }
func (e *AddonError) Error() string        { return e.Message }

// StatusCode implementations (HTTPError interface)
func (e *NotFoundError) StatusCode() int     { return http.StatusNotFound }
func (e *ValidationError) StatusCode() int   { return http.StatusBadRequest }
func (e *UnauthorizedError) StatusCode() int { return http.StatusUnauthorized }
func (e *ForbiddenError) StatusCode() int    { return http.StatusForbidden }
func (e *AuthExpiredError) StatusCode() int  { return http.StatusUnauthorized }

// Retry exhaustion maps to 400 so the client is told to retry rather than
// treat the fault as a server failure.
func (e *TransientError) StatusCode() int { return http.StatusBadRequest }
func (e *AddonError) StatusCode() int     { return http.StatusBadRequest }

// Sentinel errors - use with errors.Is()
var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrAuthExpired  = errors.New("auth expired")
	ErrTransient    = errors.New("transient failure")
	ErrAddon        = errors.New("addon misconfigured")
)

// Is allows errors.Is() to match typed errors against their sentinels
func (e *NotFoundError) Is(target error) bool     { return target == ErrNotFound }
func (e *ValidationError) Is(target error) bool   { return target == ErrValidation }
func (e *UnauthorizedError) Is(target error) bool { return target == ErrUnauthorized }
func (e *ForbiddenError) Is(target error) bool    { return target == ErrForbidden }
func (e *AuthExpiredError) Is(target error) bool  { return target == ErrAuthExpired }
func (e *TransientError) Is(target error) bool    { return target == ErrTransient }
func (e *AddonError) Is(target error) bool        { return target == ErrAddon }
