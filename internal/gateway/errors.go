package gateway

import (
	"errors"
	"fmt"
)

// AuthRequiredError is returned when a table call is attempted without a
// signed-in session.
type AuthRequiredError struct {
	Table string
}

func (e *AuthRequiredError) Error() string {
	if e.Table == "" {
		return "authentication required"
	}
	return fmt.Sprintf("authentication required to access %s", e.Table)
}

// AuthFailedError indicates the auth endpoint rejected the credentials.
// Message is the server-provided reason when one was sent.
type AuthFailedError struct {
	Status  int
	Message string
}

func (e *AuthFailedError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("auth failed: %s", e.Message)
	}
	return fmt.Sprintf("auth failed (%d): %s", e.Status, e.Message)
}

// RemoteError is a non-2xx response from the table API. Body is the raw
// response text.
type RemoteError struct {
	Method string
	Table  string
	Status int
	Body   string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("unexpected status %d on %s %s: %s", e.Status, e.Method, e.Table, e.Body)
}

// NotFoundError indicates an expected row was absent.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// OfflineError is returned when the offline cache controller answered in
// place of an unreachable network.
type OfflineError struct {
	Method string
	URL    string
}

func (e *OfflineError) Error() string {
	return fmt.Sprintf("offline: %s %s could not reach the network", e.Method, e.URL)
}

// IsAuthRequired reports whether err (or any error in its chain) is an
// AuthRequiredError.
func IsAuthRequired(err error) bool {
	var target *AuthRequiredError
	return errors.As(err, &target)
}

// IsAuthFailed reports whether err (or any error in its chain) is an
// AuthFailedError.
func IsAuthFailed(err error) bool {
	var target *AuthFailedError
	return errors.As(err, &target)
}

// IsNotFound reports whether err (or any error in its chain) is a
// NotFoundError.
func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// IsOffline reports whether err (or any error in its chain) is an
// OfflineError.
func IsOffline(err error) bool {
	var target *OfflineError
	return errors.As(err, &target)
}

// RemoteStatus returns the HTTP status carried by a RemoteError in err's
// chain, or 0.
func RemoteStatus(err error) int {
	var target *RemoteError
	if errors.As(err, &target) {
		return target.Status
	}
	return 0
}
