package bookingapi

import "fmt"

// AuthError means the upstream rejected the bearer credential. The
// host should re-prompt for a token; it is never retried automatically.
type AuthError struct {
	Status int
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("booking api rejected credential (http %d)", e.Status)
}

// NetworkError covers transport failures and non-auth error statuses.
// Transient by assumption; silent refreshes keep the previous booking
// set when they hit one.
type NetworkError struct {
	Status int
	Err    error
}

func (e *NetworkError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("booking api request failed: %v", e.Err)
	}
	return fmt.Sprintf("booking api returned http %d", e.Status)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// MalformedResponseError means the upstream payload did not parse.
// Fatal for the fetch; the previous booking set is retained.
type MalformedResponseError struct {
	Err error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("booking api returned malformed payload: %v", e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }
