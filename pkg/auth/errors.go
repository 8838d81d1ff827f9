package auth

import "fmt"

// AuthError reports a credential that could not be recognized or exchanged
// for a usable token.
type AuthError struct {
	Reason string
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("auth: %s: %v", e.Reason, e.Err)
	}
	return "auth: " + e.Reason
}

func (e *AuthError) Unwrap() error { return e.Err }

// CapabilityError reports an operation the current credential does not
// permit. It is always raised before any network call is attempted.
type CapabilityError struct {
	Family Family
	Op     string
	Reason string
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("capability: %s not permitted for %s: %s", e.Op, e.Family, e.Reason)
}
