package graph

import (
	"errors"
	"fmt"
)

// APIError is a failure reported by the Graph API, or a non-2xx reply without a
// parsable error body.
type APIError struct {
	Status    int
	Code      int
	Subcode   int
	Type      string
	Message   string
	FBTraceID string
	// Phase names the step of a multi-phase protocol that failed, if any.
	Phase string
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("facebook api error: %s (code: %d", e.Message, e.Code)
	if e.Subcode != 0 {
		msg += fmt.Sprintf(", subcode: %d", e.Subcode)
	}
	msg += fmt.Sprintf(", status: %d)", e.Status)
	if e.Phase != "" {
		msg = "phase " + e.Phase + ": " + msg
	}
	return msg
}

// WithPhase tags err with a protocol phase. API errors keep their fields, anything else
// is wrapped.
func WithPhase(phase string, err error) error {
	if err == nil {
		return nil
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		tagged := *apiErr
		tagged.Phase = phase
		return &tagged
	}
	return fmt.Errorf("phase %s: %w", phase, err)
}

// IsAuthError reports whether err means the access token is invalid or expired.
func IsAuthError(err error) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.Code {
	case 190, 463, 467:
		return true
	}
	return false
}
