package tavus

import (
	"errors"
	"fmt"
)

// ErrMissingCredentials is wrapped by ProviderError when the API key or persona
// id is not configured.
var ErrMissingCredentials = errors.New("missing API key or persona id")

// ProviderError describes a failed call to the video provider. StatusCode is
// zero when no HTTP response was received.
type ProviderError struct {
	Op         string
	StatusCode int
	Message    string
	Timeout    bool
	Retryable  bool
	Err        error
}

func (e *ProviderError) Error() string {
	msg := "tavus: " + e.Op
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(": status %d", e.StatusCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil && e.StatusCode == 0 {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ProviderError) Unwrap() error { return e.Err }
