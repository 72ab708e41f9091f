package transcribe

import (
	"errors"
	"fmt"
)

// Code classifies a transcription failure so the transport layer can map it
// to a response status without string matching.
type Code string

const (
	// CodeModelNotFound means the requested model name is not part of the
	// supported set. Client error, never retried.
	CodeModelNotFound Code = "MODEL_NOT_FOUND"

	// CodeAuthMissing means a cloud backend requires an API key and none was
	// supplied through the request or the configuration.
	CodeAuthMissing Code = "AUTH_MISSING"

	// CodeBackendUnavailable means an external recognizer (remote ASR,
	// transcoder, subprocess) failed or timed out. The caller may retry the
	// whole request; this service performs a single attempt.
	CodeBackendUnavailable Code = "BACKEND_UNAVAILABLE"

	// CodeMalformedSegments means a segment list violated the sorted,
	// non-overlapping precondition of the gap filler.
	CodeMalformedSegments Code = "MALFORMED_SEGMENTS"

	// CodeUnsupportedCheckpoint means the local model engine was asked for a
	// checkpoint it has no path configured for.
	CodeUnsupportedCheckpoint Code = "UNSUPPORTED_CHECKPOINT"
)

// Error is a typed transcription failure. Adapters report plain sentinel
// errors; the orchestrator wraps them into this taxonomy so failures are
// never mistaken for "zero words spoken".
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func newError(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// CodeOf extracts the failure code from an error chain. The second result is
// false when the error does not carry a transcription code.
func CodeOf(err error) (Code, bool) {
	var te *Error
	if errors.As(err, &te) {
		return te.Code, true
	}
	return "", false
}
