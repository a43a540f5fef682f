package services

import (
	"errors"
	"fmt"
	"strings"
)

// Marker errors used to classify failures from external services and
// pipeline stages. Wrap attaches one of these so callers can route a
// failure with errors.Is instead of string matching.
var (
	// ErrExternalTool marks failures from external binaries such as
	// ffmpeg or edge-tts.
	ErrExternalTool = errors.New("external tool failure")

	// ErrValidation marks malformed or unusable input, including
	// responses from providers that fail structural checks.
	ErrValidation = errors.New("validation failure")

	// ErrConfiguration marks missing or invalid configuration, such as
	// an absent API key.
	ErrConfiguration = errors.New("configuration failure")

	// ErrNotFound marks missing resources such as absent artifacts.
	ErrNotFound = errors.New("not found")

	// ErrTimeout marks operations that exceeded their deadline.
	ErrTimeout = errors.New("timeout")

	// ErrTransient marks retryable provider failures such as rate
	// limits or 5xx responses.
	ErrTransient = errors.New("transient failure")
)

// ServiceError carries the stage and operation that produced a failure
// along with the classification marker.
type ServiceError struct {
	Marker  error
	Stage   string
	Op      string
	Message string
	Err     error
}

func (e *ServiceError) Error() string {
	var b strings.Builder
	if e.Stage != "" {
		b.WriteString(e.Stage)
		b.WriteString(": ")
	}
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	if e.Message != "" {
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		if e.Message != "" {
			b.WriteString(": ")
		}
		b.WriteString(e.Err.Error())
	}
	if b.Len() == 0 {
		return e.Marker.Error()
	}
	return b.String()
}

func (e *ServiceError) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Marker != nil {
		out = append(out, e.Marker)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// Wrap builds a classified error. Marker should be one of the package
// marker errors; stage and op identify where the failure occurred.
func Wrap(marker error, stage, op, message string, err error) error {
	if marker == nil {
		marker = ErrValidation
	}
	return &ServiceError{Marker: marker, Stage: stage, Op: op, Message: message, Err: err}
}

// Wrapf is Wrap with a formatted message.
func Wrapf(marker error, stage, op string, err error, format string, args ...any) error {
	return Wrap(marker, stage, op, fmt.Sprintf(format, args...), err)
}

// ErrorKind classifies the failure for queue status mapping. The queue
// package routes "validation", "configuration", and "not_found" to the
// review status; everything else fails.
func (e *ServiceError) ErrorKind() string {
	switch {
	case errors.Is(e.Marker, ErrValidation):
		return "validation"
	case errors.Is(e.Marker, ErrConfiguration):
		return "configuration"
	case errors.Is(e.Marker, ErrNotFound):
		return "not_found"
	case errors.Is(e.Marker, ErrTimeout):
		return "timeout"
	case errors.Is(e.Marker, ErrTransient):
		return "transient"
	case errors.Is(e.Marker, ErrExternalTool):
		return "external_tool"
	default:
		return "unknown"
	}
}

// IsTransient reports whether the failure is worth retrying.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransient) || errors.Is(err, ErrTimeout)
}
