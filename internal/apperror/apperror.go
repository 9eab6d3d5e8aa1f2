// Package apperror defines the typed error kinds surfaced by the analysis core.
package apperror

import (
	"errors"
	"fmt"
	"strings"
)

type Kind string

const (
	KindModelInference   Kind = "MODEL_INFERENCE_ERROR"
	KindIndexUnavailable Kind = "INDEX_UNAVAILABLE"
	KindInvalidInput     Kind = "INVALID_INPUT"
)

// Sentinels for errors.Is checks. They match any *Error of the same kind.
var (
	ErrModelInference   = &Error{Kind: KindModelInference}
	ErrIndexUnavailable = &Error{Kind: KindIndexUnavailable}
	ErrInvalidInput     = &Error{Kind: KindInvalidInput}
)

type Error struct {
	Kind      Kind
	Op        string
	Message   string
	Err       error
	Retryable bool
}

func (e *Error) Error() string {
	parts := make([]string, 0, 3)
	if e.Op != "" {
		parts = append(parts, e.Op)
	}
	if e.Message != "" {
		parts = append(parts, e.Message)
	}
	if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}
	if len(parts) == 0 {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s [%s]", strings.Join(parts, ": "), e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Op == "" && t.Message == "" && t.Err == nil && t.Kind == e.Kind
}

func ModelInference(op string, err error) *Error {
	return &Error{
		Kind:      KindModelInference,
		Op:        op,
		Message:   "model inference failed",
		Err:       err,
		Retryable: true,
	}
}

func IndexUnavailable(op, message string, err error) *Error {
	return &Error{
		Kind:    KindIndexUnavailable,
		Op:      op,
		Message: message,
		Err:     err,
	}
}

func InvalidInput(op, message string) *Error {
	return &Error{
		Kind:    KindInvalidInput,
		Op:      op,
		Message: message,
	}
}

// KindOf returns the kind of the first *Error in err's chain, or "" if there is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func IsRetryable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Retryable
	}
	return false
}
