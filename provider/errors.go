package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"syscall"
)

var (
	ErrBackendUnavailable = errors.New("backend unavailable")
	ErrModelNotFound      = errors.New("model not found")
	ErrBackendProtocol    = errors.New("backend protocol error")
	ErrUnsupportedBackend = errors.New("unsupported backend")
)

// BackendError is returned by every failed dispatch. Kind is one of
// ErrBackendUnavailable, ErrModelNotFound or ErrBackendProtocol, so both
// errors.Is(err, Kind) and errors.Is(err, <cause>) hold.
type BackendError struct {
	Backend string
	Kind    error
	Err     error
}

func (e *BackendError) Error() string {
	if e.Kind == ErrModelNotFound {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v: %v", e.Backend, e.Kind, e.Err)
}

func (e *BackendError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// ModelNotFoundError carries the command that installs the missing model.
type ModelNotFoundError struct {
	Model string
	Hint  string
}

func (e *ModelNotFoundError) Error() string {
	return fmt.Sprintf("Model '%s' not found. Please pull the model first with: %s", e.Model, e.Hint)
}

func (e *ModelNotFoundError) Is(target error) bool {
	return target == ErrModelNotFound
}

func newBackendError(backend string, kind, err error) *BackendError {
	return &BackendError{Backend: backend, Kind: kind, Err: err}
}

// isUnavailable reports whether err means the server could not be reached
// or did not answer in time.
func isUnavailable(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}

// statusUnavailable reports whether an HTTP status means the server is up
// but cannot serve requests.
func statusUnavailable(code int) bool {
	return code == http.StatusBadGateway || code == http.StatusServiceUnavailable || code == http.StatusGatewayTimeout
}

func mentionsNotFound(msg string) bool {
	msg = strings.ToLower(msg)
	return strings.Contains(msg, "not found") || strings.Contains(msg, "no such model")
}
