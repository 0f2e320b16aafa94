// Package apperr classifies gateway errors into diagnostic kinds and HTTP statuses.
package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/iliamunaev/compile-gateway/internal/model"
)

var (
	// ErrRawOutput marks an upstream reply that is not a structured outcome.
	ErrRawOutput = errors.New("upstream returned unstructured output")
	// ErrUpstream marks a failure to obtain any reply from the upstream.
	ErrUpstream = errors.New("upstream request failed")
)

// kinder is satisfied by errors that carry a diagnostic kind.
type kinder interface {
	Kind() string
}

// RawOutputError carries the upstream reply that could not be used as an outcome.
type RawOutputError struct {
	Status int    // upstream HTTP status, 0 if none
	Body   string // raw reply text
	Reason error  // why the reply was rejected, may be nil
}

func (e *RawOutputError) Error() string {
	if e.Reason != nil {
		return fmt.Sprintf("upstream status %d: %v", e.Status, e.Reason)
	}
	return fmt.Sprintf("upstream status %d: non-JSON reply", e.Status)
}

func (e *RawOutputError) Kind() string        { return model.KindRawOutput }
func (e *RawOutputError) Is(target error) bool { return target == ErrRawOutput }
func (e *RawOutputError) Unwrap() error        { return e.Reason }

// Kind returns the diagnostic kind for err.
func Kind(err error) string {
	if err == nil {
		return ""
	}
	var k kinder
	if errors.As(err, &k) {
		return k.Kind()
	}
	if errors.Is(err, ErrRawOutput) {
		return model.KindRawOutput
	}
	return model.KindProxyError
}

// HTTPStatus returns the status to report for err.
//
// Raw upstream output keeps the upstream status when it is a valid HTTP
// status and falls back to 502. Every other error is a 500.
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	var raw *RawOutputError
	if errors.As(err, &raw) {
		if UsableStatus(raw.Status) {
			return raw.Status
		}
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// UsableStatus reports whether code is a valid HTTP status code.
func UsableStatus(code int) bool {
	return code >= 100 && code <= 599
}
