package usecase

import (
	"errors"
	"net/http"

	"github.com/secmon-lab/instaai/pkg/service/instagram"
)

// Sentinel errors for use case layer
var (
	ErrValidation        = errors.New("validation error")
	ErrNotFound          = errors.New("not found")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrForbidden         = errors.New("forbidden")
	ErrMalformedUpstream = errors.New("malformed upstream response")
	ErrStorage           = errors.New("storage error")
)

// UserError is an error whose message is returned to the client as is.
// Kind is one of the sentinel errors above and selects the status code.
// Cause, if any, is kept for logging only.
type UserError struct {
	Kind    error
	Message string
	Extra   map[string]any
	Cause   error
}

func newUserError(kind error, msg string) *UserError {
	return &UserError{Kind: kind, Message: msg}
}

func wrapUserError(cause error, kind error, msg string) *UserError {
	return &UserError{Kind: kind, Message: msg, Cause: cause}
}

// upstreamError reports an undecodable success response from the platform
// as ErrMalformedUpstream with msg. Other errors are returned unchanged.
func upstreamError(err error, msg string) error {
	if errors.Is(err, instagram.ErrMalformedResponse) {
		return wrapUserError(err, ErrMalformedUpstream, msg)
	}
	return err
}

func (e *UserError) with(key string, value any) *UserError {
	if e.Extra == nil {
		e.Extra = make(map[string]any)
	}
	e.Extra[key] = value
	return e
}

func (e *UserError) Error() string {
	return e.Message
}

func (e *UserError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}

// HTTPStatus maps Kind to a status code
func (e *UserError) HTTPStatus() int {
	switch {
	case errors.Is(e.Kind, ErrValidation), errors.Is(e.Kind, ErrMalformedUpstream):
		return http.StatusBadRequest
	case errors.Is(e.Kind, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(e.Kind, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(e.Kind, ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// ResponseBody returns {"error": Message} plus Extra
func (e *UserError) ResponseBody() map[string]any {
	body := map[string]any{"error": e.Message}
	for k, v := range e.Extra {
		body[k] = v
	}
	return body
}
