package errutil

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/instaai/pkg/utils/logging"
)

// HTTPError is an error that knows its response status and JSON body
type HTTPError interface {
	error
	HTTPStatus() int
	ResponseBody() map[string]any
}

// Status returns the status of the first HTTPError in the chain, or fallback
func Status(err error, fallback int) int {
	var he HTTPError
	if errors.As(err, &he) {
		return he.HTTPStatus()
	}
	return fallback
}

// Body returns the JSON body for err. Errors without their own body become
// {"error": err.Error()}.
func Body(err error) map[string]any {
	var he HTTPError
	if errors.As(err, &he) {
		return he.ResponseBody()
	}
	return map[string]any{"error": err.Error()}
}

// Handle logs the error with a message and reports it to Sentry. It returns
// err unchanged.
func Handle(ctx context.Context, err error, msg string) error {
	if err == nil {
		return nil
	}

	log(ctx, msg, err)
	capture(ctx, err)
	return err
}

// HandleHTTP logs the error and writes a JSON error response. The status
// comes from the error when it carries one, statusCode otherwise. 5xx
// errors are reported to Sentry.
func HandleHTTP(ctx context.Context, w http.ResponseWriter, err error, statusCode int) {
	if err == nil {
		return
	}

	status := Status(err, statusCode)
	log(ctx, "HTTP error", err, "status", status)
	if status >= http.StatusInternalServerError {
		capture(ctx, err)
	}

	data, mErr := json.Marshal(Body(err))
	if mErr != nil {
		logging.From(ctx).Error("failed to marshal error body", "error", mErr)
		data = []byte(`{"error":"internal server error"}`)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, wErr := w.Write(data); wErr != nil {
		logging.From(ctx).Error("failed to write error response", "error", wErr)
	}
}

func log(ctx context.Context, msg string, err error, args ...any) {
	logger := logging.From(ctx)

	// Extract goerr values for structured logging
	var ge *goerr.Error
	if errors.As(err, &ge) {
		args = append(args,
			"error", err.Error(),
			"values", ge.Values(),
			"stack", ge.Stacks(),
		)
	} else {
		args = append(args, "error", err.Error())
	}

	logger.Error(msg, args...)
}

func capture(ctx context.Context, err error) {
	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	hub.CaptureException(err)
}
