package instagram

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/m-mizutani/goerr/v2"
)

// ErrMalformedResponse is wrapped when a successful platform response has
// a body that cannot be decoded
var ErrMalformedResponse = goerr.New("malformed Instagram response")

// unknownField fills absent upstream error fields
const unknownField = "unknown"

// APIError is a non-2xx response from the platform
type APIError struct {
	StatusCode int
	Message    string
	Type       string
	Code       any // json.Number when present
	Subcode    any
	Body       []byte
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = statusSummary(e.StatusCode)
	}
	return fmt.Sprintf("instagram API error (status %d): %s", e.StatusCode, msg)
}

// HTTPStatus is the upstream status, relayed to the caller as is
func (e *APIError) HTTPStatus() int {
	if e.StatusCode == 0 {
		return http.StatusInternalServerError
	}
	return e.StatusCode
}

// ResponseBody returns the normalized {error, error_code, error_subcode}
// body. Absent fields are "unknown" and numeric codes stay numbers.
func (e *APIError) ResponseBody() map[string]any {
	fields := map[string]any{
		"error":         unknownField,
		"error_code":    unknownField,
		"error_subcode": unknownField,
	}
	if e.Message != "" {
		fields["error"] = e.Message
	}
	if e.Code != nil {
		fields["error_code"] = e.Code
	}
	if e.Subcode != nil {
		fields["error_subcode"] = e.Subcode
	}
	return fields
}

type errorEnvelope struct {
	Error *struct {
		Message      string `json:"message"`
		Type         string `json:"type"`
		Code         any    `json:"code"`
		ErrorSubcode any    `json:"error_subcode"`
	} `json:"error"`

	// OAuth endpoint shape
	ErrorType    string `json:"error_type"`
	Code         any    `json:"code"`
	ErrorMessage string `json:"error_message"`
}

func parseAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status, Body: body}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var env errorEnvelope
	if err := dec.Decode(&env); err != nil {
		return apiErr
	}

	if env.Error != nil {
		apiErr.Message = env.Error.Message
		apiErr.Type = env.Error.Type
		apiErr.Code = env.Error.Code
		apiErr.Subcode = env.Error.ErrorSubcode
		return apiErr
	}

	apiErr.Message = env.ErrorMessage
	apiErr.Type = env.ErrorType
	apiErr.Code = env.Code
	return apiErr
}

func statusSummary(status int) string {
	if status >= 500 {
		return "server error"
	}
	return "request rejected"
}
