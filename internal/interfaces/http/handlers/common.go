// Package handlers implements the HTTP handlers of the molview API server.
package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/turtacn/molview/pkg/errors"
)

// maxJSONBody bounds JSON request bodies.  Structure files go through
// multipart and have their own limit.
const maxJSONBody = 1 << 20

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// ErrorResponse is the body of every error response.  Error carries the
// message shown to the user, the same text a notification would show.
type ErrorResponse struct {
	Code     string `json:"code"`
	Category string `json:"category"`
	Error    string `json:"error"`
	Detail   string `json:"detail,omitempty"`
}

// writeAppError maps err to a status code through its AppError code.  Errors
// without a code are reported as internal and their text is not exposed.
func writeAppError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	if code == errors.CodeUnknown {
		code = errors.CodeInternal
	}
	resp := ErrorResponse{
		Code:     code.String(),
		Category: errors.Category(code),
		Error:    errors.UserMessage(err),
	}
	var ae *errors.AppError
	if errors.As(err, &ae) && errors.IsClientError(code) {
		resp.Detail = ae.Detail
	}
	writeJSON(w, errors.HTTPStatusForCode(code), resp)
}

// decodeJSON reads a bounded JSON body into dst.  An empty body leaves dst
// untouched.
func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	if err := dec.Decode(dst); err != nil && err != io.EOF {
		return errors.InvalidParam("request body is not valid JSON").WithCause(err)
	}
	return nil
}
