// Package apiresp writes the JSON bodies shared by the /api handlers.
package apiresp

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dalemusser/guardian/internal/app/system/apperr"
	"go.uber.org/zap"
)

// MaxBodyBytes caps request bodies read by Decode.
const MaxBodyBytes = 1 << 20

// ErrorDetail is the machine-readable part of an error response.
type ErrorDetail struct {
	Code  apperr.Kind `json:"code"`
	Field string      `json:"field,omitempty"`
	ID    string      `json:"id,omitempty"`
}

// ErrorBody is written for every failed request.
type ErrorBody struct {
	Message string      `json:"message"`
	Error   ErrorDetail `json:"error"`
}

// JSON writes v with status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Body builds the error body for err. serverMsg replaces the message of
// store failures so driver detail never reaches clients.
func Body(err error, serverMsg string) ErrorBody {
	body := ErrorBody{Message: serverMsg, Error: ErrorDetail{Code: apperr.KindOf(err)}}
	var ae *apperr.Error
	if errors.As(err, &ae) {
		body.Error.Field = ae.Field
		body.Error.ID = ae.ID
		switch ae.Kind {
		case apperr.KindInvalidArgument, apperr.KindNotFound, apperr.KindPartialFailure:
			body.Message = capitalize(ae.Message)
		}
	}
	return body
}

// Error writes err with the status apperr maps it to. Server-side failures
// are logged with the request path.
func Error(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error, serverMsg string) {
	status := apperr.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		log.Error(serverMsg, zap.String("path", r.URL.Path), zap.Error(err))
	}
	JSON(w, status, Body(err, serverMsg))
}

// Message writes {"message": msg} with status.
func Message(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, map[string]string{"message": msg})
}

// Decode reads a JSON body into dst. Unknown fields are allowed. An empty
// body leaves dst unchanged.
func Decode(r *http.Request, dst any) error {
	if r.Body == nil {
		return nil
	}
	dec := json.NewDecoder(io.LimitReader(r.Body, MaxBodyBytes))
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return apperr.Invalid("body", "Request body must be valid JSON")
	}
	return nil
}

func capitalize(s string) string {
	s = strings.TrimSpace(s)
	r, n := utf8.DecodeRuneInString(s)
	if n == 0 {
		return s
	}
	return string(unicode.ToUpper(r)) + s[n:]
}
