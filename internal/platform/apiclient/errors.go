package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Code classifies a failed call.
type Code string

const (
	// CodeNetwork means the request never produced an HTTP response.
	CodeNetwork Code = "NETWORK_ERROR"

	// CodeHTTP means the backend answered with a non-2xx JSON body.
	CodeHTTP Code = "HTTP_ERROR"

	// CodeUnexpectedFormat means the body was not JSON where JSON was expected.
	CodeUnexpectedFormat Code = "UNEXPECTED_FORMAT"

	// CodeDecode means the body claimed to be JSON but did not decode.
	CodeDecode Code = "DECODE_ERROR"
)

const (
	msgNetwork          = "could not reach the server"
	msgUnexpectedFormat = "unexpected server format"
)

// Error is returned for every failed backend call.
type Error struct {
	Code   Code
	Status int
	Method string
	Path   string
	// Detail is the user-facing message reported by the backend, if any.
	Detail string
	Err    error
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s: %s", e.Method, e.Path, e.Code)
	if e.Status != 0 {
		fmt.Fprintf(&b, " (status %d)", e.Status)
	}
	if e.Detail != "" {
		fmt.Fprintf(&b, ": %s", e.Detail)
	} else if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// IsStatus reports whether err is an HTTP error with the given status.
func IsStatus(err error, status int) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// Message turns err into the string shown to the user. The backend's detail
// wins; format and network failures get fixed wording; anything else gets
// fallback.
func Message(err error, fallback string) string {
	if err == nil {
		return ""
	}
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return fallback
	}
	switch {
	case apiErr.Detail != "":
		return apiErr.Detail
	case apiErr.Code == CodeNetwork:
		return msgNetwork
	case apiErr.Code == CodeUnexpectedFormat:
		return msgUnexpectedFormat
	default:
		return fallback
	}
}

// errorBody matches both `{"detail": "text"}` and the validation form
// `{"detail": [{"msg": "text"}, ...]}`.
type errorBody struct {
	Detail json.RawMessage `json:"detail"`
}

func parseDetail(body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil || len(eb.Detail) == 0 {
		return ""
	}

	var text string
	if err := json.Unmarshal(eb.Detail, &text); err == nil {
		return text
	}

	var items []struct {
		Msg string `json:"msg"`
	}
	if err := json.Unmarshal(eb.Detail, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			if it.Msg != "" {
				msgs = append(msgs, it.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}
