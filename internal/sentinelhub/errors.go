// Tessellatus - Satellite Imagery Virtual Data Cube Store
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/tessellatus

package sentinelhub

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/goccy/go-json"
)

// ErrMissingCredentials is returned when a client is constructed without
// OAuth2 credentials.
var ErrMissingCredentials = errors.New(
	"both client_id and client_secret must be provided; " +
		"consider setting environment variables SH_CLIENT_ID and SH_CLIENT_SECRET")

// APIError is a failed response from the remote API. It keeps the status
// line and, when the body was a structured error document, the parsed
// message and detail.
type APIError struct {
	StatusCode int
	Status     string
	Message    string
	Detail     string
}

// apiErrorBody matches the error documents the API returns, either
// {"error": {"status": ..., "reason": ..., "message": ...}} or a flat
// {"message": ...}.
type apiErrorBody struct {
	Error struct {
		Status  int    `json:"status"`
		Reason  string `json:"reason"`
		Message string `json:"message"`
	} `json:"error"`
	Message string `json:"message"`
	Detail  string `json:"detail"`
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("sentinel hub: %s", e.Status)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	return msg
}

// newAPIError builds an APIError from a response status and its body.
func newAPIError(statusCode int, status string, body []byte) *APIError {
	e := &APIError{StatusCode: statusCode, Status: status}
	if status == "" {
		e.Status = fmt.Sprintf("%d %s", statusCode, http.StatusText(statusCode))
	}

	var doc apiErrorBody
	if err := json.Unmarshal(body, &doc); err == nil {
		switch {
		case doc.Error.Message != "":
			e.Message = doc.Error.Message
			e.Detail = doc.Error.Reason
		case doc.Message != "":
			e.Message = doc.Message
			e.Detail = doc.Detail
		}
	}
	return e
}

// ResponseError converts a failed fetch response into an APIError. The
// response body is consulted for a structured error document.
func ResponseError(r *FetchResponse) *APIError {
	return newAPIError(r.StatusCode, "", r.Body)
}

// IsAuthError reports whether err is an APIError with status 401.
func IsAuthError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}
