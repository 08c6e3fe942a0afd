// Copyright 2017 Vector Creations Ltd
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
//
// Modifications copyright (C) 2020 Finogeeks Co., Ltd

package jsonerror

import (
	"fmt"
	"net/http"
)

// MatrixError represents the "standard error response" in Matrix.
// http://matrix.org/docs/spec/client_server/r0.2.0.html#api-standards
type MatrixError struct {
	ErrCode string `json:"errcode"`
	Err     string `json:"error"`
}

func (e *MatrixError) Error() string {
	return fmt.Sprintf("%s: %s", e.ErrCode, e.Err)
}

// Unknown is an unexpected error
func Unknown(msg string) *MatrixError {
	return &MatrixError{"M_UNKNOWN", msg}
}

// Forbidden is an error when the client tries to access a resource
// they are not allowed to access.
func Forbidden(msg string) *MatrixError {
	return &MatrixError{"M_FORBIDDEN", msg}
}

// Unauthorized means the request carried no valid authentication.
func Unauthorized(msg string) *MatrixError {
	return &MatrixError{"M_UNAUTHORIZED", msg}
}

// BadJSON is an error when the client supplies malformed JSON.
func BadJSON(msg string) *MatrixError {
	return &MatrixError{"M_BAD_JSON", msg}
}

// NotJSON is an error when the client supplies something that is not JSON
// to a JSON endpoint.
func NotJSON(msg string) *MatrixError {
	return &MatrixError{"M_NOT_JSON", msg}
}

// NotFound is an error when the client tries to access an unknown resource.
func NotFound(msg string) *MatrixError {
	return &MatrixError{"M_NOT_FOUND", msg}
}

// MissingParam is an error that is returned when a parameter was incorrect,
// traditionally with cases where a non-optional parameter is missing.
func MissingParam(msg string) *MatrixError {
	return &MatrixError{"M_MISSING_PARAM", msg}
}

// InvalidParam is an error that is returned when a parameter was invalid,
// traditionally with cases where a parameter could not be parsed.
func InvalidParam(msg string) *MatrixError {
	return &MatrixError{"M_INVALID_PARAM", msg}
}

// TooLarge is an error when the request body exceeds the server limit.
func TooLarge(msg string) *MatrixError {
	return &MatrixError{"M_TOO_LARGE", msg}
}

// Unrecognized is returned for a method the server does not serve on this path.
func Unrecognized(msg string) *MatrixError {
	return &MatrixError{"M_UNRECOGNIZED", msg}
}

// LimitExceededError is a rate-limiting error.
type LimitExceededError struct {
	MatrixError
	RetryAfterMS int64 `json:"retry_after_ms,omitempty"`
}

// LimitExceeded is an error when the client tries to send events too quickly.
func LimitExceeded(msg string, retryAfterMS int64) *LimitExceededError {
	return &LimitExceededError{
		MatrixError:  MatrixError{"M_LIMIT_EXCEEDED", msg},
		RetryAfterMS: retryAfterMS,
	}
}

// StatusCode maps well known error codes to the HTTP status they travel with.
func StatusCode(errCode string) int {
	switch errCode {
	case "M_FORBIDDEN":
		return http.StatusForbidden
	case "M_UNAUTHORIZED":
		return http.StatusUnauthorized
	case "M_NOT_FOUND":
		return http.StatusNotFound
	case "M_LIMIT_EXCEEDED":
		return http.StatusTooManyRequests
	case "M_UNRECOGNIZED":
		return http.StatusMethodNotAllowed
	case "M_TOO_LARGE":
		return http.StatusRequestEntityTooLarge
	case "M_BAD_JSON", "M_NOT_JSON", "M_MISSING_PARAM", "M_INVALID_PARAM":
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
