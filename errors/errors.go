// Copyright 2026 The Lattice Authors
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

package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType is implemented by errors that declare an HTTP status.
type ErrorType interface {
	HTTPStatus() int
}

// ErrorCode is implemented by errors that declare a machine-readable code.
type ErrorCode interface {
	Code() string
}

// ErrorDetails is implemented by errors that carry structured details.
type ErrorDetails interface {
	Details() any
}

// HTTPError is a structured error with an HTTP status, a machine-readable
// code, and optional details. It implements [ErrorType], [ErrorCode], and
// [ErrorDetails] so generic renderers can discover its fields without
// depending on the concrete type.
type HTTPError struct {
	Status  int
	Kind    string
	Message string
	Meta    any
	cause   error
}

// New creates an [HTTPError] with the given status, code, and message.
//
// Example:
//
//	err := errors.New(http.StatusNotFound, "NOT_FOUND", "user 42 not found")
func New(status int, code, message string) *HTTPError {
	return &HTTPError{Status: status, Kind: code, Message: message}
}

// Newf creates an [HTTPError] with a formatted message.
func Newf(status int, code, format string, args ...any) *HTTPError {
	return New(status, code, fmt.Sprintf(format, args...))
}

// Wrap annotates an existing error with a status and code. The wrapped error
// remains reachable through errors.Is/errors.As.
func Wrap(err error, status int, code string) *HTTPError {
	if err == nil {
		return nil
	}
	return &HTTPError{Status: status, Kind: code, Message: err.Error(), cause: err}
}

// WithDetails attaches structured details and returns the error for chaining.
func (e *HTTPError) WithDetails(details any) *HTTPError {
	e.Meta = details
	return e
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	return e.Message
}

// Unwrap exposes the wrapped cause, if any.
func (e *HTTPError) Unwrap() error {
	return e.cause
}

// HTTPStatus implements [ErrorType].
func (e *HTTPError) HTTPStatus() int {
	return e.Status
}

// Code implements [ErrorCode].
func (e *HTTPError) Code() string {
	return e.Kind
}

// Details implements [ErrorDetails].
func (e *HTTPError) Details() any {
	return e.Meta
}

// StatusOf resolves the HTTP status an error declares via [ErrorType]
// anywhere in its chain, defaulting to 500.
func StatusOf(err error) int {
	var typed ErrorType
	if errors.As(err, &typed) {
		return typed.HTTPStatus()
	}
	return http.StatusInternalServerError
}

// CodeOf resolves the machine-readable code an error declares via
// [ErrorCode] anywhere in its chain, or "" if none.
func CodeOf(err error) string {
	var coded ErrorCode
	if errors.As(err, &coded) {
		return coded.Code()
	}
	return ""
}

// DetailsOf resolves structured details an error declares via
// [ErrorDetails] anywhere in its chain, or nil if none.
func DetailsOf(err error) any {
	var detailed ErrorDetails
	if errors.As(err, &detailed) {
		return detailed.Details()
	}
	return nil
}
