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

package rpc

import (
	stderrors "errors"
	"net/http"

	"lattice.dev/lattice/errors"
	"lattice.dev/lattice/validation"
)

// Dispatch error codes carried in the error envelope.
const (
	CodeNotFound              = "NOT_FOUND"
	CodeMethodNotAllowed      = "METHOD_NOT_ALLOWED"
	CodeParseError            = "PARSE_ERROR"
	CodeValidationError       = "VALIDATION_ERROR"
	CodeOutputValidationError = "OUTPUT_VALIDATION_ERROR"
	CodeInternalError         = "INTERNAL_ERROR"
)

// Error is a dispatch error with a wire code and transport status. Handlers
// may return *Error directly to control the envelope; any other error is
// classified by [Classify].
type Error struct {
	Message string
	ErrCode string
	Status  int
	// Issues carries validation findings for VALIDATION_ERROR and
	// OUTPUT_VALIDATION_ERROR envelopes.
	Issues []validation.Issue
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// Code implements lattice.dev/lattice/errors.ErrorCode.
func (e *Error) Code() string {
	return e.ErrCode
}

// HTTPStatus implements lattice.dev/lattice/errors.ErrorType.
func (e *Error) HTTPStatus() int {
	if e.Status != 0 {
		return e.Status
	}
	return http.StatusInternalServerError
}

// Errorf is a convenience constructor for handler errors.
func Errorf(status int, code, message string) *Error {
	return &Error{Message: message, ErrCode: code, Status: status}
}

// Classify maps an arbitrary error onto the dispatch taxonomy. *Error passes
// through; *validation.Error becomes a VALIDATION_ERROR with its issues;
// errors declaring a code or status via the duck-typed discovery interfaces
// keep whatever they declared; only errors declaring nothing are masked as
// INTERNAL_ERROR with the message hidden.
func Classify(err error) *Error {
	if rerr, ok := err.(*Error); ok {
		return rerr
	}

	var verr *validation.Error
	if stderrors.As(err, &verr) {
		return &Error{
			Message: verr.Error(),
			ErrCode: CodeValidationError,
			Status:  http.StatusBadRequest,
			Issues:  verr.Issues,
		}
	}

	if code := errors.CodeOf(err); code != "" {
		return &Error{Message: err.Error(), ErrCode: code, Status: errors.StatusOf(err)}
	}

	var typed errors.ErrorType
	if stderrors.As(err, &typed) {
		return &Error{Message: err.Error(), ErrCode: CodeInternalError, Status: typed.HTTPStatus()}
	}

	// Nothing declared: internal details stay out of the envelope.
	return &Error{
		Message: "internal server error",
		ErrCode: CodeInternalError,
		Status:  http.StatusInternalServerError,
	}
}
