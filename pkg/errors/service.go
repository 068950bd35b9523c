// Copyright 2025 Tom Barlow
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

import "fmt"

// StatusCode is the numeric status carried in a response envelope.
type StatusCode int

// Status codes reported by the service. Zero is success.
const (
	StatusOK                     StatusCode = 0
	StatusFailed                 StatusCode = 1
	StatusBadHTTP                StatusCode = 2
	StatusInvalidXML             StatusCode = 3
	StatusInvalidSignature       StatusCode = 4
	StatusAccessDenied           StatusCode = 5
	StatusInvalidPerson          StatusCode = 6
	StatusInvalidRecord          StatusCode = 7
	StatusInvalidFilter          StatusCode = 8
	StatusInvalidThing           StatusCode = 9
	StatusVersionStampMismatch   StatusCode = 10
	StatusMoreThanOneThing       StatusCode = 11
	StatusInvalidApplication     StatusCode = 12
	StatusCredentialTokenExpired StatusCode = 13
	StatusSessionTokenExpired    StatusCode = 65
	StatusRequestTimedOut        StatusCode = 66
)

var statusNames = map[StatusCode]string{
	StatusOK:                     "ok",
	StatusFailed:                 "failed",
	StatusBadHTTP:                "bad http",
	StatusInvalidXML:             "invalid xml",
	StatusInvalidSignature:       "invalid signature",
	StatusAccessDenied:           "access denied",
	StatusInvalidPerson:          "invalid person",
	StatusInvalidRecord:          "invalid record",
	StatusInvalidFilter:          "invalid filter",
	StatusInvalidThing:           "invalid thing",
	StatusVersionStampMismatch:   "version stamp mismatch",
	StatusMoreThanOneThing:       "more than one thing",
	StatusInvalidApplication:     "invalid application",
	StatusCredentialTokenExpired: "credential token expired",
	StatusSessionTokenExpired:    "session token expired",
	StatusRequestTimedOut:        "request timed out",
}

// String returns the service's name for the status code.
func (c StatusCode) String() string {
	if name, ok := statusNames[c]; ok {
		return name
	}
	return fmt.Sprintf("status %d", int(c))
}

// ServiceError is the structured error envelope returned by the service,
// keyed by status code.
type ServiceError struct {
	// Code is the service status code
	Code StatusCode

	// Message is the error message from the envelope
	Message string

	// Method is the service method that failed
	Method string
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	msg := fmt.Sprintf("service error (%d %s)", int(e.Code), e.Code)
	if e.Method != "" {
		msg = fmt.Sprintf("%s in %s", msg, e.Method)
	}
	if e.Message != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Message)
	}
	return msg
}

// Is matches another *ServiceError with the same code, so callers can write
// errors.Is(err, &ServiceError{Code: StatusInvalidPerson}).
func (e *ServiceError) Is(target error) bool {
	t, ok := target.(*ServiceError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// ErrorType implements ErrorClassifier.
func (e *ServiceError) ErrorType() string { return "service" }

// IsRetryable implements ErrorClassifier. Only an expired session token can
// succeed on a retry, after the token has been refreshed.
func (e *ServiceError) IsRetryable() bool {
	return e.Code == StatusSessionTokenExpired
}

// ErrorClassifier defines methods for programmatic error handling.
type ErrorClassifier interface {
	error

	// ErrorType returns a string identifying the error category.
	ErrorType() string

	// IsRetryable returns true if the operation may succeed when repeated.
	IsRetryable() bool
}
