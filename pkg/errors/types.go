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

// Package errors defines the typed errors returned by the healthvault SDK.
//
// Callers classify failures with errors.As:
//
//	var svcErr *errors.ServiceError
//	if errors.As(err, &svcErr) && svcErr.Code == errors.StatusInvalidRecord {
//	    // the record id is not known to the service
//	}
package errors

import (
	"fmt"
)

// ValidationError is returned for invalid arguments detected before any
// request is dispatched: empty record ids, nil items, items missing a key.
type ValidationError struct {
	// Field identifies which argument failed validation
	Field string

	// Message is the human-readable error description
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("invalid argument %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("invalid argument: %s", e.Message)
}

// ErrorType implements ErrorClassifier.
func (e *ValidationError) ErrorType() string { return "validation" }

// IsRetryable implements ErrorClassifier.
func (e *ValidationError) IsRetryable() bool { return false }

// NotFoundError represents a missing local resource such as a secret or a
// cached thing. A thing missing on the service is not an error; see GetThing.
type NotFoundError struct {
	// Resource is the type of resource (e.g., "thing", "secret", "type")
	Resource string

	// ID is the identifier that was not found
	ID string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ConfigError represents configuration problems. It is always raised before
// any network activity.
type ConfigError struct {
	// Key is the configuration key that has the problem (e.g., "transport.compression")
	Key string

	// Reason explains what's wrong with the configuration
	Reason string

	// Cause is the underlying error (e.g., file read error, parse error)
	Cause error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("config error at %s: %s", e.Key, e.Reason)
	}
	return fmt.Sprintf("config error: %s", e.Reason)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// ErrorType implements ErrorClassifier.
func (e *ConfigError) ErrorType() string { return "config" }

// IsRetryable implements ErrorClassifier.
func (e *ConfigError) IsRetryable() bool { return false }

// ProtocolError is a violation of the request/response contract detected on
// the client, such as a query without filters or a PutThings response whose
// key count does not match the submitted items.
type ProtocolError struct {
	// Method is the service method involved, if any
	Method string

	// Message describes the violation
	Message string

	// Cause is a sentinel callers can match with errors.Is
	Cause error
}

// Error implements the error interface.
func (e *ProtocolError) Error() string {
	if e.Method != "" {
		return fmt.Sprintf("protocol error in %s: %s", e.Method, e.Message)
	}
	return fmt.Sprintf("protocol error: %s", e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *ProtocolError) Unwrap() error {
	return e.Cause
}

// ErrorType implements ErrorClassifier.
func (e *ProtocolError) ErrorType() string { return "protocol" }

// IsRetryable implements ErrorClassifier.
func (e *ProtocolError) IsRetryable() bool { return false }

// SerializationError is raised at the codec boundary: a mandatory field unset
// on write, or a missing root element on parse.
type SerializationError struct {
	// Type is the item type (or envelope part) being encoded or decoded
	Type string

	// Message describes the failure
	Message string

	// Cause is the underlying XML error, if any
	Cause error
}

// Error implements the error interface.
func (e *SerializationError) Error() string {
	msg := fmt.Sprintf("serialization error in %s: %s", e.Type, e.Message)
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *SerializationError) Unwrap() error {
	return e.Cause
}

// ErrorType implements ErrorClassifier.
func (e *SerializationError) ErrorType() string { return "serialization" }

// IsRetryable implements ErrorClassifier.
func (e *SerializationError) IsRetryable() bool { return false }

// TooManyResultsError is returned by GetThing when the service returns more
// than one item for a single thing id.
type TooManyResultsError struct {
	ThingID string
	Count   int
}

// Error implements the error interface.
func (e *TooManyResultsError) Error() string {
	return fmt.Sprintf("expected at most one thing for id %s, got %d", e.ThingID, e.Count)
}

// ErrorType implements ErrorClassifier.
func (e *TooManyResultsError) ErrorType() string { return "too_many_results" }

// IsRetryable implements ErrorClassifier.
func (e *TooManyResultsError) IsRetryable() bool { return false }
