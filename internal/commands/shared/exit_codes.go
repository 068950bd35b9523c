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

package shared

import (
	"errors"
	"fmt"
	"io"
	"os"

	hverrors "github.com/tombee/healthvault/pkg/errors"
)

// Exit codes for hvctl
const (
	ExitSuccess   = 0
	ExitFailed    = 1
	ExitUsage     = 2 // invalid arguments or configuration
	ExitAuth      = 3 // missing or rejected credentials
	ExitService   = 4 // the platform returned an error or an unreadable reply
	ExitTransport = 5 // the platform could not be reached
)

// ExitError is an error that carries an exit code
type ExitError struct {
	Code    int
	Message string
	Cause   error
}

func (e *ExitError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Cause
}

// NewUsageError creates an error for invalid arguments.
func NewUsageError(msg string, cause error) *ExitError {
	return &ExitError{Code: ExitUsage, Message: msg, Cause: cause}
}

// NewAuthError creates an error for missing credentials.
func NewAuthError(msg string, cause error) *ExitError {
	return &ExitError{Code: ExitAuth, Message: msg, Cause: cause}
}

// ExitCodeFor maps an error to an exit code. An ExitError keeps its own
// code; other errors are classified by their type.
func ExitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}

	var svcErr *hverrors.ServiceError
	if errors.As(err, &svcErr) {
		switch svcErr.Code {
		case hverrors.StatusAccessDenied, hverrors.StatusSessionTokenExpired:
			return ExitAuth
		}
		return ExitService
	}

	switch hverrors.Classify(err) {
	case "validation", "config":
		return ExitUsage
	case "auth":
		return ExitAuth
	case "protocol", "serialization", "too_many_results":
		return ExitService
	case "connection", "timeout", "rate_limit", "server", "client", "invalid_request", "cancelled":
		return ExitTransport
	}
	return ExitFailed
}

// HandleExitError prints err and exits with its exit code.
func HandleExitError(err error) {
	if err == nil {
		return
	}
	os.Exit(reportError(os.Stderr, err))
}

func reportError(w io.Writer, err error) int {
	fmt.Fprintln(w, RenderError(err.Error()))
	if hint := suggestionFor(err); hint != "" {
		fmt.Fprintf(w, "\nSuggestion: %s\n", hint)
	}
	return ExitCodeFor(err)
}

func suggestionFor(err error) string {
	switch ExitCodeFor(err) {
	case ExitAuth:
		return "run 'hvctl login' to store a session token"
	case ExitUsage:
		var cfgErr *hverrors.ConfigError
		if errors.As(err, &cfgErr) {
			return "run 'hvctl config init' or set HEALTHVAULT_* environment variables"
		}
	case ExitTransport:
		return "check the platform URL and your network connection"
	}
	return ""
}
