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

// Package prompt collects interactive input for hvctl commands.
package prompt

import (
	"context"
	"errors"
	"strings"
)

// ErrNonInteractive is returned when a prompt is needed but none can be shown.
var ErrNonInteractive = errors.New("cannot prompt in non-interactive mode")

// Prompter collects input from the user.
type Prompter interface {
	// PromptString collects a string input from the user
	PromptString(ctx context.Context, name, desc string, def string) (string, error)

	// PromptSecret collects a value without echoing it
	PromptSecret(ctx context.Context, name, desc string) (string, error)

	// PromptEnum presents a list of options and collects the user's selection
	PromptEnum(ctx context.Context, name, desc string, options []string, def string) (string, error)

	// IsInteractive returns true if prompts can be displayed
	IsInteractive() bool
}

// ValidateRequired rejects blank answers.
func ValidateRequired(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("a value is required")
	}
	return nil
}
