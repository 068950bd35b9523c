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

package prompt

import (
	"context"
	"fmt"
)

// MockPrompter answers prompts from a fixed list, in order. When the list
// runs out the default is returned.
type MockPrompter struct {
	responses    []string
	currentIndex int
	interactive  bool
	callLog      []string
}

// NewMockPrompter creates a mock prompter.
func NewMockPrompter(interactive bool, responses ...string) *MockPrompter {
	return &MockPrompter{
		responses:   responses,
		interactive: interactive,
	}
}

func (mp *MockPrompter) next(call, def string) (string, error) {
	mp.callLog = append(mp.callLog, call)
	if !mp.interactive {
		return "", ErrNonInteractive
	}
	if mp.currentIndex >= len(mp.responses) {
		return def, nil
	}
	resp := mp.responses[mp.currentIndex]
	mp.currentIndex++
	return resp, nil
}

func (mp *MockPrompter) PromptString(ctx context.Context, name, desc string, def string) (string, error) {
	return mp.next(fmt.Sprintf("PromptString(%s)", name), def)
}

func (mp *MockPrompter) PromptSecret(ctx context.Context, name, desc string) (string, error) {
	return mp.next(fmt.Sprintf("PromptSecret(%s)", name), "")
}

func (mp *MockPrompter) PromptEnum(ctx context.Context, name, desc string, options []string, def string) (string, error) {
	v, err := mp.next(fmt.Sprintf("PromptEnum(%s)", name), def)
	if err != nil {
		return "", err
	}
	for _, o := range options {
		if o == v {
			return v, nil
		}
	}
	return "", fmt.Errorf("%q is not one of %v", v, options)
}

func (mp *MockPrompter) IsInteractive() bool {
	return mp.interactive
}

// CallLog returns the prompts shown, in order.
func (mp *MockPrompter) CallLog() []string {
	return mp.callLog
}
