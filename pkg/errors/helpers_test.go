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

package errors_test

import (
	"errors"
	"fmt"
	"testing"

	hverrors "github.com/tombee/healthvault/pkg/errors"
)

func TestWrap(t *testing.T) {
	if hverrors.Wrap(nil, "context") != nil {
		t.Error("Wrap(nil) should return nil")
	}

	base := &hverrors.ProtocolError{Method: "PutThings", Message: "key count mismatch"}
	err := hverrors.Wrap(base, "create things")
	if err.Error() != "create things: protocol error in PutThings: key count mismatch" {
		t.Errorf("unexpected message %q", err.Error())
	}

	var protoErr *hverrors.ProtocolError
	if !hverrors.As(err, &protoErr) {
		t.Error("As should find the wrapped ProtocolError")
	}
}

func TestWrapf(t *testing.T) {
	if hverrors.Wrapf(nil, "thing %d", 1) != nil {
		t.Error("Wrapf(nil) should return nil")
	}

	base := errors.New("boom")
	err := hverrors.Wrapf(base, "thing %d", 3)
	if err.Error() != "thing 3: boom" {
		t.Errorf("unexpected message %q", err.Error())
	}
	if !hverrors.Is(err, base) {
		t.Error("Is should match the wrapped error")
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{fmt.Errorf("outer: %w", &hverrors.ValidationError{Message: "x"}), "validation"},
		{&hverrors.ServiceError{Code: hverrors.StatusFailed}, "service"},
		{hverrors.New("plain"), "unknown"},
	}

	for _, tt := range tests {
		if got := hverrors.Classify(tt.err); got != tt.want {
			t.Errorf("Classify(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}
