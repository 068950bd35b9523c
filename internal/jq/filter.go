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

// Package jq filters hvctl JSON output with jq expressions.
package jq

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/itchyny/gojq"
)

// DefaultTimeout bounds a single filter run.
const DefaultTimeout = time.Second

// Filter is a compiled jq expression.
type Filter struct {
	expr    string
	code    *gojq.Code
	timeout time.Duration
}

// Compile parses and compiles expr.
func Compile(expr string) (*Filter, error) {
	query, err := gojq.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid jq expression %q: %w", expr, err)
	}
	code, err := gojq.Compile(query)
	if err != nil {
		return nil, fmt.Errorf("jq compilation failed: %w", err)
	}
	return &Filter{expr: expr, code: code, timeout: DefaultTimeout}, nil
}

// Run applies the filter to v and returns every value it emits. v is
// converted to plain JSON values first so struct tags are honored.
func (f *Filter) Run(ctx context.Context, v interface{}) ([]interface{}, error) {
	input, err := toJSONValue(v)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	var results []interface{}
	iter := f.code.RunWithContext(ctx, input)
	for {
		out, ok := iter.Next()
		if !ok {
			break
		}
		if err, isErr := out.(error); isErr {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("jq %q: execution timeout after %v", f.expr, f.timeout)
			}
			return nil, fmt.Errorf("jq %q: %w", f.expr, err)
		}
		results = append(results, out)
	}
	return results, nil
}

// Write runs the filter and writes each result as indented JSON.
func (f *Filter) Write(ctx context.Context, w io.Writer, v interface{}) error {
	results, err := f.Run(ctx, v)
	if err != nil {
		return err
	}
	for _, r := range results {
		if err := encode(w, r); err != nil {
			return err
		}
	}
	return nil
}

func encode(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func toJSONValue(v interface{}) (interface{}, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal output: %w", err)
	}
	var out interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}
