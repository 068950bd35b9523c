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
	"github.com/charmbracelet/lipgloss"
)

// Level selects the marker printed in front of a status line.
type Level int

const (
	LevelOK Level = iota
	LevelWarn
	LevelError
)

type marker struct {
	symbol string
	style  lipgloss.Style
}

var (
	markers = map[Level]marker{
		LevelOK:    {"✓", lipgloss.NewStyle().Foreground(lipgloss.Color("42"))},
		LevelWarn:  {"⚠", lipgloss.NewStyle().Foreground(lipgloss.Color("214"))},
		LevelError: {"✗", lipgloss.NewStyle().Foreground(lipgloss.Color("196"))},
	}

	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

// RenderStatus prefixes msg with the coloured marker for level. Colour is
// dropped automatically when output is not a terminal.
func RenderStatus(level Level, msg string) string {
	m, ok := markers[level]
	if !ok {
		return msg
	}
	return m.style.Render(m.symbol) + " " + msg
}

func RenderOK(msg string) string    { return RenderStatus(LevelOK, msg) }
func RenderWarn(msg string) string  { return RenderStatus(LevelWarn, msg) }
func RenderError(msg string) string { return RenderStatus(LevelError, msg) }

// RenderLabel dims a label such as "Expires:".
func RenderLabel(label string) string {
	return labelStyle.Render(label)
}

// RenderField renders "label value" with the label dimmed.
func RenderField(label, value string) string {
	return RenderLabel(label) + " " + value
}
