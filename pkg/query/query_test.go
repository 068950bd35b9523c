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

package query

import (
	"bytes"
	"encoding/xml"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	hverrors "github.com/tombee/healthvault/pkg/errors"
	"github.com/tombee/healthvault/pkg/thing"
)

func encode(t *testing.T, q *ThingQuery) string {
	t.Helper()
	var buf bytes.Buffer
	enc := xml.NewEncoder(&buf)
	require.NoError(t, q.WriteXML(enc))
	require.NoError(t, enc.Flush())
	return buf.String()
}

func TestValidate_EmptyFilter(t *testing.T) {
	tests := []struct {
		name string
		q    *ThingQuery
	}{
		{"nil", nil},
		{"new", New()},
		{"blank ids", &ThingQuery{ThingIDs: []string{" "}, TypeIDs: []string{""}}},
		{"zero key", &ThingQuery{Keys: []thing.Key{{}}}},
		{"dates only", &ThingQuery{EffectiveDateMin: time.Now()}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.q.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrEmptyFilter))

			var protoErr *hverrors.ProtocolError
			assert.ErrorAs(t, err, &protoErr)
		})
	}
}

func TestValidate_Limits(t *testing.T) {
	q := ForTypeIDs("t")
	q.MaxItems = -1
	var valErr *hverrors.ValidationError
	assert.ErrorAs(t, q.Validate(), &valErr)

	q = ForTypeIDs("t")
	q.EffectiveDateMin = time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	q.EffectiveDateMax = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.ErrorAs(t, q.Validate(), &valErr)
}

func TestWriteXML_ThingID(t *testing.T) {
	got := encode(t, ForThingID("abc"))
	assert.Equal(t,
		`<group><id>abc</id><format><section>core</section><xml></xml></format><current-version-only>true</current-version-only></group>`,
		got)
}

func TestWriteXML_TypeFilterAndLimits(t *testing.T) {
	q := ForTypeIDs("type-1", "type-2")
	q.Name = "weights"
	q.MaxItems = 10
	q.MaxFullItems = 5
	q.Sections = thing.SectionCore | thing.SectionAudits
	q.CurrentVersionOnly = false
	q.EffectiveDateMin = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	q.Keys = []thing.Key{{ID: "k1", VersionStamp: "v1"}}

	got := encode(t, q)
	assert.Contains(t, got, `<group name="weights" max="10" max-full="5">`)
	assert.Contains(t, got, `<key version-stamp="v1">k1</key>`)
	assert.Contains(t, got, `<filter><type-id>type-1</type-id><type-id>type-2</type-id><eff-date-min>2024-01-01T00:00:00Z</eff-date-min></filter>`)
	assert.Contains(t, got, `<format><section>audits</section><section>core</section></format>`)
	assert.NotContains(t, got, "current-version-only")
	assert.NotContains(t, got, "<xml>")
}

func TestWriteXML_RejectsEmptyQuery(t *testing.T) {
	var buf bytes.Buffer
	err := New().WriteXML(xml.NewEncoder(&buf))
	assert.ErrorIs(t, err, ErrEmptyFilter)
	assert.Zero(t, buf.Len())
}

func TestWithTypeIDs_ReplacesAndCopies(t *testing.T) {
	q := ForTypeIDs("old")
	q.ThingIDs = []string{"id"}

	c := q.WithTypeIDs("new")
	assert.Equal(t, []string{"new"}, c.TypeIDs)
	assert.Equal(t, []string{"old"}, q.TypeIDs, "original must be untouched")

	c.ThingIDs[0] = "changed"
	assert.Equal(t, "id", q.ThingIDs[0])
}
