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

// Package query builds the filters used by GetThings.
package query

import (
	"encoding/xml"
	"errors"
	"strconv"
	"strings"
	"time"

	hverrors "github.com/tombee/healthvault/pkg/errors"
	"github.com/tombee/healthvault/pkg/thing"
)

// ErrEmptyFilter is the cause of the protocol error returned when a query
// with no type id, thing id or key is dispatched.
var ErrEmptyFilter = errors.New("query has no filters")

// dateFormat is the service's xsd:dateTime representation.
const dateFormat = "2006-01-02T15:04:05Z"

// ThingQuery selects things from a record. At least one of TypeIDs, ThingIDs
// or Keys must be set before the query is sent.
type ThingQuery struct {
	// Name labels the result group. Optional.
	Name string

	TypeIDs  []string
	ThingIDs []string
	Keys     []thing.Key

	// CurrentVersionOnly excludes historical versions.
	CurrentVersionOnly bool

	// Sections selects the parts of each thing returned.
	Sections thing.Sections

	// MaxItems caps the number of things returned. Zero means no cap.
	MaxItems int

	// MaxFullItems caps how many things are returned in full; the rest come
	// back as keys only. Zero means no cap.
	MaxFullItems int

	EffectiveDateMin time.Time
	EffectiveDateMax time.Time
}

// New returns a query for current versions with the default sections.
func New() *ThingQuery {
	return &ThingQuery{
		CurrentVersionOnly: true,
		Sections:           thing.SectionDefault,
	}
}

// ForThingID returns a current-version query for one thing.
func ForThingID(id string) *ThingQuery {
	q := New()
	q.ThingIDs = []string{id}
	return q
}

// ForTypeIDs returns a current-version query for the given types.
func ForTypeIDs(typeIDs ...string) *ThingQuery {
	q := New()
	q.TypeIDs = append([]string(nil), typeIDs...)
	return q
}

// HasFilters reports whether the query selects anything.
func (q *ThingQuery) HasFilters() bool {
	if q == nil {
		return false
	}
	return len(nonEmpty(q.TypeIDs)) > 0 || len(nonEmpty(q.ThingIDs)) > 0 || hasKey(q.Keys)
}

// Validate returns a *errors.ProtocolError wrapping ErrEmptyFilter when the
// query has no filters, and a *errors.ValidationError for inconsistent limits.
func (q *ThingQuery) Validate() error {
	if !q.HasFilters() {
		return &hverrors.ProtocolError{Method: "GetThings", Message: ErrEmptyFilter.Error(), Cause: ErrEmptyFilter}
	}
	if q.MaxItems < 0 || q.MaxFullItems < 0 {
		return &hverrors.ValidationError{Field: "query", Message: "max items must not be negative"}
	}
	if !q.EffectiveDateMin.IsZero() && !q.EffectiveDateMax.IsZero() && q.EffectiveDateMax.Before(q.EffectiveDateMin) {
		return &hverrors.ValidationError{Field: "query", Message: "effective date max is before min"}
	}
	return nil
}

// Clone returns a deep copy of the query.
func (q *ThingQuery) Clone() *ThingQuery {
	c := *q
	c.TypeIDs = append([]string(nil), q.TypeIDs...)
	c.ThingIDs = append([]string(nil), q.ThingIDs...)
	c.Keys = append([]thing.Key(nil), q.Keys...)
	return &c
}

// WithTypeIDs returns a copy whose type filter is replaced by typeIDs.
func (q *ThingQuery) WithTypeIDs(typeIDs ...string) *ThingQuery {
	c := q.Clone()
	c.TypeIDs = append([]string(nil), typeIDs...)
	return c
}

type groupXML struct {
	XMLName            xml.Name   `xml:"group"`
	Name               string     `xml:"name,attr,omitempty"`
	Max                string     `xml:"max,attr,omitempty"`
	MaxFull            string     `xml:"max-full,attr,omitempty"`
	IDs                []string   `xml:"id"`
	Keys               []keyXML   `xml:"key"`
	Filter             *filterXML `xml:"filter,omitempty"`
	Format             formatXML  `xml:"format"`
	CurrentVersionOnly *bool      `xml:"current-version-only,omitempty"`
}

type keyXML struct {
	VersionStamp string `xml:"version-stamp,attr"`
	ID           string `xml:",chardata"`
}

type filterXML struct {
	TypeIDs    []string `xml:"type-id"`
	EffDateMin string   `xml:"eff-date-min,omitempty"`
	EffDateMax string   `xml:"eff-date-max,omitempty"`
}

type formatXML struct {
	Sections []string  `xml:"section"`
	XML      *struct{} `xml:"xml,omitempty"`
}

// WriteXML writes the query as a <group> element. The query must be valid.
func (q *ThingQuery) WriteXML(enc *xml.Encoder) error {
	if err := q.Validate(); err != nil {
		return err
	}
	g := groupXML{Name: q.Name, IDs: nonEmpty(q.ThingIDs)}
	if q.MaxItems > 0 {
		g.Max = strconv.Itoa(q.MaxItems)
	}
	if q.MaxFullItems > 0 {
		g.MaxFull = strconv.Itoa(q.MaxFullItems)
	}
	for _, k := range q.Keys {
		if !k.IsZero() {
			g.Keys = append(g.Keys, keyXML{ID: k.ID, VersionStamp: k.VersionStamp})
		}
	}
	if types := nonEmpty(q.TypeIDs); len(types) > 0 || !q.EffectiveDateMin.IsZero() || !q.EffectiveDateMax.IsZero() {
		g.Filter = &filterXML{TypeIDs: types}
		if !q.EffectiveDateMin.IsZero() {
			g.Filter.EffDateMin = q.EffectiveDateMin.UTC().Format(dateFormat)
		}
		if !q.EffectiveDateMax.IsZero() {
			g.Filter.EffDateMax = q.EffectiveDateMax.UTC().Format(dateFormat)
		}
	}

	sections := q.Sections
	if sections == thing.SectionNone {
		sections = thing.SectionDefault
	}
	g.Format.Sections = sections.Names()
	if sections.Has(thing.SectionXML) {
		g.Format.XML = &struct{}{}
	}
	if q.CurrentVersionOnly {
		v := true
		g.CurrentVersionOnly = &v
	}

	if err := enc.Encode(g); err != nil {
		return &hverrors.SerializationError{Type: "group", Message: "encoding query", Cause: err}
	}
	return nil
}

func nonEmpty(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func hasKey(keys []thing.Key) bool {
	for _, k := range keys {
		if !k.IsZero() {
			return true
		}
	}
	return false
}
