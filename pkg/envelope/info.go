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

// Package envelope builds the XML sent to the HealthVault platform and parses
// what comes back.
//
// The Build* functions produce the contents of a request's <info> element.
// Request wraps that content in the signed <wc-request:request> envelope.
// ParseResponse and the Parse* helpers turn the reply into status, typed
// items and keys.
package envelope

import (
	"bytes"
	"encoding/xml"
	"fmt"

	hverrors "github.com/tombee/healthvault/pkg/errors"
	"github.com/tombee/healthvault/pkg/query"
	"github.com/tombee/healthvault/pkg/thing"
)

const effDateFormat = "2006-01-02T15:04:05Z"

// BuildGetThingsInfo writes one <group> per query, in order. Every query
// needs at least one filter.
func BuildGetThingsInfo(queries []*query.ThingQuery) ([]byte, error) {
	if len(queries) == 0 {
		return nil, &hverrors.ProtocolError{Method: "GetThings", Message: "no queries supplied", Cause: query.ErrEmptyFilter}
	}
	var buf bytes.Buffer
	enc := xml.NewEncoder(&buf)
	for _, q := range queries {
		if err := q.WriteXML(enc); err != nil {
			return nil, err
		}
	}
	if err := enc.Flush(); err != nil {
		return nil, &hverrors.SerializationError{Type: "info", Message: "flushing", Cause: err}
	}
	return buf.Bytes(), nil
}

// BuildPutThingsInfo writes one <thing> per item. With onlyChanged set, items
// that are neither dirty nor new to this client are left out. The items that
// were written are returned in order; when none were, info is empty and the
// caller should not send the request.
func BuildPutThingsInfo(items []thing.Thing, onlyChanged bool) (info []byte, written []thing.Thing, err error) {
	var buf bytes.Buffer
	for i, item := range items {
		if thing.IsNil(item) {
			return nil, nil, &hverrors.ValidationError{Field: fmt.Sprintf("items[%d]", i), Message: "item is nil"}
		}
		if onlyChanged && !item.ThingBase().NeedsUpdate() {
			continue
		}
		data, err := writeThing(item)
		if err != nil {
			return nil, nil, fmt.Errorf("items[%d] (type %s): %w", i, item.ThingBase().TypeID(), err)
		}
		buf.Write(data)
		written = append(written, item)
	}
	return buf.Bytes(), written, nil
}

// BuildRemoveThingsInfo writes one <thing-id> per item. Every item must carry
// a key.
func BuildRemoveThingsInfo(items []thing.Thing) ([]byte, error) {
	var buf bytes.Buffer
	enc := xml.NewEncoder(&buf)
	for i, item := range items {
		field := fmt.Sprintf("items[%d]", i)
		if thing.IsNil(item) {
			return nil, &hverrors.ValidationError{Field: field, Message: "item is nil"}
		}
		key, ok := item.ThingBase().Key()
		if !ok || key.IsZero() {
			return nil, &hverrors.ValidationError{Field: field, Message: "item has no key"}
		}
		if err := enc.Encode(keyXML{ID: key.ID, VersionStamp: key.VersionStamp}); err != nil {
			return nil, &hverrors.SerializationError{Type: "thing-id", Message: "encoding", Cause: err}
		}
	}
	if err := enc.Flush(); err != nil {
		return nil, &hverrors.SerializationError{Type: "info", Message: "flushing", Cause: err}
	}
	return buf.Bytes(), nil
}

type keyXML struct {
	XMLName      xml.Name `xml:"thing-id"`
	VersionStamp string   `xml:"version-stamp,attr,omitempty"`
	ID           string   `xml:",chardata"`
}

func element(name string) xml.StartElement {
	return xml.StartElement{Name: xml.Name{Local: name}}
}

// writeThing renders a single <thing>. Each item gets its own encoder so a
// codec failure never leaves a half-written element in the output.
func writeThing(item thing.Thing) ([]byte, error) {
	b := item.ThingBase()
	md := b.Metadata()

	var buf bytes.Buffer
	enc := xml.NewEncoder(&buf)
	root := element("thing")
	if err := enc.EncodeToken(root); err != nil {
		return nil, err
	}
	if key, ok := b.Key(); ok && !key.IsZero() {
		if err := enc.Encode(keyXML{ID: key.ID, VersionStamp: key.VersionStamp}); err != nil {
			return nil, err
		}
	}
	if err := enc.EncodeElement(b.TypeID(), element("type-id")); err != nil {
		return nil, err
	}
	state := md.State
	if state == "" {
		state = thing.StateActive
	}
	if err := enc.EncodeElement(string(state), element("thing-state")); err != nil {
		return nil, err
	}
	if err := enc.EncodeElement(md.Flags, element("flags")); err != nil {
		return nil, err
	}
	if !md.EffectiveDate.IsZero() {
		if err := enc.EncodeElement(md.EffectiveDate.UTC().Format(effDateFormat), element("eff-date")); err != nil {
			return nil, err
		}
	}
	data := element("data-xml")
	if err := enc.EncodeToken(data); err != nil {
		return nil, err
	}
	if err := item.WriteXML(enc); err != nil {
		return nil, err
	}
	if err := enc.EncodeToken(data.End()); err != nil {
		return nil, err
	}
	if err := enc.EncodeToken(root.End()); err != nil {
		return nil, err
	}
	if err := enc.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
