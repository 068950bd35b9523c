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

package envelope

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	hverrors "github.com/tombee/healthvault/pkg/errors"
	"github.com/tombee/healthvault/pkg/thing"
)

// Response is a parsed platform reply.
type Response struct {
	Code    hverrors.StatusCode
	Message string

	// Info is the inner XML of the <info> element. HasInfo distinguishes an
	// empty element from a missing one.
	Info    []byte
	HasInfo bool
}

// Err converts a non-zero status into a *errors.ServiceError attributed to
// method.
func (r *Response) Err(method string) error {
	if r.Code == hverrors.StatusOK {
		return nil
	}
	return &hverrors.ServiceError{Code: r.Code, Message: r.Message, Method: method}
}

// RequireInfo returns the info content or a serialization error when the
// reply carries none.
func (r *Response) RequireInfo() ([]byte, error) {
	if !r.HasInfo {
		return nil, &hverrors.SerializationError{Type: "response", Message: "missing info element"}
	}
	return r.Info, nil
}

type responseXML struct {
	Status struct {
		Code  int `xml:"code"`
		Error struct {
			Message string `xml:"message"`
		} `xml:"error"`
	} `xml:"status"`
	Info *struct {
		Inner []byte `xml:",innerxml"`
	} `xml:"info"`
}

// ParseResponse decodes a reply envelope. The root element must be
// <response>.
func ParseResponse(data []byte) (*Response, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil, &hverrors.SerializationError{Type: "response", Message: "missing root element <response>"}
		}
		if err != nil {
			return nil, &hverrors.SerializationError{Type: "response", Message: "malformed xml", Cause: err}
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if start.Name.Local != "response" {
			return nil, &hverrors.SerializationError{
				Type:    "response",
				Message: fmt.Sprintf("unexpected root element <%s>", start.Name.Local),
			}
		}
		var x responseXML
		if err := dec.DecodeElement(&x, &start); err != nil {
			return nil, &hverrors.SerializationError{Type: "response", Message: "decoding", Cause: err}
		}
		resp := &Response{
			Code:    hverrors.StatusCode(x.Status.Code),
			Message: strings.TrimSpace(x.Status.Error.Message),
		}
		if x.Info != nil {
			resp.Info = x.Info.Inner
			resp.HasInfo = true
		}
		return resp, nil
	}
}

// ResultGroup holds the items returned for one query.
type ResultGroup struct {
	Name   string
	Things []thing.Thing

	// Unprocessed lists keys the platform matched but did not return in
	// full, typically because the group hit its max-full limit.
	Unprocessed []thing.Key
}

type groupsXML struct {
	Groups []struct {
		Name        string     `xml:"name,attr"`
		Things      []thingXML `xml:"thing"`
		Unprocessed []keyXML   `xml:"unprocessed-thing-key-info>thing-id"`
	} `xml:"group"`
}

type thingXML struct {
	ThingID *keyXML `xml:"thing-id"`
	TypeID  struct {
		ID string `xml:",chardata"`
	} `xml:"type-id"`
	State   string `xml:"thing-state"`
	Flags   int    `xml:"flags"`
	EffDate string `xml:"eff-date"`
	DataXML *struct {
		Inner []byte `xml:",innerxml"`
	} `xml:"data-xml"`
}

// ParseThingGroups decodes the <group> elements of a GetThings reply. Items
// are materialized through registry; unregistered type ids become *thing.Raw.
// Group i answers query i.
func ParseThingGroups(info []byte, registry *thing.Registry) ([]ResultGroup, error) {
	var x groupsXML
	if err := unmarshalInfo(info, &x); err != nil {
		return nil, err
	}
	groups := make([]ResultGroup, 0, len(x.Groups))
	for gi, g := range x.Groups {
		rg := ResultGroup{Name: g.Name}
		for ti, tx := range g.Things {
			item, err := decodeThing(tx, registry)
			if err != nil {
				return nil, fmt.Errorf("group %d thing %d: %w", gi, ti, err)
			}
			rg.Things = append(rg.Things, item)
		}
		for _, k := range g.Unprocessed {
			rg.Unprocessed = append(rg.Unprocessed, thing.Key{ID: strings.TrimSpace(k.ID), VersionStamp: k.VersionStamp})
		}
		groups = append(groups, rg)
	}
	return groups, nil
}

func decodeThing(tx thingXML, registry *thing.Registry) (thing.Thing, error) {
	typeID := strings.TrimSpace(tx.TypeID.ID)
	item := registry.New(typeID)

	md := thing.Metadata{
		State:    thing.StateActive,
		Flags:    tx.Flags,
		Sections: thing.SectionCore,
	}
	if s := strings.TrimSpace(tx.State); s != "" {
		md.State = thing.State(s)
	}
	if tx.EffDate != "" {
		t, err := parseEffDate(tx.EffDate)
		if err != nil {
			return nil, &hverrors.SerializationError{Type: registry.Name(typeID), Message: "invalid eff-date", Cause: err}
		}
		md.EffectiveDate = t
	}
	if tx.DataXML != nil && len(bytes.TrimSpace(tx.DataXML.Inner)) > 0 {
		if err := item.ParseXML(tx.DataXML.Inner); err != nil {
			return nil, &hverrors.SerializationError{Type: registry.Name(typeID), Message: "decoding data-xml", Cause: err}
		}
		md.Sections |= thing.SectionXML
	}

	b := item.ThingBase()
	b.SetMetadata(md)
	if tx.ThingID != nil {
		b.BindKey(thing.Key{ID: strings.TrimSpace(tx.ThingID.ID), VersionStamp: tx.ThingID.VersionStamp})
	}
	b.ClearDirtyFlags()
	return item, nil
}

var effDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
}

func parseEffDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	var firstErr error
	for _, layout := range effDateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t.UTC(), nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}

type keysXML struct {
	Keys []keyXML `xml:"thing-id"`
}

// ParseThingKeys returns the <thing-id> elements of a PutThings reply in
// document order.
func ParseThingKeys(info []byte) ([]thing.Key, error) {
	var x keysXML
	if err := unmarshalInfo(info, &x); err != nil {
		return nil, err
	}
	keys := make([]thing.Key, 0, len(x.Keys))
	for _, k := range x.Keys {
		keys = append(keys, thing.Key{ID: strings.TrimSpace(k.ID), VersionStamp: k.VersionStamp})
	}
	return keys, nil
}

func unmarshalInfo(info []byte, v interface{}) error {
	wrapped := make([]byte, 0, len(info)+13)
	wrapped = append(wrapped, "<info>"...)
	wrapped = append(wrapped, info...)
	wrapped = append(wrapped, "</info>"...)
	if err := xml.Unmarshal(wrapped, v); err != nil {
		return &hverrors.SerializationError{Type: "info", Message: "decoding", Cause: err}
	}
	return nil
}
