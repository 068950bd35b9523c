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

package thing

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"

	hverrors "github.com/tombee/healthvault/pkg/errors"
)

// Raw holds a thing whose type id has no registered codec. The data XML is
// kept as received and written back unchanged, so unknown types survive a
// read-modify-write cycle.
type Raw struct {
	Base

	// Data is the undecoded content of <data-xml>.
	Data []byte
}

// NewRaw returns an empty raw thing of the given type.
func NewRaw(typeID string) *Raw {
	return &Raw{Base: NewBase(typeID)}
}

// ParseXML implements Thing.
func (r *Raw) ParseXML(data []byte) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return &hverrors.SerializationError{Type: "raw " + r.TypeID(), Message: "empty data-xml"}
	}
	r.Data = append(r.Data[:0], data...)
	return nil
}

// WriteXML implements Thing.
func (r *Raw) WriteXML(enc *xml.Encoder) error {
	if len(bytes.TrimSpace(r.Data)) == 0 {
		return Required("raw "+r.TypeID(), "data")
	}
	dec := xml.NewDecoder(bytes.NewReader(r.Data))
	for {
		tok, err := dec.RawToken()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return &hverrors.SerializationError{Type: "raw " + r.TypeID(), Message: "malformed data-xml", Cause: err}
		}
		switch t := tok.(type) {
		case xml.ProcInst, xml.Directive:
			continue
		case xml.StartElement:
			t = t.Copy()
			t.Name = literalName(t.Name)
			for i := range t.Attr {
				t.Attr[i].Name = literalName(t.Attr[i].Name)
			}
			tok = t
		case xml.EndElement:
			tok = xml.EndElement{Name: literalName(t.Name)}
		default:
			tok = xml.CopyToken(tok)
		}
		if err := enc.EncodeToken(tok); err != nil {
			return &hverrors.SerializationError{Type: "raw " + r.TypeID(), Message: "encoding", Cause: err}
		}
	}
}

// literalName folds an unresolved prefix back into the local name so the
// encoder writes the name as it appeared and adds no namespace declarations.
func literalName(n xml.Name) xml.Name {
	if n.Space == "" {
		return n
	}
	return xml.Name{Local: n.Space + ":" + n.Local}
}
