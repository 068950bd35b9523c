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

// DecodeRoot finds the first element named root in data and decodes it into
// v. Sibling elements such as <common> and unknown children are skipped.
func DecodeRoot(data []byte, root string, v interface{}) error {
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return &hverrors.SerializationError{Type: root, Message: "missing root element <" + root + ">"}
		}
		if err != nil {
			return &hverrors.SerializationError{Type: root, Message: "malformed xml", Cause: err}
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if start.Name.Local != root {
			if err := dec.Skip(); err != nil {
				return &hverrors.SerializationError{Type: root, Message: "malformed xml", Cause: err}
			}
			continue
		}
		if err := dec.DecodeElement(v, &start); err != nil {
			return &hverrors.SerializationError{Type: root, Message: "decoding <" + root + ">", Cause: err}
		}
		return nil
	}
}

// EncodeRoot writes v with the encoder, wrapping failures as serialization
// errors for the given type name.
func EncodeRoot(enc *xml.Encoder, typeName string, v interface{}) error {
	if err := enc.Encode(v); err != nil {
		return &hverrors.SerializationError{Type: typeName, Message: "encoding", Cause: err}
	}
	return nil
}

// Required returns a serialization error naming the unset mandatory field.
func Required(typeName, field string) error {
	return &hverrors.SerializationError{Type: typeName, Message: "mandatory field " + field + " is not set"}
}

// Marshal returns the data XML of t as its codec writes it.
func Marshal(t Thing) ([]byte, error) {
	var buf bytes.Buffer
	enc := xml.NewEncoder(&buf)
	if err := t.WriteXML(enc); err != nil {
		return nil, err
	}
	if err := enc.Flush(); err != nil {
		return nil, &hverrors.SerializationError{Type: t.ThingBase().TypeID(), Message: "flushing", Cause: err}
	}
	return buf.Bytes(), nil
}
