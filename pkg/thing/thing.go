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
	"encoding/xml"
	"reflect"
	"time"
)

// Thing is the contract every item type satisfies.
//
// ParseXML receives the contents of the <data-xml> element and must fail with
// a *errors.SerializationError when the type's root element is absent. Unknown
// child elements are ignored.
//
// WriteXML emits the type's root element and must fail with a
// *errors.SerializationError when a mandatory field is unset. Writing and then
// parsing the same bytes reproduces an equivalent item.
type Thing interface {
	// ThingBase exposes the identity and versioning state. Types get it by
	// embedding Base.
	ThingBase() *Base

	ParseXML(data []byte) error
	WriteXML(enc *xml.Encoder) error
}

// IsNil reports whether t is nil or a nil pointer wrapped in the interface.
func IsNil(t Thing) bool {
	if t == nil {
		return true
	}
	v := reflect.ValueOf(t)
	return v.Kind() == reflect.Ptr && v.IsNil()
}

// State is the service-side state of a thing.
type State string

const (
	StateActive  State = "Active"
	StateDeleted State = "Deleted"
)

// Lifecycle is the client-side state of an item.
type Lifecycle int

const (
	Unsaved Lifecycle = iota
	Clean
	Dirty
	Removed
)

func (l Lifecycle) String() string {
	switch l {
	case Unsaved:
		return "unsaved"
	case Clean:
		return "clean"
	case Dirty:
		return "dirty"
	case Removed:
		return "removed"
	}
	return "unknown"
}

// Metadata is the envelope-level information the service returns alongside a
// thing's data XML.
type Metadata struct {
	State         State
	Flags         int
	EffectiveDate time.Time
	Sections      Sections
}

// Base carries the identity and versioning state of an item. Embed it by
// value in item types and construct it with NewBase.
type Base struct {
	typeID   string
	key      Key
	hasKey   bool
	metadata Metadata

	dirty        bool
	roundTripped bool
	removed      bool
}

// NewBase returns the base for a new, unsaved item of the given type.
func NewBase(typeID string) Base {
	return Base{
		typeID:   typeID,
		metadata: Metadata{State: StateActive, Sections: SectionDefault},
	}
}

// ThingBase implements Thing.
func (b *Base) ThingBase() *Base { return b }

// TypeID returns the item's type identifier.
func (b *Base) TypeID() string { return b.typeID }

// Key returns the key and whether one has been assigned.
func (b *Base) Key() (Key, bool) { return b.key, b.hasKey }

// HasKey reports whether the item has been assigned a key.
func (b *Base) HasKey() bool { return b.hasKey }

// Metadata returns the service-side metadata.
func (b *Base) Metadata() Metadata { return b.metadata }

// SetMetadata replaces the service-side metadata without marking the item
// dirty. Decoders call it when materializing items from a response.
func (b *Base) SetMetadata(m Metadata) { b.metadata = m }

// EffectiveDate returns the date the service uses to order the item.
func (b *Base) EffectiveDate() time.Time { return b.metadata.EffectiveDate }

// SetKey assigns a key the caller already knows, for example one loaded from
// a local store. The item is not considered round-tripped, so the next update
// sends it even when it is not dirty.
func (b *Base) SetKey(k Key) {
	b.key = k
	b.hasKey = !k.IsZero()
	b.roundTripped = false
}

// BindKey records a key returned by the service after a successful write or
// read.
func (b *Base) BindKey(k Key) {
	b.key = k
	b.hasKey = !k.IsZero()
	b.roundTripped = true
}

// MarkDirty flags the item as changed since its last round trip. Setters call
// it.
func (b *Base) MarkDirty() { b.dirty = true }

// IsDirty reports whether the item changed since its last round trip.
func (b *Base) IsDirty() bool { return b.dirty }

// ClearDirtyFlags resets the dirty flag. Only a successful update calls it.
func (b *Base) ClearDirtyFlags() { b.dirty = false }

// IsRoundTripped reports whether the item's key came from the service.
func (b *Base) IsRoundTripped() bool { return b.roundTripped }

// NeedsUpdate reports whether an update must send this item.
func (b *Base) NeedsUpdate() bool { return b.dirty || !b.roundTripped }

// MarkRemoved records a successful remove. The state is terminal.
func (b *Base) MarkRemoved() {
	b.removed = true
	b.metadata.State = StateDeleted
}

// IsRemoved reports whether the item was removed from the service.
func (b *Base) IsRemoved() bool { return b.removed }

// Lifecycle returns the client-side state of the item.
func (b *Base) Lifecycle() Lifecycle {
	switch {
	case b.removed:
		return Removed
	case !b.hasKey:
		return Unsaved
	case b.dirty:
		return Dirty
	default:
		return Clean
	}
}
