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
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
)

// Factory creates an empty item of one type.
type Factory func() Thing

type registration struct {
	name    string
	factory Factory
	goType  reflect.Type
}

// Registry maps type ids to item codecs. It is populated at start-up and
// read concurrently afterwards.
type Registry struct {
	mu     sync.RWMutex
	byID   map[string]registration
	byType map[reflect.Type]string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byID:   make(map[string]registration),
		byType: make(map[reflect.Type]string),
	}
}

// Register adds a codec for typeID. Registering the same type id or Go type
// twice is a programming error and panics.
func (r *Registry) Register(typeID, name string, factory Factory) {
	if typeID == "" || factory == nil {
		panic("thing: Register requires a type id and factory")
	}
	goType := reflect.TypeOf(factory())

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[typeID]; exists {
		panic(fmt.Sprintf("thing: type id %s registered twice", typeID))
	}
	if _, exists := r.byType[goType]; exists {
		panic(fmt.Sprintf("thing: go type %v registered twice", goType))
	}
	r.byID[typeID] = registration{name: name, factory: factory, goType: goType}
	r.byType[goType] = typeID
}

// New returns an empty item for typeID, or a *Raw when the type id is not
// registered.
func (r *Registry) New(typeID string) Thing {
	r.mu.RLock()
	reg, ok := r.byID[typeID]
	r.mu.RUnlock()
	if !ok {
		return NewRaw(typeID)
	}
	return reg.factory()
}

// IsRegistered reports whether typeID has a codec.
func (r *Registry) IsRegistered(typeID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byID[typeID]
	return ok
}

// TypeIDFor returns the type id registered for a Go type such as
// reflect.TypeOf(&Weight{}).
func (r *Registry) TypeIDFor(t reflect.Type) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byType[t]
	return id, ok
}

// TypeIDOf returns the type id of an item: the registration for its Go type
// when there is one, otherwise the id carried in its Base.
func (r *Registry) TypeIDOf(t Thing) string {
	if id, ok := r.TypeIDFor(reflect.TypeOf(t)); ok {
		return id
	}
	return t.ThingBase().TypeID()
}

// Name returns the registered display name for typeID, or the id itself.
func (r *Registry) Name(typeID string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if reg, ok := r.byID[typeID]; ok {
		return reg.name
	}
	return typeID
}

// LookupName returns the type id registered under a display name,
// ignoring case.
func (r *Registry) LookupName(name string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for id, reg := range r.byID {
		if strings.EqualFold(reg.name, name) {
			return id, true
		}
	}
	return "", false
}

// TypeIDs returns all registered type ids, sorted by display name.
func (r *Registry) TypeIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.byID))
	for id := range r.byID {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return r.byID[ids[i]].name < r.byID[ids[j]].name
	})
	return ids
}
