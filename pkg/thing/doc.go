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

// Package thing defines the item ("thing") model shared by every record type:
// the (id, version-stamp) key, dirty tracking, the XML codec contract, and the
// registry that maps type ids to codecs.
//
// A concrete item type embeds Base and implements ParseXML and WriteXML:
//
//	type Weight struct {
//	    thing.Base
//	    kg float64
//	}
//
//	func (w *Weight) SetKilograms(v float64) { w.kg = v; w.MarkDirty() }
//
// Items move through a small lifecycle. A new item has no key (Unsaved). A
// successful create binds a key (Clean). Any setter marks it Dirty. A
// successful update rebinds the key and clears the dirty flag. A successful
// remove makes it Removed, after which no further writes are accepted.
package thing
