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
	"sort"
	"strings"
)

// Sections is a bitmask of the parts of a thing requested from, or populated
// by, the service.
type Sections uint32

const (
	SectionCore Sections = 1 << iota
	SectionAudits
	SectionBlobPayload
	SectionEffectivePermissions
	SectionTags
	SectionSignature
	SectionXML

	SectionNone    Sections = 0
	SectionDefault          = SectionCore | SectionXML
	SectionAll              = SectionCore | SectionAudits | SectionBlobPayload |
		SectionEffectivePermissions | SectionTags | SectionSignature | SectionXML
)

// sectionNames holds the wire names used in <section> elements. SectionXML
// is requested with a separate <xml/> element and has no section name.
var sectionNames = map[Sections]string{
	SectionCore:                 "core",
	SectionAudits:               "audits",
	SectionBlobPayload:          "blobpayload",
	SectionEffectivePermissions: "effectivepermissions",
	SectionTags:                 "tags",
	SectionSignature:            "digitalsignatures",
}

// Has reports whether all bits of other are set.
func (s Sections) Has(other Sections) bool {
	return s&other == other
}

// Names returns the <section> names for the set bits, sorted.
func (s Sections) Names() []string {
	var names []string
	for bit, name := range sectionNames {
		if s.Has(bit) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// String lists the set sections, including "xml".
func (s Sections) String() string {
	names := s.Names()
	if s.Has(SectionXML) {
		names = append(names, "xml")
	}
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ",")
}

// ParseSections converts section names (as accepted on the command line) to a
// bitmask. "xml" and "all" are accepted in addition to the wire names.
func ParseSections(names []string) (Sections, error) {
	var s Sections
	for _, raw := range names {
		name := strings.ToLower(strings.TrimSpace(raw))
		switch name {
		case "":
			continue
		case "xml":
			s |= SectionXML
			continue
		case "all":
			s |= SectionAll
			continue
		}
		found := false
		for bit, wire := range sectionNames {
			if wire == name {
				s |= bit
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("unknown section %q", raw)
		}
	}
	return s, nil
}
