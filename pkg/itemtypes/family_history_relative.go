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

package itemtypes

import (
	"encoding/xml"
	"strings"
	"time"

	"github.com/tombee/healthvault/pkg/thing"
)

// FamilyHistoryRelative describes one relative for family history records.
type FamilyHistoryRelative struct {
	thing.Base

	name           string
	relationship   CodableValue
	dateOfBirth    time.Time
	dateOfDeath    time.Time
	regionOfOrigin *CodableValue
}

type familyHistoryRelativeXML struct {
	XMLName        xml.Name         `xml:"family-history-relative"`
	RelativeName   *relativeNameXML `xml:"relative-name,omitempty"`
	Relationship   *codableValueXML `xml:"relationship"`
	DateOfBirth    *dateXML         `xml:"date-of-birth,omitempty"`
	DateOfDeath    *dateXML         `xml:"date-of-death,omitempty"`
	RegionOfOrigin *codableValueXML `xml:"region-of-origin,omitempty"`
}

type relativeNameXML struct {
	Full string `xml:"full"`
}

// NewFamilyHistoryRelative creates an unsaved relative.
func NewFamilyHistoryRelative() *FamilyHistoryRelative {
	return &FamilyHistoryRelative{Base: thing.NewBase(FamilyHistoryRelativeTypeID)}
}

func (f *FamilyHistoryRelative) Name() string { return f.name }

func (f *FamilyHistoryRelative) SetName(v string) {
	f.name = v
	f.MarkDirty()
}

func (f *FamilyHistoryRelative) Relationship() CodableValue { return f.relationship }

func (f *FamilyHistoryRelative) SetRelationship(v CodableValue) {
	f.relationship = v
	f.MarkDirty()
}

func (f *FamilyHistoryRelative) DateOfBirth() time.Time { return f.dateOfBirth }

func (f *FamilyHistoryRelative) SetDateOfBirth(t time.Time) {
	f.dateOfBirth = dateOnly(t)
	f.MarkDirty()
}

func (f *FamilyHistoryRelative) DateOfDeath() time.Time { return f.dateOfDeath }

func (f *FamilyHistoryRelative) SetDateOfDeath(t time.Time) {
	f.dateOfDeath = dateOnly(t)
	f.MarkDirty()
}

func (f *FamilyHistoryRelative) RegionOfOrigin() *CodableValue { return f.regionOfOrigin }

func (f *FamilyHistoryRelative) SetRegionOfOrigin(v *CodableValue) {
	f.regionOfOrigin = v
	f.MarkDirty()
}

// ParseXML implements thing.Thing.
func (f *FamilyHistoryRelative) ParseXML(data []byte) error {
	var x familyHistoryRelativeXML
	if err := thing.DecodeRoot(data, "family-history-relative", &x); err != nil {
		return err
	}
	f.name = ""
	if x.RelativeName != nil {
		f.name = x.RelativeName.Full
	}
	f.relationship = CodableValue{}
	if v := x.Relationship.toValue(); v != nil {
		f.relationship = *v
	}
	f.dateOfBirth = x.DateOfBirth.toTime()
	f.dateOfDeath = x.DateOfDeath.toTime()
	f.regionOfOrigin = x.RegionOfOrigin.toValue()
	return nil
}

// WriteXML implements thing.Thing.
func (f *FamilyHistoryRelative) WriteXML(enc *xml.Encoder) error {
	if strings.TrimSpace(f.relationship.Text) == "" {
		return thing.Required("family-history-relative", "relationship")
	}
	x := familyHistoryRelativeXML{
		Relationship:   newCodableValueXML(&f.relationship),
		DateOfBirth:    newDateXML(f.dateOfBirth),
		DateOfDeath:    newDateXML(f.dateOfDeath),
		RegionOfOrigin: newCodableValueXML(f.regionOfOrigin),
	}
	if f.name != "" {
		x.RelativeName = &relativeNameXML{Full: f.name}
	}
	return thing.EncodeRoot(enc, "family-history-relative", x)
}
