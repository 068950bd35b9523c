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
	"time"
)

// dateXML is the service's structured date.
type dateXML struct {
	Y int `xml:"y"`
	M int `xml:"m"`
	D int `xml:"d"`
}

// timeXML is the service's structured time of day.
type timeXML struct {
	H int  `xml:"h"`
	M int  `xml:"m"`
	S *int `xml:"s,omitempty"`
}

// dateTimeXML is used for <when> and other precise timestamps.
type dateTimeXML struct {
	Date dateXML  `xml:"date"`
	Time *timeXML `xml:"time,omitempty"`
}

func newDateTimeXML(t time.Time) *dateTimeXML {
	sec := t.Second()
	return &dateTimeXML{
		Date: dateXML{Y: t.Year(), M: int(t.Month()), D: t.Day()},
		Time: &timeXML{H: t.Hour(), M: t.Minute(), S: &sec},
	}
}

func (d *dateTimeXML) toTime() time.Time {
	if d == nil {
		return time.Time{}
	}
	h, m, s := 0, 0, 0
	if d.Time != nil {
		h, m = d.Time.H, d.Time.M
		if d.Time.S != nil {
			s = *d.Time.S
		}
	}
	return time.Date(d.Date.Y, time.Month(d.Date.M), d.Date.D, h, m, s, 0, time.UTC)
}

func newDateXML(t time.Time) *dateXML {
	if t.IsZero() {
		return nil
	}
	return &dateXML{Y: t.Year(), M: int(t.Month()), D: t.Day()}
}

func (d *dateXML) toTime() time.Time {
	if d == nil {
		return time.Time{}
	}
	return time.Date(d.Y, time.Month(d.M), d.D, 0, 0, 0, 0, time.UTC)
}

// TimeOfDay is a wall-clock time without a date.
type TimeOfDay struct {
	Hour   int
	Minute int
}

func (t TimeOfDay) toXML() timeXML { return timeXML{H: t.Hour, M: t.Minute} }

func timeOfDayFromXML(x timeXML) TimeOfDay { return TimeOfDay{Hour: x.H, Minute: x.M} }

// CodedValue is a coded entry from one of the service vocabularies.
type CodedValue struct {
	Value   string
	Family  string
	Type    string
	Version string
}

// CodableValue is free text with optional vocabulary codes.
type CodableValue struct {
	Text  string
	Codes []CodedValue
}

type codedValueXML struct {
	Value   string `xml:"value"`
	Family  string `xml:"family,omitempty"`
	Type    string `xml:"type"`
	Version string `xml:"version,omitempty"`
}

type codableValueXML struct {
	Text string          `xml:"text"`
	Code []codedValueXML `xml:"code,omitempty"`
}

func newCodableValueXML(v *CodableValue) *codableValueXML {
	if v == nil {
		return nil
	}
	x := &codableValueXML{Text: v.Text}
	for _, c := range v.Codes {
		x.Code = append(x.Code, codedValueXML(c))
	}
	return x
}

func (x *codableValueXML) toValue() *CodableValue {
	if x == nil {
		return nil
	}
	v := &CodableValue{Text: x.Text}
	for _, c := range x.Code {
		v.Codes = append(v.Codes, CodedValue(c))
	}
	return v
}

func dateOnly(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
