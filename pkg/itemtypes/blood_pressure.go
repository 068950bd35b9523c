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
	"time"

	"github.com/tombee/healthvault/pkg/thing"
)

// BloodPressure is a single blood pressure reading.
type BloodPressure struct {
	thing.Base

	when               time.Time
	systolic           int
	diastolic          int
	pulse              *int
	irregularHeartbeat *bool
}

type bloodPressureXML struct {
	XMLName            xml.Name     `xml:"blood-pressure"`
	When               *dateTimeXML `xml:"when"`
	Systolic           int          `xml:"systolic"`
	Diastolic          int          `xml:"diastolic"`
	Pulse              *int         `xml:"pulse,omitempty"`
	IrregularHeartbeat *bool        `xml:"irregular-heartbeat,omitempty"`
}

// NewBloodPressure creates an unsaved blood pressure reading.
func NewBloodPressure() *BloodPressure {
	return &BloodPressure{Base: thing.NewBase(BloodPressureTypeID)}
}

func (b *BloodPressure) When() time.Time { return b.when }

func (b *BloodPressure) SetWhen(t time.Time) {
	b.when = t.UTC().Truncate(time.Second)
	b.MarkDirty()
}

func (b *BloodPressure) Systolic() int  { return b.systolic }
func (b *BloodPressure) Diastolic() int { return b.diastolic }

// SetReading sets systolic and diastolic pressure in mmHg.
func (b *BloodPressure) SetReading(systolic, diastolic int) {
	b.systolic = systolic
	b.diastolic = diastolic
	b.MarkDirty()
}

func (b *BloodPressure) Pulse() *int { return b.pulse }

func (b *BloodPressure) SetPulse(bpm int) {
	b.pulse = &bpm
	b.MarkDirty()
}

func (b *BloodPressure) IrregularHeartbeat() *bool { return b.irregularHeartbeat }

func (b *BloodPressure) SetIrregularHeartbeat(v bool) {
	b.irregularHeartbeat = &v
	b.MarkDirty()
}

// ParseXML implements thing.Thing.
func (b *BloodPressure) ParseXML(data []byte) error {
	var x bloodPressureXML
	if err := thing.DecodeRoot(data, "blood-pressure", &x); err != nil {
		return err
	}
	b.when = x.When.toTime()
	b.systolic = x.Systolic
	b.diastolic = x.Diastolic
	b.pulse = x.Pulse
	b.irregularHeartbeat = x.IrregularHeartbeat
	return nil
}

// WriteXML implements thing.Thing.
func (b *BloodPressure) WriteXML(enc *xml.Encoder) error {
	switch {
	case b.when.IsZero():
		return thing.Required("blood-pressure", "when")
	case b.systolic <= 0:
		return thing.Required("blood-pressure", "systolic")
	case b.diastolic <= 0:
		return thing.Required("blood-pressure", "diastolic")
	}
	return thing.EncodeRoot(enc, "blood-pressure", bloodPressureXML{
		When:               newDateTimeXML(b.when),
		Systolic:           b.systolic,
		Diastolic:          b.diastolic,
		Pulse:              b.pulse,
		IrregularHeartbeat: b.irregularHeartbeat,
	})
}
