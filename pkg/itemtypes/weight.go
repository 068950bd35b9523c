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

// Weight is a body weight measurement.
type Weight struct {
	thing.Base

	when      time.Time
	kilograms float64
	display   *DisplayValue
}

// DisplayValue is a measurement as the user entered it.
type DisplayValue struct {
	Value float64
	Units string
}

type weightXML struct {
	XMLName xml.Name     `xml:"weight"`
	When    *dateTimeXML `xml:"when"`
	Value   struct {
		Kg      float64          `xml:"kg"`
		Display *displayValueXML `xml:"display,omitempty"`
	} `xml:"value"`
}

type displayValueXML struct {
	Units string  `xml:"units,attr"`
	Value float64 `xml:",chardata"`
}

// NewWeight creates an unsaved weight measurement.
func NewWeight() *Weight {
	return &Weight{Base: thing.NewBase(WeightTypeID)}
}

func (w *Weight) When() time.Time { return w.when }

func (w *Weight) SetWhen(t time.Time) {
	w.when = t.UTC().Truncate(time.Second)
	w.MarkDirty()
}

func (w *Weight) Kilograms() float64 { return w.kilograms }

func (w *Weight) SetKilograms(kg float64) {
	w.kilograms = kg
	w.MarkDirty()
}

func (w *Weight) Display() *DisplayValue { return w.display }

func (w *Weight) SetDisplay(d *DisplayValue) {
	w.display = d
	w.MarkDirty()
}

// ParseXML implements thing.Thing.
func (w *Weight) ParseXML(data []byte) error {
	var x weightXML
	if err := thing.DecodeRoot(data, "weight", &x); err != nil {
		return err
	}
	w.when = x.When.toTime()
	w.kilograms = x.Value.Kg
	w.display = nil
	if x.Value.Display != nil {
		w.display = &DisplayValue{Value: x.Value.Display.Value, Units: x.Value.Display.Units}
	}
	return nil
}

// WriteXML implements thing.Thing.
func (w *Weight) WriteXML(enc *xml.Encoder) error {
	if w.when.IsZero() {
		return thing.Required("weight", "when")
	}
	if w.kilograms <= 0 {
		return thing.Required("weight", "value")
	}
	x := weightXML{When: newDateTimeXML(w.when)}
	x.Value.Kg = w.kilograms
	if w.display != nil {
		x.Value.Display = &displayValueXML{Units: w.display.Units, Value: w.display.Value}
	}
	return thing.EncodeRoot(enc, "weight", x)
}
