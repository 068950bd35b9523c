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

// MedicationFill records a prescription being filled at a pharmacy.
type MedicationFill struct {
	thing.Base

	name               CodableValue
	dateFilled         time.Time
	daysSupply         *int
	nextRefillDate     time.Time
	refillsLeft        *int
	pharmacy           string
	prescriptionNumber string
	lotNumber          string
}

type medicationFillXML struct {
	XMLName            xml.Name         `xml:"medication-fill"`
	Name               *codableValueXML `xml:"name"`
	DateFilled         *dateTimeXML     `xml:"date-filled,omitempty"`
	DaysSupply         *int             `xml:"days-supply,omitempty"`
	NextRefillDate     *dateXML         `xml:"next-refill-date,omitempty"`
	RefillsLeft        *int             `xml:"refills-left,omitempty"`
	Pharmacy           *pharmacyXML     `xml:"pharmacy,omitempty"`
	PrescriptionNumber string           `xml:"prescription-number,omitempty"`
	LotNumber          string           `xml:"lot-number,omitempty"`
}

type pharmacyXML struct {
	Name string `xml:"name"`
}

// NewMedicationFill creates an unsaved medication fill.
func NewMedicationFill() *MedicationFill {
	return &MedicationFill{Base: thing.NewBase(MedicationFillTypeID)}
}

func (m *MedicationFill) Name() CodableValue { return m.name }

func (m *MedicationFill) SetName(v CodableValue) {
	m.name = v
	m.MarkDirty()
}

func (m *MedicationFill) DateFilled() time.Time { return m.dateFilled }

func (m *MedicationFill) SetDateFilled(t time.Time) {
	m.dateFilled = t.UTC().Truncate(time.Second)
	m.MarkDirty()
}

func (m *MedicationFill) DaysSupply() *int { return m.daysSupply }

func (m *MedicationFill) SetDaysSupply(days int) {
	m.daysSupply = &days
	m.MarkDirty()
}

func (m *MedicationFill) NextRefillDate() time.Time { return m.nextRefillDate }

func (m *MedicationFill) SetNextRefillDate(t time.Time) {
	m.nextRefillDate = dateOnly(t)
	m.MarkDirty()
}

func (m *MedicationFill) RefillsLeft() *int { return m.refillsLeft }

func (m *MedicationFill) SetRefillsLeft(n int) {
	m.refillsLeft = &n
	m.MarkDirty()
}

func (m *MedicationFill) Pharmacy() string { return m.pharmacy }

func (m *MedicationFill) SetPharmacy(name string) {
	m.pharmacy = name
	m.MarkDirty()
}

func (m *MedicationFill) PrescriptionNumber() string { return m.prescriptionNumber }

func (m *MedicationFill) SetPrescriptionNumber(v string) {
	m.prescriptionNumber = v
	m.MarkDirty()
}

func (m *MedicationFill) LotNumber() string { return m.lotNumber }

func (m *MedicationFill) SetLotNumber(v string) {
	m.lotNumber = v
	m.MarkDirty()
}

// ParseXML implements thing.Thing.
func (m *MedicationFill) ParseXML(data []byte) error {
	var x medicationFillXML
	if err := thing.DecodeRoot(data, "medication-fill", &x); err != nil {
		return err
	}
	m.name = CodableValue{}
	if v := x.Name.toValue(); v != nil {
		m.name = *v
	}
	m.dateFilled = time.Time{}
	if x.DateFilled != nil {
		m.dateFilled = x.DateFilled.toTime()
	}
	m.daysSupply = x.DaysSupply
	m.nextRefillDate = x.NextRefillDate.toTime()
	m.refillsLeft = x.RefillsLeft
	m.pharmacy = ""
	if x.Pharmacy != nil {
		m.pharmacy = x.Pharmacy.Name
	}
	m.prescriptionNumber = x.PrescriptionNumber
	m.lotNumber = x.LotNumber
	return nil
}

// WriteXML implements thing.Thing.
func (m *MedicationFill) WriteXML(enc *xml.Encoder) error {
	if strings.TrimSpace(m.name.Text) == "" {
		return thing.Required("medication-fill", "name")
	}
	x := medicationFillXML{
		Name:               newCodableValueXML(&m.name),
		DaysSupply:         m.daysSupply,
		NextRefillDate:     newDateXML(m.nextRefillDate),
		RefillsLeft:        m.refillsLeft,
		PrescriptionNumber: m.prescriptionNumber,
		LotNumber:          m.lotNumber,
	}
	if !m.dateFilled.IsZero() {
		x.DateFilled = newDateTimeXML(m.dateFilled)
	}
	if m.pharmacy != "" {
		x.Pharmacy = &pharmacyXML{Name: m.pharmacy}
	}
	return thing.EncodeRoot(enc, "medication-fill", x)
}
