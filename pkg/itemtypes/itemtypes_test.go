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
	"bytes"
	"encoding/xml"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	hverrors "github.com/tombee/healthvault/pkg/errors"
	"github.com/tombee/healthvault/pkg/thing"
)

func write(t *testing.T, item thing.Thing) []byte {
	t.Helper()
	var buf bytes.Buffer
	enc := xml.NewEncoder(&buf)
	require.NoError(t, item.WriteXML(enc))
	require.NoError(t, enc.Flush())
	return buf.Bytes()
}

var when = time.Date(2024, time.March, 14, 21, 30, 5, 0, time.UTC)

func TestRoundTrip(t *testing.T) {
	weight := NewWeight()
	weight.SetWhen(when)
	weight.SetKilograms(81.25)
	weight.SetDisplay(&DisplayValue{Value: 179.1, Units: "lb"})

	bp := NewBloodPressure()
	bp.SetWhen(when)
	bp.SetReading(120, 80)
	bp.SetPulse(62)
	bp.SetIrregularHeartbeat(false)

	fill := NewMedicationFill()
	fill.SetName(CodableValue{Text: "Atorvastatin 20mg", Codes: []CodedValue{{Value: "617312", Family: "RxNorm", Type: "rxnorm", Version: "1"}}})
	fill.SetDateFilled(when)
	fill.SetDaysSupply(30)
	fill.SetNextRefillDate(when.AddDate(0, 1, 0))
	fill.SetRefillsLeft(2)
	fill.SetPharmacy("Main Street Pharmacy")
	fill.SetPrescriptionNumber("RX-1001")
	fill.SetLotNumber("L55")

	sleep := NewSleepJournalPM()
	sleep.SetWhen(when)
	sleep.AddCaffeine(TimeOfDay{Hour: 8, Minute: 15})
	sleep.AddCaffeine(TimeOfDay{Hour: 14, Minute: 0})
	sleep.AddAlcohol(TimeOfDay{Hour: 19, Minute: 30})
	sleep.AddNap(Nap{Start: TimeOfDay{Hour: 13, Minute: 0}, Minutes: 25})
	sleep.AddExercise(TimeOfDay{Hour: 7, Minute: 0})
	sleep.SetSleepiness(SleepinessFairlyAlert)

	relative := NewFamilyHistoryRelative()
	relative.SetName("Ada Example")
	relative.SetRelationship(CodableValue{Text: "Mother", Codes: []CodedValue{{Value: "MTH", Type: "relationship-types"}}})
	relative.SetDateOfBirth(time.Date(1950, time.June, 1, 0, 0, 0, 0, time.UTC))
	relative.SetDateOfDeath(time.Date(2020, time.January, 2, 0, 0, 0, 0, time.UTC))
	relative.SetRegionOfOrigin(&CodableValue{Text: "Northern Europe"})

	tests := []struct {
		name string
		in   thing.Thing
	}{
		{"weight", weight},
		{"blood pressure", bp},
		{"medication fill", fill},
		{"sleep journal pm", sleep},
		{"family history relative", relative},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := write(t, tt.in)

			out := DefaultRegistry().New(tt.in.ThingBase().TypeID())
			require.NoError(t, out.ParseXML(data))

			// Identity state is not part of the payload.
			reflect.ValueOf(out).Elem().FieldByName("Base").Set(reflect.ValueOf(*tt.in.ThingBase()))
			assert.Equal(t, tt.in, out)
		})
	}
}

func TestMandatoryFields(t *testing.T) {
	weightNoValue := NewWeight()
	weightNoValue.SetWhen(when)

	bpNoDiastolic := NewBloodPressure()
	bpNoDiastolic.SetWhen(when)
	bpNoDiastolic.SetReading(120, 0)

	sleepNoSleepiness := NewSleepJournalPM()
	sleepNoSleepiness.SetWhen(when)

	tests := []struct {
		name  string
		item  thing.Thing
		field string
	}{
		{"weight when", NewWeight(), "when"},
		{"weight value", weightNoValue, "value"},
		{"blood pressure diastolic", bpNoDiastolic, "diastolic"},
		{"medication fill name", NewMedicationFill(), "name"},
		{"sleep pm sleepiness", sleepNoSleepiness, "sleepiness"},
		{"relative relationship", NewFamilyHistoryRelative(), "relationship"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := tt.item.WriteXML(xml.NewEncoder(&buf))

			var serErr *hverrors.SerializationError
			require.ErrorAs(t, err, &serErr)
			assert.Contains(t, serErr.Message, tt.field)
		})
	}
}

func TestParseXML_MissingRoot(t *testing.T) {
	for _, id := range DefaultRegistry().TypeIDs() {
		item := DefaultRegistry().New(id)
		err := item.ParseXML([]byte(`<common><note>n</note></common>`))

		var serErr *hverrors.SerializationError
		assert.ErrorAs(t, err, &serErr, "type %s", DefaultRegistry().Name(id))
	}
}

func TestParseXML_IgnoresUnknownElements(t *testing.T) {
	data := []byte(`<weight>
		<when><date><y>2024</y><m>3</m><d>14</d></date></when>
		<future-field>ignored</future-field>
		<value><kg>70</kg><precision>2</precision></value>
	</weight><common/>`)

	w := NewWeight()
	require.NoError(t, w.ParseXML(data))
	assert.Equal(t, 70.0, w.Kilograms())
	assert.Equal(t, time.Date(2024, time.March, 14, 0, 0, 0, 0, time.UTC), w.When())
	assert.False(t, w.IsDirty(), "parsing must not mark the item dirty")
}

func TestSettersMarkDirty(t *testing.T) {
	w := NewWeight()
	w.BindKey(thing.Key{ID: "1", VersionStamp: "v1"})
	require.Equal(t, thing.Clean, w.Lifecycle())

	w.SetKilograms(72)
	assert.Equal(t, thing.Dirty, w.Lifecycle())
}

func TestDefaultRegistry(t *testing.T) {
	r := DefaultRegistry()
	assert.Same(t, r, DefaultRegistry())
	assert.Len(t, r.TypeIDs(), 5)

	id, ok := r.TypeIDFor(reflect.TypeOf(&Weight{}))
	require.True(t, ok)
	assert.Equal(t, WeightTypeID, id)

	id, ok = r.LookupName("sleep journal pm")
	require.True(t, ok)
	assert.Equal(t, SleepJournalPMTypeID, id)
}
