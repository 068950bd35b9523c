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

// Sleepiness is how sleepy the person felt during the day.
type Sleepiness int

const (
	SleepinessVerySleepy Sleepiness = iota + 1
	SleepinessSomewhatTired
	SleepinessFairlyAlert
	SleepinessWideAwake
)

// Nap is a daytime sleep period.
type Nap struct {
	Start   TimeOfDay
	Minutes int
}

// SleepJournalPM is the evening entry of a sleep journal.
type SleepJournalPM struct {
	thing.Base

	when       time.Time
	caffeine   []TimeOfDay
	alcohol    []TimeOfDay
	naps       []Nap
	exercise   []TimeOfDay
	sleepiness Sleepiness
}

type sleepJournalPMXML struct {
	XMLName    xml.Name     `xml:"sleep-pm"`
	When       *dateTimeXML `xml:"when"`
	Caffeine   []timeXML    `xml:"caffeine"`
	Alcohol    []timeXML    `xml:"alcohol"`
	Nap        []napXML     `xml:"nap"`
	Exercise   []timeXML    `xml:"exercise"`
	Sleepiness int          `xml:"sleepiness"`
}

type napXML struct {
	Start   timeXML `xml:"start"`
	Minutes int     `xml:"minutes"`
}

// NewSleepJournalPM creates an unsaved evening journal entry.
func NewSleepJournalPM() *SleepJournalPM {
	return &SleepJournalPM{Base: thing.NewBase(SleepJournalPMTypeID)}
}

func (s *SleepJournalPM) When() time.Time { return s.when }

func (s *SleepJournalPM) SetWhen(t time.Time) {
	s.when = t.UTC().Truncate(time.Second)
	s.MarkDirty()
}

func (s *SleepJournalPM) Caffeine() []TimeOfDay { return s.caffeine }

func (s *SleepJournalPM) AddCaffeine(t TimeOfDay) {
	s.caffeine = append(s.caffeine, t)
	s.MarkDirty()
}

func (s *SleepJournalPM) Alcohol() []TimeOfDay { return s.alcohol }

func (s *SleepJournalPM) AddAlcohol(t TimeOfDay) {
	s.alcohol = append(s.alcohol, t)
	s.MarkDirty()
}

func (s *SleepJournalPM) Naps() []Nap { return s.naps }

func (s *SleepJournalPM) AddNap(n Nap) {
	s.naps = append(s.naps, n)
	s.MarkDirty()
}

func (s *SleepJournalPM) Exercise() []TimeOfDay { return s.exercise }

func (s *SleepJournalPM) AddExercise(t TimeOfDay) {
	s.exercise = append(s.exercise, t)
	s.MarkDirty()
}

func (s *SleepJournalPM) Sleepiness() Sleepiness { return s.sleepiness }

func (s *SleepJournalPM) SetSleepiness(v Sleepiness) {
	s.sleepiness = v
	s.MarkDirty()
}

// ParseXML implements thing.Thing.
func (s *SleepJournalPM) ParseXML(data []byte) error {
	var x sleepJournalPMXML
	if err := thing.DecodeRoot(data, "sleep-pm", &x); err != nil {
		return err
	}
	s.when = x.When.toTime()
	s.caffeine = timesFromXML(x.Caffeine)
	s.alcohol = timesFromXML(x.Alcohol)
	s.exercise = timesFromXML(x.Exercise)
	s.naps = nil
	for _, n := range x.Nap {
		s.naps = append(s.naps, Nap{Start: timeOfDayFromXML(n.Start), Minutes: n.Minutes})
	}
	s.sleepiness = Sleepiness(x.Sleepiness)
	return nil
}

// WriteXML implements thing.Thing.
func (s *SleepJournalPM) WriteXML(enc *xml.Encoder) error {
	if s.when.IsZero() {
		return thing.Required("sleep-pm", "when")
	}
	if s.sleepiness < SleepinessVerySleepy || s.sleepiness > SleepinessWideAwake {
		return thing.Required("sleep-pm", "sleepiness")
	}
	x := sleepJournalPMXML{
		When:       newDateTimeXML(s.when),
		Caffeine:   timesToXML(s.caffeine),
		Alcohol:    timesToXML(s.alcohol),
		Exercise:   timesToXML(s.exercise),
		Sleepiness: int(s.sleepiness),
	}
	for _, n := range s.naps {
		x.Nap = append(x.Nap, napXML{Start: n.Start.toXML(), Minutes: n.Minutes})
	}
	return thing.EncodeRoot(enc, "sleep-pm", x)
}

func timesToXML(in []TimeOfDay) []timeXML {
	var out []timeXML
	for _, t := range in {
		out = append(out, t.toXML())
	}
	return out
}

func timesFromXML(in []timeXML) []TimeOfDay {
	var out []TimeOfDay
	for _, t := range in {
		out = append(out, timeOfDayFromXML(t))
	}
	return out
}
