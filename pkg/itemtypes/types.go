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

// Package itemtypes contains concrete item types built on the thing codec
// contract, and the registry that maps their type ids.
package itemtypes

import (
	"sync"

	"github.com/tombee/healthvault/pkg/thing"
)

// Type ids as published by the service.
const (
	WeightTypeID                = "3d34d87e-7fc1-4153-800f-f56592cb0d17"
	BloodPressureTypeID         = "ca3c57f4-f4c1-4e15-be67-0a3caf5414ed"
	MedicationFillTypeID        = "167ecf6b-bb54-43f9-a473-507b334907e0"
	SleepJournalPMTypeID        = "031f5706-7f1a-11db-ad56-7bd355d89593"
	FamilyHistoryRelativeTypeID = "3b3e6b16-eb69-483c-8d7e-dfe116ae6092"
)

// Register adds every type in this package to r.
func Register(r *thing.Registry) {
	r.Register(WeightTypeID, "Weight", func() thing.Thing { return NewWeight() })
	r.Register(BloodPressureTypeID, "Blood Pressure", func() thing.Thing { return NewBloodPressure() })
	r.Register(MedicationFillTypeID, "Medication Fill", func() thing.Thing { return NewMedicationFill() })
	r.Register(SleepJournalPMTypeID, "Sleep Journal PM", func() thing.Thing { return NewSleepJournalPM() })
	r.Register(FamilyHistoryRelativeTypeID, "Family History Relative", func() thing.Thing { return NewFamilyHistoryRelative() })
}

var (
	defaultOnce     sync.Once
	defaultRegistry *thing.Registry
)

// DefaultRegistry returns a process-wide registry with every type in this
// package registered. It is populated on first use and read-only afterwards.
func DefaultRegistry() *thing.Registry {
	defaultOnce.Do(func() {
		defaultRegistry = thing.NewRegistry()
		Register(defaultRegistry)
	})
	return defaultRegistry
}
