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

package things

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/tombee/healthvault/internal/commands/shared"
	"github.com/tombee/healthvault/pkg/itemtypes"
	"github.com/tombee/healthvault/pkg/thing"
)

type putResponse struct {
	shared.JSONResponse
	RecordID string `json:"record_id"`
	Thing    Row    `json:"thing"`
}

// measurement holds the flags shared by add and update.
type measurement struct {
	when      string
	kg        float64
	systolic  int
	diastolic int
	pulse     int
}

func (m *measurement) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&m.when, "when", "", "Time of the measurement (default now)")
	cmd.Flags().Float64Var(&m.kg, "kg", 0, "Weight in kilograms")
	cmd.Flags().IntVar(&m.systolic, "systolic", 0, "Systolic pressure in mmHg")
	cmd.Flags().IntVar(&m.diastolic, "diastolic", 0, "Diastolic pressure in mmHg")
	cmd.Flags().IntVar(&m.pulse, "pulse", 0, "Pulse in beats per minute")
}

// apply copies the flags the user set onto item. defaultWhen is used when
// --when is not given; zero leaves the time alone.
func (m *measurement) apply(cmd *cobra.Command, item thing.Thing, defaultWhen time.Time) error {
	changed := cmd.Flags().Changed
	when := defaultWhen
	if changed("when") {
		t, err := parseTime("when", m.when)
		if err != nil {
			return err
		}
		when = t
	}

	switch v := item.(type) {
	case *itemtypes.Weight:
		if changed("systolic") || changed("diastolic") || changed("pulse") {
			return shared.NewUsageError("blood pressure flags do not apply to a weight", nil)
		}
		if changed("kg") {
			v.SetKilograms(m.kg)
		}
		if !when.IsZero() {
			v.SetWhen(when)
		}
	case *itemtypes.BloodPressure:
		if changed("kg") {
			return shared.NewUsageError("--kg does not apply to a blood pressure", nil)
		}
		if changed("systolic") || changed("diastolic") {
			sys, dia := v.Systolic(), v.Diastolic()
			if changed("systolic") {
				sys = m.systolic
			}
			if changed("diastolic") {
				dia = m.diastolic
			}
			v.SetReading(sys, dia)
		}
		if changed("pulse") {
			v.SetPulse(m.pulse)
		}
		if !when.IsZero() {
			v.SetWhen(when)
		}
	default:
		return shared.NewUsageError(fmt.Sprintf("editing %T from the command line is not supported", item), nil)
	}
	return nil
}

// NewAddCommand creates the add command with one subcommand per editable
// thing type.
func NewAddCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a new thing in a record",
	}
	cmd.AddCommand(
		newAddTypeCommand("weight", "Record a weight measurement", "--kg", func() thing.Thing { return itemtypes.NewWeight() }),
		newAddTypeCommand("blood-pressure", "Record a blood pressure reading", "--systolic and --diastolic", func() thing.Thing { return itemtypes.NewBloodPressure() }),
	)
	return cmd
}

func newAddTypeCommand(use, short, required string, factory func() thing.Thing) *cobra.Command {
	var m measurement
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			item := factory()
			if err := m.apply(cmd, item, time.Now()); err != nil {
				return err
			}
			if _, err := thing.Marshal(item); err != nil {
				return shared.NewUsageError("missing "+required, err)
			}

			return shared.WithSession(cmd.Context(), func(ctx context.Context, s *shared.Session, recordID string) error {
				if err := s.Client.CreateNewThings(ctx, recordID, []thing.Thing{item}); err != nil {
					return err
				}
				return writePut(cmd, "add", recordID, s.Client.Registry(), item)
			})
		},
	}
	m.register(cmd)
	return cmd
}

// NewUpdateCommand creates the update command.
func NewUpdateCommand() *cobra.Command {
	var m measurement
	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Change a weight or blood pressure",
		Long: `Fetch the current version of a thing, apply the given changes and
write it back. The write fails if someone else changed the thing in the
meantime.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := parseKey(args[0])
			if err != nil {
				return err
			}

			return shared.WithSession(cmd.Context(), func(ctx context.Context, s *shared.Session, recordID string) error {
				item, err := fetch(ctx, s, recordID, key.ID)
				if err != nil {
					return err
				}
				if err := m.apply(cmd, item, time.Time{}); err != nil {
					return err
				}
				if err := s.Client.UpdateThings(ctx, recordID, []thing.Thing{item}); err != nil {
					return err
				}
				return writePut(cmd, "update", recordID, s.Client.Registry(), item)
			})
		},
	}
	m.register(cmd)
	return cmd
}

func writePut(cmd *cobra.Command, command, recordID string, registry *thing.Registry, item thing.Thing) error {
	row, err := NewRow(registry, item, false)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if shared.GetJSON() {
		return shared.EmitJSON(out, putResponse{
			JSONResponse: shared.NewJSONResponse(command),
			RecordID:     recordID,
			Thing:        row,
		})
	}
	fmt.Fprintln(out, shared.RenderOK(fmt.Sprintf("%s %s@%s", row.Type, row.ID, row.Version)))
	return nil
}
