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

	"github.com/spf13/cobra"
	"github.com/tombee/healthvault/internal/commands/shared"
	"github.com/tombee/healthvault/pkg/query"
	"github.com/tombee/healthvault/pkg/thing"
)

type getResponse struct {
	shared.JSONResponse
	RecordID    string   `json:"record_id"`
	Things      []Row    `json:"things"`
	Unprocessed []string `json:"unprocessed,omitempty"`
}

// NewGetCommand creates the get command.
func NewGetCommand() *cobra.Command {
	var (
		ids         []string
		types       []string
		maxItems    int
		maxFull     int
		since       string
		until       string
		allVersions bool
		withXML     bool
	)

	cmd := &cobra.Command{
		Use:   "get [flags]",
		Short: "Query things in a record",
		Long: `Query things in the selected record.

Filters combine: --type and --id narrow the same query. Types can be given
by display name (see 'hvctl types') or by type id.`,
		Example: `  hvctl get --type weight --since 2024-01-01
  hvctl get --id 8f0c1e2a-... --xml
  hvctl get --type "blood pressure" --max 10 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return shared.WithSession(cmd.Context(), func(ctx context.Context, s *shared.Session, recordID string) error {
				registry := s.Client.Registry()

				q := query.New()
				q.CurrentVersionOnly = !allVersions
				q.MaxItems = maxItems
				q.MaxFullItems = maxFull
				for _, arg := range ids {
					key, err := parseKey(arg)
					if err != nil {
						return err
					}
					if key.VersionStamp != "" {
						q.Keys = append(q.Keys, key)
					} else {
						q.ThingIDs = append(q.ThingIDs, key.ID)
					}
				}
				for _, name := range types {
					id, err := shared.ResolveTypeID(registry, name)
					if err != nil {
						return err
					}
					q.TypeIDs = append(q.TypeIDs, id)
				}
				if since != "" {
					t, err := parseTime("since", since)
					if err != nil {
						return err
					}
					q.EffectiveDateMin = t
				}
				if until != "" {
					t, err := parseTime("until", until)
					if err != nil {
						return err
					}
					q.EffectiveDateMax = t
				}
				if err := q.Validate(); err != nil {
					return shared.NewUsageError("invalid query", err)
				}

				sets, err := s.Client.GetThings(ctx, recordID, q)
				if err != nil {
					return err
				}

				resp := getResponse{
					JSONResponse: shared.NewJSONResponse("get"),
					RecordID:     recordID,
					Things:       []Row{},
				}
				for _, set := range sets {
					for _, item := range set.Things {
						row, err := NewRow(registry, item, withXML)
						if err != nil {
							return err
						}
						resp.Things = append(resp.Things, row)
					}
					for _, k := range set.Unprocessed {
						resp.Unprocessed = append(resp.Unprocessed, k.String())
					}
				}
				return writeGet(cmd, resp)
			})
		},
	}

	cmd.Flags().StringSliceVar(&ids, "id", nil, "Thing id, optionally ID@VERSION (repeatable)")
	cmd.Flags().StringSliceVarP(&types, "type", "t", nil, "Thing type name or id (repeatable)")
	cmd.Flags().IntVar(&maxItems, "max", 0, "Maximum number of matches")
	cmd.Flags().IntVar(&maxFull, "max-full", 0, "Maximum number of matches returned in full")
	cmd.Flags().StringVar(&since, "since", "", "Earliest effective date")
	cmd.Flags().StringVar(&until, "until", "", "Latest effective date")
	cmd.Flags().BoolVar(&allVersions, "all-versions", false, "Include superseded versions")
	cmd.Flags().BoolVar(&withXML, "xml", false, "Print each thing's data-xml")

	return cmd
}

func writeGet(cmd *cobra.Command, resp getResponse) error {
	out := cmd.OutOrStdout()
	if shared.GetJSON() {
		return shared.EmitJSON(out, resp)
	}
	if len(resp.Things) == 0 && len(resp.Unprocessed) == 0 {
		fmt.Fprintln(out, "No things found.")
		return nil
	}
	if err := WriteTable(out, resp.Things); err != nil {
		return err
	}
	if n := len(resp.Unprocessed); n > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, shared.RenderWarn(fmt.Sprintf("%d more matches not returned in full:", n)))
		for _, k := range resp.Unprocessed {
			fmt.Fprintf(out, "  %s\n", k)
		}
	}
	return nil
}

// fetch returns the current version of a thing or a usage error when the
// record has none.
func fetch(ctx context.Context, s *shared.Session, recordID, id string) (thing.Thing, error) {
	item, err := s.Client.GetThing(ctx, recordID, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, shared.NewUsageError(fmt.Sprintf("thing %s not found in record %s", id, recordID), nil)
	}
	return item, nil
}
