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
	"github.com/tombee/healthvault/pkg/thing"
)

type removeResponse struct {
	shared.JSONResponse
	RecordID string   `json:"record_id"`
	Removed  []string `json:"removed"`
}

// NewRemoveCommand creates the remove command.
func NewRemoveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove ID[@VERSION]...",
		Short: "Remove things from a record",
		Long: `Remove things from the selected record.

Without @VERSION the current version is looked up first. With it, the
removal fails if the thing has changed since that version.`,
		Aliases: []string{"rm"},
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			keys := make([]thing.Key, 0, len(args))
			for _, arg := range args {
				key, err := parseKey(arg)
				if err != nil {
					return err
				}
				keys = append(keys, key)
			}

			return shared.WithSession(cmd.Context(), func(ctx context.Context, s *shared.Session, recordID string) error {
				items := make([]thing.Thing, 0, len(keys))
				for _, key := range keys {
					if key.VersionStamp == "" {
						item, err := fetch(ctx, s, recordID, key.ID)
						if err != nil {
							return err
						}
						items = append(items, item)
						continue
					}
					raw := thing.NewRaw("")
					raw.SetKey(key)
					items = append(items, raw)
				}

				if err := s.Client.RemoveThings(ctx, recordID, items); err != nil {
					return err
				}

				resp := removeResponse{JSONResponse: shared.NewJSONResponse("remove"), RecordID: recordID}
				for _, item := range items {
					key, _ := item.ThingBase().Key()
					resp.Removed = append(resp.Removed, key.String())
				}

				out := cmd.OutOrStdout()
				if shared.GetJSON() {
					return shared.EmitJSON(out, resp)
				}
				for _, k := range resp.Removed {
					fmt.Fprintln(out, shared.RenderOK("removed "+k))
				}
				return nil
			})
		},
	}
	return cmd
}
