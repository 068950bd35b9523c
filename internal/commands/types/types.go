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

// Package types implements the hvctl types command.
package types

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/tombee/healthvault/internal/commands/shared"
	"github.com/tombee/healthvault/pkg/itemtypes"
)

// TypeInfo describes one registered thing type.
type TypeInfo struct {
	Name   string `json:"name"`
	TypeID string `json:"type_id"`
}

type typesResponse struct {
	shared.JSONResponse
	Types []TypeInfo `json:"types"`
}

// NewTypesCommand creates the types command.
func NewTypesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List the thing types this client decodes",
		Long: `List the thing types with a registered codec. Other types can still be
queried by id; they are shown and stored as raw XML.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			registry := itemtypes.DefaultRegistry()
			resp := typesResponse{JSONResponse: shared.NewJSONResponse("types")}
			for _, id := range registry.TypeIDs() {
				resp.Types = append(resp.Types, TypeInfo{Name: registry.Name(id), TypeID: id})
			}

			out := cmd.OutOrStdout()
			if shared.GetJSON() {
				return shared.EmitJSON(out, resp)
			}
			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tTYPE ID")
			for _, t := range resp.Types {
				fmt.Fprintf(w, "%s\t%s\n", t.Name, t.TypeID)
			}
			return w.Flush()
		},
	}
}
