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

// Package cache implements the hvctl cache commands, which inspect and
// clear the local copy of things kept by the client.
package cache

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/tombee/healthvault/internal/commands/shared"
	"github.com/tombee/healthvault/internal/commands/things"
	"github.com/tombee/healthvault/internal/thingcache"
	"github.com/tombee/healthvault/pkg/itemtypes"
)

// EntryInfo is the display form of one cached thing.
type EntryInfo struct {
	Type          string     `json:"type"`
	TypeID        string     `json:"type_id"`
	ID            string     `json:"id"`
	Version       string     `json:"version"`
	State         string     `json:"state"`
	EffectiveDate *time.Time `json:"effective_date,omitempty"`
	CachedAt      time.Time  `json:"cached_at"`
}

type listResponse struct {
	shared.JSONResponse
	RecordID string      `json:"record_id"`
	Path     string      `json:"path"`
	Entries  []EntryInfo `json:"entries"`
}

type showResponse struct {
	shared.JSONResponse
	RecordID string     `json:"record_id"`
	Thing    things.Row `json:"thing"`
	CachedAt time.Time  `json:"cached_at"`
}

type clearResponse struct {
	shared.JSONResponse
	RecordID string `json:"record_id"`
	Removed  int64  `json:"removed"`
}

// NewCacheCommand creates the cache command group.
func NewCacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect the local thing cache",
		Long: `Inspect the local cache of things.

Every successful read or write updates the cache with the last known state
of the things involved. The cache is never consulted for reads; it is a
local record of what the platform last returned.`,
	}
	cmd.AddCommand(newListCommand(), newShowCommand(), newClearCommand())
	return cmd
}

// withCache opens the configured cache and resolves the selected record.
func withCache(ctx context.Context, fn func(ctx context.Context, c *thingcache.Cache, path, recordID string) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := shared.ReadConfig()
	if err != nil {
		return err
	}
	if !cfg.Cache.Enabled || cfg.Cache.Path == "" {
		return shared.NewUsageError("the local cache is disabled", errors.New("set cache.enabled in the config file"))
	}
	recordID, err := shared.RecordIDFor(cfg)
	if err != nil {
		return err
	}

	c, err := thingcache.Open(thingcache.Config{Path: cfg.Cache.Path})
	if err != nil {
		return err
	}
	defer c.Close()
	return fn(ctx, c, cfg.Cache.Path, recordID)
}

func newListCommand() *cobra.Command {
	var typeName string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cached things for the selected record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCache(cmd.Context(), func(ctx context.Context, c *thingcache.Cache, path, recordID string) error {
				registry := itemtypes.DefaultRegistry()
				typeID := ""
				if typeName != "" {
					id, err := shared.ResolveTypeID(registry, typeName)
					if err != nil {
						return err
					}
					typeID = id
				}

				entries, err := c.List(ctx, recordID, typeID)
				if err != nil {
					return err
				}

				resp := listResponse{
					JSONResponse: shared.NewJSONResponse("cache list"),
					RecordID:     recordID,
					Path:         path,
					Entries:      []EntryInfo{},
				}
				for _, e := range entries {
					info := EntryInfo{
						Type:     registry.Name(e.TypeID),
						TypeID:   e.TypeID,
						ID:       e.Key.ID,
						Version:  e.Key.VersionStamp,
						State:    string(e.State),
						CachedAt: e.CachedAt,
					}
					if !e.EffectiveDate.IsZero() {
						eff := e.EffectiveDate
						info.EffectiveDate = &eff
					}
					resp.Entries = append(resp.Entries, info)
				}

				out := cmd.OutOrStdout()
				if shared.GetJSON() {
					return shared.EmitJSON(out, resp)
				}
				if len(resp.Entries) == 0 {
					fmt.Fprintf(out, "No cached things for record %s.\n", recordID)
					return nil
				}
				w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "TYPE\tID\tVERSION\tEFF DATE\tCACHED")
				for _, e := range resp.Entries {
					eff := "-"
					if e.EffectiveDate != nil {
						eff = e.EffectiveDate.UTC().Format(time.RFC3339)
					}
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", e.Type, e.ID, e.Version, eff, e.CachedAt.Local().Format(time.DateTime))
				}
				return w.Flush()
			})
		},
	}
	cmd.Flags().StringVarP(&typeName, "type", "t", "", "Only list this thing type (name or id)")
	return cmd
}

func newShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Print the cached copy of a thing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCache(cmd.Context(), func(ctx context.Context, c *thingcache.Cache, path, recordID string) error {
				e, err := c.Get(ctx, recordID, args[0])
				if err != nil {
					return err
				}
				if e == nil {
					return shared.NewUsageError(fmt.Sprintf("thing %s is not cached for record %s", args[0], recordID), nil)
				}

				registry := itemtypes.DefaultRegistry()
				item, err := thingcache.Materialize(*e, registry)
				if err != nil {
					return err
				}
				row, err := things.NewRow(registry, item, true)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if shared.GetJSON() {
					return shared.EmitJSON(out, showResponse{
						JSONResponse: shared.NewJSONResponse("cache show"),
						RecordID:     recordID,
						Thing:        row,
						CachedAt:     e.CachedAt,
					})
				}
				return things.WriteTable(out, []things.Row{row})
			})
		},
	}
}

func newClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached thing for the selected record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCache(cmd.Context(), func(ctx context.Context, c *thingcache.Cache, path, recordID string) error {
				n, err := c.Purge(ctx, recordID)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if shared.GetJSON() {
					return shared.EmitJSON(out, clearResponse{
						JSONResponse: shared.NewJSONResponse("cache clear"),
						RecordID:     recordID,
						Removed:      n,
					})
				}
				fmt.Fprintln(out, shared.RenderOK(fmt.Sprintf("removed %d cached things for record %s", n, recordID)))
				return nil
			})
		},
	}
}
