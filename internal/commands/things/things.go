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

// Package things implements the hvctl commands that read and write things
// in a record.
package things

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/tombee/healthvault/internal/commands/shared"
	"github.com/tombee/healthvault/pkg/thing"
)

// Row is the display form of one thing.
type Row struct {
	Type          string     `json:"type"`
	TypeID        string     `json:"type_id"`
	ID            string     `json:"id,omitempty"`
	Version       string     `json:"version,omitempty"`
	EffectiveDate *time.Time `json:"effective_date,omitempty"`
	State         string     `json:"state"`
	XML           string     `json:"xml,omitempty"`
}

// NewRow describes item. withXML adds the serialized data-xml.
func NewRow(registry *thing.Registry, item thing.Thing, withXML bool) (Row, error) {
	b := item.ThingBase()
	typeID := registry.TypeIDOf(item)
	row := Row{
		Type:   registry.Name(typeID),
		TypeID: typeID,
		State:  string(b.Metadata().State),
	}
	if row.State == "" {
		row.State = string(thing.StateActive)
	}
	if key, ok := b.Key(); ok {
		row.ID = key.ID
		row.Version = key.VersionStamp
	}
	if eff := b.EffectiveDate(); !eff.IsZero() {
		row.EffectiveDate = &eff
	}
	if withXML {
		data, err := thing.Marshal(item)
		if err != nil {
			return Row{}, err
		}
		row.XML = string(data)
	}
	return row, nil
}

// WriteTable prints rows as an aligned table.
func WriteTable(out io.Writer, rows []Row) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TYPE\tID\tVERSION\tEFF DATE\tSTATE")
	for _, r := range rows {
		eff := "-"
		if r.EffectiveDate != nil {
			eff = r.EffectiveDate.UTC().Format(time.RFC3339)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", r.Type, r.ID, r.Version, eff, r.State)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	for _, r := range rows {
		if r.XML != "" {
			fmt.Fprintf(out, "\n%s %s\n%s\n", shared.RenderLabel("data-xml"), r.ID, r.XML)
		}
	}
	return nil
}

var dateLayouts = []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02"}

// parseTime accepts RFC 3339 timestamps and bare dates. Values without a
// zone are read as UTC.
func parseTime(flag, s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, shared.NewUsageError(fmt.Sprintf("invalid --%s %q", flag, s), fmt.Errorf("use YYYY-MM-DD or RFC 3339"))
}

// parseKey splits ID[@VERSION].
func parseKey(arg string) (thing.Key, error) {
	id, version, _ := strings.Cut(arg, "@")
	key := thing.Key{ID: strings.TrimSpace(id), VersionStamp: strings.TrimSpace(version)}
	if key.IsZero() {
		return thing.Key{}, shared.NewUsageError(fmt.Sprintf("invalid thing id %q", arg), nil)
	}
	return key, nil
}
