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

package client

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/tombee/healthvault/internal/metrics"
	"github.com/tombee/healthvault/pkg/connection"
	"github.com/tombee/healthvault/pkg/envelope"
	hverrors "github.com/tombee/healthvault/pkg/errors"
	"github.com/tombee/healthvault/pkg/query"
	"github.com/tombee/healthvault/pkg/thing"
)

// ResultSet holds the items returned for one query.
type ResultSet struct {
	// Query is the query this set answers.
	Query *query.ThingQuery

	Things []thing.Thing

	// Unprocessed lists matches the platform did not return in full.
	Unprocessed []thing.Key
}

// GetThing returns the current version of one thing, or nil with no error
// when the record holds no thing with that id.
func (c *ThingClient) GetThing(ctx context.Context, recordID, thingID string) (thing.Thing, error) {
	if strings.TrimSpace(thingID) == "" {
		return nil, &hverrors.ValidationError{Field: "thingID", Message: "must not be empty"}
	}
	sets, err := c.GetThings(ctx, recordID, query.ForThingID(thingID))
	if err != nil {
		return nil, err
	}
	if len(sets) == 0 {
		return nil, nil
	}
	switch n := len(sets[0].Things); n {
	case 0:
		return nil, nil
	case 1:
		return sets[0].Things[0], nil
	default:
		return nil, &hverrors.TooManyResultsError{ThingID: thingID, Count: n}
	}
}

// GetThings runs the queries in one call. The result has one set per query,
// in the order given.
func (c *ThingClient) GetThings(ctx context.Context, recordID string, queries ...*query.ThingQuery) (sets []*ResultSet, err error) {
	if err := requireRecordID(recordID); err != nil {
		return nil, err
	}
	info, err := envelope.BuildGetThingsInfo(queries)
	if err != nil {
		return nil, err
	}

	ctx, finish := c.begin(ctx, MethodGetThings, recordID, len(queries))
	defer func() { finish(err) }()

	resp, err := c.conn.Execute(ctx, connection.Call{
		Method:   MethodGetThings,
		Version:  getThingsVersion,
		RecordID: recordID,
		Info:     info,
	})
	if err != nil {
		return nil, err
	}
	body, err := resp.RequireInfo()
	if err != nil {
		return nil, err
	}
	groups, err := envelope.ParseThingGroups(body, c.registry)
	if err != nil {
		return nil, err
	}
	if len(groups) != len(queries) {
		return nil, &hverrors.ProtocolError{
			Method:  MethodGetThings,
			Message: fmt.Sprintf("sent %d queries but received %d result groups", len(queries), len(groups)),
		}
	}

	sets = make([]*ResultSet, len(groups))
	var all []thing.Thing
	for i, g := range groups {
		sets[i] = &ResultSet{Query: queries[i], Things: g.Things, Unprocessed: g.Unprocessed}
		all = append(all, g.Things...)
	}
	metrics.RecordThings("read", len(all))
	c.saveToStore(ctx, recordID, all)
	return sets, nil
}

// GetThingsOfType runs q restricted to T's registered type id and returns
// the items of type T. A nil q matches every current item of the type.
func GetThingsOfType[T thing.Thing](ctx context.Context, c *ThingClient, recordID string, q *query.ThingQuery) ([]T, error) {
	var zero T
	typeID, ok := c.registry.TypeIDFor(reflect.TypeOf(zero))
	if !ok {
		return nil, &hverrors.ValidationError{Field: "T", Message: fmt.Sprintf("%T is not a registered thing type", zero)}
	}
	if q == nil {
		q = query.New()
	}
	sets, err := c.GetThings(ctx, recordID, q.WithTypeIDs(typeID))
	if err != nil {
		return nil, err
	}

	var out []T
	for _, set := range sets {
		for _, item := range set.Things {
			if typed, ok := item.(T); ok {
				out = append(out, typed)
			}
		}
	}
	return out, nil
}
