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

	"github.com/tombee/healthvault/internal/metrics"
	"github.com/tombee/healthvault/pkg/connection"
	"github.com/tombee/healthvault/pkg/envelope"
	hverrors "github.com/tombee/healthvault/pkg/errors"
	"github.com/tombee/healthvault/pkg/thing"
)

// CreateNewThings stores new items in the record. Each item must be unsaved.
// On success item k receives the k-th key of the reply and becomes clean;
// on any failure no item is changed.
func (c *ThingClient) CreateNewThings(ctx context.Context, recordID string, items []thing.Thing) (err error) {
	if err := requireRecordID(recordID); err != nil {
		return err
	}
	if err := checkItems(items, func(i int, b *thing.Base) error {
		if b.HasKey() {
			return &hverrors.ValidationError{Field: itemField(i), Message: "item already has a key; use UpdateThings"}
		}
		return nil
	}); err != nil {
		return err
	}

	info, written, err := envelope.BuildPutThingsInfo(items, false)
	if err != nil {
		return err
	}

	ctx, finish := c.begin(ctx, MethodPutThings, recordID, len(written))
	defer func() { finish(err) }()

	keys, err := c.put(ctx, recordID, info, len(written))
	if err != nil {
		return err
	}
	bind(written, keys)
	metrics.RecordThings("written", len(written))
	c.saveToStore(ctx, recordID, written)
	return nil
}

// UpdateThings sends the items that changed since their last round trip.
// Every item must carry a key. When nothing changed no call is made. On
// success each sent item is rebound to its new version stamp, in order, and
// its dirty flag is cleared.
func (c *ThingClient) UpdateThings(ctx context.Context, recordID string, items []thing.Thing) (err error) {
	if err := requireRecordID(recordID); err != nil {
		return err
	}
	if err := checkItems(items, requireKey); err != nil {
		return err
	}

	info, written, err := envelope.BuildPutThingsInfo(items, true)
	if err != nil {
		return err
	}
	if len(written) == 0 {
		c.logger.Debug("update skipped, no item changed", "items", len(items))
		return nil
	}

	ctx, finish := c.begin(ctx, MethodPutThings, recordID, len(written))
	defer func() { finish(err) }()

	keys, err := c.put(ctx, recordID, info, len(written))
	if err != nil {
		return err
	}
	bind(written, keys)
	metrics.RecordThings("written", len(written))
	c.saveToStore(ctx, recordID, written)
	return nil
}

// RemoveThings deletes items from the record and marks them removed. Every
// item must carry a key and must not already be removed.
func (c *ThingClient) RemoveThings(ctx context.Context, recordID string, items []thing.Thing) (err error) {
	if err := requireRecordID(recordID); err != nil {
		return err
	}
	if err := checkItems(items, requireKey); err != nil {
		return err
	}
	info, err := envelope.BuildRemoveThingsInfo(items)
	if err != nil {
		return err
	}

	ctx, finish := c.begin(ctx, MethodRemoveThings, recordID, len(items))
	defer func() { finish(err) }()

	if _, err := c.conn.Execute(ctx, connection.Call{
		Method:   MethodRemoveThings,
		Version:  removeThingsVersion,
		RecordID: recordID,
		Info:     info,
	}); err != nil {
		return err
	}

	keys := make([]thing.Key, 0, len(items))
	for _, item := range items {
		b := item.ThingBase()
		key, _ := b.Key()
		keys = append(keys, key)
		b.MarkRemoved()
	}
	metrics.RecordThings("removed", len(items))
	c.deleteFromStore(ctx, recordID, keys)
	return nil
}

// put sends a PutThings call and returns exactly want keys.
func (c *ThingClient) put(ctx context.Context, recordID string, info []byte, want int) ([]thing.Key, error) {
	resp, err := c.conn.Execute(ctx, connection.Call{
		Method:   MethodPutThings,
		Version:  putThingsVersion,
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
	keys, err := envelope.ParseThingKeys(body)
	if err != nil {
		return nil, err
	}
	// Keys pair with items by position; the platform returns them in
	// submission order.
	if len(keys) != want {
		return nil, &hverrors.ProtocolError{
			Method:  MethodPutThings,
			Message: fmt.Sprintf("submitted %d things but received %d keys", want, len(keys)),
		}
	}
	for i, k := range keys {
		if k.IsZero() {
			return nil, &hverrors.ProtocolError{Method: MethodPutThings, Message: fmt.Sprintf("key %d is empty", i)}
		}
	}
	return keys, nil
}

func bind(items []thing.Thing, keys []thing.Key) {
	for i, item := range items {
		b := item.ThingBase()
		b.BindKey(keys[i])
		b.ClearDirtyFlags()
	}
}

func itemField(i int) string {
	return fmt.Sprintf("items[%d]", i)
}

func requireKey(i int, b *thing.Base) error {
	if !b.HasKey() {
		return &hverrors.ValidationError{Field: itemField(i), Message: "item has no key"}
	}
	return nil
}

// checkItems rejects an empty batch, nil items and removed items, then
// applies check to each item.
func checkItems(items []thing.Thing, check func(int, *thing.Base) error) error {
	if len(items) == 0 {
		return &hverrors.ValidationError{Field: "items", Message: "must not be empty"}
	}
	for i, item := range items {
		if thing.IsNil(item) {
			return &hverrors.ValidationError{Field: itemField(i), Message: "item is nil"}
		}
		b := item.ThingBase()
		if b.IsRemoved() {
			return &hverrors.ValidationError{Field: itemField(i), Message: "item was removed"}
		}
		if err := check(i, b); err != nil {
			return err
		}
	}
	return nil
}
