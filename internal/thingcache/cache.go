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

// Package thingcache keeps the last known copy of things in a local SQLite
// database. A ThingClient writes through to it after successful calls.
package thingcache

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/tombee/healthvault/pkg/thing"
)

// timeLayout is fixed width so stored UTC timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Config contains configuration for the cache.
type Config struct {
	// Path is the filesystem path to the SQLite database file, or ":memory:".
	Path string

	// MaxOpenConns sets the maximum number of open connections.
	// Default: 4 (1 for ":memory:").
	MaxOpenConns int

	// Logger receives warnings about items that could not be cached.
	// Default: slog.Default().
	Logger *slog.Logger
}

// Entry is one cached thing.
type Entry struct {
	RecordID      string
	TypeID        string
	Key           thing.Key
	State         thing.State
	Flags         int
	EffectiveDate time.Time
	Data          []byte
	CachedAt      time.Time
}

// Cache is a SQLite-backed thing store. It is safe for concurrent use.
type Cache struct {
	db     *sql.DB
	now    func() time.Time
	logger *slog.Logger
}

// Open creates or opens the cache database and runs migrations.
func Open(cfg Config) (*Cache, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("thingcache: path is required")
	}

	connStr := cfg.Path
	maxConns := cfg.MaxOpenConns
	if cfg.Path == ":memory:" {
		maxConns = 1
	} else {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0700); err != nil {
			return nil, fmt.Errorf("failed to create directory for %s: %w", cfg.Path, err)
		}
		connStr += "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	}
	if maxConns == 0 {
		maxConns = 4
	}

	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxConns)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	c := &Cache{db: db, now: time.Now, logger: logger.With(slog.String("component", "thingcache"))}
	if err := c.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return c, nil
}

func (c *Cache) migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS things (
		record_id TEXT NOT NULL,
		thing_id TEXT NOT NULL,
		version_stamp TEXT NOT NULL,
		type_id TEXT NOT NULL,
		state TEXT NOT NULL,
		flags INTEGER NOT NULL DEFAULT 0,
		eff_date TEXT,
		data_xml BLOB NOT NULL,
		cached_at TEXT NOT NULL,
		PRIMARY KEY (record_id, thing_id)
	);

	CREATE INDEX IF NOT EXISTS idx_things_type ON things(record_id, type_id);
	`
	if _, err := c.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Save upserts items under recordID. Items without a key are skipped and
// removed items are deleted. An item whose XML cannot be written is logged and
// skipped; the rest of the batch is still saved.
func (c *Cache) Save(ctx context.Context, recordID string, items []thing.Thing) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := c.now().UTC().Format(timeLayout)
	for _, item := range items {
		if thing.IsNil(item) {
			continue
		}
		b := item.ThingBase()
		key, ok := b.Key()
		if !ok || key.IsZero() {
			continue
		}
		if b.IsRemoved() {
			if _, err := tx.ExecContext(ctx, `DELETE FROM things WHERE record_id = ? AND thing_id = ?`, recordID, key.ID); err != nil {
				return fmt.Errorf("failed to delete %s: %w", key.ID, err)
			}
			continue
		}

		data, err := thing.Marshal(item)
		if err != nil {
			c.logger.Warn("skipping thing that cannot be cached",
				slog.String("record_id", recordID),
				slog.String("thing_id", key.ID),
				slog.Any("error", err),
			)
			continue
		}
		md := b.Metadata()
		var effDate sql.NullString
		if !md.EffectiveDate.IsZero() {
			effDate = sql.NullString{String: md.EffectiveDate.UTC().Format(timeLayout), Valid: true}
		}
		state := md.State
		if state == "" {
			state = thing.StateActive
		}

		_, err = tx.ExecContext(ctx, `
		INSERT INTO things (record_id, thing_id, version_stamp, type_id, state, flags, eff_date, data_xml, cached_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(record_id, thing_id) DO UPDATE SET
			version_stamp = excluded.version_stamp,
			type_id = excluded.type_id,
			state = excluded.state,
			flags = excluded.flags,
			eff_date = excluded.eff_date,
			data_xml = excluded.data_xml,
			cached_at = excluded.cached_at
		`, recordID, key.ID, key.VersionStamp, b.TypeID(), string(state), md.Flags, effDate, data, now)
		if err != nil {
			return fmt.Errorf("failed to save %s: %w", key.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// Delete removes the entries for keys under recordID. Missing entries are
// ignored.
func (c *Cache) Delete(ctx context.Context, recordID string, keys []thing.Key) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, k := range keys {
		if _, err := tx.ExecContext(ctx, `DELETE FROM things WHERE record_id = ? AND thing_id = ?`, recordID, k.ID); err != nil {
			return fmt.Errorf("failed to delete %s: %w", k.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

const selectColumns = `record_id, thing_id, version_stamp, type_id, state, flags, eff_date, data_xml, cached_at`

// Get returns the cached entry for thingID, or nil when there is none.
func (c *Cache) Get(ctx context.Context, recordID, thingID string) (*Entry, error) {
	row := c.db.QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM things WHERE record_id = ? AND thing_id = ?`, recordID, thingID)

	e, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s: %w", thingID, err)
	}
	return e, nil
}

// List returns the cached entries for recordID, newest effective date first.
// An empty typeID lists every type.
func (c *Cache) List(ctx context.Context, recordID, typeID string) ([]Entry, error) {
	query := `SELECT ` + selectColumns + ` FROM things WHERE record_id = ?`
	args := []interface{}{recordID}
	if typeID != "" {
		query += ` AND type_id = ?`
		args = append(args, typeID)
	}
	query += ` ORDER BY eff_date DESC, thing_id`

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list things: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan thing: %w", err)
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

// Purge removes every entry for recordID and returns the number removed.
func (c *Cache) Purge(ctx context.Context, recordID string) (int64, error) {
	res, err := c.db.ExecContext(ctx, `DELETE FROM things WHERE record_id = ?`, recordID)
	if err != nil {
		return 0, fmt.Errorf("failed to purge %s: %w", recordID, err)
	}
	return res.RowsAffected()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanEntry(s scanner) (*Entry, error) {
	var (
		e        Entry
		state    string
		effDate  sql.NullString
		cachedAt string
	)
	if err := s.Scan(&e.RecordID, &e.Key.ID, &e.Key.VersionStamp, &e.TypeID, &state, &e.Flags, &effDate, &e.Data, &cachedAt); err != nil {
		return nil, err
	}
	e.State = thing.State(state)

	if effDate.Valid && effDate.String != "" {
		t, err := time.Parse(timeLayout, effDate.String)
		if err != nil {
			return nil, fmt.Errorf("invalid eff_date %q: %w", effDate.String, err)
		}
		e.EffectiveDate = t
	}
	t, err := time.Parse(timeLayout, cachedAt)
	if err != nil {
		return nil, fmt.Errorf("invalid cached_at %q: %w", cachedAt, err)
	}
	e.CachedAt = t
	return &e, nil
}

// Materialize decodes e into a typed item through registry. The item is
// bound to the cached key and is clean.
func Materialize(e Entry, registry *thing.Registry) (thing.Thing, error) {
	item := registry.New(e.TypeID)
	if err := item.ParseXML(e.Data); err != nil {
		return nil, err
	}
	b := item.ThingBase()
	md := b.Metadata()
	md.State = e.State
	md.Flags = e.Flags
	md.EffectiveDate = e.EffectiveDate
	b.SetMetadata(md)
	b.SetKey(e.Key)
	b.ClearDirtyFlags()
	return item, nil
}
