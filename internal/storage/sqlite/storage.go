// Package sqlite stores the roster in normalized tables using the pure-Go
// modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mcoot/rewardroster/internal/model"
	"github.com/mcoot/rewardroster/internal/storage"
)

// Config holds SQLite settings
type Config struct {
	// Path is the database file. ":memory:" keeps everything in process.
	Path string
}

// DefaultConfig returns the default SQLite settings
func DefaultConfig() Config {
	return Config{Path: "roster.db"}
}

// Storage is a SQLite-backed implementation of the storage interface
type Storage struct {
	db *sql.DB
}

// New opens the database at cfg.Path and creates the schema
func New(ctx context.Context, cfg Config) (*Storage, error) {
	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, err
	}
	// a single connection keeps ":memory:" databases shared and writes serialized
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &Storage{db: db}, nil
}

// Close closes the database
func (s *Storage) Close() error {
	return s.db.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

func (s *Storage) GetSnapshot(ctx context.Context) (*model.Snapshot, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	snap := model.EmptySnapshot()
	err = tx.QueryRowContext(ctx, `SELECT revision FROM roster_meta WHERE id = 1`).Scan(&snap.Revision)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrStateNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := queryEach(ctx, tx, `SELECT name FROM item ORDER BY position`, func(rows *sql.Rows) error {
		var name string
		if err := rows.Scan(&name); err != nil {
			return err
		}
		snap.Items = append(snap.Items, name)
		return nil
	}); err != nil {
		return nil, err
	}

	index := make(map[string]int)
	if err := queryEach(ctx, tx, `SELECT name, active FROM player ORDER BY position`, func(rows *sql.Rows) error {
		p := model.Player{Counts: map[string]int{}}
		if err := rows.Scan(&p.Name, &p.Active); err != nil {
			return err
		}
		index[p.Name] = len(snap.Players)
		snap.Players = append(snap.Players, p)
		return nil
	}); err != nil {
		return nil, err
	}

	if err := queryEach(ctx, tx, `SELECT player, item, count FROM player_count`, func(rows *sql.Rows) error {
		var player, item string
		var count int
		if err := rows.Scan(&player, &item, &count); err != nil {
			return err
		}
		if i, ok := index[player]; ok {
			snap.Players[i].Counts[item] = count
		}
		return nil
	}); err != nil {
		return nil, err
	}

	if err := queryEach(ctx, tx, `SELECT id, player, item, quantity, created_at, action FROM history ORDER BY seq`, func(rows *sql.Rows) error {
		var h model.HistoryEntry
		var created, action string
		if err := rows.Scan(&h.ID, &h.Player, &h.Item, &h.Quantity, &created, &action); err != nil {
			return err
		}
		ts, err := time.Parse(time.RFC3339Nano, created)
		if err != nil {
			return fmt.Errorf("history %s: %w", h.ID, err)
		}
		h.Timestamp = ts
		h.Action = model.HistoryAction(action)
		snap.History = append(snap.History, h)
		return nil
	}); err != nil {
		return nil, err
	}

	return snap, nil
}

func (s *Storage) SaveSnapshot(ctx context.Context, snap *model.Snapshot) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range []string{"player_count", "player", "item", "history"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO roster_meta (id, revision) VALUES (1, ?)
		 ON CONFLICT(id) DO UPDATE SET revision = excluded.revision`, snap.Revision); err != nil {
		return err
	}
	for i, item := range snap.Items {
		if _, err := tx.ExecContext(ctx, `INSERT INTO item (position, name) VALUES (?, ?)`, i, item); err != nil {
			return err
		}
	}
	for i, p := range snap.Players {
		if _, err := tx.ExecContext(ctx, `INSERT INTO player (position, name, active) VALUES (?, ?, ?)`, i, p.Name, p.Active); err != nil {
			return err
		}
		for item, n := range p.Counts {
			if _, err := tx.ExecContext(ctx, `INSERT INTO player_count (player, item, count) VALUES (?, ?, ?)`, p.Name, item, n); err != nil {
				return err
			}
		}
	}
	for _, h := range snap.History {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO history (id, player, item, quantity, created_at, action) VALUES (?, ?, ?, ?, ?, ?)`,
			h.ID, h.Player, h.Item, h.Quantity, h.Timestamp.UTC().Format(time.RFC3339Nano), string(h.Action)); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *Storage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func queryEach(ctx context.Context, tx *sql.Tx, query string, scan func(*sql.Rows) error) error {
	rows, err := tx.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		if err := scan(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}
