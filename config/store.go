// Copyright © 2025 Lumen contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
//
// File: config/store.go
// Summary: SQLite store for named screen layouts.

package config

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/lumenwm/lumen/display"
)

var ErrLayoutNotFound = errors.New("config: layout not found")

// Store persists named screen layouts, so a user can keep one configuration
// per desk or docking situation and switch between them.
type Store struct {
	db *sql.DB
}

// OpenStore opens (and if needed creates) the layout database at path.
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("config: open layout store: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS layouts (
			name       TEXT PRIMARY KEY,
			document   TEXT NOT NULL,
			updated_at INTEGER NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("config: migrate layout store: %w", err)
	}
	return nil
}

// SaveLayout stores or replaces the named layout.
func (s *Store) SaveLayout(name string, layout display.ScreenLayout) error {
	if err := layout.Validate(); err != nil {
		return err
	}
	doc, err := json.Marshal(layout)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`
		INSERT INTO layouts (name, document, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET document = excluded.document, updated_at = excluded.updated_at`,
		name, string(doc), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("config: save layout %q: %w", name, err)
	}
	return nil
}

// LoadLayout retrieves a previously saved layout.
func (s *Store) LoadLayout(name string) (display.ScreenLayout, error) {
	var doc string
	err := s.db.QueryRow(`SELECT document FROM layouts WHERE name = ?`, name).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return display.ScreenLayout{}, fmt.Errorf("%w: %q", ErrLayoutNotFound, name)
	}
	if err != nil {
		return display.ScreenLayout{}, fmt.Errorf("config: load layout %q: %w", name, err)
	}

	var layout display.ScreenLayout
	if err := json.Unmarshal([]byte(doc), &layout); err != nil {
		return display.ScreenLayout{}, fmt.Errorf("config: layout %q is corrupt: %w", name, err)
	}
	return layout, nil
}

// ListLayouts returns the stored layout names, most recently updated first.
func (s *Store) ListLayouts() ([]string, error) {
	rows, err := s.db.Query(`SELECT name FROM layouts ORDER BY updated_at DESC, name`)
	if err != nil {
		return nil, fmt.Errorf("config: list layouts: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// DeleteLayout removes a stored layout; deleting a missing layout reports
// ErrLayoutNotFound.
func (s *Store) DeleteLayout(name string) error {
	res, err := s.db.Exec(`DELETE FROM layouts WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("config: delete layout %q: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %q", ErrLayoutNotFound, name)
	}
	return nil
}

func (s *Store) Close() error { return s.db.Close() }
