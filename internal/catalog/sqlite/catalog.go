// Package sqlite implements the perfume catalog over a local SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"perfume-chat/internal/domain"

	_ "modernc.org/sqlite"
)

// Catalog implements domain.CatalogRepository for SQLite
type Catalog struct {
	db *sql.DB
}

// Open opens the catalog database file
func Open(ctx context.Context, path string) (*Catalog, error) {
	if path == "" {
		return nil, fmt.Errorf("catalog file path is required")
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping catalog: %w", err)
	}

	return &Catalog{db: db}, nil
}

// Close closes the catalog connection
func (c *Catalog) Close() error {
	return c.db.Close()
}

// Ping verifies the catalog connection is alive
func (c *Catalog) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

const selectColumns = "name, top_notes, middle_notes, base_notes, main_accords, gender"

// Search scans the catalog and returns items matching all given filters, in
// table order. Note and accord filters use case-insensitive all-of
// containment; a gender filter requires the item's gender set to equal the
// singleton {men} or {women} exactly.
func (c *Catalog) Search(ctx context.Context, filters domain.SearchFilters) ([]domain.Perfume, error) {
	rows, err := c.db.QueryContext(ctx, "SELECT "+selectColumns+" FROM perfumes")
	if err != nil {
		return nil, fmt.Errorf("failed to query perfumes: %w", err)
	}
	defer rows.Close()

	var results []domain.Perfume
	for rows.Next() {
		item, err := scanPerfume(rows)
		if err != nil {
			return nil, err
		}
		if matches(item, filters) {
			results = append(results, *item)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate perfumes: %w", err)
	}
	return results, nil
}

// GetByName looks up a single perfume case-insensitively. Returns
// domain.ErrNotFound when absent.
func (c *Catalog) GetByName(ctx context.Context, name string) (*domain.Perfume, error) {
	row := c.db.QueryRowContext(ctx,
		"SELECT "+selectColumns+" FROM perfumes WHERE LOWER(name) = LOWER(?)", name)

	item, err := scanPerfume(row)
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return item, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

// scanPerfume decodes one perfumes row. The note, accord and gender columns
// are stored as JSON string arrays.
func scanPerfume(row rowScanner) (*domain.Perfume, error) {
	var name string
	var top, middle, base, accords, gender []byte

	if err := row.Scan(&name, &top, &middle, &base, &accords, &gender); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan perfume row: %w", err)
	}

	item := &domain.Perfume{Name: name}
	for _, col := range []struct {
		raw  []byte
		dest *[]string
	}{
		{top, &item.TopNotes},
		{middle, &item.MiddleNotes},
		{base, &item.BaseNotes},
		{accords, &item.MainAccords},
		{gender, &item.Gender},
	} {
		if len(col.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(col.raw, col.dest); err != nil {
			return nil, fmt.Errorf("perfume %q: malformed attribute list: %w", name, err)
		}
	}
	return item, nil
}

func matches(item *domain.Perfume, filters domain.SearchFilters) bool {
	if !hasAll(item.TopNotes, splitList(filters.TopNotes)) {
		return false
	}
	if !hasAll(item.MiddleNotes, splitList(filters.MiddleNotes)) {
		return false
	}
	if !hasAll(item.BaseNotes, splitList(filters.BaseNotes)) {
		return false
	}
	if !hasAll(item.MainAccords, splitList(filters.MainAccords)) {
		return false
	}
	if g := strings.ToLower(strings.TrimSpace(filters.Gender)); g == "men" || g == "women" {
		if !genderEquals(item.Gender, g) {
			return false
		}
	}
	return true
}

// splitList parses a comma-separated filter value into trimmed tokens
func splitList(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// hasAll reports whether every target appears in source, case-insensitively
func hasAll(source, targets []string) bool {
	if len(targets) == 0 {
		return true
	}
	have := make(map[string]struct{}, len(source))
	for _, s := range source {
		have[strings.ToLower(s)] = struct{}{}
	}
	for _, t := range targets {
		if _, ok := have[strings.ToLower(t)]; !ok {
			return false
		}
	}
	return true
}

// genderEquals requires the item's gender set to be exactly the singleton
// {want}. Unisex items (both tokens) do not match a specific gender filter.
func genderEquals(gender []string, want string) bool {
	return len(gender) == 1 && strings.ToLower(gender[0]) == want
}
