package domain

import "context"

// Perfume represents one catalog item. Name is the unique key; the note and
// accord fields are unordered sets matched case-insensitively.
type Perfume struct {
	Name        string   `json:"name"`
	TopNotes    []string `json:"top_notes"`
	MiddleNotes []string `json:"middle_notes"`
	BaseNotes   []string `json:"base_notes"`
	MainAccords []string `json:"main_accords"`
	Gender      []string `json:"gender"`
}

// SearchFilters holds the tool arguments for a catalog search. Note and
// accord filters are comma-separated lists of required values (all-of
// semantics); gender is a single token ("men" or "women") that must match
// the item's gender set exactly.
type SearchFilters struct {
	TopNotes    string `json:"top_notes,omitempty"`
	MiddleNotes string `json:"middle_notes,omitempty"`
	BaseNotes   string `json:"base_notes,omitempty"`
	MainAccords string `json:"main_accords,omitempty"`
	Gender      string `json:"gender,omitempty"`
}

// CatalogRepository defines the interface for the perfume catalog
type CatalogRepository interface {
	Search(ctx context.Context, filters SearchFilters) ([]Perfume, error)
	GetByName(ctx context.Context, name string) (*Perfume, error)
	Ping(ctx context.Context) error
	Close() error
}
