package file

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"perfume-chat/internal/domain"

	"github.com/rs/zerolog/log"
)

const cursorsFile = "cursors.json"

// CursorStore persists the pagination cursor per partition key in a single
// JSON document. Implements domain.CursorStore.
type CursorStore struct {
	path string
	mu   sync.Mutex
}

// NewCursorStore creates the store, ensuring the storage directory exists and
// migrating any legacy pre-versioned document in place.
func NewCursorStore(dir string) (*CursorStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage dir: %w", err)
	}
	s := &CursorStore{path: filepath.Join(dir, cursorsFile)}
	if err := s.migrateLegacy(); err != nil {
		return nil, err
	}
	return s, nil
}

// legacyCursor is the pre-versioned single-partition layout:
// {"offset": N, "total_results": M}.
type legacyCursor struct {
	Offset       *int `json:"offset"`
	TotalResults *int `json:"total_results"`
}

func (s *CursorStore) migrateLegacy() error {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil // nothing on disk yet
	}

	var legacy legacyCursor
	if err := json.Unmarshal(raw, &legacy); err != nil {
		return nil
	}
	if legacy.Offset == nil || legacy.TotalResults == nil {
		return nil // versioned document, or something else entirely
	}

	doc := newDocument[domain.Cursor]()
	doc.Partitions[legacyPartition] = domain.Cursor{
		Offset: *legacy.Offset,
		Total:  *legacy.TotalResults,
	}
	if err := saveDocument(s.path, doc); err != nil {
		return fmt.Errorf("failed to migrate legacy cursor document: %w", err)
	}
	log.Info().Str("path", s.path).Msg("Migrated legacy cursor document")
	return nil
}

// Put atomically overwrites the cursor for the partition. offset <= total is
// the caller's responsibility.
func (s *CursorStore) Put(partition string, offset, total int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := loadDocument[domain.Cursor](s.path)
	if err != nil {
		log.Warn().Err(err).Msg("Cursor document unreadable, rewriting from scratch")
		doc = newDocument[domain.Cursor]()
	}

	doc.Partitions[partition] = domain.Cursor{Offset: offset, Total: total}
	return saveDocument(s.path, doc)
}

// Get returns the current cursor for the partition, defaulting to {0, 0}.
// Read failures degrade to the default and are only logged.
func (s *CursorStore) Get(partition string) domain.Cursor {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := loadDocument[domain.Cursor](s.path)
	if err != nil {
		log.Warn().Err(err).Str("partition", partition).Msg("Cursor document unreadable, treating as default")
		return domain.Cursor{}
	}
	return doc.Partitions[partition]
}
