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

const resultsFile = "results.json"

// ResultStore persists the most recent full search result per partition key
// in a single JSON document. Implements domain.ResultStore.
type ResultStore struct {
	path string
	mu   sync.Mutex
}

// NewResultStore creates the store, ensuring the storage directory exists and
// migrating any legacy pre-versioned document in place.
func NewResultStore(dir string) (*ResultStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage dir: %w", err)
	}
	s := &ResultStore{path: filepath.Join(dir, resultsFile)}
	if err := s.migrateLegacy(); err != nil {
		return nil, err
	}
	return s, nil
}

// migrateLegacy upgrades the pre-versioned layout (a bare top-level array,
// implicitly single-partition) to the versioned per-partition document. Runs
// once at startup so read paths never shape-sniff.
func (s *ResultStore) migrateLegacy() error {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil // nothing on disk yet
	}

	var items []domain.Perfume
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil // already versioned, or corrupt; reads handle both
	}

	doc := newDocument[[]domain.Perfume]()
	doc.Partitions[legacyPartition] = items
	if err := saveDocument(s.path, doc); err != nil {
		return fmt.Errorf("failed to migrate legacy result document: %w", err)
	}
	log.Info().Str("path", s.path).Int("items", len(items)).Msg("Migrated legacy result document")
	return nil
}

// Put overwrites the ResultSet for the partition. Other partitions are
// untouched.
func (s *ResultStore) Put(partition string, items []domain.Perfume) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := loadDocument[[]domain.Perfume](s.path)
	if err != nil {
		// Corrupt document: start over rather than refusing writes.
		log.Warn().Err(err).Msg("Result document unreadable, rewriting from scratch")
		doc = newDocument[[]domain.Perfume]()
	}

	if items == nil {
		items = []domain.Perfume{}
	}
	doc.Partitions[partition] = items
	return saveDocument(s.path, doc)
}

// Get returns the current ResultSet for the partition, or an empty slice.
// Read failures degrade to "no results yet" and are only logged.
func (s *ResultStore) Get(partition string) []domain.Perfume {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := loadDocument[[]domain.Perfume](s.path)
	if err != nil {
		log.Warn().Err(err).Str("partition", partition).Msg("Result document unreadable, treating as empty")
		return nil
	}
	return doc.Partitions[partition]
}
