// Package file implements the persisted pagination state stores. Each store
// keeps one human-readable JSON document on disk, keyed by partition id, with
// an explicit schema version. Writes replace the whole document through a
// temp-file rename so readers never observe a partially written file.
package file

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const schemaVersion = 1

// legacyPartition is where pre-versioned single-partition state lands during
// the one-time migration at startup.
const legacyPartition = "default"

type document[T any] struct {
	SchemaVersion int          `json:"schema_version"`
	Partitions    map[string]T `json:"partitions"`
}

func newDocument[T any]() document[T] {
	return document[T]{
		SchemaVersion: schemaVersion,
		Partitions:    make(map[string]T),
	}
}

// loadDocument reads and decodes the store document. A missing file is not an
// error: it yields an empty document. Corrupt content or an unknown schema
// version is reported so callers can apply their degrade policy.
func loadDocument[T any](path string) (document[T], error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return newDocument[T](), nil
		}
		return newDocument[T](), fmt.Errorf("failed to read %s: %w", path, err)
	}

	var doc document[T]
	if err := json.Unmarshal(raw, &doc); err != nil {
		return newDocument[T](), fmt.Errorf("failed to decode %s: %w", path, err)
	}
	if doc.SchemaVersion != schemaVersion {
		return newDocument[T](), fmt.Errorf("%s: unsupported schema version %d", path, doc.SchemaVersion)
	}
	if doc.Partitions == nil {
		doc.Partitions = make(map[string]T)
	}
	return doc, nil
}

// saveDocument atomically replaces the store document: encode to a temp file
// in the same directory, then rename over the target.
func saveDocument[T any](path string, doc document[T]) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close %s: %w", tmpName, err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
