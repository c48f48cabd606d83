package report

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/streamscan/streamscan/internal/model"
)

// DocumentStore persists one JSON stream document (active streams or
// stream history) at a fixed path.
//
// All updates are read-modify-write: load the existing document, apply
// the change, write the whole document back. A missing or corrupt file
// degrades to an empty document rather than failing, so a damaged
// artifact never blocks the monitor.
type DocumentStore struct {
	path   string
	logger *slog.Logger
}

// NewDocumentStore creates a store for the document at path.
func NewDocumentStore(path string, logger *slog.Logger) *DocumentStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &DocumentStore{path: path, logger: logger}
}

// Path returns the backing file path.
func (s *DocumentStore) Path() string {
	return s.path
}

// Load reads the document from disk.
// A missing file or undecodable content yields an empty document.
func (s *DocumentStore) Load() *model.StreamDocument {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("failed to read stream document, starting empty",
				"path", s.path,
				"error", err,
			)
		}
		return model.NewStreamDocument()
	}

	doc := model.NewStreamDocument()
	if err := json.Unmarshal(data, doc); err != nil {
		s.logger.Warn("corrupt stream document, starting empty",
			"path", s.path,
			"error", err,
		)
		return model.NewStreamDocument()
	}
	return doc
}

// Save writes the whole document back to disk.
func (s *DocumentStore) Save(doc *model.StreamDocument) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal stream document: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write stream document %s: %w", s.path, err)
	}
	return nil
}

// Upsert loads the document, inserts or replaces the record by URL, and
// writes the document back.
func (s *DocumentStore) Upsert(rec *model.ActiveStreamRecord) error {
	doc := s.Load()
	doc.Upsert(rec)
	return s.Save(doc)
}

// Remove loads the document, drops the record with the given URL if
// present, and writes the document back.
func (s *DocumentStore) Remove(url string) error {
	doc := s.Load()

	kept := doc.Streams[:0]
	for _, rec := range doc.Streams {
		if rec.URL != url {
			kept = append(kept, rec)
		}
	}
	doc.Streams = kept

	return s.Save(doc)
}
