package database

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/portfolio-comments-api/internal/config"
	"github.com/rs/zerolog"
)

// Document names one JSON file managed by the store
type Document string

const (
	DocComments     Document = "comments.json"
	DocReactions    Document = "reactions.json"
	DocSessions     Document = "admin-sessions.json"
	DocAuth         Document = "auth.json"
	DocVerification Document = "verify.json"
	DocImportAudit  Document = "import-audit.json"
)

var allDocuments = []Document{
	DocComments, DocReactions, DocSessions, DocAuth, DocVerification, DocImportAudit,
}

// DB is a flat-file JSON store: one pretty-printed document per file under a data directory.
// Writes overwrite the whole file in place. Access to each document is serialised by a
// per-document mutex, so read-modify-write cycles within this process do not lose updates.
type DB struct {
	dir   string
	locks map[Document]*sync.Mutex
	log   zerolog.Logger
}

// New creates a store rooted at cfg.DataDir. The directory is created lazily on first write.
func New(cfg *config.StorageConfig, log zerolog.Logger) (*DB, error) {
	if strings.TrimSpace(cfg.DataDir) == "" {
		return nil, fmt.Errorf("data dir is required")
	}

	locks := make(map[Document]*sync.Mutex, len(allDocuments))
	for _, doc := range allDocuments {
		locks[doc] = &sync.Mutex{}
	}

	db := &DB{
		dir:   cfg.DataDir,
		locks: locks,
		log:   log.With().Str("component", "database").Logger(),
	}

	db.log.Info().Str("data_dir", cfg.DataDir).Msg("JSON store ready")

	return db, nil
}

// Dir returns the data directory
func (db *DB) Dir() string {
	return db.dir
}

// Path returns the file path backing a document
func (db *DB) Path(doc Document) string {
	return filepath.Join(db.dir, string(doc))
}

func (db *DB) lock(doc Document) *sync.Mutex {
	if mu, ok := db.locks[doc]; ok {
		return mu
	}
	panic(fmt.Sprintf("database: unknown document %q", doc))
}

// Read returns the decoded document, or fallback when the file is missing,
// empty, null or malformed.
func Read[T any](db *DB, doc Document, fallback T) T {
	mu := db.lock(doc)
	mu.Lock()
	defer mu.Unlock()
	return read(db, doc, fallback)
}

// Write overwrites a document with v
func Write[T any](db *DB, doc Document, v T) error {
	mu := db.lock(doc)
	mu.Lock()
	defer mu.Unlock()
	return write(db, doc, v)
}

// Update runs a read-modify-write cycle on a document while holding its lock.
// fn receives the current value (or fallback) and reports whether it changed it;
// the document is only written back when it did.
func Update[T any](db *DB, doc Document, fallback T, fn func(T) (T, bool, error)) error {
	mu := db.lock(doc)
	mu.Lock()
	defer mu.Unlock()

	current := read(db, doc, fallback)
	next, changed, err := fn(current)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	return write(db, doc, next)
}

func read[T any](db *DB, doc Document, fallback T) T {
	data, err := os.ReadFile(db.Path(doc))
	if err != nil {
		if !os.IsNotExist(err) {
			db.log.Warn().Err(err).Str("document", string(doc)).Msg("Failed to read document, using default")
		}
		return fallback
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return fallback
	}

	var value *T
	if err := json.Unmarshal(data, &value); err != nil {
		db.log.Warn().Err(err).Str("document", string(doc)).Msg("Malformed document, using default")
		return fallback
	}
	if value == nil {
		return fallback
	}
	return *value
}

func write[T any](db *DB, doc Document, v T) error {
	if err := os.MkdirAll(db.dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", doc, err)
	}
	if err := os.WriteFile(db.Path(doc), data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", doc, err)
	}
	return nil
}

// HealthCheck verifies the data directory is usable (absent is fine until first write)
func (db *DB) HealthCheck() error {
	info, err := os.Stat(db.dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("data dir %s is not a directory", db.dir)
	}
	return nil
}
