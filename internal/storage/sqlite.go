package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/kotaehq/kotae/internal/models"
)

// SQLiteRegistry implements Registry using SQLite.
type SQLiteRegistry struct {
	db *sql.DB
}

// NewSQLiteRegistry opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteRegistry(dbPath string) (*SQLiteRegistry, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteRegistry{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		stored_name TEXT NOT NULL,
		content_type TEXT,
		size_bytes INTEGER NOT NULL,
		uploaded_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_documents_uploaded_at ON documents(uploaded_at);
	`
	_, err := db.Exec(schema)
	return err
}

// Create inserts a document record. A document with the same name replaces
// the previous record, matching re-upload semantics.
func (s *SQLiteRegistry) Create(ctx context.Context, doc *models.Document) error {
	if doc.UploadedAt.IsZero() {
		doc.UploadedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (id, name, stored_name, content_type, size_bytes, uploaded_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET
		   id = excluded.id,
		   stored_name = excluded.stored_name,
		   content_type = excluded.content_type,
		   size_bytes = excluded.size_bytes,
		   uploaded_at = excluded.uploaded_at`,
		doc.ID, doc.Name, doc.StoredName, doc.ContentType, doc.SizeBytes, doc.UploadedAt,
	)
	return err
}

// Get returns a document record by its original name.
func (s *SQLiteRegistry) Get(ctx context.Context, name string) (*models.Document, error) {
	var doc models.Document
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, stored_name, content_type, size_bytes, uploaded_at
		 FROM documents WHERE name = ?`, name,
	).Scan(&doc.ID, &doc.Name, &doc.StoredName, &doc.ContentType, &doc.SizeBytes, &doc.UploadedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("document not found: %s", name)
	}
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	return &doc, nil
}

// List returns all document records ordered by upload time, newest first.
func (s *SQLiteRegistry) List(ctx context.Context) ([]*models.Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, stored_name, content_type, size_bytes, uploaded_at
		 FROM documents ORDER BY uploaded_at DESC, name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var docs []*models.Document
	for rows.Next() {
		var doc models.Document
		if err := rows.Scan(&doc.ID, &doc.Name, &doc.StoredName, &doc.ContentType, &doc.SizeBytes, &doc.UploadedAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, &doc)
	}
	return docs, rows.Err()
}

// Delete removes a document record by name.
func (s *SQLiteRegistry) Delete(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("document not found: %s", name)
	}
	return nil
}

// DeleteAll removes every document record.
func (s *SQLiteRegistry) DeleteAll(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM documents`)
	return err
}

// Count returns the number of document records.
func (s *SQLiteRegistry) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&n)
	return n, err
}

// Close closes the database.
func (s *SQLiteRegistry) Close() error {
	return s.db.Close()
}
