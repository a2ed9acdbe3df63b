package overlaypost

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a requested template does not exist.
var ErrNotFound = sql.ErrNoRows

// Store wraps a SQLite database holding the template library.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the SQLite database at path, ensures the data
// directory exists, and runs schema migrations.
func NewStore(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// WAL lets the form read the library while an upload is being written.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
	`); err != nil {
		db.Close()
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping reports whether the database is reachable.
func (s *Store) Ping() error {
	return s.db.Ping()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS templates (
    slug TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    width INTEGER NOT NULL,
    height INTEGER NOT NULL,
    data BLOB NOT NULL,
    thumb BLOB NOT NULL,
    uploaded_at TEXT NOT NULL
);
`)
	return err
}

// ListTemplates returns every saved template, newest first. Data is left
// empty; use GetTemplate for the full image.
func (s *Store) ListTemplates() ([]Template, error) {
	rows, err := s.db.Query(`SELECT slug, name, width, height, thumb, uploaded_at FROM templates ORDER BY uploaded_at DESC, slug`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var templates []Template
	for rows.Next() {
		var t Template
		if err := rows.Scan(&t.Slug, &t.Name, &t.Width, &t.Height, &t.Thumb, &t.UploadedAt); err != nil {
			return nil, err
		}
		templates = append(templates, t)
	}
	return templates, rows.Err()
}

// GetTemplate returns a saved template including its image data.
func (s *Store) GetTemplate(slug string) (Template, error) {
	t := Template{Slug: slug}
	err := s.db.QueryRow(`SELECT name, width, height, data, thumb, uploaded_at FROM templates WHERE slug = ?`, slug).
		Scan(&t.Name, &t.Width, &t.Height, &t.Data, &t.Thumb, &t.UploadedAt)
	if err != nil {
		return Template{}, err
	}
	return t, nil
}

// HasTemplate reports whether slug is taken.
func (s *Store) HasTemplate(slug string) (bool, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(1) FROM templates WHERE slug = ?`, slug).Scan(&n)
	return n > 0, err
}

// SaveTemplate upserts a template.
func (s *Store) SaveTemplate(t Template) error {
	if len(t.Data) == 0 {
		return errors.New("template has no image data")
	}
	_, err := s.db.Exec(`INSERT OR REPLACE INTO templates (slug, name, width, height, data, thumb, uploaded_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.Slug, t.Name, t.Width, t.Height, t.Data, t.Thumb, t.UploadedAt)
	return err
}

// DeleteTemplate removes a template by slug.
func (s *Store) DeleteTemplate(slug string) error {
	_, err := s.db.Exec(`DELETE FROM templates WHERE slug = ?`, slug)
	return err
}
