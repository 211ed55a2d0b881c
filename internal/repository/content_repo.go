package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/orientwatch/backend/internal/domain"
)

type ContentRepo struct {
	db *sql.DB
}

func NewContentRepo(db *sql.DB) *ContentRepo {
	return &ContentRepo{db: db}
}

// Get returns a content block by name. Returns sql.ErrNoRows when the block
// has never been saved; callers fall back to their defaults.
func (r *ContentRepo) Get(name string) (*domain.ContentBlock, error) {
	var b domain.ContentBlock
	var updatedAt string
	err := r.db.QueryRow(
		"SELECT name, body, updated_at FROM content_blocks WHERE name = ?", name,
	).Scan(&b.Name, &b.Body, &updatedAt)
	if err != nil {
		return nil, err
	}
	b.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	return &b, nil
}

// Put stores a content block, replacing any previous body. The body must be
// valid JSON; the admin panel owns its shape.
func (r *ContentRepo) Put(name, body string) error {
	if !json.Valid([]byte(body)) {
		return fmt.Errorf("content block %s: body is not valid JSON", name)
	}
	_, err := r.db.Exec(
		`INSERT INTO content_blocks (name, body, updated_at) VALUES (?,?,?)
		 ON CONFLICT(name) DO UPDATE SET body=excluded.body, updated_at=excluded.updated_at`,
		name, body, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("put content block: %w", err)
	}
	return nil
}
