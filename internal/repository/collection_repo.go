package repository

import (
	"database/sql"
	"fmt"

	"github.com/orientwatch/backend/internal/domain"
)

type CollectionRepo struct {
	db *sql.DB
}

func NewCollectionRepo(db *sql.DB) *CollectionRepo {
	return &CollectionRepo{db: db}
}

// Upsert inserts or replaces a collection keyed by its slug.
func (r *CollectionRepo) Upsert(c *domain.Collection) error {
	_, err := r.db.Exec(
		`INSERT INTO collections (id, name, description, image, number, active)
		 VALUES (?,?,?,?,?,?)
		 ON CONFLICT(id) DO UPDATE SET
		   name=excluded.name, description=excluded.description,
		   image=excluded.image, number=excluded.number, active=excluded.active`,
		c.ID, c.Name, c.Description, c.Image, c.Number, boolToInt(c.Active),
	)
	if err != nil {
		return fmt.Errorf("upsert collection: %w", err)
	}
	return nil
}

func (r *CollectionRepo) GetByID(id string) (*domain.Collection, error) {
	var c domain.Collection
	var active int
	err := r.db.QueryRow(
		"SELECT id, name, description, image, number, active FROM collections WHERE id = ?", id,
	).Scan(&c.ID, &c.Name, &c.Description, &c.Image, &c.Number, &active)
	if err != nil {
		return nil, err
	}
	c.Active = active != 0
	return &c, nil
}

func (r *CollectionRepo) Delete(id string) error {
	res, err := r.db.Exec("DELETE FROM collections WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete collection: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// List returns collections, optionally only active ones.
func (r *CollectionRepo) List(activeOnly bool) ([]domain.Collection, error) {
	query := "SELECT id, name, description, image, number, active FROM collections"
	if activeOnly {
		query += " WHERE active = 1"
	}
	query += " ORDER BY number, id"

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	var collections []domain.Collection
	for rows.Next() {
		var c domain.Collection
		var active int
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.Image, &c.Number, &active); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		c.Active = active != 0
		collections = append(collections, c)
	}
	return collections, rows.Err()
}
