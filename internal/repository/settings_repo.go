package repository

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/orientwatch/backend/internal/domain"
)

// SettingsRepo persists the single site settings row as a JSON document.
type SettingsRepo struct {
	db *sql.DB
}

func NewSettingsRepo(db *sql.DB) *SettingsRepo {
	return &SettingsRepo{db: db}
}

// Get returns the stored settings, or the defaults if none were saved yet.
func (r *SettingsRepo) Get() (*domain.Settings, error) {
	var body string
	err := r.db.QueryRow("SELECT body FROM settings WHERE id = 1").Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		s := domain.DefaultSettings()
		return &s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get settings: %w", err)
	}

	var s domain.Settings
	if err := json.Unmarshal([]byte(body), &s); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}
	return &s, nil
}

func (r *SettingsRepo) Put(s *domain.Settings) error {
	body, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	_, err = r.db.Exec(
		`INSERT INTO settings (id, body) VALUES (1, ?)
		 ON CONFLICT(id) DO UPDATE SET body=excluded.body`,
		string(body),
	)
	if err != nil {
		return fmt.Errorf("put settings: %w", err)
	}
	return nil
}
