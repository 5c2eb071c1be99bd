package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"installment-tracker/internal/models"

	_ "modernc.org/sqlite"
)

// SQLite is a local, file-backed record store.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens (or creates) the database file at path.
func NewSQLite(ctx context.Context, path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// One connection keeps writes serialized and :memory: databases shared.
	db.SetMaxOpenConns(1)

	s := &SQLite{db: db}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *SQLite) initSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS records (
			id TEXT PRIMARY KEY,
			type TEXT NOT NULL,
			body TEXT NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create records table: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create settings table: %w", err)
	}
	return nil
}

// Close closes the database
func (s *SQLite) Close(ctx context.Context) error {
	return s.db.Close()
}

// Put upserts a record keyed by its id.
func (s *SQLite) Put(ctx context.Context, r models.Record) error {
	if err := checkPut(r); err != nil {
		return err
	}

	var tag string
	switch v := r.(type) {
	case *models.InstallmentGroup:
		tag = models.RecordTypeInstallmentGroup
	case *models.Transaction:
		tag = string(v.Type)
	}

	body, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to encode record %s: %w", r.RecordID(), err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO records (id, type, body) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET type = excluded.type, body = excluded.body
	`, r.RecordID(), tag, string(body))
	if err != nil {
		return fmt.Errorf("failed to save record %s: %w", r.RecordID(), err)
	}
	return nil
}

// GetAll returns every stored record.
func (s *SQLite) GetAll(ctx context.Context) ([]models.Record, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, type, body FROM records`)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch records: %w", err)
	}
	defer rows.Close()

	var records []models.Record
	for rows.Next() {
		var id, tag, body string
		if err := rows.Scan(&id, &tag, &body); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		records = append(records, decodeJSON(id, tag, []byte(body)))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate records: %w", err)
	}
	return records, nil
}

// Delete removes a record by id
func (s *SQLite) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM records WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete record %s: %w", id, err)
	}
	return nil
}

// GetWatermark returns the last scheduled processing time, if one was saved.
func (s *SQLite) GetWatermark(ctx context.Context) (time.Time, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, WatermarkKey).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to read watermark: %w", err)
	}

	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to parse watermark %q: %w", value, err)
	}
	return t, true, nil
}

// SetWatermark stores the last scheduled processing time.
func (s *SQLite) SetWatermark(ctx context.Context, t time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, WatermarkKey, t.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to save watermark: %w", err)
	}
	return nil
}

func decodeJSON(id, tag string, body []byte) models.Record {
	if models.IsGroupType(tag) {
		var g models.InstallmentGroup
		if err := json.Unmarshal(body, &g); err != nil {
			return &models.Malformed{ID: id, Reason: err.Error()}
		}
		return &g
	}

	var tx models.Transaction
	if err := json.Unmarshal(body, &tx); err != nil {
		return &models.Malformed{ID: id, Reason: err.Error()}
	}
	return &tx
}
