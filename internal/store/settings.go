package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// SetValue upserts a settings entry.
func (db *DB) SetValue(key, value string) error {
	now := time.Now().UnixMilli()
	_, err := db.Exec(`
		INSERT INTO settings (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, now)
	return err
}

// GetValue returns a settings entry, or empty string when absent.
func (db *DB) GetValue(key string) (string, error) {
	var value string
	err := db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

// SetIDSet persists an unordered id collection under the key as JSON.
func (db *DB) SetIDSet(key string, ids []int64) error {
	if ids == nil {
		ids = []int64{}
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("encode id set: %w", err)
	}
	return db.SetValue(key, string(data))
}

// GetIDSet loads an id collection stored by SetIDSet. A missing key yields an
// empty set.
func (db *DB) GetIDSet(key string) ([]int64, error) {
	raw, err := db.GetValue(key)
	if err != nil {
		return nil, err
	}
	if raw == "" {
		return nil, nil
	}
	var ids []int64
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil, fmt.Errorf("decode id set: %w", err)
	}
	return ids, nil
}
