package utils

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSONB stores any JSON-serialisable value in a json/jsonb (or TEXT) column.
type JSONB[T any] struct {
	V T
}

func (j JSONB[T]) Value() (driver.Value, error) {
	b, err := json.Marshal(j.V)
	if err != nil {
		return nil, fmt.Errorf("JSONB: Value failed: %w", err)
	}
	// lib/pq sends []byte as bytea, which jsonb rejects.
	return string(b), nil
}

func (j *JSONB[T]) Scan(value any) error {
	var b []byte
	switch v := value.(type) {
	case nil:
		var zero T
		j.V = zero
		return nil
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("JSONB: Scan failed, expected []byte or string but got %T", value)
	}
	return json.Unmarshal(b, &j.V)
}
