package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// CounterMap is a map of named engagement counters stored as a JSON column.
// It implements sql.Scanner and driver.Valuer so sqlx can move it between
// Go and the database without per-counter columns.
type CounterMap map[string]int64

// Scan implements the sql.Scanner interface.
func (c *CounterMap) Scan(value any) error {
	if value == nil {
		*c = nil
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return errors.New("unsupported type for CounterMap")
	}

	if len(data) == 0 {
		*c = CounterMap{}
		return nil
	}

	return json.Unmarshal(data, c)
}

// Value implements the driver.Valuer interface.
func (c CounterMap) Value() (driver.Value, error) {
	if len(c) == 0 {
		return []byte("{}"), nil
	}
	return json.Marshal(c)
}

// StringList is an ordered list of strings stored as a JSON column.
type StringList []string

// Scan implements the sql.Scanner interface.
func (s *StringList) Scan(value any) error {
	if value == nil {
		*s = nil
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return errors.New("unsupported type for StringList")
	}

	if len(data) == 0 {
		*s = nil
		return nil
	}

	return json.Unmarshal(data, s)
}

// Value implements the driver.Valuer interface.
func (s StringList) Value() (driver.Value, error) {
	if len(s) == 0 {
		return []byte("[]"), nil
	}
	return json.Marshal(s)
}
