package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// LocalizedText carries the multilingual name/title/content fields used by
// all academic and site-content entities. French is the reference locale and
// is mandatory; Arabic and English are optional. Stored as JSONB.
type LocalizedText struct {
	Fr string  `json:"fr" validate:"required"`
	Ar *string `json:"ar,omitempty"`
	En *string `json:"en,omitempty"`
}

// In returns the text for the requested locale, falling back to French.
func (t LocalizedText) In(locale string) string {
	switch locale {
	case "ar":
		if t.Ar != nil && *t.Ar != "" {
			return *t.Ar
		}
	case "en":
		if t.En != nil && *t.En != "" {
			return *t.En
		}
	}
	return t.Fr
}

// IsZero reports whether no locale carries a value.
func (t LocalizedText) IsZero() bool {
	return t.Fr == "" && t.Ar == nil && t.En == nil
}

// Value implements driver.Valuer for JSONB columns.
func (t LocalizedText) Value() (driver.Value, error) {
	return json.Marshal(t)
}

// Scan implements sql.Scanner for JSONB columns.
func (t *LocalizedText) Scan(src interface{}) error {
	if src == nil {
		*t = LocalizedText{}
		return nil
	}
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, t)
	case string:
		return json.Unmarshal([]byte(v), t)
	default:
		return fmt.Errorf("unsupported localized text source %T", src)
	}
}

// NullableLocalizedText wraps LocalizedText for optional JSONB columns.
type NullableLocalizedText struct {
	Text  LocalizedText
	Valid bool
}

// MarshalJSON renders null when unset.
func (n NullableLocalizedText) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Text)
}

// UnmarshalJSON accepts null or a localized object.
func (n *NullableLocalizedText) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		n.Valid = false
		n.Text = LocalizedText{}
		return nil
	}
	if err := json.Unmarshal(data, &n.Text); err != nil {
		return err
	}
	n.Valid = true
	return nil
}

// Value implements driver.Valuer.
func (n NullableLocalizedText) Value() (driver.Value, error) {
	if !n.Valid {
		return nil, nil
	}
	return n.Text.Value()
}

// Scan implements sql.Scanner.
func (n *NullableLocalizedText) Scan(src interface{}) error {
	if src == nil {
		n.Valid = false
		n.Text = LocalizedText{}
		return nil
	}
	n.Valid = true
	return n.Text.Scan(src)
}
