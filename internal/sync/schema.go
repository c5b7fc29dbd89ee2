package sync

import (
	"strings"
)

// TenantColumn is the scope column every synchronizable table carries. Its
// value is always forced to the caller's customerApiId, never trusted from
// the record payload.
const TenantColumn = "CustomerApiId"

// Record is one synchronizable row as exchanged with the desktop client,
// keyed by the schema's column names.
type Record map[string]interface{}

// EntitySchema declares one synchronizable record type. The generic engine
// derives all of its SQL and normalization behavior from this value; there is
// one schema per category and no per-entity code.
type EntitySchema struct {
	// Table is the storage table identity.
	Table string
	// PrimaryKey is the column holding the caller-supplied sync identity.
	PrimaryKey string
	// Columns is the full ordered column list, including PrimaryKey and
	// TenantColumn.
	Columns []string
	// Nullable lists the columns that accept null.
	Nullable []string
	// Boolean lists the columns whose values are canonicalized to bool.
	Boolean []string
	// CallerKey reports whether the desktop client mints the primary key
	// itself (true) or relies on storage assignment (false). Push rejects a
	// missing key for caller-keyed schemas and mints a uuid otherwise.
	CallerKey bool
	// SoftDelete names the logical-removal column, empty when the entity
	// has none.
	SoftDelete string
	// OrderBy names the default pull ordering column; the primary key is
	// used when unset.
	OrderBy string
}

// OrderColumn returns the pull ordering column.
func (s EntitySchema) OrderColumn() string {
	if s.OrderBy != "" {
		return s.OrderBy
	}
	return s.PrimaryKey
}

// IsNullable reports whether the column accepts null.
func (s EntitySchema) IsNullable(column string) bool {
	for _, c := range s.Nullable {
		if c == column {
			return true
		}
	}
	return false
}

// IsBoolean reports whether the column is declared boolean.
func (s EntitySchema) IsBoolean(column string) bool {
	for _, c := range s.Boolean {
		if c == column {
			return true
		}
	}
	return false
}

// HasColumn reports whether the column is part of the schema.
func (s EntitySchema) HasColumn(column string) bool {
	for _, c := range s.Columns {
		if c == column {
			return true
		}
	}
	return false
}

// NormalizeValue canonicalizes a record value for storage. Boolean-declared
// columns accept bool, numeric, and the string spellings "true"/"1" and
// "false"/"0"; anything else is truthy-cast. Other columns pass through.
func (s EntitySchema) NormalizeValue(column string, value interface{}) interface{} {
	if value == nil {
		return nil
	}

	if b, ok := value.(bool); ok {
		return b
	}

	if !s.IsBoolean(column) {
		return value
	}

	switch v := value.(type) {
	case string:
		normalized := strings.ToLower(strings.TrimSpace(v))
		if normalized == "true" || normalized == "1" {
			return true
		}
		if normalized == "false" || normalized == "0" {
			return false
		}
		return normalized != ""
	case float64:
		return v != 0
	case int:
		return v != 0
	case int64:
		return v != 0
	default:
		return true
	}
}

// NormalizeIdentity canonicalizes a sync identity value. String identities
// are trimmed and empty maps to nil; numeric identities pass through.
func NormalizeIdentity(value interface{}) interface{} {
	if value == nil {
		return nil
	}

	if s, ok := value.(string); ok {
		s = strings.TrimSpace(s)
		if s == "" {
			return nil
		}
		return s
	}

	return value
}
