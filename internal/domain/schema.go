package domain

import (
	"fmt"
	"strings"
	"time"
)

// Relationship is a declared foreign key, recorded child -> parent.
// For join-path purposes it is treated as undirected.
type Relationship struct {
	FromTable string `json:"from_table"`
	FromCol   string `json:"from_col"`
	ToTable   string `json:"to_table"`
	ToCol     string `json:"to_col"`
}

// String renders the relationship as "A.colX = B.colY".
func (r Relationship) String() string {
	return fmt.Sprintf("%s.%s = %s.%s", r.FromTable, r.FromCol, r.ToTable, r.ToCol)
}

// ForeignKey is one foreign-key column pair as reported by a warehouse.
type ForeignKey struct {
	Column    string
	RefTable  string
	RefColumn string
}

// SchemaSnapshot is the read-only result of introspecting the warehouse.
type SchemaSnapshot struct {
	// Text is the human-readable schema, one "table(col, col, ...)" line per table.
	Text string `json:"schema_text"`
	// Tables lists table names in enumeration order.
	Tables []string `json:"tables"`
	// Columns maps table name to its columns in database order.
	Columns map[string][]string `json:"columns"`
	// Relationships lists foreign keys in declaration order.
	Relationships []Relationship `json:"relationships"`
}

// HasTable reports whether name is a catalogued table.
func (s *SchemaSnapshot) HasTable(name string) bool {
	_, ok := s.Columns[name]
	return ok
}

// ResolveTable finds the catalogued spelling of name, ignoring case.
func (s *SchemaSnapshot) ResolveTable(name string) (string, bool) {
	if s.HasTable(name) {
		return name, true
	}
	for _, t := range s.Tables {
		if strings.EqualFold(t, name) {
			return t, true
		}
	}
	return "", false
}

// Validate checks the snapshot invariants: every table appears in the
// schema text and relationships only reference catalogued tables.
func (s *SchemaSnapshot) Validate() error {
	for _, t := range s.Tables {
		if !strings.Contains(s.Text, t+"(") {
			return fmt.Errorf("table %q missing from schema text", t)
		}
	}
	for _, r := range s.Relationships {
		if !s.HasTable(r.FromTable) || !s.HasTable(r.ToTable) {
			return fmt.Errorf("relationship %s references an unknown table", r)
		}
	}
	return nil
}

// DateRange holds min/max bounds of a date-like column, rendered as text.
type DateRange struct {
	Min string `json:"min"`
	Max string `json:"max"`
}

// DateRanges maps table -> column -> bounds.
type DateRanges map[string]map[string]DateRange

// CatalogState is the planning context built at startup: schema plus date
// ranges. A state value is never mutated after construction.
type CatalogState struct {
	Snapshot   *SchemaSnapshot
	DateRanges DateRanges
	LoadedAt   time.Time
}
