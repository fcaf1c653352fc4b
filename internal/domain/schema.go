package domain

import "strings"

// ColumnType is the semantic type inferred for a column, distinct from its
// raw string representation in the source file.
type ColumnType string

const (
	TypeInteger ColumnType = "INTEGER"
	TypeFloat   ColumnType = "FLOAT"
	TypeDate    ColumnType = "DATE"
	TypeVariant ColumnType = "VARIANT"
	TypeString  ColumnType = "STRING"
)

// Column pairs a normalized column name with its semantic type.
type Column struct {
	Name string
	Type ColumnType
}

// ColumnSchema is an ordered mapping of column name to semantic type.
// Order is the insertion order from the source header and is preserved
// in every generated table definition. Names are stored normalized
// (upper-case, trimmed); lookups are case-insensitive.
type ColumnSchema struct {
	columns []Column
	index   map[string]int
}

// NormalizeColumnName trims and upper-cases a source header name for
// storage in the schema and in generated identifiers.
func NormalizeColumnName(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

// NewColumnSchema creates an empty schema.
func NewColumnSchema() *ColumnSchema {
	return &ColumnSchema{index: make(map[string]int)}
}

// Add appends a column. Re-adding an existing name overwrites its type in
// place without changing column order.
func (s *ColumnSchema) Add(name string, t ColumnType) {
	norm := NormalizeColumnName(name)
	if i, ok := s.index[norm]; ok {
		s.columns[i].Type = t
		return
	}
	s.index[norm] = len(s.columns)
	s.columns = append(s.columns, Column{Name: norm, Type: t})
}

// Columns returns the columns in insertion order.
func (s *ColumnSchema) Columns() []Column {
	out := make([]Column, len(s.columns))
	copy(out, s.columns)
	return out
}

// Names returns the normalized column names in insertion order.
func (s *ColumnSchema) Names() []string {
	out := make([]string, len(s.columns))
	for i, c := range s.columns {
		out[i] = c.Name
	}
	return out
}

// TypeOf returns the type for a column name (case-insensitive).
func (s *ColumnSchema) TypeOf(name string) (ColumnType, bool) {
	i, ok := s.index[NormalizeColumnName(name)]
	if !ok {
		return "", false
	}
	return s.columns[i].Type, true
}

// Len returns the number of columns.
func (s *ColumnSchema) Len() int { return len(s.columns) }
