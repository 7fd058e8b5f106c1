package table

import (
	"fmt"
	"strings"
)

// Table is an in-memory snapshot of a tabular input: a header row and string cells.
// Column lookups are case-insensitive.
type Table struct {
	Name   string
	Header []string
	Rows   [][]string
	index  map[string]int
}

// StructuralError reports an input table that cannot be processed at all.
type StructuralError struct {
	Table  string
	Column string
}

func (e *StructuralError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("table %q is missing", e.Table)
	}
	return fmt.Sprintf("table %q is missing required column %q", e.Table, e.Column)
}

// New creates a table and indexes its header.
func New(name string, header []string, rows [][]string) *Table {
	t := &Table{
		Name:   name,
		Header: header,
		Rows:   rows,
	}
	t.buildIndex()
	return t
}

func (t *Table) buildIndex() {
	t.index = make(map[string]int, len(t.Header))
	for i, h := range t.Header {
		key := normalizeKey(h)
		if _, exists := t.index[key]; !exists {
			t.index[key] = i
		}
	}
}

func normalizeKey(s string) string {
	s = strings.TrimPrefix(s, "\ufeff")
	return strings.ToLower(strings.TrimSpace(s))
}

// Index returns the position of a column, or -1 when absent.
func (t *Table) Index(column string) int {
	if t.index == nil {
		t.buildIndex()
	}
	if i, ok := t.index[normalizeKey(column)]; ok {
		return i
	}
	return -1
}

// Has reports whether the column exists.
func (t *Table) Has(column string) bool {
	return t.Index(column) >= 0
}

// Require checks the table exists and carries every listed column.
func Require(t *Table, name string, columns ...string) error {
	if t == nil {
		return &StructuralError{Table: name}
	}
	for _, c := range columns {
		if !t.Has(c) {
			return &StructuralError{Table: name, Column: c}
		}
	}
	return nil
}

// Cell returns the trimmed value of a column in a row; short rows yield "".
func (t *Table) Cell(row []string, column string) string {
	i := t.Index(column)
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}
