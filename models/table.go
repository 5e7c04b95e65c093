package models

import "strings"

// Table is a header plus records read from a tabular source.
type Table struct {
	Source  string
	Columns []string
	Records [][]string
	// Lines holds the source line each record starts on, when known.
	Lines []int
}

// NormaliseColumns trims and lower-cases the header in place.
func (t *Table) NormaliseColumns() {
	for i, c := range t.Columns {
		t.Columns[i] = strings.ToLower(strings.TrimSpace(c))
	}
}

// Index returns the position of each column name. The first occurrence of a
// repeated header wins.
func (t *Table) Index() map[string]int {
	idx := make(map[string]int, len(t.Columns))
	for i, c := range t.Columns {
		if _, ok := idx[c]; !ok {
			idx[c] = i
		}
	}
	return idx
}

// Missing returns the names in want that are not in the header.
func (t *Table) Missing(want []string) []string {
	idx := t.Index()
	var missing []string
	for _, c := range want {
		if _, ok := idx[c]; !ok {
			missing = append(missing, c)
		}
	}
	return missing
}

// Cell returns a pointer to the value at column pos of record, or nil when the
// record is too short to hold it.
func Cell(record []string, pos int) *string {
	if pos < 0 || pos >= len(record) {
		return nil
	}
	v := record[pos]
	return &v
}
