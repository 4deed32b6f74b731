package refdata

import (
	"strings"
)

// Table is a loaded reference table: a header plus string rows, all cells trimmed.
type Table struct {
	Name     string
	Header   []string
	Rows     [][]string
	Encoding string
	Skipped  int // rows dropped because they had more fields than the header
}

var columnNameSanitizer = strings.NewReplacer(" ", "", "_", "", ".", "", "-", "", "/", "")

func normalizeColumnName(name string) string {
	name = strings.TrimSpace(strings.ToLower(name))
	return columnNameSanitizer.Replace(name)
}

// Index returns the position of the first header matching any of the given
// names, compared case-insensitively and ignoring spaces and punctuation
// separators. It returns -1 when none match.
func (t *Table) Index(names ...string) int {
	if len(names) == 0 {
		return -1
	}
	targets := make(map[string]struct{}, len(names))
	for _, name := range names {
		targets[normalizeColumnName(name)] = struct{}{}
	}
	for i, h := range t.Header {
		if _, ok := targets[normalizeColumnName(h)]; ok {
			return i
		}
	}
	return -1
}

// Has reports whether every name resolves to a column.
func (t *Table) Has(names ...string) bool {
	for _, n := range names {
		if t.Index(n) < 0 {
			return false
		}
	}
	return true
}

// Missing lists the names that do not resolve to a column.
func (t *Table) Missing(names ...string) []string {
	var out []string
	for _, n := range names {
		if t.Index(n) < 0 {
			out = append(out, n)
		}
	}
	return out
}

// Contains returns the first column whose raw header contains substr.
func (t *Table) Contains(substr string) int {
	for i, h := range t.Header {
		if strings.Contains(h, substr) {
			return i
		}
	}
	return -1
}

// Rename applies an alias table: any header equal to a key (after trimming)
// is replaced by the mapped canonical name.
func (t *Table) Rename(aliases map[string]string) {
	for i, h := range t.Header {
		if canonical, ok := aliases[strings.TrimSpace(h)]; ok {
			t.Header[i] = canonical
		}
	}
}

// Cell returns the value of column idx in row, or "" when idx is out of range.
func Cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

// Column collects every value of column idx.
func (t *Table) Column(idx int) []string {
	out := make([]string, 0, len(t.Rows))
	for _, r := range t.Rows {
		out = append(out, Cell(r, idx))
	}
	return out
}

// GroupBy indexes row positions by the value of column idx, preserving file order.
func (t *Table) GroupBy(idx int) map[string][]int {
	groups := make(map[string][]int)
	for i, r := range t.Rows {
		key := Cell(r, idx)
		groups[key] = append(groups[key], i)
	}
	return groups
}

// Len returns the number of data rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}
