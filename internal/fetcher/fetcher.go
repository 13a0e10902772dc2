// Package fetcher reads tabular reference and registry files: streaming
// CSV, XLSX sheets and single-entry ZIP archives.
package fetcher

import (
	"strings"

	"github.com/rotisserie/eris"
)

// Header maps column names of a tabular file to their positions. Lookups
// ignore case and surrounding whitespace.
type Header struct {
	index map[string]int
	names []string
}

// NewHeader indexes row. A duplicated column name keeps its first position.
func NewHeader(row []string) Header {
	h := Header{index: make(map[string]int, len(row)), names: make([]string, len(row))}
	for i, name := range row {
		name = strings.TrimSpace(strings.TrimPrefix(name, bom))
		h.names[i] = name
		key := strings.ToLower(name)
		if _, ok := h.index[key]; !ok {
			h.index[key] = i
		}
	}
	return h
}

// Names returns the column names in file order.
func (h Header) Names() []string {
	return h.names
}

// Has reports whether column exists.
func (h Header) Has(column string) bool {
	_, ok := h.index[strings.ToLower(strings.TrimSpace(column))]
	return ok
}

// Require returns an error naming every missing column.
func (h Header) Require(columns ...string) error {
	var missing []string
	for _, c := range columns {
		if !h.Has(c) {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return eris.Errorf("fetcher: missing columns %q", missing)
	}
	return nil
}

// Get returns the trimmed value of column in row, or "" when the column is
// unknown or the row is short.
func (h Header) Get(row []string, column string) string {
	i, ok := h.index[strings.ToLower(strings.TrimSpace(column))]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
