// Package elf models the ELF reference code list and the abbreviation
// lookups derived from it.
package elf

import "slices"

// Status values used by the reference code list.
const (
	StatusActive   = "ACTV"
	StatusInactive = "INAC"
)

// ReferenceRow is one row of the ELF reference table. Empty strings mark
// absent optional values (Subdivision, Abbreviations).
type ReferenceRow struct {
	Country       string `json:"country"`
	Subdivision   string `json:"subdivision,omitempty"`
	Code          string `json:"code"`
	LocalName     string `json:"local_name"`
	Abbreviations string `json:"abbreviations,omitempty"` // semicolon-delimited
	Status        string `json:"status"`
}

// Jurisdiction returns the subdivision code when present, else the country code.
func (r ReferenceRow) Jurisdiction() string {
	if r.Subdivision != "" {
		return r.Subdivision
	}
	return r.Country
}

// Inactive reports whether the row's ELF code is flagged inactive.
func (r ReferenceRow) Inactive() bool {
	return r.Status == StatusInactive
}

// CodeList is the immutable, ordered reference table.
type CodeList struct {
	rows []ReferenceRow
}

// NewCodeList wraps rows. The slice is copied.
func NewCodeList(rows []ReferenceRow) *CodeList {
	return &CodeList{rows: slices.Clone(rows)}
}

// Rows returns a copy of the reference rows in load order.
func (c *CodeList) Rows() []ReferenceRow {
	return slices.Clone(c.rows)
}

// Len returns the number of reference rows.
func (c *CodeList) Len() int {
	return len(c.rows)
}

// InactiveCodes returns the set of ELF codes flagged inactive.
func (c *CodeList) InactiveCodes() map[string]struct{} {
	out := make(map[string]struct{})
	for _, r := range c.rows {
		if r.Inactive() {
			out[r.Code] = struct{}{}
		}
	}
	return out
}

// Active returns a CodeList without inactive rows.
func (c *CodeList) Active() *CodeList {
	rows := make([]ReferenceRow, 0, len(c.rows))
	for _, r := range c.rows {
		if !r.Inactive() {
			rows = append(rows, r)
		}
	}
	return &CodeList{rows: rows}
}

// LocalName returns the local-language legal form name of the first row
// carrying code, and false when the code is unknown.
func (c *CodeList) LocalName(code string) (string, bool) {
	for _, r := range c.rows {
		if r.Code == code {
			return r.LocalName, true
		}
	}
	return "", false
}

// Index builds the abbreviation index over the rows.
func (c *CodeList) Index() *Index {
	return FromReferenceTable(c.rows)
}
