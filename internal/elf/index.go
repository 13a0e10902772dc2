package elf

import (
	"slices"
	"strings"
)

// CountryUS is the only country whose federal legal forms are replicated
// into every subdivision.
const CountryUS = "US"

type abbrKey struct {
	jurisdiction string
	abbreviation string
}

// Index maps jurisdictions to their known abbreviations and
// (jurisdiction, abbreviation) pairs to candidate ELF codes. It is
// read-only after construction and safe for concurrent use.
//
// Every abbreviation listed for a jurisdiction has at least one ELF code
// for the same jurisdiction.
type Index struct {
	abbreviations map[string][]string
	codes         map[abbrKey][]string
}

// FromReferenceTable builds an Index from reference rows:
//  1. US federal rows are copied into every observed US subdivision and
//     the federal originals are dropped.
//  2. Each row is keyed by its jurisdiction.
//  3. The abbreviation field is split on ";", entries are trimmed and empty
//     entries dropped; rows without abbreviations contribute nothing.
//  4. (jurisdiction, code, abbreviation) triples are deduplicated.
//  5. Both mappings hold sorted, distinct values.
func FromReferenceTable(rows []ReferenceRow) *Index {
	idx := &Index{
		abbreviations: make(map[string][]string),
		codes:         make(map[abbrKey][]string),
	}

	for _, r := range ExpandUSStates(rows) {
		if r.Abbreviations == "" {
			continue
		}
		j := r.Jurisdiction()
		for _, abbr := range SplitAbbreviations(r.Abbreviations) {
			k := abbrKey{jurisdiction: j, abbreviation: abbr}
			idx.abbreviations[j] = append(idx.abbreviations[j], abbr)
			idx.codes[k] = append(idx.codes[k], r.Code)
		}
	}

	for j, abbrs := range idx.abbreviations {
		idx.abbreviations[j] = sortedUnique(abbrs)
	}
	for k, codes := range idx.codes {
		idx.codes[k] = sortedUnique(codes)
	}
	return idx
}

// ExpandUSStates replicates US federal rows (no subdivision) into every US
// subdivision present in rows. The federal originals are not kept, so with
// no US subdivision rows the federal forms disappear entirely.
func ExpandUSStates(rows []ReferenceRow) []ReferenceRow {
	var (
		out     []ReferenceRow
		federal []ReferenceRow
		states  []string
		seen    = make(map[string]struct{})
	)
	for _, r := range rows {
		switch {
		case r.Country != CountryUS:
			out = append(out, r)
		case r.Subdivision == "":
			federal = append(federal, r)
		default:
			out = append(out, r)
			if _, ok := seen[r.Subdivision]; !ok {
				seen[r.Subdivision] = struct{}{}
				states = append(states, r.Subdivision)
			}
		}
	}

	for _, state := range states {
		for _, f := range federal {
			f.Subdivision = state
			out = append(out, f)
		}
	}
	return out
}

// SplitAbbreviations splits a semicolon-delimited abbreviation field.
func SplitAbbreviations(field string) []string {
	var out []string
	for _, a := range strings.Split(field, ";") {
		a = strings.TrimSpace(a)
		if a != "" {
			out = append(out, a)
		}
	}
	return out
}

// AbbreviationsFor returns the sorted abbreviations known for jurisdiction.
// Unknown jurisdictions yield an empty slice.
func (idx *Index) AbbreviationsFor(jurisdiction string) []string {
	return slices.Clone(idx.abbreviations[jurisdiction])
}

// ElfCodesFor returns the sorted ELF codes sharing abbreviation within
// jurisdiction. Unknown pairs yield an empty slice.
func (idx *Index) ElfCodesFor(jurisdiction, abbreviation string) []string {
	return slices.Clone(idx.codes[abbrKey{jurisdiction: jurisdiction, abbreviation: abbreviation}])
}

// Jurisdictions returns every jurisdiction with at least one abbreviation, sorted.
func (idx *Index) Jurisdictions() []string {
	out := make([]string, 0, len(idx.abbreviations))
	for j := range idx.abbreviations {
		out = append(out, j)
	}
	slices.Sort(out)
	return out
}

func sortedUnique(in []string) []string {
	out := slices.Clone(in)
	slices.Sort(out)
	return slices.Compact(out)
}
