// Package features turns legal names into the fused feature space: one
// binary flag per jurisdiction abbreviation followed by one presence
// count per vocabulary token.
package features

import (
	"fmt"

	"github.com/rotisserie/eris"

	"github.com/sells-group/legalform/internal/elf"
)

// LayoutVersion identifies the column layout produced by this package.
// Bump it whenever column order or meaning changes.
const LayoutVersion = 1

// Layout is the frozen column layout of a fitted extractor. Abbreviation
// flags come first in index order, then vocabulary tokens in sorted order.
type Layout struct {
	Version       int              `json:"version"`
	Jurisdiction  string           `json:"jurisdiction"`
	Match         elf.MatchOptions `json:"match"`
	Abbreviations []string         `json:"abbreviations"`
	Vocabulary    []string         `json:"vocabulary"`
}

// NumFeatures returns the column count.
func (l Layout) NumFeatures() int {
	return len(l.Abbreviations) + len(l.Vocabulary)
}

// FeatureNames returns human-readable column names.
func (l Layout) FeatureNames() []string {
	out := make([]string, 0, l.NumFeatures())
	for _, a := range l.Abbreviations {
		out = append(out, fmt.Sprintf("abbr(%s)", a))
	}
	out = append(out, l.Vocabulary...)
	return out
}

// Validate checks that the layout can be used by this package version.
func (l Layout) Validate() error {
	if l.Version != LayoutVersion {
		return eris.Errorf("features: unsupported layout version %d (want %d)", l.Version, LayoutVersion)
	}
	if l.Jurisdiction == "" {
		return eris.New("features: layout has no jurisdiction")
	}
	if l.NumFeatures() == 0 {
		return ErrEmptyFeatureSpace
	}
	return nil
}
