package names

import (
	"slices"
	"strings"
)

// synonyms maps legal-form surface forms onto one canonical token.
var synonyms = map[string]string{
	"&":     "and",
	"ag":    "aktiengesellschaft",
	"co":    "company",
	"co.":   "company",
	"corp":  "corporation",
	"corp.": "corporation",
	"inc":   "incorporated",
	"inc.":  "incorporated",
	"int":   "international",
	"int.":  "international",
	"intl.": "international",
	"ltd":   "limited",
	"ltd.":  "limited",
	"pvt":   "private",
}

// Synonym returns the canonical form of token, or token itself when unmapped.
func Synonym(token string) string {
	if s, ok := synonyms[token]; ok {
		return s
	}
	return token
}

// Tokenize harmonizes name, splits it on single spaces, maps every token
// through the synonym table and returns the sorted, deduplicated tokens.
// Empty tokens are dropped.
func Tokenize(name string) ([]string, error) {
	h, err := Harmonize(strings.TrimSpace(name))
	if err != nil {
		return nil, err
	}
	h = strings.TrimSpace(h)

	var tokens []string
	for _, tok := range strings.Split(h, " ") {
		if tok == "" {
			continue
		}
		tokens = append(tokens, Synonym(tok))
	}
	slices.Sort(tokens)
	return slices.Compact(tokens), nil
}
