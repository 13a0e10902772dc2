// Package names normalizes registry legal names for comparison and tokenization.
package names

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/rotisserie/eris"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// StepError reports which harmonization step failed and on what input.
type StepError struct {
	Step  string
	Input string
	Err   error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("harmonize: step %s failed on %q: %v", e.Step, e.Input, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

type step struct {
	name string
	fn   func(string) (string, error)
}

// steps run in this order; reordering changes every fitted vocabulary.
var steps = []step{
	{"lowercase", infallible(strings.ToLower)},
	{"strip_diacritics", stripDiacritics},
	{"collapse_spaces", infallible(collapseSpaces)},
	{"replace_double_quotes", infallible(func(s string) string { return strings.ReplaceAll(s, `"`, " ") })},
	{"strip_trailing_non_alphanumeric", infallible(stripTrailingNonAlphanumeric)},
	{"correct_commas_and_periods", infallible(correctCommasAndPeriods)},
	{"purge", infallible(purge)},
	{"collapse_spaces_again", infallible(collapseSpaces)},
}

func infallible(fn func(string) string) func(string) (string, error) {
	return func(s string) (string, error) {
		return fn(s), nil
	}
}

// Harmonize applies the fixed normalization pipeline to a legal name.
// The result is deterministic and Harmonize(Harmonize(s)) == Harmonize(s)
// for ASCII input with Latin diacritics.
func Harmonize(name string) (string, error) {
	s := name
	for _, st := range steps {
		out, err := st.fn(s)
		if err != nil {
			return "", &StepError{Step: st.name, Input: s, Err: err}
		}
		s = out
	}
	return s, nil
}

// stripDiacritics decomposes compatibility characters and drops everything
// left outside ASCII, so "müller" becomes "muller" and "ø" disappears.
func stripDiacritics(s string) (string, error) {
	// transform chains carry buffers and are not safe for concurrent use.
	t := transform.Chain(norm.NFKD, runes.Remove(runes.Predicate(func(r rune) bool {
		return r > unicode.MaxASCII
	})))
	out, _, err := transform.String(t, s)
	if err != nil {
		return "", eris.Wrap(err, "strip diacritics")
	}
	return out, nil
}

func collapseSpaces(s string) string {
	for strings.Contains(s, "  ") {
		s = strings.ReplaceAll(s, "  ", " ")
	}
	return s
}

func stripTrailingNonAlphanumeric(s string) string {
	return strings.TrimRightFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

var commaPeriodReplacer = strings.NewReplacer(
	" ,", ",",
	" .", ".",
)

func correctCommasAndPeriods(s string) string {
	s = commaPeriodReplacer.Replace(s)
	return strings.ReplaceAll(s, ", ", ",")
}

// purgeRules are applied one after another, not as a single pass, because
// later rules see the output of earlier ones (" & " only after "-" is gone).
var purgeRules = [][2]string{
	{" l'", " l "}, // french contractions: "l'habitat"
	{"-", " "},
	{"(", " "},
	{")", " "},
	{" & ", " and "},
	{" + ", " and "},
	{";", " "},
	{"/", " "},
	{",", " "},
}

// purge repeats each rule until it no longer matches: adjacent matches
// such as "a & & b" share a space, so one pass leaves every second one.
func purge(s string) string {
	for _, r := range purgeRules {
		for strings.Contains(s, r[0]) {
			s = strings.ReplaceAll(s, r[0], r[1])
		}
	}
	return s
}
