package features

import (
	"slices"

	"github.com/rotisserie/eris"

	"github.com/sells-group/legalform/internal/elf"
	"github.com/sells-group/legalform/internal/names"
)

var (
	// ErrJurisdictionMismatch is returned when a record belongs to another
	// jurisdiction than the one the extractor was built for.
	ErrJurisdictionMismatch = eris.New("features: record jurisdiction does not match extractor")

	// ErrEmptyFeatureSpace is returned when neither abbreviations nor
	// vocabulary tokens are available.
	ErrEmptyFeatureSpace = eris.New("features: empty feature space")
)

// Extractor maps records onto a fixed Layout. It is immutable after
// construction and safe for concurrent use.
type Extractor struct {
	layout  Layout
	vocab   map[string]int
	matcher *elf.Matcher
}

// Fit freezes a layout for jurisdiction: the abbreviation flags come from
// idx, the vocabulary from the tokens of the training names.
func Fit(idx *elf.Index, jurisdiction string, opts elf.MatchOptions, matcher *elf.Matcher, records []elf.Record) (*Extractor, error) {
	if jurisdiction == "" {
		return nil, eris.New("features: jurisdiction is required")
	}

	var vocab []string
	for _, r := range records {
		if err := checkJurisdiction(jurisdiction, r); err != nil {
			return nil, err
		}
		tokens, err := names.Tokenize(r.Name)
		if err != nil {
			return nil, eris.Wrapf(err, "features: tokenize %q", r.Name)
		}
		vocab = append(vocab, tokens...)
	}
	slices.Sort(vocab)
	vocab = slices.Compact(vocab)

	layout := Layout{
		Version:       LayoutVersion,
		Jurisdiction:  jurisdiction,
		Match:         opts,
		Abbreviations: idx.AbbreviationsFor(jurisdiction),
		Vocabulary:    vocab,
	}
	return FromLayout(layout, matcher)
}

// FromLayout rebuilds an extractor from a persisted layout. A nil matcher
// gets a private one.
func FromLayout(layout Layout, matcher *elf.Matcher) (*Extractor, error) {
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	if matcher == nil {
		matcher = elf.NewMatcher(0)
	}
	vocab := make(map[string]int, len(layout.Vocabulary))
	for i, tok := range layout.Vocabulary {
		vocab[tok] = len(layout.Abbreviations) + i
	}
	return &Extractor{layout: layout, vocab: vocab, matcher: matcher}, nil
}

// Layout returns the frozen layout.
func (e *Extractor) Layout() Layout {
	return e.layout
}

// Jurisdiction returns the jurisdiction the extractor is bound to.
func (e *Extractor) Jurisdiction() string {
	return e.layout.Jurisdiction
}

// Transform extracts one feature row per record. Every record must belong
// to the extractor's jurisdiction; an empty record jurisdiction is taken
// to mean the extractor's. Tokens outside the vocabulary are ignored.
func (e *Extractor) Transform(records []elf.Record) (*Matrix, error) {
	m := &Matrix{Cols: e.layout.NumFeatures(), Rows: make([]Vector, len(records))}
	for i, r := range records {
		if err := checkJurisdiction(e.layout.Jurisdiction, r); err != nil {
			return nil, err
		}
		v, err := e.vector(r.Name)
		if err != nil {
			return nil, err
		}
		m.Rows[i] = v
	}
	return m, nil
}

// TransformName extracts the feature row of a single name.
func (e *Extractor) TransformName(name string) (Vector, error) {
	return e.vector(name)
}

func (e *Extractor) vector(name string) (Vector, error) {
	var v Vector
	for j, abbr := range e.layout.Abbreviations {
		if e.matcher.Matches(name, abbr, e.layout.Match) {
			v.Indices = append(v.Indices, j)
			v.Values = append(v.Values, 1)
		}
	}

	tokens, err := names.Tokenize(name)
	if err != nil {
		return Vector{}, eris.Wrapf(err, "features: tokenize %q", name)
	}
	// tokens are sorted and so is the vocabulary, so indices stay increasing.
	for _, tok := range tokens {
		if j, ok := e.vocab[tok]; ok {
			v.Indices = append(v.Indices, j)
			v.Values = append(v.Values, 1)
		}
	}
	return v, nil
}

func checkJurisdiction(want string, r elf.Record) error {
	if r.Jurisdiction != "" && r.Jurisdiction != want {
		return eris.Wrapf(ErrJurisdictionMismatch, "got %s, want %s", r.Jurisdiction, want)
	}
	return nil
}
