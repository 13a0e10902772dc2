package classify

import (
	"github.com/rotisserie/eris"

	"github.com/sells-group/legalform/internal/elf"
)

// Rule predicts the ELF code of the most frequent training label among the
// candidates of every abbreviation the name carries. Equal frequencies are
// resolved to the lexicographically smallest code. Names carrying no known
// abbreviation get the overall most frequent label, so Rule never abstains.
type Rule struct {
	index   *elf.Index
	matcher *elf.Matcher
	opts    elf.MatchOptions

	frequencies  map[string]int
	mostFrequent string
}

// NewRule returns an unfitted rule classifier over idx.
func NewRule(idx *elf.Index, matcher *elf.Matcher, opts elf.MatchOptions) *Rule {
	if matcher == nil {
		matcher = elf.NewMatcher(0)
	}
	return &Rule{index: idx, matcher: matcher, opts: opts}
}

// Fit records label frequencies and the most frequent label.
func (r *Rule) Fit(labels []string) error {
	if len(labels) == 0 {
		return eris.New("classify: rule fit needs at least one label")
	}
	freq := make(map[string]int, len(labels))
	for _, l := range labels {
		freq[l]++
	}
	return r.FitCounts(freq)
}

// FitCounts is Fit for labels already tallied. Non-positive counts are
// ignored.
func (r *Rule) FitCounts(counts map[string]int) error {
	freq := make(map[string]int, len(counts))
	best := ""
	for code, n := range counts {
		if n <= 0 {
			continue
		}
		freq[code] = n
		if best == "" || better(code, n, best, freq[best]) {
			best = code
		}
	}
	if best == "" {
		return eris.New("classify: rule fit needs at least one label")
	}

	r.frequencies = freq
	r.mostFrequent = best
	return nil
}

// Fitted reports whether Fit has run.
func (r *Rule) Fitted() bool {
	return r.frequencies != nil
}

// Frequency returns the training count of code; unseen codes count 0.
func (r *Rule) Frequency(code string) int {
	return r.frequencies[code]
}

// MostFrequent returns the fallback label.
func (r *Rule) MostFrequent() string {
	return r.mostFrequent
}

// Predict returns one label per record, using each record's jurisdiction.
func (r *Rule) Predict(records []elf.Record) ([]string, error) {
	if !r.Fitted() {
		return nil, ErrNotFitted
	}
	out := make([]string, len(records))
	for i, rec := range records {
		out[i] = r.predictOne(rec)
	}
	return out, nil
}

func (r *Rule) predictOne(rec elf.Record) string {
	best, bestN := "", -1
	for _, code := range r.Candidates(rec) {
		if n := r.frequencies[code]; bestN < 0 || better(code, n, best, bestN) {
			best, bestN = code, n
		}
	}
	if bestN < 0 {
		return r.mostFrequent
	}
	return best
}

// Rank returns every candidate code of the matched abbreviations, scored by
// its share of the candidates' training frequency. Candidates never seen in
// training share the mass uniformly when no candidate was seen. Without a
// match the result is the most frequent label with score 1.
func (r *Rule) Rank(rec elf.Record) ([]Scored, error) {
	if !r.Fitted() {
		return nil, ErrNotFitted
	}
	codes := r.Candidates(rec)
	if len(codes) == 0 {
		return []Scored{{Code: r.mostFrequent, Score: 1}}, nil
	}

	total := 0
	for _, c := range codes {
		total += r.frequencies[c]
	}
	out := make([]Scored, len(codes))
	for i, c := range codes {
		s := 1 / float64(len(codes))
		if total > 0 {
			s = float64(r.frequencies[c]) / float64(total)
		}
		out[i] = Scored{Code: c, Score: s}
	}
	SortScored(out)
	return out, nil
}

// Candidates returns the distinct ELF codes of every abbreviation of the
// record's jurisdiction that the name carries.
func (r *Rule) Candidates(rec elf.Record) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, abbr := range r.index.AbbreviationsFor(rec.Jurisdiction) {
		if !r.matcher.Matches(rec.Name, abbr, r.opts) {
			continue
		}
		for _, code := range r.index.ElfCodesFor(rec.Jurisdiction, abbr) {
			if _, ok := seen[code]; !ok {
				seen[code] = struct{}{}
				out = append(out, code)
			}
		}
	}
	return out
}

// better reports whether (code, n) outranks (other, m).
func better(code string, n int, other string, m int) bool {
	if n != m {
		return n > m
	}
	return code < other
}
