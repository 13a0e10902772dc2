package detect

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"

	"github.com/sells-group/legalform/internal/classify"
	"github.com/sells-group/legalform/internal/elf"
)

// RuleDetector ranks the ELF codes of the abbreviations a name carries,
// with one rule classifier per jurisdiction. Jurisdictions without fitted
// labels get a classifier that weighs every known code equally; such a
// classifier has no majority class, so names carrying no abbreviation are
// declined with ErrNoAbbreviation.
type RuleDetector struct {
	index   *elf.Index
	matcher *elf.Matcher
	opts    elf.MatchOptions

	mu    sync.RWMutex
	rules map[string]ruleEntry
}

type ruleEntry struct {
	rule    *classify.Rule
	trained bool
}

// NewRuleDetector returns a detector over idx.
func NewRuleDetector(idx *elf.Index, matcher *elf.Matcher, opts elf.MatchOptions) *RuleDetector {
	if matcher == nil {
		matcher = elf.NewMatcher(0)
	}
	return &RuleDetector{
		index:   idx,
		matcher: matcher,
		opts:    opts,
		rules:   make(map[string]ruleEntry),
	}
}

// Fit sets the label frequencies used for jurisdiction.
func (d *RuleDetector) Fit(jurisdiction string, labels []string) error {
	r := classify.NewRule(d.index, d.matcher, d.opts)
	if err := r.Fit(labels); err != nil {
		return eris.Wrapf(err, "detect: fit rule for %s", jurisdiction)
	}
	d.set(jurisdiction, r)
	return nil
}

// FitCounts is Fit for labels already tallied, such as a stored model's
// label counts.
func (d *RuleDetector) FitCounts(jurisdiction string, counts map[string]int) error {
	r := classify.NewRule(d.index, d.matcher, d.opts)
	if err := r.FitCounts(counts); err != nil {
		return eris.Wrapf(err, "detect: fit rule for %s", jurisdiction)
	}
	d.set(jurisdiction, r)
	return nil
}

func (d *RuleDetector) set(jurisdiction string, r *classify.Rule) {
	d.mu.Lock()
	d.rules[jurisdiction] = ruleEntry{rule: r, trained: true}
	d.mu.Unlock()
}

func (d *RuleDetector) TopK(_ context.Context, name, jurisdiction string, k int) ([]classify.Scored, error) {
	e, err := d.rule(jurisdiction)
	if err != nil {
		return nil, err
	}
	rec := elf.Record{Name: name, Jurisdiction: jurisdiction}
	if !e.trained && len(e.rule.Candidates(rec)) == 0 {
		return nil, eris.Wrapf(ErrNoAbbreviation, "%s has no trained frequencies", jurisdiction)
	}
	ranked, err := e.rule.Rank(rec)
	if err != nil {
		return nil, err
	}
	return classify.Top(ranked, k), nil
}

func (d *RuleDetector) rule(jurisdiction string) (ruleEntry, error) {
	d.mu.RLock()
	e, ok := d.rules[jurisdiction]
	d.mu.RUnlock()
	if ok {
		return e, nil
	}

	var labels []string
	for _, abbr := range d.index.AbbreviationsFor(jurisdiction) {
		labels = append(labels, d.index.ElfCodesFor(jurisdiction, abbr)...)
	}
	if len(labels) == 0 {
		return ruleEntry{}, eris.Wrapf(ErrUnsupportedJurisdiction, "no abbreviations for %s", jurisdiction)
	}
	uniform := make(map[string]int, len(labels))
	for _, l := range labels {
		uniform[l] = 1
	}

	r := classify.NewRule(d.index, d.matcher, d.opts)
	if err := r.FitCounts(uniform); err != nil {
		return ruleEntry{}, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if existing, ok := d.rules[jurisdiction]; ok {
		return existing, nil
	}
	e = ruleEntry{rule: r}
	d.rules[jurisdiction] = e
	return e, nil
}
