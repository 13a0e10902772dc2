package elf

import (
	"strings"
	"sync"
)

// DefaultMatcherCacheSize bounds the memo table. The table is dropped
// wholesale once full; entries are pure functions of their key.
const DefaultMatcherCacheSize = 1 << 20

// MatchOptions selects the abbreviation matching mode.
type MatchOptions struct {
	Lowercase bool `json:"lowercase" yaml:"lowercase" mapstructure:"lowercase"`
	EndsWith  bool `json:"ends_with" yaml:"ends_with" mapstructure:"ends_with"`
}

// DefaultMatchOptions folds case and requires a trailing separate word.
func DefaultMatchOptions() MatchOptions {
	return MatchOptions{Lowercase: true, EndsWith: true}
}

type matchKey struct {
	name string
	abbr string
	opts MatchOptions
}

// Matcher decides whether a legal name carries an abbreviation. Results are
// memoized per (name, abbreviation, options). Safe for concurrent use.
type Matcher struct {
	mu      sync.RWMutex
	cache   map[matchKey]bool
	maxSize int
}

// NewMatcher returns a Matcher whose cache holds at most maxSize entries.
// maxSize <= 0 selects DefaultMatcherCacheSize.
func NewMatcher(maxSize int) *Matcher {
	if maxSize <= 0 {
		maxSize = DefaultMatcherCacheSize
	}
	return &Matcher{
		cache:   make(map[matchKey]bool),
		maxSize: maxSize,
	}
}

// Matches reports whether name carries abbr. With opts.EndsWith, abbr must
// be the trailing word of name (preceded by a space); otherwise any
// substring occurrence counts. Only case folding is applied.
func (m *Matcher) Matches(name, abbr string, opts MatchOptions) bool {
	k := matchKey{name: name, abbr: abbr, opts: opts}

	m.mu.RLock()
	v, ok := m.cache[k]
	m.mu.RUnlock()
	if ok {
		return v
	}

	v = match(name, abbr, opts)

	m.mu.Lock()
	if len(m.cache) >= m.maxSize {
		m.cache = make(map[matchKey]bool)
	}
	m.cache[k] = v
	m.mu.Unlock()

	return v
}

// Len returns the number of memoized results.
func (m *Matcher) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.cache)
}

func match(name, abbr string, opts MatchOptions) bool {
	if opts.Lowercase {
		name = strings.ToLower(name)
		abbr = strings.ToLower(abbr)
	}
	if opts.EndsWith {
		return strings.HasSuffix(name, " "+abbr)
	}
	return strings.Contains(name, abbr)
}
