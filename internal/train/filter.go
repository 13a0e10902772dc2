package train

import (
	"slices"

	"go.uber.org/zap"

	"github.com/sells-group/legalform/internal/elf"
)

// Removal describes records dropped by one filtering step.
type Removal struct {
	Codes   []string `json:"codes" yaml:"codes"`
	Records int      `json:"records" yaml:"records"`
}

// FilterInfrequent drops every record whose ELF code occurs fewer than
// minCount times. Stratified splitting needs minCount >= 2.
func FilterInfrequent(records []elf.Record, minCount int) ([]elf.Record, Removal) {
	freq := make(map[string]int)
	for _, r := range records {
		freq[r.Code]++
	}

	out, removed := partition(records, func(r elf.Record) bool {
		return freq[r.Code] >= minCount
	})
	if removed.Records > 0 {
		zap.L().Warn("removed ELF codes below minimum frequency",
			zap.Int("min_count", minCount),
			zap.Strings("codes", removed.Codes),
			zap.Int("records", removed.Records),
		)
	}
	return out, removed
}

// FilterInactive drops every record whose ELF code is in inactive.
func FilterInactive(records []elf.Record, inactive map[string]struct{}) ([]elf.Record, Removal) {
	out, removed := partition(records, func(r elf.Record) bool {
		_, ok := inactive[r.Code]
		return !ok
	})
	if removed.Records > 0 {
		zap.L().Warn("removed inactive ELF codes",
			zap.Strings("codes", removed.Codes),
			zap.Int("records", removed.Records),
		)
	}
	return out, removed
}

func partition(records []elf.Record, keep func(elf.Record) bool) ([]elf.Record, Removal) {
	out := make([]elf.Record, 0, len(records))
	var rm Removal
	for _, r := range records {
		if keep(r) {
			out = append(out, r)
			continue
		}
		rm.Records++
		rm.Codes = append(rm.Codes, r.Code)
	}
	slices.Sort(rm.Codes)
	rm.Codes = slices.Compact(rm.Codes)
	return out, rm
}
