package detect

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/legalform/internal/classify"
	"github.com/sells-group/legalform/internal/elf"
)

func TestRuleDetector_Uniform(t *testing.T) {
	d := NewRuleDetector(deCodes().Index(), nil, elf.DefaultMatchOptions())

	got, err := d.TopK(context.Background(), "Acme GmbH", "DE", 3)
	require.NoError(t, err)
	assert.Equal(t, []classify.Scored{{Code: "2HBR", Score: 1}}, got)
}

func TestRuleDetector_FittedFrequencies(t *testing.T) {
	idx := elf.FromReferenceTable([]elf.ReferenceRow{
		{Country: "DE", Code: "AAAA", Abbreviations: "GmbH"},
		{Country: "DE", Code: "BBBB", Abbreviations: "GmbH"},
		{Country: "DE", Code: "CCCC", Abbreviations: "AG"},
	})
	d := NewRuleDetector(idx, nil, elf.DefaultMatchOptions())
	require.NoError(t, d.Fit("DE", []string{"BBBB", "BBBB", "BBBB", "AAAA", "CCCC", "CCCC", "CCCC", "CCCC"}))

	got, err := d.TopK(context.Background(), "Acme GmbH", "DE", 5)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "BBBB", got[0].Code)
	assert.InDelta(t, 0.75, got[0].Score, 1e-9)
	assert.Equal(t, "AAAA", got[1].Code)

	got, err = d.TopK(context.Background(), "Unknown Partners", "DE", 5)
	require.NoError(t, err)
	assert.Equal(t, []classify.Scored{{Code: "CCCC", Score: 1}}, got)
}

func TestRuleDetector_UntrainedDeclinesWithoutAbbreviation(t *testing.T) {
	d := NewRuleDetector(deCodes().Index(), nil, elf.DefaultMatchOptions())

	_, err := d.TopK(context.Background(), "Unknown Partners", "DE", 3)
	assert.ErrorIs(t, err, ErrNoAbbreviation)
	assert.True(t, Declined(err))
}

func TestRuleDetector_FitCounts(t *testing.T) {
	d := NewRuleDetector(deCodes().Index(), nil, elf.DefaultMatchOptions())
	require.NoError(t, d.FitCounts("DE", map[string]int{"2HBR": 2, "40DB": 7}))

	got, err := d.TopK(context.Background(), "Unknown Partners", "DE", 3)
	require.NoError(t, err)
	assert.Equal(t, []classify.Scored{{Code: "40DB", Score: 1}}, got)

	got, err = d.TopK(context.Background(), "Acme GmbH", "DE", 3)
	require.NoError(t, err)
	assert.Equal(t, []classify.Scored{{Code: "2HBR", Score: 1}}, got)

	assert.Error(t, d.FitCounts("DE", map[string]int{}))
}

func TestRuleDetector_UnsupportedJurisdiction(t *testing.T) {
	d := NewRuleDetector(deCodes().Index(), nil, elf.DefaultMatchOptions())

	_, err := d.TopK(context.Background(), "Acme SARL", "FR", 1)
	assert.ErrorIs(t, err, ErrUnsupportedJurisdiction)
}

func TestRuleDetector_FitEmpty(t *testing.T) {
	d := NewRuleDetector(deCodes().Index(), nil, elf.DefaultMatchOptions())
	assert.Error(t, d.Fit("DE", nil))
}
