package features

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/sells-group/legalform/internal/elf"
)

func testIndex() *elf.Index {
	return elf.FromReferenceTable([]elf.ReferenceRow{
		{Country: "DE", Code: "2HBR", Abbreviations: "GmbH"},
		{Country: "DE", Code: "40DB", Abbreviations: "OHG;OHG mbH"},
	})
}

func fitDE(t *testing.T, records []elf.Record) *Extractor {
	t.Helper()
	ex, err := Fit(testIndex(), "DE", elf.DefaultMatchOptions(), elf.NewMatcher(0), records)
	require.NoError(t, err)
	return ex
}

func TestFit_Layout(t *testing.T) {
	ex := fitDE(t, []elf.Record{
		{Name: "Hallo GmbH", Jurisdiction: "DE"},
		{Name: "Hello OHG mbH", Jurisdiction: "DE"},
	})

	l := ex.Layout()
	assert.Equal(t, LayoutVersion, l.Version)
	assert.Equal(t, []string{"GmbH", "OHG", "OHG mbH"}, l.Abbreviations)
	assert.Equal(t, []string{"gmbh", "hallo", "hello", "mbh", "ohg"}, l.Vocabulary)
	assert.Equal(t, 8, l.NumFeatures())
	assert.Equal(t, []string{"abbr(GmbH)", "abbr(OHG)", "abbr(OHG mbH)", "gmbh", "hallo", "hello", "mbh", "ohg"}, l.FeatureNames())
}

func TestTransform_AbbreviationFlags(t *testing.T) {
	ex := fitDE(t, []elf.Record{{Name: "Hallo GmbH"}, {Name: "Hello OHG mbH"}})

	m, err := ex.Transform([]elf.Record{
		{Name: "Hallo GmbH", Jurisdiction: "DE"},
		{Name: "Hello OHG mbH", Jurisdiction: "DE"},
	})
	require.NoError(t, err)

	d := m.Dense()
	r, c := d.Dims()
	assert.Equal(t, 2, r)
	assert.Equal(t, 8, c)
	assert.Equal(t, []float64{1, 0, 0}, mat.Row(nil, 0, d)[:3])
	assert.Equal(t, []float64{0, 0, 1}, mat.Row(nil, 1, d)[:3])
	assert.Equal(t, []float64{1, 1, 0, 0, 0}, mat.Row(nil, 0, d)[3:])
	assert.Equal(t, []float64{0, 0, 1, 1, 1}, mat.Row(nil, 1, d)[3:])
}

func TestTransform_Deterministic(t *testing.T) {
	ex := fitDE(t, []elf.Record{{Name: "Acme GmbH"}, {Name: "Beta OHG"}})
	in := []elf.Record{{Name: "Gamma GmbH"}, {Name: "Beta OHG"}, {Name: "Unknown Ltd"}}

	a, err := ex.Transform(in)
	require.NoError(t, err)
	b, err := ex.Transform(in)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.True(t, mat.Equal(a.Dense(), b.Dense()))
}

func TestTransform_UnknownJurisdictionAllZeroFlags(t *testing.T) {
	ex, err := Fit(testIndex(), "FR", elf.DefaultMatchOptions(), nil, []elf.Record{{Name: "Acme SARL", Jurisdiction: "FR"}})
	require.NoError(t, err)

	assert.Empty(t, ex.Layout().Abbreviations)
	m, err := ex.Transform([]elf.Record{{Name: "Zeta SAS", Jurisdiction: "FR"}})
	require.NoError(t, err)
	assert.Equal(t, 2, m.Cols)
	assert.Empty(t, m.Rows[0].Indices)
}

func TestTransform_JurisdictionMismatch(t *testing.T) {
	ex := fitDE(t, []elf.Record{{Name: "Acme GmbH"}})

	_, err := ex.Transform([]elf.Record{{Name: "Acme GmbH", Jurisdiction: "AT"}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrJurisdictionMismatch))
}

func TestFit_RejectsForeignRecords(t *testing.T) {
	_, err := Fit(testIndex(), "DE", elf.DefaultMatchOptions(), nil, []elf.Record{{Name: "Acme Ltd", Jurisdiction: "GB"}})
	assert.ErrorIs(t, err, ErrJurisdictionMismatch)
}

func TestFit_EmptyFeatureSpace(t *testing.T) {
	_, err := Fit(testIndex(), "FR", elf.DefaultMatchOptions(), nil, nil)
	assert.ErrorIs(t, err, ErrEmptyFeatureSpace)
}

func TestFromLayout_RoundTrip(t *testing.T) {
	ex := fitDE(t, []elf.Record{{Name: "Acme GmbH"}, {Name: "Beta OHG"}})

	rebuilt, err := FromLayout(ex.Layout(), nil)
	require.NoError(t, err)

	v1, err := ex.TransformName("Gamma GmbH")
	require.NoError(t, err)
	v2, err := rebuilt.TransformName("Gamma GmbH")
	require.NoError(t, err)
	assert.Equal(t, v1, v2)
}

func TestFromLayout_UnsupportedVersion(t *testing.T) {
	_, err := FromLayout(Layout{Version: 99, Jurisdiction: "DE", Vocabulary: []string{"x"}}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported layout version")
}

func TestMatrix_Subset(t *testing.T) {
	m := &Matrix{Cols: 2, Rows: []Vector{
		{Indices: []int{0}, Values: []float64{1}},
		{Indices: []int{1}, Values: []float64{1}},
	}}
	s := m.Subset([]int{1})
	require.Len(t, s.Rows, 1)
	assert.Equal(t, []int{1}, s.Rows[0].Indices)
}
