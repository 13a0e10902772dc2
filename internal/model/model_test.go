package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/legalform/internal/classify"
	"github.com/sells-group/legalform/internal/elf"
	"github.com/sells-group/legalform/internal/features"
)

func fitModel(t *testing.T) *Model {
	t.Helper()
	idx := elf.FromReferenceTable([]elf.ReferenceRow{
		{Country: "DE", Code: "2HBR", Abbreviations: "GmbH"},
		{Country: "DE", Code: "40DB", Abbreviations: "OHG"},
	})
	train := []elf.Record{
		{Name: "Acme GmbH", Jurisdiction: "DE", Code: "2HBR"},
		{Name: "Beta OHG", Jurisdiction: "DE", Code: "40DB"},
	}
	ex, err := features.Fit(idx, "DE", elf.DefaultMatchOptions(), nil, train)
	require.NoError(t, err)
	X, err := ex.Transform(train)
	require.NoError(t, err)
	nb := classify.NewComplementNB(0)
	require.NoError(t, nb.Fit(X, elf.Codes(train)))

	m, err := New(ex, nb, len(train))
	require.NoError(t, err)
	return m
}

func TestModel_Rank(t *testing.T) {
	m := fitModel(t)

	ranked, err := m.Rank("Gamma GmbH")
	require.NoError(t, err)
	require.Len(t, ranked, 2)
	assert.Equal(t, "2HBR", ranked[0].Code)
	assert.Greater(t, ranked[0].Score, ranked[1].Score)
	assert.InDelta(t, 1.0, ranked[0].Score+ranked[1].Score, 1e-9)
}

func TestModel_PredictProbabilities(t *testing.T) {
	m := fitModel(t)

	p, err := m.PredictProbabilities("Delta OHG")
	require.NoError(t, err)
	assert.Len(t, p, 2)
	assert.Greater(t, p["40DB"], p["2HBR"])
}

func TestModel_Predict(t *testing.T) {
	m := fitModel(t)

	got, err := m.Predict([]elf.Record{{Name: "X GmbH"}, {Name: "Y OHG", Jurisdiction: "DE"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"2HBR", "40DB"}, got)
}

func TestModel_MarshalRoundTrip(t *testing.T) {
	m := fitModel(t)
	m.Scores = Scores{Accuracy: 1, BalancedAccuracy: 1}
	m.LabelCounts = map[string]int{"2HBR": 1, "40DB": 1}

	data, err := Marshal(m)
	require.NoError(t, err)

	restored, err := Unmarshal(data, nil)
	require.NoError(t, err)
	assert.Equal(t, m.ID, restored.ID)
	assert.Equal(t, "DE", restored.Jurisdiction())
	assert.Equal(t, m.Layout(), restored.Layout())
	assert.Equal(t, m.Classes(), restored.Classes())
	assert.Equal(t, m.Scores, restored.Scores)
	assert.Equal(t, 2, restored.Samples)
	assert.Equal(t, m.LabelCounts, restored.LabelCounts)

	a, err := m.Rank("Gamma GmbH")
	require.NoError(t, err)
	b, err := restored.Rank("Gamma GmbH")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestUnmarshal_Rejects(t *testing.T) {
	_, err := Unmarshal([]byte("not json"), nil)
	assert.Error(t, err)

	_, err = Unmarshal([]byte(`{"format":"other"}`), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown format")
}

func TestNew_RequiresFittedClassifier(t *testing.T) {
	m := fitModel(t)
	ex, err := features.FromLayout(m.Layout(), nil)
	require.NoError(t, err)

	_, err = New(ex, classify.NewComplementNB(0), 0)
	assert.ErrorIs(t, err, classify.ErrNotFitted)
}

func TestNew_FeatureCountMismatch(t *testing.T) {
	m := fitModel(t)
	layout := m.Layout()
	layout.Vocabulary = append(layout.Vocabulary, "zzz")
	ex, err := features.FromLayout(layout, nil)
	require.NoError(t, err)

	_, err = New(ex, m.classifier, 0)
	assert.Error(t, err)
}

func TestModel_NilIsNotFitted(t *testing.T) {
	var m *Model
	_, err := m.proba("x")
	assert.ErrorIs(t, err, classify.ErrNotFitted)
}
