package store

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sells-group/legalform/internal/classify"
	"github.com/sells-group/legalform/internal/elf"
	"github.com/sells-group/legalform/internal/features"
	"github.com/sells-group/legalform/internal/model"
)

func testModel(t *testing.T, jurisdiction string) *model.Model {
	t.Helper()
	idx := elf.FromReferenceTable([]elf.ReferenceRow{
		{Country: jurisdiction, Code: "AAAA", Abbreviations: "GmbH"},
		{Country: jurisdiction, Code: "BBBB", Abbreviations: "OHG"},
	})
	records := []elf.Record{
		{Name: "Acme GmbH", Jurisdiction: jurisdiction, Code: "AAAA"},
		{Name: "Beta OHG", Jurisdiction: jurisdiction, Code: "BBBB"},
	}
	ex, err := features.Fit(idx, jurisdiction, elf.DefaultMatchOptions(), nil, records)
	require.NoError(t, err)
	X, err := ex.Transform(records)
	require.NoError(t, err)
	nb := classify.NewComplementNB(1)
	require.NoError(t, nb.Fit(X, elf.Codes(records)))
	m, err := model.New(ex, nb, len(records))
	require.NoError(t, err)
	m.Scores = model.Scores{Accuracy: 0.5, BalancedAccuracy: 0.25}
	return m
}

func assertSameModel(t *testing.T, want, got *model.Model) {
	t.Helper()
	require.NotNil(t, got)
	require.Equal(t, want.ID, got.ID)
	require.Equal(t, want.Jurisdiction(), got.Jurisdiction())
	require.Equal(t, want.Classes(), got.Classes())
	require.Equal(t, want.Scores, got.Scores)

	wantRank, err := want.Rank("Gamma GmbH")
	require.NoError(t, err)
	gotRank, err := got.Rank("Gamma GmbH")
	require.NoError(t, err)
	require.Len(t, gotRank, len(wantRank))
	for i := range wantRank {
		require.Equal(t, wantRank[i].Code, gotRank[i].Code)
		require.InDelta(t, wantRank[i].Score, gotRank[i].Score, 1e-12)
	}
}
