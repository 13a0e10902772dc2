package dataset

import (
	"context"
	"os"
	"path/filepath"
	"slices"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/legalform/internal/elf"
	"github.com/sells-group/legalform/internal/fetcher"
)

// Golden copy columns.
const (
	ColLEI          = "LEI"
	ColLegalName    = "Entity.LegalName"
	ColJurisdiction = "Entity.LegalJurisdiction"
	ColLegalForm    = "Entity.LegalForm.EntityLegalFormCode"
	ColRegion       = "Entity.LegalAddress.Region"
)

// GoldenCopyPattern matches full LEI-CDF golden copy files by name. Names
// start with the publish date, so the lexically greatest match is newest.
const GoldenCopyPattern = "*-gleif-goldencopy-lei2-golden-copy.csv.zip"

// RegistryStats counts what LoadRegistry read and kept.
type RegistryStats struct {
	Rows        int `json:"rows" yaml:"rows"`
	Kept        int `json:"kept" yaml:"kept"`
	MissingCode int `json:"missing_code" yaml:"missing_code"`
}

// RecordJurisdiction derives an entity's jurisdiction key. US entities are
// keyed by their legal address region when it is known.
func RecordJurisdiction(jurisdiction, region string) string {
	if jurisdiction == elf.CountryUS && region != "" {
		return region
	}
	return jurisdiction
}

// LoadRegistry streams a golden copy CSV (plain or single-entry ZIP) and
// returns the labelled records of one jurisdiction. Rows without a legal
// form code are skipped and counted.
func LoadRegistry(ctx context.Context, path, jurisdiction string) ([]elf.Record, RegistryStats, error) {
	var stats RegistryStats
	rc, err := fetcher.Open(path)
	if err != nil {
		return nil, stats, eris.Wrap(err, "registry: open")
	}
	defer rc.Close() //nolint:errcheck

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	rowCh, errCh := fetcher.StreamCSV(ctx, rc, fetcher.CSVOptions{LazyQuotes: true})

	header, ok := <-rowCh
	if !ok {
		if err := <-errCh; err != nil {
			return nil, stats, eris.Wrap(err, "registry: read header")
		}
		return nil, stats, eris.New("registry: empty file")
	}
	h := fetcher.NewHeader(header)
	if err := h.Require(ColLegalName, ColJurisdiction, ColLegalForm); err != nil {
		return nil, stats, eris.Wrap(err, "registry")
	}

	var records []elf.Record
	for row := range rowCh {
		stats.Rows++
		j := RecordJurisdiction(h.Get(row, ColJurisdiction), h.Get(row, ColRegion))
		if j != jurisdiction {
			continue
		}
		code := h.Get(row, ColLegalForm)
		if code == "" {
			stats.MissingCode++
			continue
		}
		records = append(records, elf.Record{
			Name:         h.Get(row, ColLegalName),
			Jurisdiction: j,
			Code:         code,
		})
	}
	if err := <-errCh; err != nil {
		return nil, stats, eris.Wrap(err, "registry: read rows")
	}

	stats.Kept = len(records)
	zap.L().Info("registry: loaded records",
		zap.String("jurisdiction", jurisdiction),
		zap.Int("rows", stats.Rows),
		zap.Int("kept", stats.Kept),
		zap.Int("missing_code", stats.MissingCode),
	)
	return records, stats, nil
}

// LatestGoldenCopy returns the newest golden copy file in dir.
func LatestGoldenCopy(dir string) (string, error) {
	if _, err := os.Stat(dir); err != nil {
		return "", eris.Wrapf(err, "registry: data dir %s", dir)
	}
	matches, err := filepath.Glob(filepath.Join(dir, GoldenCopyPattern))
	if err != nil {
		return "", eris.Wrap(err, "registry: glob")
	}
	if len(matches) == 0 {
		return "", eris.Errorf("registry: no golden copy in %s", dir)
	}
	return slices.Max(matches), nil
}
