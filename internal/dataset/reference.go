// Package dataset loads the ELF reference code list and GLEIF registry
// extracts into the records the trainer consumes.
package dataset

import (
	"context"
	"io"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/legalform/internal/elf"
	"github.com/sells-group/legalform/internal/fetcher"
)

// Reference table columns.
const (
	ColELFCode       = "ELF Code"
	ColCountry       = "Country Code (ISO 3166-1)"
	ColSubdivision   = "Country sub-division code (ISO 3166-2)"
	ColLocalName     = "Entity Legal Form name Local name"
	ColAbbreviations = "Abbreviations Local language"
	ColStatus        = "ELF Status ACTV/INAC"
)

var requiredReferenceColumns = []string{ColELFCode, ColCountry, ColLocalName}

// LoadReference loads the code list from path. Files ending in .xlsx are
// read as spreadsheets; anything else as CSV, zipped or not.
func LoadReference(ctx context.Context, path string) (*elf.CodeList, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return LoadReferenceXLSX(path)
	}
	rc, err := fetcher.Open(path)
	if err != nil {
		return nil, eris.Wrap(err, "reference: open")
	}
	defer rc.Close() //nolint:errcheck
	return LoadReferenceCSV(ctx, rc)
}

// LoadReferenceCSV parses a GLEIF ELF code list in CSV form.
func LoadReferenceCSV(ctx context.Context, r io.Reader) (*elf.CodeList, error) {
	rows, err := fetcher.ReadCSV(ctx, r, fetcher.CSVOptions{LazyQuotes: true})
	if err != nil {
		return nil, eris.Wrap(err, "reference: read csv")
	}
	return referenceRows(rows)
}

// LoadReferenceXLSX parses the first sheet of a GLEIF ELF code list workbook.
func LoadReferenceXLSX(path string) (*elf.CodeList, error) {
	rows, err := fetcher.ReadXLSX(path, fetcher.XLSXOptions{})
	if err != nil {
		return nil, eris.Wrap(err, "reference: read xlsx")
	}
	return referenceRows(rows)
}

func referenceRows(rows [][]string) (*elf.CodeList, error) {
	if len(rows) == 0 {
		return nil, eris.New("reference: empty file")
	}
	h := fetcher.NewHeader(rows[0])
	if err := h.Require(requiredReferenceColumns...); err != nil {
		return nil, eris.Wrap(err, "reference")
	}

	out := make([]elf.ReferenceRow, 0, len(rows)-1)
	var skipped int
	for _, row := range rows[1:] {
		r := elf.ReferenceRow{
			Country:       h.Get(row, ColCountry),
			Subdivision:   h.Get(row, ColSubdivision),
			Code:          h.Get(row, ColELFCode),
			LocalName:     h.Get(row, ColLocalName),
			Abbreviations: h.Get(row, ColAbbreviations),
			Status:        h.Get(row, ColStatus),
		}
		if r.Code == "" || r.Country == "" {
			skipped++
			continue
		}
		if r.Status == "" {
			r.Status = elf.StatusActive
		}
		out = append(out, r)
	}
	if skipped > 0 {
		zap.L().Warn("reference: skipped rows without ELF code or country", zap.Int("rows", skipped))
	}
	zap.L().Debug("reference: loaded code list", zap.Int("rows", len(out)))
	return elf.NewCodeList(out), nil
}
