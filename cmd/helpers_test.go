package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sells-group/legalform/internal/config"
	"github.com/sells-group/legalform/internal/elf"
	"github.com/sells-group/legalform/internal/store"
)

const testReferenceCSV = `ELF Code,Country Code (ISO 3166-1),Country sub-division code (ISO 3166-2),Entity Legal Form name Local name,Abbreviations Local language,ELF Status ACTV/INAC
2HBR,DE,,Gesellschaft mit beschränkter Haftung,GmbH,ACTV
40DB,DE,,offene Handelsgesellschaft,OHG,ACTV
OLD1,DE,,Genossenschaft,eG,INAC
`

const testGoldenCSV = `"LEI","Entity.LegalName","Entity.LegalJurisdiction","Entity.LegalForm.EntityLegalFormCode","Entity.LegalAddress.Region"
"L1","Acme GmbH","DE","2HBR",""
"L2","Bauer GmbH","DE","2HBR",""
"L3","Gamma GmbH","DE","2HBR",""
"L4","Beta OHG","DE","40DB",""
"L5","Delta OHG","DE","40DB",""
"L6","Epsilon OHG","DE","40DB",""
"L7","Foo SARL","FR","ABCD",""
`

// setupTestConfig writes a reference list and registry file into a temp
// dir and points the global config at them.
func setupTestConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	refPath := filepath.Join(dir, "elf-code-list.csv")
	require.NoError(t, os.WriteFile(refPath, []byte(testReferenceCSV), 0o644))
	regPath := filepath.Join(dir, "golden.csv")
	require.NoError(t, os.WriteFile(regPath, []byte(testGoldenCSV), 0o644))

	prev := cfg
	cfg = &config.Config{
		Data: config.DataConfig{
			ReferenceFile: refPath,
			RegistryFile:  regPath,
			Dir:           dir,
		},
		Store:   store.Options{Driver: store.DriverDir, Dir: filepath.Join(dir, "models")},
		Train:   config.TrainConfig{TestFraction: 1.0 / 3, MinClassCount: 2, Seed: 42, Alpha: 1},
		Eval:    config.EvalConfig{Splits: 3, TestFraction: 0.3, Seed: 1, Concurrency: 2},
		Matcher: elf.DefaultMatchOptions(),
		Detect:  config.DetectConfig{Top: 3, RuleFallback: true},
		Server:  config.ServerConfig{Port: 8080},
		Log:     config.LogConfig{Level: "info", Format: "json"},
	}
	t.Cleanup(func() { cfg = prev })
	return dir
}
