package main

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/legalform/internal/dataset"
	"github.com/sells-group/legalform/internal/detect"
	"github.com/sells-group/legalform/internal/elf"
	"github.com/sells-group/legalform/internal/store"
	"github.com/sells-group/legalform/pkg/remote"
)

// detectEnv holds the reference data, model store and detection pipeline
// shared by the elf and serve commands.
type detectEnv struct {
	Codes    *elf.CodeList
	Index    *elf.Index
	Store    store.ModelStore
	Pipeline *detect.Pipeline
	Remote   *remote.Client       // may be nil
	Rules    *detect.RuleDetector // nil unless detect.rule_fallback
}

// Close releases the model store.
func (e *detectEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initDetect loads the reference list, opens the model store and builds the
// pipeline: stored models first, then the remote service when configured,
// then the rule fallback when enabled. Callers should defer env.Close().
func initDetect(ctx context.Context) (*detectEnv, error) {
	codes, err := loadCodes(ctx)
	if err != nil {
		return nil, err
	}

	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, eris.Wrap(err, "open model store")
	}

	env := &detectEnv{
		Codes: codes,
		Index: codes.Active().Index(),
		Store: st,
	}

	detectors := []detect.Detector{detect.NewStoreDetector(st)}
	if cfg.Detect.RemoteURL != "" {
		env.Remote = remote.NewClient(cfg.Detect.RemoteURL, remote.WithModel(cfg.Detect.RemoteModel))
		detectors = append(detectors, env.Remote)
	}
	if cfg.Detect.RuleFallback {
		env.Rules = detect.NewRuleDetector(env.Index, elf.NewMatcher(0), cfg.Matcher)
		if err := fitRules(ctx, env.Rules, st); err != nil {
			_ = st.Close()
			return nil, err
		}
		detectors = append(detectors, env.Rules)
	}
	env.Pipeline = detect.NewPipeline(codes, detectors...)

	zap.L().Debug("detection pipeline ready",
		zap.Int("detectors", len(detectors)),
		zap.String("store", cfg.Store.Driver),
		zap.Bool("remote", env.Remote != nil),
	)
	return env, nil
}

// fitRules gives the rule detector the label counts of every stored model.
// Models saved without counts leave their jurisdiction on uniform rules.
func fitRules(ctx context.Context, rules *detect.RuleDetector, st store.ModelStore) error {
	jurisdictions, err := st.List(ctx)
	if err != nil {
		return eris.Wrap(err, "list stored models")
	}
	for _, jur := range jurisdictions {
		m, err := st.Load(ctx, jur)
		if err != nil {
			return eris.Wrapf(err, "load model %s", jur)
		}
		if len(m.LabelCounts) == 0 {
			zap.L().Warn("stored model has no label counts, rule fallback stays uniform",
				zap.String("jurisdiction", jur))
			continue
		}
		if err := rules.FitCounts(jur, m.LabelCounts); err != nil {
			return err
		}
	}
	return nil
}

// loadCodes reads the ELF code list named by data.reference_file.
func loadCodes(ctx context.Context) (*elf.CodeList, error) {
	codes, err := dataset.LoadReference(ctx, cfg.Data.ReferenceFile)
	if err != nil {
		return nil, eris.Wrap(err, "load reference")
	}
	return codes, nil
}

// loadRegistry reads the registry records of one jurisdiction from
// data.registry_file, or from the newest golden copy in data.dir.
func loadRegistry(ctx context.Context, jurisdiction string) ([]elf.Record, error) {
	path := cfg.Data.RegistryFile
	if path == "" {
		latest, err := dataset.LatestGoldenCopy(cfg.Data.Dir)
		if err != nil {
			return nil, eris.Wrap(err, "find registry data (run legalform download or set data.registry_file)")
		}
		path = latest
	}

	records, stats, err := dataset.LoadRegistry(ctx, path, jurisdiction)
	if err != nil {
		return nil, eris.Wrap(err, "load registry")
	}
	zap.L().Info("registry loaded",
		zap.String("path", path),
		zap.String("jurisdiction", jurisdiction),
		zap.Int("rows", stats.Rows),
		zap.Int("kept", stats.Kept),
		zap.Int("missing_code", stats.MissingCode),
	)
	return records, nil
}

// jurisdictionArg normalizes a jurisdiction given on the command line.
func jurisdictionArg(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
