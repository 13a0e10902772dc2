package train

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/legalform/internal/elf"
	"github.com/sells-group/legalform/internal/model"
)

// EvalOptions configures repeated stratified shuffle-split evaluation.
type EvalOptions struct {
	Splits       int     `json:"splits" yaml:"splits"`
	TestFraction float64 `json:"test_fraction" yaml:"test_fraction"`
	Seed         uint64  `json:"seed" yaml:"seed"`
	Concurrency  int     `json:"concurrency" yaml:"concurrency"`
}

// DefaultEvalOptions runs ten 70/30 splits.
func DefaultEvalOptions() EvalOptions {
	return EvalOptions{Splits: 10, TestFraction: 0.3, Seed: 0, Concurrency: 4}
}

// Fold is the outcome of one evaluation split.
type Fold struct {
	Index   int           `json:"index" yaml:"index"`
	Test    Metrics       `json:"test" yaml:"test"`
	Train   Metrics       `json:"train" yaml:"train"`
	FitTime time.Duration `json:"fit_time" yaml:"fit_time"`
	Model   *model.Model  `json:"-" yaml:"-"`
}

// Evaluation aggregates every fold of one jurisdiction.
type Evaluation struct {
	Jurisdiction string  `json:"jurisdiction" yaml:"jurisdiction"`
	Report       *Report `json:"preparation" yaml:"preparation"`
	Folds        []Fold  `json:"folds" yaml:"folds"`
	MeanTest     Metrics `json:"mean_test" yaml:"mean_test"`
	MeanTrain    Metrics `json:"mean_train" yaml:"mean_train"`
}

// Evaluate cross-validates the training pipeline on raw. Records go
// through the same filtering as TrainForJurisdiction. Folds are fitted
// concurrently and share only read-only inputs.
func (t *Trainer) Evaluate(ctx context.Context, jurisdiction string, raw []elf.Record, opts EvalOptions) (*Evaluation, error) {
	def := DefaultEvalOptions()
	if opts.Splits <= 0 {
		opts.Splits = def.Splits
	}
	if opts.TestFraction == 0 {
		opts.TestFraction = def.TestFraction
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}

	records, rep, err := t.Prepare(jurisdiction, raw)
	if err != nil {
		return nil, err
	}

	splits, err := StratifiedShuffleSplits(elf.Codes(records), opts.Splits, opts.TestFraction, opts.Seed)
	if err != nil {
		return nil, eris.Wrap(err, "train: evaluation splits")
	}

	folds := make([]Fold, len(splits))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)
	for i, s := range splits {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			f, err := t.runFold(jurisdiction, records, s)
			if err != nil {
				return eris.Wrapf(err, "train: fold %d", i)
			}
			f.Index = i
			folds[i] = f
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ev := &Evaluation{Jurisdiction: jurisdiction, Report: rep, Folds: folds}
	tests := make([]Metrics, len(folds))
	trains := make([]Metrics, len(folds))
	for i, f := range folds {
		tests[i], trains[i] = f.Test, f.Train
	}
	ev.MeanTest = MeanMetrics(tests)
	ev.MeanTrain = MeanMetrics(trains)

	zap.L().Info("evaluation complete",
		zap.String("jurisdiction", jurisdiction),
		zap.Int("folds", len(folds)),
		zap.Float64("accuracy", ev.MeanTest.Accuracy),
		zap.Float64("balanced_accuracy", ev.MeanTest.BalancedAccuracy),
		zap.Float64("f1_macro", ev.MeanTest.F1Macro),
	)
	return ev, nil
}

func (t *Trainer) runFold(jurisdiction string, records []elf.Record, s Split) (Fold, error) {
	trainSet, testSet := subset(records, s.Train), subset(records, s.Test)

	start := time.Now()
	m, err := t.Fit(jurisdiction, trainSet)
	if err != nil {
		return Fold{}, err
	}
	f := Fold{FitTime: time.Since(start), Model: m}

	if f.Test, err = scoreModel(m, testSet); err != nil {
		return Fold{}, err
	}
	if f.Train, err = scoreModel(m, trainSet); err != nil {
		return Fold{}, err
	}
	return f, nil
}

func scoreModel(m *model.Model, records []elf.Record) (Metrics, error) {
	pred, err := m.Predict(records)
	if err != nil {
		return Metrics{}, err
	}
	return Score(elf.Codes(records), pred)
}
