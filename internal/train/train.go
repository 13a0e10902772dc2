// Package train filters registry data, fits per-jurisdiction ELF models
// and scores them.
package train

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/legalform/internal/classify"
	"github.com/sells-group/legalform/internal/elf"
	"github.com/sells-group/legalform/internal/features"
	"github.com/sells-group/legalform/internal/model"
)

// ErrInsufficientData is returned when filtering leaves no records or a
// single class.
var ErrInsufficientData = eris.New("train: insufficient data")

// Options configures training.
type Options struct {
	TestFraction  float64          `json:"test_fraction" yaml:"test_fraction"`
	MinClassCount int              `json:"min_class_count" yaml:"min_class_count"`
	Seed          uint64           `json:"seed" yaml:"seed"`
	Alpha         float64          `json:"alpha" yaml:"alpha"`
	Match         elf.MatchOptions `json:"match" yaml:"match"`
}

// DefaultOptions holds out a third of each class for scoring.
func DefaultOptions() Options {
	return Options{
		TestFraction:  1.0 / 3,
		MinClassCount: 2,
		Seed:          42,
		Alpha:         classify.DefaultAlpha,
		Match:         elf.DefaultMatchOptions(),
	}
}

// Report summarizes one training run.
type Report struct {
	Jurisdiction string        `json:"jurisdiction" yaml:"jurisdiction"`
	Raw          int           `json:"raw" yaml:"raw"`
	Foreign      int           `json:"foreign" yaml:"foreign"`
	Infrequent   Removal       `json:"infrequent" yaml:"infrequent"`
	Inactive     Removal       `json:"inactive" yaml:"inactive"`
	Samples      int           `json:"samples" yaml:"samples"`
	Classes      int           `json:"classes" yaml:"classes"`
	TrainSize    int           `json:"train_size" yaml:"train_size"`
	TestSize     int           `json:"test_size" yaml:"test_size"`
	Test         Metrics       `json:"test" yaml:"test"`
	Duration     time.Duration `json:"duration" yaml:"duration"`
}

// Trainer fits models against one reference code list. The abbreviation
// index is built from the active reference rows and shared by every model
// the trainer produces.
type Trainer struct {
	codes   *elf.CodeList
	index   *elf.Index
	matcher *elf.Matcher
	opts    Options
}

// NewTrainer returns a Trainer. Zero-valued options fall back to defaults.
func NewTrainer(codes *elf.CodeList, opts Options) *Trainer {
	def := DefaultOptions()
	if opts.TestFraction == 0 {
		opts.TestFraction = def.TestFraction
	}
	if opts.MinClassCount == 0 {
		opts.MinClassCount = def.MinClassCount
	}
	if opts.Alpha == 0 {
		opts.Alpha = def.Alpha
	}
	return &Trainer{
		codes:   codes,
		index:   codes.Active().Index(),
		matcher: elf.NewMatcher(0),
		opts:    opts,
	}
}

// Index returns the abbreviation index models are fitted against.
func (t *Trainer) Index() *elf.Index {
	return t.index
}

// Prepare keeps the records of jurisdiction (records with no jurisdiction
// are adopted), then drops infrequent and inactive ELF codes in that order.
func (t *Trainer) Prepare(jurisdiction string, raw []elf.Record) ([]elf.Record, *Report, error) {
	rep := &Report{Jurisdiction: jurisdiction, Raw: len(raw)}

	records := make([]elf.Record, 0, len(raw))
	for _, r := range raw {
		switch r.Jurisdiction {
		case jurisdiction:
		case "":
			r.Jurisdiction = jurisdiction
		default:
			rep.Foreign++
			continue
		}
		records = append(records, r)
	}

	records, rep.Infrequent = FilterInfrequent(records, t.opts.MinClassCount)
	records, rep.Inactive = FilterInactive(records, t.codes.InactiveCodes())

	rep.Samples = len(records)
	rep.Classes = countClasses(records)
	if rep.Samples == 0 {
		return nil, rep, eris.Wrapf(ErrInsufficientData, "jurisdiction %s has no eligible records", jurisdiction)
	}
	if rep.Classes < 2 {
		return nil, rep, eris.Wrapf(ErrInsufficientData, "jurisdiction %s has %d eligible ELF code", jurisdiction, rep.Classes)
	}
	return records, rep, nil
}

// Fit fits a model on records as given, without filtering or holding out.
func (t *Trainer) Fit(jurisdiction string, records []elf.Record) (*model.Model, error) {
	ex, err := features.Fit(t.index, jurisdiction, t.opts.Match, t.matcher, records)
	if err != nil {
		return nil, eris.Wrap(err, "train: fit features")
	}
	X, err := ex.Transform(records)
	if err != nil {
		return nil, eris.Wrap(err, "train: transform")
	}
	nb := classify.NewComplementNB(t.opts.Alpha)
	if err := nb.Fit(X, elf.Codes(records)); err != nil {
		return nil, eris.Wrap(err, "train: fit classifier")
	}
	m, err := model.New(ex, nb, len(records))
	if err != nil {
		return nil, err
	}
	m.LabelCounts = make(map[string]int)
	for _, r := range records {
		m.LabelCounts[r.Code]++
	}
	return m, nil
}

// TrainForJurisdiction filters raw, fits on a stratified training split
// and scores the held-out split. Low scores are logged, never fatal.
func (t *Trainer) TrainForJurisdiction(ctx context.Context, jurisdiction string, raw []elf.Record) (*model.Model, *Report, error) {
	start := time.Now()
	log := zap.L().With(zap.String("jurisdiction", jurisdiction))

	records, rep, err := t.Prepare(jurisdiction, raw)
	if err != nil {
		return nil, rep, err
	}

	split, err := StratifiedSplit(elf.Codes(records), t.opts.TestFraction, NewRand(t.opts.Seed))
	if err != nil {
		return nil, rep, eris.Wrap(err, "train: split")
	}
	trainSet, testSet := subset(records, split.Train), subset(records, split.Test)
	rep.TrainSize, rep.TestSize = len(trainSet), len(testSet)

	if err := ctx.Err(); err != nil {
		return nil, rep, eris.Wrap(err, "train: cancelled before fit")
	}

	log.Info("training model", zap.Int("samples", rep.Samples), zap.Int("classes", rep.Classes))
	m, err := t.Fit(jurisdiction, trainSet)
	if err != nil {
		return nil, rep, err
	}

	pred, err := m.Predict(testSet)
	if err != nil {
		return nil, rep, eris.Wrap(err, "train: predict held-out split")
	}
	rep.Test, err = Score(elf.Codes(testSet), pred)
	if err != nil {
		return nil, rep, err
	}
	m.Scores = model.Scores{Accuracy: rep.Test.Accuracy, BalancedAccuracy: rep.Test.BalancedAccuracy}
	rep.Duration = time.Since(start)

	log.Info("model accuracy",
		zap.Float64("accuracy", rep.Test.Accuracy),
		zap.Float64("balanced_accuracy", rep.Test.BalancedAccuracy),
		zap.Duration("duration", rep.Duration),
	)
	return m, rep, nil
}

func subset(records []elf.Record, idx []int) []elf.Record {
	out := make([]elf.Record, len(idx))
	for i, j := range idx {
		out[i] = records[j]
	}
	return out
}

func countClasses(records []elf.Record) int {
	seen := make(map[string]struct{})
	for _, r := range records {
		seen[r.Code] = struct{}{}
	}
	return len(seen)
}
