// Package model binds a fitted feature layout to a fitted classifier for
// one jurisdiction and (de)serializes the pair.
package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/sells-group/legalform/internal/classify"
	"github.com/sells-group/legalform/internal/elf"
	"github.com/sells-group/legalform/internal/features"
)

// Format identifies serialized models produced by this package.
const Format = "legalform/complement-nb"

// Model is an immutable fitted ELF model for one jurisdiction. It is safe
// for concurrent use.
type Model struct {
	ID        string
	CreatedAt time.Time
	Samples   int
	Scores    Scores
	// LabelCounts tallies the ELF codes the model was fitted on.
	LabelCounts map[string]int

	extractor  *features.Extractor
	classifier *classify.ComplementNB
}

// Scores holds held-out evaluation results recorded at training time.
type Scores struct {
	Accuracy         float64 `json:"accuracy"`
	BalancedAccuracy float64 `json:"balanced_accuracy"`
}

// New pairs an extractor with a classifier fitted on its output.
func New(extractor *features.Extractor, classifier *classify.ComplementNB, samples int) (*Model, error) {
	if extractor == nil || classifier == nil || !classifier.Fitted() {
		return nil, classify.ErrNotFitted
	}
	if n := extractor.Layout().NumFeatures(); n != classifier.NumFeatures() {
		return nil, eris.Errorf("model: layout has %d features, classifier %d", n, classifier.NumFeatures())
	}
	return &Model{
		ID:         uuid.New().String(),
		CreatedAt:  time.Now().UTC(),
		Samples:    samples,
		extractor:  extractor,
		classifier: classifier,
	}, nil
}

// Jurisdiction returns the jurisdiction the model was trained for.
func (m *Model) Jurisdiction() string {
	return m.extractor.Jurisdiction()
}

// Layout returns the frozen feature layout.
func (m *Model) Layout() features.Layout {
	return m.extractor.Layout()
}

// Classes returns the trainable ELF codes in probability column order.
func (m *Model) Classes() []string {
	return m.classifier.Classes()
}

// PredictProbabilities returns the probability of every trained ELF code
// for name.
func (m *Model) PredictProbabilities(name string) (map[string]float64, error) {
	p, err := m.proba(name)
	if err != nil {
		return nil, err
	}
	out := make(map[string]float64, len(p))
	for i, code := range m.classifier.Classes() {
		out[code] = p[i]
	}
	return out, nil
}

// Rank returns every trained ELF code scored for name, best first.
func (m *Model) Rank(name string) ([]classify.Scored, error) {
	p, err := m.proba(name)
	if err != nil {
		return nil, err
	}
	classes := m.classifier.Classes()
	out := make([]classify.Scored, len(classes))
	for i, code := range classes {
		out[i] = classify.Scored{Code: code, Score: p[i]}
	}
	classify.SortScored(out)
	return out, nil
}

// Predict returns the most probable ELF code per record.
func (m *Model) Predict(records []elf.Record) ([]string, error) {
	X, err := m.extractor.Transform(records)
	if err != nil {
		return nil, err
	}
	return m.classifier.Predict(X)
}

func (m *Model) proba(name string) ([]float64, error) {
	if m == nil || m.classifier == nil {
		return nil, classify.ErrNotFitted
	}
	v, err := m.extractor.TransformName(name)
	if err != nil {
		return nil, err
	}
	return m.classifier.PredictProbaVector(v)
}

type envelope struct {
	Format     string           `json:"format"`
	ID         string           `json:"id"`
	CreatedAt  time.Time        `json:"created_at"`
	Samples    int              `json:"samples"`
	Scores     Scores           `json:"scores"`
	Labels     map[string]int   `json:"label_counts,omitempty"`
	Layout     features.Layout  `json:"layout"`
	Classifier classify.NBState `json:"classifier"`
}

// Marshal serializes m.
func Marshal(m *Model) ([]byte, error) {
	state, err := m.classifier.State()
	if err != nil {
		return nil, eris.Wrap(err, "model: export classifier")
	}
	data, err := json.Marshal(envelope{
		Format:     Format,
		ID:         m.ID,
		CreatedAt:  m.CreatedAt,
		Samples:    m.Samples,
		Scores:     m.Scores,
		Labels:     m.LabelCounts,
		Layout:     m.extractor.Layout(),
		Classifier: state,
	})
	if err != nil {
		return nil, eris.Wrap(err, "model: marshal")
	}
	return data, nil
}

// Unmarshal restores a model. matcher may be shared across models; nil
// gives the model its own.
func Unmarshal(data []byte, matcher *elf.Matcher) (*Model, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, eris.Wrap(err, "model: unmarshal")
	}
	if env.Format != Format {
		return nil, eris.Errorf("model: unknown format %q", env.Format)
	}
	ex, err := features.FromLayout(env.Layout, matcher)
	if err != nil {
		return nil, eris.Wrap(err, "model: restore layout")
	}
	nb, err := classify.ComplementNBFromState(env.Classifier)
	if err != nil {
		return nil, eris.Wrap(err, "model: restore classifier")
	}
	m, err := New(ex, nb, env.Samples)
	if err != nil {
		return nil, err
	}
	m.ID = env.ID
	m.CreatedAt = env.CreatedAt
	m.Scores = env.Scores
	m.LabelCounts = env.Labels
	return m, nil
}
