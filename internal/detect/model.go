package detect

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"

	"github.com/sells-group/legalform/internal/classify"
	"github.com/sells-group/legalform/internal/model"
	"github.com/sells-group/legalform/internal/store"
)

// ModelDetector serves one fitted model.
type ModelDetector struct {
	model *model.Model
}

// NewModelDetector wraps m. A nil model yields ErrNotFitted on use.
func NewModelDetector(m *model.Model) *ModelDetector {
	return &ModelDetector{model: m}
}

func (d *ModelDetector) TopK(ctx context.Context, name, jurisdiction string, k int) ([]classify.Scored, error) {
	return topK(ctx, d.model, name, jurisdiction, k)
}

// StoreDetector loads models from a store on first use of a jurisdiction
// and keeps them for the life of the detector.
type StoreDetector struct {
	store store.ModelStore

	mu     sync.Mutex
	models map[string]*model.Model
}

// NewStoreDetector returns a detector backed by s.
func NewStoreDetector(s store.ModelStore) *StoreDetector {
	return &StoreDetector{store: s, models: make(map[string]*model.Model)}
}

func (d *StoreDetector) TopK(ctx context.Context, name, jurisdiction string, k int) ([]classify.Scored, error) {
	m, err := d.Model(ctx, jurisdiction)
	if err != nil {
		return nil, err
	}
	return topK(ctx, m, name, jurisdiction, k)
}

// Model returns the cached model of jurisdiction, loading it if needed.
// Misses are not cached, so a model saved later is picked up.
func (d *StoreDetector) Model(ctx context.Context, jurisdiction string) (*model.Model, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if m, ok := d.models[jurisdiction]; ok {
		return m, nil
	}
	m, err := d.store.Load(ctx, jurisdiction)
	if err != nil {
		return nil, err
	}
	d.models[jurisdiction] = m
	return m, nil
}

func topK(ctx context.Context, m *model.Model, name, jurisdiction string, k int) ([]classify.Scored, error) {
	if m == nil {
		return nil, classify.ErrNotFitted
	}
	if jurisdiction != "" && jurisdiction != m.Jurisdiction() {
		return nil, eris.Wrapf(ErrUnsupportedJurisdiction, "model serves %s, not %s", m.Jurisdiction(), jurisdiction)
	}
	if err := ctx.Err(); err != nil {
		return nil, eris.Wrap(err, "detect")
	}
	ranked, err := m.Rank(name)
	if err != nil {
		return nil, eris.Wrap(err, "detect: rank")
	}
	return classify.Top(ranked, k), nil
}
