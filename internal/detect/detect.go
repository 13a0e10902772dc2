// Package detect ranks likely ELF codes for a legal name. Every source of
// predictions is a Detector; a Pipeline tries them in order.
package detect

import (
	"context"
	"errors"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/legalform/internal/classify"
	"github.com/sells-group/legalform/internal/elf"
	"github.com/sells-group/legalform/internal/resilience"
	"github.com/sells-group/legalform/internal/store"
)

// DefaultTop is the number of predictions returned when top is not positive.
const DefaultTop = 3

var (
	// ErrNoDetector is returned when every detector of a pipeline declined.
	ErrNoDetector = eris.New("detect: no detector could serve the request")
	// ErrUnsupportedJurisdiction is returned by a detector that has no
	// knowledge of the requested jurisdiction.
	ErrUnsupportedJurisdiction = eris.New("detect: unsupported jurisdiction")
	// ErrNoAbbreviation is returned by a detector without training data
	// when the name carries no known abbreviation.
	ErrNoAbbreviation = eris.New("detect: no known abbreviation in name")
)

// Detector returns at most k (code, score) pairs for name, best first.
type Detector interface {
	TopK(ctx context.Context, name, jurisdiction string, k int) ([]classify.Scored, error)
}

// Prediction is one ranked ELF code, labelled with its local legal form name
// when the reference list knows it.
type Prediction struct {
	Code  string  `json:"code" yaml:"code"`
	Name  string  `json:"name,omitempty" yaml:"name,omitempty"`
	Score float64 `json:"score" yaml:"score"`
}

// Pipeline asks its detectors in order and returns the first answer.
// A detector declines by returning store.ErrModelNotFound,
// classify.ErrNotFitted, ErrUnsupportedJurisdiction or ErrNoAbbreviation.
// A detector that is unavailable (transient failure or open circuit) is
// skipped as well. Any other error stops the pipeline.
type Pipeline struct {
	detectors []Detector
	codes     *elf.CodeList
}

// NewPipeline returns a pipeline over detectors. Nil detectors are skipped.
func NewPipeline(codes *elf.CodeList, detectors ...Detector) *Pipeline {
	p := &Pipeline{codes: codes}
	for _, d := range detectors {
		if d != nil {
			p.detectors = append(p.detectors, d)
		}
	}
	return p
}

// Detect returns the top predictions for name in jurisdiction.
func (p *Pipeline) Detect(ctx context.Context, name, jurisdiction string, top int) ([]Prediction, error) {
	if top <= 0 {
		top = DefaultTop
	}
	var declined []error
	for i, d := range p.detectors {
		scored, err := d.TopK(ctx, name, jurisdiction, top)
		if err == nil {
			return p.label(scored), nil
		}
		switch {
		case ctx.Err() != nil:
			return nil, err
		case Declined(err):
			zap.L().Debug("detector declined",
				zap.Int("detector", i),
				zap.String("jurisdiction", jurisdiction),
				zap.Error(err),
			)
		case Unavailable(err):
			zap.L().Warn("detector unavailable, trying next",
				zap.Int("detector", i),
				zap.String("jurisdiction", jurisdiction),
				zap.Error(err),
			)
		default:
			return nil, err
		}
		declined = append(declined, err)
	}
	return nil, eris.Wrapf(ErrNoDetector, "jurisdiction %s: %v", jurisdiction, errors.Join(declined...))
}

// Declined reports whether err means the detector has nothing to say about
// the request.
func Declined(err error) bool {
	return errors.Is(err, store.ErrModelNotFound) ||
		errors.Is(err, classify.ErrNotFitted) ||
		errors.Is(err, ErrUnsupportedJurisdiction) ||
		errors.Is(err, ErrNoAbbreviation)
}

// Unavailable reports whether err means the detector could not be reached
// rather than that it rejected the request.
func Unavailable(err error) bool {
	return errors.Is(err, resilience.ErrCircuitOpen) || resilience.IsTransient(err)
}

func (p *Pipeline) label(scored []classify.Scored) []Prediction {
	out := make([]Prediction, len(scored))
	for i, s := range scored {
		out[i] = Prediction{Code: s.Code, Score: s.Score}
		if p.codes != nil {
			out[i].Name, _ = p.codes.LocalName(s.Code)
		}
	}
	return out
}
