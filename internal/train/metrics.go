package train

import (
	"slices"

	"github.com/rotisserie/eris"
)

// Metrics scores predictions against true labels.
type Metrics struct {
	Accuracy         float64 `json:"accuracy" yaml:"accuracy"`
	BalancedAccuracy float64 `json:"balanced_accuracy" yaml:"balanced_accuracy"`
	F1Micro          float64 `json:"f1_micro" yaml:"f1_micro"`
	F1Macro          float64 `json:"f1_macro" yaml:"f1_macro"`
	F1Weighted       float64 `json:"f1_weighted" yaml:"f1_weighted"`
}

type labelCounts struct {
	tp, fp, fn int
}

// Score computes Metrics. Balanced accuracy averages recall over classes
// present in yTrue; F1 averages run over the union of true and predicted
// labels, weighted by true support for F1Weighted.
func Score(yTrue, yPred []string) (Metrics, error) {
	if len(yTrue) != len(yPred) {
		return Metrics{}, eris.Errorf("train: %d true labels but %d predictions", len(yTrue), len(yPred))
	}
	if len(yTrue) == 0 {
		return Metrics{}, eris.New("train: no predictions to score")
	}

	counts := make(map[string]*labelCounts)
	get := func(l string) *labelCounts {
		c, ok := counts[l]
		if !ok {
			c = &labelCounts{}
			counts[l] = c
		}
		return c
	}

	correct := 0
	for i := range yTrue {
		if yTrue[i] == yPred[i] {
			correct++
			get(yTrue[i]).tp++
			continue
		}
		get(yTrue[i]).fn++
		get(yPred[i]).fp++
	}

	labels := make([]string, 0, len(counts))
	for l := range counts {
		labels = append(labels, l)
	}
	slices.Sort(labels)

	var (
		m                   Metrics
		recallSum           float64
		present             int
		f1Sum, f1Weighted   float64
		tpAll, fpAll, fnAll int
	)
	for _, l := range labels {
		c := counts[l]
		support := c.tp + c.fn
		p := ratio(c.tp, c.tp+c.fp)
		r := ratio(c.tp, support)
		f1 := f1Score(p, r)

		if support > 0 {
			recallSum += r
			present++
		}
		f1Sum += f1
		f1Weighted += f1 * float64(support)
		tpAll += c.tp
		fpAll += c.fp
		fnAll += c.fn
	}

	m.Accuracy = float64(correct) / float64(len(yTrue))
	m.BalancedAccuracy = recallSum / float64(present)
	m.F1Macro = f1Sum / float64(len(labels))
	m.F1Weighted = f1Weighted / float64(len(yTrue))
	m.F1Micro = f1Score(ratio(tpAll, tpAll+fpAll), ratio(tpAll, tpAll+fnAll))
	return m, nil
}

// MeanMetrics averages ms field by field.
func MeanMetrics(ms []Metrics) Metrics {
	var out Metrics
	if len(ms) == 0 {
		return out
	}
	for _, m := range ms {
		out.Accuracy += m.Accuracy
		out.BalancedAccuracy += m.BalancedAccuracy
		out.F1Micro += m.F1Micro
		out.F1Macro += m.F1Macro
		out.F1Weighted += m.F1Weighted
	}
	n := float64(len(ms))
	out.Accuracy /= n
	out.BalancedAccuracy /= n
	out.F1Micro /= n
	out.F1Macro /= n
	out.F1Weighted /= n
	return out
}

func ratio(a, b int) float64 {
	if b == 0 {
		return 0
	}
	return float64(a) / float64(b)
}

func f1Score(p, r float64) float64 {
	if p+r == 0 {
		return 0
	}
	return 2 * p * r / (p + r)
}
