package classify

import (
	"math"
	"slices"

	"github.com/rotisserie/eris"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/sells-group/legalform/internal/features"
)

// DefaultAlpha is the additive smoothing applied to complement counts.
const DefaultAlpha = 1.0

// ComplementNB is a complement naive Bayes classifier over non-negative
// count features. Each class is scored by how poorly the feature
// distribution of all other classes explains the input, which keeps
// minority legal forms competitive on skewed registry data.
type ComplementNB struct {
	alpha float64

	classes        []string
	featureLogProb *mat.Dense // classes x features
	classLogPrior  []float64
}

// NewComplementNB returns an unfitted classifier. alpha <= 0 selects DefaultAlpha.
func NewComplementNB(alpha float64) *ComplementNB {
	if alpha <= 0 {
		alpha = DefaultAlpha
	}
	return &ComplementNB{alpha: alpha}
}

// Fit estimates complement feature weights from X and labels y. Classes are
// ordered lexicographically.
func (c *ComplementNB) Fit(X *features.Matrix, y []string) error {
	if X == nil || len(X.Rows) == 0 {
		return eris.New("classify: fit needs at least one sample")
	}
	if len(X.Rows) != len(y) {
		return eris.Errorf("classify: %d samples but %d labels", len(X.Rows), len(y))
	}
	if X.Cols == 0 {
		return eris.New("classify: fit needs at least one feature")
	}

	classes := slices.Clone(y)
	slices.Sort(classes)
	classes = slices.Compact(classes)
	pos := make(map[string]int, len(classes))
	for i, cl := range classes {
		pos[cl] = i
	}

	counts := mat.NewDense(len(classes), X.Cols, nil)
	classCount := make([]float64, len(classes))
	for i, row := range X.Rows {
		ci := pos[y[i]]
		classCount[ci]++
		raw := counts.RawRowView(ci)
		for k, j := range row.Indices {
			if row.Values[k] < 0 {
				return eris.Errorf("classify: negative feature value at row %d col %d", i, j)
			}
			raw[j] += row.Values[k]
		}
	}

	// featureAll[j] is the total count of feature j across classes.
	featureAll := make([]float64, X.Cols)
	for ci := range classes {
		floats.Add(featureAll, counts.RawRowView(ci))
	}

	flp := mat.NewDense(len(classes), X.Cols, nil)
	comp := make([]float64, X.Cols)
	for ci := range classes {
		// complement count: occurrences in every other class, smoothed.
		floats.AddConst(c.alpha, floats.SubTo(comp, featureAll, counts.RawRowView(ci)))
		sum := floats.Sum(comp)
		out := flp.RawRowView(ci)
		for j, v := range comp {
			out[j] = -math.Log(v / sum)
		}
	}

	total := floats.Sum(classCount)
	prior := make([]float64, len(classes))
	for ci, n := range classCount {
		prior[ci] = math.Log(n) - math.Log(total)
	}

	c.classes = classes
	c.featureLogProb = flp
	c.classLogPrior = prior
	return nil
}

// Fitted reports whether Fit has run.
func (c *ComplementNB) Fitted() bool {
	return c.featureLogProb != nil
}

// Classes returns the class labels in column order of PredictProba.
func (c *ComplementNB) Classes() []string {
	return slices.Clone(c.classes)
}

// NumFeatures returns the width of the fitted feature space.
func (c *ComplementNB) NumFeatures() int {
	if !c.Fitted() {
		return 0
	}
	_, n := c.featureLogProb.Dims()
	return n
}

// PredictProbaVector returns the class distribution of one feature row,
// aligned with Classes. The probabilities sum to 1.
func (c *ComplementNB) PredictProbaVector(v features.Vector) ([]float64, error) {
	if !c.Fitted() {
		return nil, ErrNotFitted
	}
	nf := c.NumFeatures()
	jll := make([]float64, len(c.classes))
	for ci := range c.classes {
		w := c.featureLogProb.RawRowView(ci)
		for k, j := range v.Indices {
			if j < 0 || j >= nf {
				return nil, eris.Errorf("classify: feature index %d out of range [0,%d)", j, nf)
			}
			jll[ci] += v.Values[k] * w[j]
		}
		if len(c.classes) == 1 {
			jll[ci] += c.classLogPrior[ci]
		}
	}

	norm := floats.LogSumExp(jll)
	for i := range jll {
		jll[i] = math.Exp(jll[i] - norm)
	}
	return jll, nil
}

// PredictProba returns a samples x classes probability matrix.
func (c *ComplementNB) PredictProba(X *features.Matrix) (*mat.Dense, error) {
	if !c.Fitted() {
		return nil, ErrNotFitted
	}
	if X.Cols != c.NumFeatures() {
		return nil, eris.Errorf("classify: matrix has %d features, model expects %d", X.Cols, c.NumFeatures())
	}
	if len(X.Rows) == 0 {
		return nil, eris.New("classify: empty batch")
	}
	out := mat.NewDense(len(X.Rows), len(c.classes), nil)
	for i, row := range X.Rows {
		p, err := c.PredictProbaVector(row)
		if err != nil {
			return nil, err
		}
		out.SetRow(i, p)
	}
	return out, nil
}

// Predict returns the most probable class per row. Ties go to the class
// that sorts first.
func (c *ComplementNB) Predict(X *features.Matrix) ([]string, error) {
	proba, err := c.PredictProba(X)
	if err != nil {
		return nil, err
	}
	rows, _ := proba.Dims()
	out := make([]string, rows)
	for i := range rows {
		out[i] = c.classes[floats.MaxIdx(proba.RawRowView(i))]
	}
	return out, nil
}

// NBState is the serializable fitted state of a ComplementNB.
type NBState struct {
	Alpha          float64     `json:"alpha"`
	Classes        []string    `json:"classes"`
	FeatureLogProb [][]float64 `json:"feature_log_prob"`
	ClassLogPrior  []float64   `json:"class_log_prior"`
}

// State exports the fitted parameters.
func (c *ComplementNB) State() (NBState, error) {
	if !c.Fitted() {
		return NBState{}, ErrNotFitted
	}
	rows, _ := c.featureLogProb.Dims()
	flp := make([][]float64, rows)
	for i := range rows {
		flp[i] = slices.Clone(c.featureLogProb.RawRowView(i))
	}
	return NBState{
		Alpha:          c.alpha,
		Classes:        slices.Clone(c.classes),
		FeatureLogProb: flp,
		ClassLogPrior:  slices.Clone(c.classLogPrior),
	}, nil
}

// ComplementNBFromState restores a fitted classifier.
func ComplementNBFromState(s NBState) (*ComplementNB, error) {
	if len(s.Classes) == 0 {
		return nil, eris.New("classify: state has no classes")
	}
	if len(s.FeatureLogProb) != len(s.Classes) || len(s.ClassLogPrior) != len(s.Classes) {
		return nil, eris.New("classify: state dimensions do not match class count")
	}
	nf := len(s.FeatureLogProb[0])
	if nf == 0 {
		return nil, eris.New("classify: state has no features")
	}
	data := make([]float64, 0, len(s.Classes)*nf)
	for i, row := range s.FeatureLogProb {
		if len(row) != nf {
			return nil, eris.Errorf("classify: state row %d has %d features, want %d", i, len(row), nf)
		}
		data = append(data, row...)
	}
	c := NewComplementNB(s.Alpha)
	c.classes = slices.Clone(s.Classes)
	c.featureLogProb = mat.NewDense(len(s.Classes), nf, data)
	c.classLogPrior = slices.Clone(s.ClassLogPrior)
	return c, nil
}
