package train

import (
	"math"
	"math/rand/v2"
	"slices"

	"github.com/rotisserie/eris"
)

// Split holds row positions of one train/test partition.
type Split struct {
	Train []int
	Test  []int
}

// StratifiedSplit partitions label positions so every class keeps its
// share in both halves. Each class sends round(n*testFraction) members to
// the test side, clamped so both sides get at least one member; classes
// with fewer than two members are rejected.
func StratifiedSplit(labels []string, testFraction float64, rng *rand.Rand) (Split, error) {
	if testFraction <= 0 || testFraction >= 1 {
		return Split{}, eris.Errorf("train: test fraction %v outside (0,1)", testFraction)
	}

	byClass := make(map[string][]int)
	for i, l := range labels {
		byClass[l] = append(byClass[l], i)
	}
	classes := make([]string, 0, len(byClass))
	for c := range byClass {
		classes = append(classes, c)
	}
	slices.Sort(classes)

	var s Split
	for _, c := range classes {
		members := byClass[c]
		if len(members) < 2 {
			return Split{}, eris.Errorf("train: class %s has %d member, stratified split needs 2", c, len(members))
		}
		rng.Shuffle(len(members), func(i, j int) {
			members[i], members[j] = members[j], members[i]
		})
		nTest := int(math.Round(float64(len(members)) * testFraction))
		nTest = max(1, min(nTest, len(members)-1))
		s.Test = append(s.Test, members[:nTest]...)
		s.Train = append(s.Train, members[nTest:]...)
	}
	slices.Sort(s.Train)
	slices.Sort(s.Test)
	return s, nil
}

// StratifiedShuffleSplits draws n independent stratified splits from one
// seeded source, so the same seed always yields the same folds.
func StratifiedShuffleSplits(labels []string, n int, testFraction float64, seed uint64) ([]Split, error) {
	if n <= 0 {
		return nil, eris.Errorf("train: split count %d must be positive", n)
	}
	rng := NewRand(seed)
	out := make([]Split, n)
	for i := range out {
		s, err := StratifiedSplit(labels, testFraction, rng)
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

// NewRand returns a deterministic source for seed.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
