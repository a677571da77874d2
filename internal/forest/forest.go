// Package forest implements a bootstrap random forest for binary classification.
package forest

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
)

const (
	DefaultNumTrees = 50
	DefaultSeed     = 42
)

// Forest averages the leaf probabilities of independently grown trees.
type Forest struct {
	NumTrees    int     `json:"num_trees"`
	Seed        uint64  `json:"seed"`
	NumFeatures int     `json:"num_features"`
	Trees       []*Tree `json:"trees"`
}

func New(numTrees int, seed uint64) *Forest {
	if numTrees <= 0 {
		numTrees = DefaultNumTrees
	}

	return &Forest{NumTrees: numTrees, Seed: seed}
}

// Fit grows the forest on x with binary labels y (0 or 1).
// A single-class target produces a constant classifier.
func (f *Forest) Fit(x [][]float64, y []int) error {
	if len(x) == 0 {
		return errors.New("no training samples")
	}
	if len(x) != len(y) {
		return fmt.Errorf("samples and labels differ in length: %d != %d", len(x), len(y))
	}

	f.NumFeatures = len(x[0])
	for i, row := range x {
		if len(row) != f.NumFeatures {
			return fmt.Errorf("sample %d has %d features, expected %d", i, len(row), f.NumFeatures)
		}
	}

	positives := 0
	for i, label := range y {
		switch label {
		case 0:
		case 1:
			positives++
		default:
			return fmt.Errorf("label %d of sample %d is not binary", label, i)
		}
	}

	if positives == 0 || positives == len(y) || f.NumFeatures == 0 {
		f.Trees = []*Tree{newLeafTree(float64(positives) / float64(len(y)))}
		return nil
	}

	maxFeatures := max(1, int(math.Sqrt(float64(f.NumFeatures))))
	seeds := rand.New(rand.NewPCG(f.Seed, f.Seed))

	f.Trees = make([]*Tree, 0, f.NumTrees)
	for range f.NumTrees {
		rng := rand.New(rand.NewPCG(seeds.Uint64(), seeds.Uint64()))
		weights := bootstrap(len(x), rng)
		f.Trees = append(f.Trees, growTree(x, y, weights, maxFeatures, rng))
	}

	return nil
}

// bootstrap draws n samples with replacement and returns the draw count of every index.
func bootstrap(n int, rng *rand.Rand) []float64 {
	weights := make([]float64, n)
	for range n {
		weights[rng.IntN(n)]++
	}

	return weights
}

// PredictProba returns the probability of the positive class for every row.
func (f *Forest) PredictProba(x [][]float64) ([]float64, error) {
	if len(f.Trees) == 0 {
		return nil, errors.New("forest is not fitted")
	}

	probs := make([]float64, len(x))
	for i, row := range x {
		if len(row) != f.NumFeatures {
			return nil, fmt.Errorf("row %d has %d features, expected %d", i, len(row), f.NumFeatures)
		}

		sum := 0.0
		for _, tree := range f.Trees {
			sum += tree.Predict(row)
		}
		probs[i] = sum / float64(len(f.Trees))
	}

	return probs, nil
}

// Predict thresholds PredictProba at 0.5.
func (f *Forest) Predict(x [][]float64) ([]int, error) {
	probs, err := f.PredictProba(x)
	if err != nil {
		return nil, err
	}

	labels := make([]int, len(probs))
	for i, p := range probs {
		if p > 0.5 {
			labels[i] = 1
		}
	}

	return labels, nil
}
