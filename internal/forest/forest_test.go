package forest

import (
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// separable returns rows whose label is decided by the first feature alone.
func separable(n int) ([][]float64, []int) {
	rng := rand.New(rand.NewPCG(1, 2))
	x := make([][]float64, n)
	y := make([]int, n)
	for i := range n {
		label := i % 2
		x[i] = []float64{float64(label) + rng.Float64()*0.1, rng.Float64(), rng.Float64()}
		y[i] = label
	}
	return x, y
}

func TestFitSeparable(t *testing.T) {
	x, y := separable(60)

	f := New(20, DefaultSeed)
	if err := f.Fit(x, y); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(f.Trees) != 20 {
		t.Fatalf("expected 20 trees, got %d", len(f.Trees))
	}

	probs, err := f.PredictProba([][]float64{{1.05, 0.5, 0.5}, {0.02, 0.5, 0.5}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if probs[0] <= 0.5 {
		t.Fatalf("expected high probability for positive row, got %v", probs[0])
	}
	if probs[1] >= 0.5 {
		t.Fatalf("expected low probability for negative row, got %v", probs[1])
	}

	for _, p := range probs {
		if p < 0 || p > 1 {
			t.Fatalf("probability out of range: %v", p)
		}
	}

	labels, err := f.Predict(x)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff(y, labels); diff != "" {
		t.Fatalf("training rows misclassified (-want +got):\n%s", diff)
	}
}

func TestFitIsDeterministic(t *testing.T) {
	x, y := separable(40)

	a, b := New(5, 7), New(5, 7)
	if err := a.Fit(x, y); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := b.Fit(x, y); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if diff := cmp.Diff(a, b); diff != "" {
		t.Fatalf("forests with the same seed differ (-a +b):\n%s", diff)
	}
}

func TestFitSingleClass(t *testing.T) {
	x := [][]float64{{0.1}, {0.2}, {0.3}}

	tests := []struct {
		name  string
		label int
		want  float64
	}{
		{name: "all negative", label: 0, want: 0},
		{name: "all positive", label: 1, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := New(10, DefaultSeed)
			if err := f.Fit(x, []int{tt.label, tt.label, tt.label}); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			probs, err := f.PredictProba([][]float64{{0.9}})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if probs[0] != tt.want {
				t.Fatalf("expected %v, got %v", tt.want, probs[0])
			}
		})
	}
}

func TestFitErrors(t *testing.T) {
	tests := []struct {
		name string
		x    [][]float64
		y    []int
	}{
		{name: "empty", x: nil, y: nil},
		{name: "length mismatch", x: [][]float64{{1}}, y: []int{0, 1}},
		{name: "ragged", x: [][]float64{{1}, {1, 2}}, y: []int{0, 1}},
		{name: "not binary", x: [][]float64{{1}, {2}}, y: []int{0, 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := New(3, 1).Fit(tt.x, tt.y); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestPredictProbaErrors(t *testing.T) {
	if _, err := New(3, 1).PredictProba([][]float64{{1}}); err == nil {
		t.Fatalf("expected error for unfitted forest")
	}

	x, y := separable(10)
	f := New(3, 1)
	if err := f.Fit(x, y); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := f.PredictProba([][]float64{{1}}); err == nil {
		t.Fatalf("expected error for wrong width")
	}
}

func TestTreeGrowsPure(t *testing.T) {
	x := [][]float64{{0}, {1}, {2}, {3}}
	y := []int{0, 0, 1, 1}
	weights := []float64{1, 1, 1, 1}

	tree := growTree(x, y, weights, 1, rand.New(rand.NewPCG(1, 1)))

	if tree.Depth() != 1 {
		t.Fatalf("expected a single split, got depth %d", tree.Depth())
	}
	if tree.Leaves() != 2 {
		t.Fatalf("expected 2 leaves, got %d", tree.Leaves())
	}
	if got := tree.Nodes[0].Threshold; got != 1.5 {
		t.Fatalf("expected threshold 1.5, got %v", got)
	}
	if tree.Predict([]float64{0.5}) != 0 || tree.Predict([]float64{2.5}) != 1 {
		t.Fatalf("unexpected predictions")
	}
}
