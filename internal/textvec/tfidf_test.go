package textvec

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestTokenize(t *testing.T) {
	got := Tokenize("Cricket, M Delhi 25 a bb_c")
	want := []string{"cricket", "delhi", "25", "bb_c"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected tokens (-want +got):\n%s", diff)
	}
}

func TestTokenizeUnicode(t *testing.T) {
	got := Tokenize("yoga Zürich São Paulo café ПУНЕ")
	want := []string{"yoga", "zürich", "são", "paulo", "café", "пуне"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected tokens (-want +got):\n%s", diff)
	}
}

func TestTransformKeepsUnicodeTermsApart(t *testing.T) {
	v := New(0)
	if err := v.Fit([]string{"Zürich travel", "rich music"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, ok := v.Vocabulary["zürich"]; !ok {
		t.Fatalf("expected zürich in vocabulary, got %v", v.Terms())
	}

	vectors, err := v.Transform([]string{"Zürich", "rich"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff(vectors[0], vectors[1]); diff == "" {
		t.Fatalf("expected different vectors for zürich and rich, got %v", vectors[0])
	}
}

func TestFitVocabularyAndIDF(t *testing.T) {
	v := New(0)
	if err := v.Fit([]string{"music travel", "music yoga"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if diff := cmp.Diff([]string{"music", "travel", "yoga"}, v.Terms()); diff != "" {
		t.Fatalf("unexpected terms (-want +got):\n%s", diff)
	}

	// idf = ln((1+n)/(1+df)) + 1
	wantMusic := math.Log(3.0/3.0) + 1
	wantTravel := math.Log(3.0/2.0) + 1
	if math.Abs(v.IDF[0]-wantMusic) > 1e-12 || math.Abs(v.IDF[1]-wantTravel) > 1e-12 {
		t.Fatalf("unexpected idf: %v", v.IDF)
	}
}

func TestFitMaxFeaturesKeepsMostFrequent(t *testing.T) {
	v := New(2)
	docs := []string{"alpha beta gamma", "beta gamma", "gamma delta"}
	if err := v.Fit(docs); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if diff := cmp.Diff([]string{"beta", "gamma"}, v.Terms()); diff != "" {
		t.Fatalf("unexpected terms (-want +got):\n%s", diff)
	}
}

func TestTransformIsNormalised(t *testing.T) {
	v := New(0)
	vectors, err := v.FitTransform([]string{"music music travel", "yoga"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i, vec := range vectors {
		norm := 0.0
		for _, f := range vec {
			norm += f.Value * f.Value
		}
		if math.Abs(norm-1) > 1e-9 {
			t.Fatalf("vector %d is not unit length: %v", i, norm)
		}
		for j := 1; j < len(vec); j++ {
			if vec[j-1].Index >= vec[j].Index {
				t.Fatalf("vector %d indices are not sorted: %v", i, vec)
			}
		}
	}

	unknown, err := v.Transform([]string{"nothing known here"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(unknown[0]) != 0 {
		t.Fatalf("expected empty vector, got %v", unknown[0])
	}
}

func TestTransformRequiresFit(t *testing.T) {
	if _, err := New(10).Transform([]string{"music"}); err == nil {
		t.Fatalf("expected error for unfitted vectorizer")
	}
}

func TestFitErrors(t *testing.T) {
	if err := New(0).Fit(nil); err == nil {
		t.Fatalf("expected error for empty corpus")
	}
	if err := New(0).Fit([]string{"a b c"}); err == nil {
		t.Fatalf("expected error for corpus without tokens")
	}
}

func TestDense(t *testing.T) {
	vec := Vector{{Index: 1, Value: 0.5}, {Index: 3, Value: 0.25}}
	if diff := cmp.Diff([]float64{0, 0.5, 0, 0.25}, vec.Dense(4)); diff != "" {
		t.Fatalf("unexpected dense vector (-want +got):\n%s", diff)
	}
}
