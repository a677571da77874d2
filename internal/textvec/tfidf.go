// Package textvec turns free text into l2-normalised TF-IDF vectors.
package textvec

import (
	"errors"
	"math"
	"regexp"
	"sort"
	"strings"
)

// tokenPattern matches runs of two or more Unicode letters, digits or underscores.
var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)

// Vectorizer learns a vocabulary and inverse document frequencies from a corpus.
// The zero value with MaxFeatures set is ready to Fit.
type Vectorizer struct {
	// MaxFeatures limits the vocabulary to the most frequent corpus terms. Zero keeps all terms.
	MaxFeatures int            `json:"max_features"`
	Vocabulary  map[string]int `json:"vocabulary"`
	IDF         []float64      `json:"idf"`
}

// Feature is a single non-zero component of a Vector.
type Feature struct {
	Index int     `json:"index"`
	Value float64 `json:"value"`
}

// Vector is a sparse vector with features sorted by index.
type Vector []Feature

func New(maxFeatures int) *Vectorizer {
	return &Vectorizer{MaxFeatures: maxFeatures}
}

// Tokenize lower-cases text and splits it into tokens of two or more word characters.
// Non-ASCII letters are word characters.
func Tokenize(text string) []string {
	return tokenPattern.FindAllString(strings.ToLower(text), -1)
}

// Fit builds the vocabulary and idf weights.
func (v *Vectorizer) Fit(docs []string) error {
	if len(docs) == 0 {
		return errors.New("empty corpus")
	}

	counts := make(map[string]int)
	df := make(map[string]int)
	for _, doc := range docs {
		seen := make(map[string]struct{})
		for _, token := range Tokenize(doc) {
			counts[token]++
			if _, ok := seen[token]; ok {
				continue
			}
			seen[token] = struct{}{}
			df[token]++
		}
	}

	if len(counts) == 0 {
		return errors.New("corpus contains no tokens")
	}

	terms := make([]string, 0, len(counts))
	for term := range counts {
		terms = append(terms, term)
	}

	if v.MaxFeatures > 0 && len(terms) > v.MaxFeatures {
		sort.Slice(terms, func(i, j int) bool {
			if counts[terms[i]] != counts[terms[j]] {
				return counts[terms[i]] > counts[terms[j]]
			}
			return terms[i] < terms[j]
		})
		terms = terms[:v.MaxFeatures]
	}

	sort.Strings(terms)

	n := float64(len(docs))
	v.Vocabulary = make(map[string]int, len(terms))
	v.IDF = make([]float64, len(terms))
	for i, term := range terms {
		v.Vocabulary[term] = i
		v.IDF[i] = math.Log((1+n)/(1+float64(df[term]))) + 1
	}

	return nil
}

// FitTransform fits the vectorizer and transforms the same corpus.
func (v *Vectorizer) FitTransform(docs []string) ([]Vector, error) {
	if err := v.Fit(docs); err != nil {
		return nil, err
	}

	return v.Transform(docs)
}

// Transform vectorizes docs with the fitted vocabulary. Unknown terms are ignored.
func (v *Vectorizer) Transform(docs []string) ([]Vector, error) {
	if !v.Fitted() {
		return nil, errors.New("vectorizer is not fitted")
	}

	vectors := make([]Vector, 0, len(docs))
	for _, doc := range docs {
		vectors = append(vectors, v.transform(doc))
	}

	return vectors, nil
}

func (v *Vectorizer) transform(doc string) Vector {
	tf := make(map[int]float64)
	for _, token := range Tokenize(doc) {
		if idx, ok := v.Vocabulary[token]; ok {
			tf[idx]++
		}
	}

	vec := make(Vector, 0, len(tf))
	norm := 0.0
	for idx, count := range tf {
		value := count * v.IDF[idx]
		norm += value * value
		vec = append(vec, Feature{Index: idx, Value: value})
	}

	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range vec {
			vec[i].Value /= norm
		}
	}

	sort.Slice(vec, func(i, j int) bool { return vec[i].Index < vec[j].Index })

	return vec
}

func (v *Vectorizer) Fitted() bool {
	return v != nil && len(v.Vocabulary) > 0 && len(v.IDF) == len(v.Vocabulary)
}

// Dimension is the vocabulary size.
func (v *Vectorizer) Dimension() int {
	return len(v.IDF)
}

// Terms returns the vocabulary ordered by feature index.
func (v *Vectorizer) Terms() []string {
	terms := make([]string, len(v.Vocabulary))
	for term, idx := range v.Vocabulary {
		terms[idx] = term
	}

	return terms
}

// Dense expands the vector into a slice of length dim.
func (vec Vector) Dense(dim int) []float64 {
	dense := make([]float64, dim)
	for _, f := range vec {
		if f.Index < dim {
			dense[f.Index] = f.Value
		}
	}

	return dense
}

// DenseMatrix expands every vector to dim columns.
func DenseMatrix(vectors []Vector, dim int) [][]float64 {
	rows := make([][]float64, 0, len(vectors))
	for _, vec := range vectors {
		rows = append(rows, vec.Dense(dim))
	}

	return rows
}
