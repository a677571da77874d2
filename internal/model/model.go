// Package model bundles the shared vectorizer with one classifier per ad category.
package model

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/spigell/ad-targeter/internal/forest"
	"github.com/spigell/ad-targeter/internal/textvec"
)

// Metrics summarises the held-out evaluation recorded at training time.
type Metrics struct {
	Accuracy  float64 `json:"accuracy"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	TestRows  int     `json:"test_rows"`
}

// UnifiedAdModel answers per-category probability-of-interest queries.
// Categories is fixed at training time and mirrors the keys of Classifiers.
type UnifiedAdModel struct {
	ID          string                    `json:"id"`
	TrainedAt   time.Time                 `json:"trained_at"`
	Categories  []string                  `json:"categories"`
	Vectorizer  *textvec.Vectorizer       `json:"vectorizer"`
	Classifiers map[string]*forest.Forest `json:"classifiers"`
	Metrics     *Metrics                  `json:"metrics,omitempty"`
}

// New wraps fitted classifiers and their vectorizer. When categories is empty the
// sorted classifier keys are used.
func New(classifiers map[string]*forest.Forest, vectorizer *textvec.Vectorizer, categories []string) (*UnifiedAdModel, error) {
	if len(categories) == 0 {
		for category := range classifiers {
			categories = append(categories, category)
		}
		sort.Strings(categories)
	}

	m := &UnifiedAdModel{
		ID:          uuid.NewString(),
		TrainedAt:   time.Now().UTC(),
		Categories:  slices.Clone(categories),
		Vectorizer:  vectorizer,
		Classifiers: classifiers,
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}

	return m, nil
}

// Validate checks that the category list and the classifier mapping agree.
func (m *UnifiedAdModel) Validate() error {
	if !m.Vectorizer.Fitted() {
		return errors.New("vectorizer is not fitted")
	}

	if len(m.Categories) == 0 {
		return errors.New("model has no categories")
	}

	if len(m.Categories) != len(m.Classifiers) {
		return fmt.Errorf("model has %d categories but %d classifiers", len(m.Categories), len(m.Classifiers))
	}

	seen := make(map[string]struct{}, len(m.Categories))
	for _, category := range m.Categories {
		if _, ok := seen[category]; ok {
			return fmt.Errorf("duplicate category %q", category)
		}
		seen[category] = struct{}{}

		if m.Classifiers[category] == nil {
			return fmt.Errorf("no classifier for category %q", category)
		}
	}

	return nil
}

// PredictProba vectorizes texts once and returns, per category, the probability of
// interest for every input row.
func (m *UnifiedAdModel) PredictProba(texts []string) (map[string][]float64, error) {
	vectors, err := m.Vectorizer.Transform(texts)
	if err != nil {
		return nil, fmt.Errorf("vectorize: %w", err)
	}

	x := textvec.DenseMatrix(vectors, m.Vectorizer.Dimension())

	probs := make(map[string][]float64, len(m.Categories))
	for _, category := range m.Categories {
		p, err := m.Classifiers[category].PredictProba(x)
		if err != nil {
			return nil, fmt.Errorf("predict %s: %w", category, err)
		}
		probs[category] = p
	}

	return probs, nil
}

// Transform exposes the shared vectorizer for consumers that need raw feature vectors.
func (m *UnifiedAdModel) Transform(texts []string) ([][]float64, error) {
	vectors, err := m.Vectorizer.Transform(texts)
	if err != nil {
		return nil, err
	}

	return textvec.DenseMatrix(vectors, m.Vectorizer.Dimension()), nil
}
