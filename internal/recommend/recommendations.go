// Package recommend turns per-category probabilities into a filtered, ranked ad list.
package recommend

import (
	"fmt"
	"slices"
	"sort"
)

type Recommendations struct {
	Items []*Recommendation
}

type Recommendation struct {
	Category    string  `json:"category"`
	Probability float64 `json:"probability"`
}

// FromProbabilities collects the probability of one input row for every category.
func FromProbabilities(probs map[string][]float64, categories []string, row int) (*Recommendations, error) {
	recs := &Recommendations{Items: make([]*Recommendation, 0, len(categories))}
	for _, category := range categories {
		column, ok := probs[category]
		if !ok {
			return nil, fmt.Errorf("no probabilities for category %q", category)
		}
		if row < 0 || row >= len(column) {
			return nil, fmt.Errorf("row %d out of range for category %q with %d rows", row, category, len(column))
		}

		recs.Items = append(recs.Items, &Recommendation{Category: category, Probability: column[row]})
	}

	return recs, nil
}

func (r *Recommendations) Len() int {
	return len(r.Items)
}

// Sort orders by descending probability, ties by category name.
func (r *Recommendations) Sort() {
	sort.SliceStable(r.Items, func(i, j int) bool {
		if r.Items[i].Probability != r.Items[j].Probability {
			return r.Items[i].Probability > r.Items[j].Probability
		}
		return r.Items[i].Category < r.Items[j].Category
	})
}

// Truncate keeps the first n items and returns the categories it dropped.
func (r *Recommendations) Truncate(n int) []string {
	if n < 0 || n >= len(r.Items) {
		return nil
	}

	dropped := make([]string, 0, len(r.Items)-n)
	for _, rec := range r.Items[n:] {
		dropped = append(dropped, rec.Category)
	}
	r.Items = r.Items[:n]

	return dropped
}

// KeepAbove removes items whose probability is not strictly above threshold.
func (r *Recommendations) KeepAbove(threshold float64) []string {
	return r.remove(func(rec *Recommendation) bool { return rec.Probability <= threshold })
}

// Exclude removes the listed categories.
func (r *Recommendations) Exclude(categories []string) []string {
	return r.remove(func(rec *Recommendation) bool { return slices.Contains(categories, rec.Category) })
}

func (r *Recommendations) remove(drop func(*Recommendation) bool) []string {
	var dropped []string
	kept := r.Items[:0]
	for _, rec := range r.Items {
		if drop(rec) {
			dropped = append(dropped, rec.Category)
			continue
		}
		kept = append(kept, rec)
	}
	r.Items = kept

	return dropped
}

func (r *Recommendations) Categories() []string {
	categories := make([]string, 0, len(r.Items))
	for _, rec := range r.Items {
		categories = append(categories, rec.Category)
	}

	return categories
}

// Top returns a new list holding at most the first n items.
func (r *Recommendations) Top(n int) *Recommendations {
	if n < 0 || n > len(r.Items) {
		n = len(r.Items)
	}

	return &Recommendations{Items: slices.Clone(r.Items[:n])}
}
