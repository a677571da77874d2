package recommend

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

type minProbabilityFilter struct {
	threshold float64
	disabled  bool
	reason    string
}

// NewMinProbability creates a step that keeps categories scored strictly above threshold.
func NewMinProbability(threshold float64) Filter {
	return &minProbabilityFilter{threshold: threshold}
}

func (f *minProbabilityFilter) Name() string { return "min_probability" }

func (f *minProbabilityFilter) Disable(reason string) {
	f.disabled = true
	f.reason = reason
}

func (f *minProbabilityFilter) IsEnabled() bool { return !f.disabled }

func (f *minProbabilityFilter) Validate() error {
	if f.threshold < 0 || f.threshold >= 1 {
		return fmt.Errorf("threshold must be in [0, 1), got %v", f.threshold)
	}
	return nil
}

func (f *minProbabilityFilter) Apply(_ context.Context, r *Recommendations) (*Recommendations, Step, error) {
	initial := r.Len()
	dropped := r.KeepAbove(f.threshold)

	return r, Step{Initial: initial, Dropped: len(dropped), Left: r.Len()}, nil
}

func (f *minProbabilityFilter) Status() Status {
	return Status{
		Name:    f.Name(),
		Enabled: f.IsEnabled(),
		Reason:  f.reason,
		Details: map[string]string{"threshold": strconv.FormatFloat(f.threshold, 'f', 2, 64)},
	}
}

type excludedCategoriesFilter struct {
	categories []string
}

// NewExcludedCategories creates a step that removes the configured categories.
func NewExcludedCategories(categories []string) Filter {
	return &excludedCategoriesFilter{categories: categories}
}

func (f *excludedCategoriesFilter) Name() string { return "excluded_categories" }

func (f *excludedCategoriesFilter) Disable(string) {}

func (f *excludedCategoriesFilter) IsEnabled() bool { return true }

func (f *excludedCategoriesFilter) Validate() error { return nil }

func (f *excludedCategoriesFilter) Apply(_ context.Context, r *Recommendations) (*Recommendations, Step, error) {
	initial := r.Len()
	if len(f.categories) == 0 {
		return r, Step{Initial: initial, Dropped: 0, Left: r.Len()}, nil
	}

	dropped := r.Exclude(f.categories)

	return r, Step{Initial: initial, Dropped: len(dropped), Left: r.Len()}, nil
}

func (f *excludedCategoriesFilter) Status() Status {
	details := map[string]string{}
	if len(f.categories) > 0 {
		details["categories"] = strings.Join(f.categories, ",")
	}
	return Status{Name: f.Name(), Enabled: true, Details: details}
}

type sortedFilter struct{}

// NewSorted creates a step that ranks by descending probability.
func NewSorted() Filter {
	return &sortedFilter{}
}

func (f *sortedFilter) Name() string { return "sorted" }

func (f *sortedFilter) Disable(string) {}

func (f *sortedFilter) IsEnabled() bool { return true }

func (f *sortedFilter) Validate() error { return nil }

func (f *sortedFilter) Apply(_ context.Context, r *Recommendations) (*Recommendations, Step, error) {
	r.Sort()
	return r, Step{Initial: r.Len(), Dropped: 0, Left: r.Len()}, nil
}

type limitFilter struct {
	limit    int
	disabled bool
	reason   string
}

// NewLimit creates a step that keeps the first limit items.
func NewLimit(limit int) Filter {
	return &limitFilter{limit: limit}
}

func (f *limitFilter) Name() string { return "limit" }

func (f *limitFilter) Disable(reason string) {
	f.disabled = true
	f.reason = reason
}

func (f *limitFilter) IsEnabled() bool { return !f.disabled }

func (f *limitFilter) Validate() error {
	if f.limit <= 0 {
		return fmt.Errorf("limit must be positive, got %d", f.limit)
	}
	return nil
}

func (f *limitFilter) Apply(_ context.Context, r *Recommendations) (*Recommendations, Step, error) {
	initial := r.Len()
	dropped := r.Truncate(f.limit)

	return r, Step{Initial: initial, Dropped: len(dropped), Left: r.Len()}, nil
}

func (f *limitFilter) Status() Status {
	return Status{
		Name:    f.Name(),
		Enabled: f.IsEnabled(),
		Reason:  f.reason,
		Details: map[string]string{"limit": strconv.Itoa(f.limit)},
	}
}
