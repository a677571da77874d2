package recommend

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spigell/ad-targeter/internal/logger"
)

const (
	DefaultMinProbability = 0.3
	DefaultLimit          = 10
)

// Filter represents a single step applied to a recommendation list.
type Filter interface {
	Name() string
	Disable(reason string)
	IsEnabled() bool

	Validate() error
	Apply(ctx context.Context, r *Recommendations) (*Recommendations, Step, error)
}

// Step describes the result of executing a filtering step.
type Step struct {
	Initial int
	Dropped int
	Left    int
}

// Status represents runtime information about a filter.
type Status struct {
	Name    string
	Enabled bool
	Reason  string
	Details map[string]string
}

// statusProvider is implemented by filters that can supply detailed status information.
type statusProvider interface {
	Status() Status
}

type Config struct {
	MinProbability    float64  `mapstructure:"min-probability"`
	Limit             int      `mapstructure:"limit"`
	ExcludeCategories []string `mapstructure:"exclude-categories"`
}

type Pipeline struct {
	steps  []Filter
	logger *zap.Logger
}

func New(steps []Filter, log *zap.Logger) *Pipeline {
	return &Pipeline{
		steps:  steps,
		logger: logger.WithFields(log),
	}
}

// DefaultSteps builds the threshold, exclusion, sort and limit steps from cfg.
func DefaultSteps(cfg *Config) []Filter {
	if cfg == nil {
		cfg = &Config{MinProbability: DefaultMinProbability, Limit: DefaultLimit}
	}

	return []Filter{
		NewMinProbability(cfg.MinProbability),
		NewExcludedCategories(cfg.ExcludeCategories),
		NewSorted(),
		NewLimit(cfg.Limit),
	}
}

// Validate checks every enabled step before anything runs.
func (p *Pipeline) Validate() error {
	for _, step := range p.steps {
		if !step.IsEnabled() {
			continue
		}
		if err := step.Validate(); err != nil {
			return fmt.Errorf("%s: %w", step.Name(), err)
		}
	}

	return nil
}

// Run executes the enabled steps in order.
func (p *Pipeline) Run(ctx context.Context, r *Recommendations) (*Recommendations, error) {
	for _, step := range p.steps {
		if !step.IsEnabled() {
			p.logger.Debug("filter disabled", zap.String("name", step.Name()))
			continue
		}

		if err := ctx.Err(); err != nil {
			return nil, err
		}

		next, info, err := step.Apply(ctx, r)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", step.Name(), err)
		}

		p.logger.Debug("filter step",
			zap.String("name", step.Name()),
			zap.Int("initial", info.Initial),
			zap.Int("dropped", info.Dropped),
			zap.Int("left", info.Left),
		)

		r = next
	}

	return r, nil
}

// Describe returns status entries for the pipeline steps.
func (p *Pipeline) Describe() []Status {
	statuses := make([]Status, 0, len(p.steps))
	for _, step := range p.steps {
		if reporter, ok := step.(statusProvider); ok {
			statuses = append(statuses, reporter.Status())
			continue
		}

		statuses = append(statuses, Status{
			Name:    step.Name(),
			Enabled: step.IsEnabled(),
		})
	}

	return statuses
}

// DisableByName marks a step with the provided name as disabled while keeping it in the list.
func (p *Pipeline) DisableByName(name, reason string) {
	for _, step := range p.steps {
		if step.Name() == name {
			step.Disable(reason)
		}
	}
}
