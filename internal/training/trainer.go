// Package training fits the per-category classifiers and evaluates them on a held-out split.
package training

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/ad-targeter/internal/dataset"
	"github.com/spigell/ad-targeter/internal/forest"
	"github.com/spigell/ad-targeter/internal/logger"
	"github.com/spigell/ad-targeter/internal/model"
	"github.com/spigell/ad-targeter/internal/textvec"
)

type Config struct {
	Categories  []string
	MaxFeatures int
	Trees       int
	TestSize    float64
	Seed        uint64
	// Workers bounds how many categories are fitted concurrently. Zero uses GOMAXPROCS.
	Workers int
}

type Result struct {
	Model      *model.UnifiedAdModel
	Evaluation *Evaluation
	Duration   time.Duration
}

// Train fits the vectorizer on every row, then one forest per category on the training
// split, and evaluates the ensemble on the held-out rows.
func Train(ctx context.Context, users *dataset.Users, cfg *Config, log *zap.Logger) (*Result, error) {
	log = logger.WithFields(log)
	started := time.Now()

	if users.Len() == 0 {
		return nil, fmt.Errorf("user table is empty")
	}
	if len(cfg.Categories) == 0 {
		return nil, fmt.Errorf("no categories configured")
	}

	vectorizer := textvec.New(cfg.MaxFeatures)
	vectors, err := vectorizer.FitTransform(users.Features())
	if err != nil {
		return nil, fmt.Errorf("fit vectorizer: %w", err)
	}

	log.Info("vectorizer fitted",
		zap.Int("documents", users.Len()),
		zap.Int("vocabulary", vectorizer.Dimension()),
	)

	x := textvec.DenseMatrix(vectors, vectorizer.Dimension())
	labels := dataset.Labels(users, cfg.Categories)

	trainIdx, testIdx, err := Split(users.Len(), cfg.TestSize, cfg.Seed)
	if err != nil {
		return nil, fmt.Errorf("split: %w", err)
	}

	xTrain, xTest := pickRows(x, trainIdx), pickRows(x, testIdx)

	log.Info("training individual models",
		zap.Int("categories", len(cfg.Categories)),
		zap.Int("train_rows", len(trainIdx)),
		zap.Int("test_rows", len(testIdx)),
		zap.Int("trees", cfg.Trees),
	)

	var mu sync.Mutex
	classifiers := make(map[string]*forest.Forest, len(cfg.Categories))
	truth := make(map[string][]int, len(cfg.Categories))
	pred := make(map[string][]int, len(cfg.Categories))

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, category := range cfg.Categories {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			yTrain := pickRows(labels[category], trainIdx)

			f := forest.New(cfg.Trees, cfg.Seed)
			if err := f.Fit(xTrain, yTrain); err != nil {
				return fmt.Errorf("fit %s: %w", category, err)
			}

			predicted, err := f.Predict(xTest)
			if err != nil {
				return fmt.Errorf("predict %s: %w", category, err)
			}

			mu.Lock()
			classifiers[category] = f
			truth[category] = pickRows(labels[category], testIdx)
			pred[category] = predicted
			mu.Unlock()

			log.Debug("category trained",
				zap.String(logger.FieldCategory, category),
				zap.Int("positives", countPositive(yTrain)),
				zap.Int("trees", len(f.Trees)),
			)

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	eval, err := Evaluate(truth, pred, cfg.Categories)
	if err != nil {
		return nil, fmt.Errorf("evaluate: %w", err)
	}

	unified, err := model.New(classifiers, vectorizer, cfg.Categories)
	if err != nil {
		return nil, fmt.Errorf("build unified model: %w", err)
	}

	unified.Metrics = &model.Metrics{
		Accuracy:  eval.Accuracy,
		Precision: eval.Precision,
		Recall:    eval.Recall,
		F1:        eval.F1,
		TestRows:  eval.Rows,
	}

	return &Result{Model: unified, Evaluation: eval, Duration: time.Since(started)}, nil
}

func countPositive(labels []int) int {
	n := 0
	for _, l := range labels {
		n += l
	}

	return n
}
