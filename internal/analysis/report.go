package analysis

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"go.uber.org/zap"

	"github.com/spigell/ad-targeter/internal/dataset"
	"github.com/spigell/ad-targeter/internal/logger"
	"github.com/spigell/ad-targeter/internal/model"
)

const (
	DefaultHeatmapRows = 20
	DefaultCategory    = "technology"
	DefaultSeed        = 42
)

type Config struct {
	HeatmapRows int    `mapstructure:"heatmap-rows"`
	Category    string `mapstructure:"category"`
	Clusters    int    `mapstructure:"clusters"`
	Seed        uint64 `mapstructure:"seed"`
	OutputDir   string `mapstructure:"output-dir"`
}

// Report bundles every analysis computed over one user table.
type Report struct {
	Matrix     *Matrix
	Regression *Regression
	Clustering *Clustering

	heatmapRows int
}

// Analyze predicts every user and runs the heatmap, regression and clustering steps.
func Analyze(ctx context.Context, m *model.UnifiedAdModel, users *dataset.Users, cfg *Config, log *zap.Logger) (*Report, error) {
	log = logger.WithFields(log, logger.StringFields(logger.StringField{Key: logger.FieldModelID, Value: m.ID})...)

	if cfg == nil {
		cfg = &Config{}
	}
	rows := cfg.HeatmapRows
	if rows <= 0 {
		rows = DefaultHeatmapRows
	}
	category := strings.TrimSpace(cfg.Category)
	if category == "" {
		category = DefaultCategory
	}
	k := cfg.Clusters
	if k <= 0 {
		k = DefaultClusters
	}

	matrix, err := Probabilities(m, users)
	if err != nil {
		return nil, fmt.Errorf("predicting probabilities: %w", err)
	}
	log.Info("probabilities computed", zap.Int("users", len(matrix.Rows)), zap.Int("categories", len(matrix.Categories)))

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	probs, err := matrix.Column(category)
	if err != nil {
		return nil, err
	}
	regression, err := AgeRegression(category, users.Ages(), probs)
	if err != nil {
		return nil, fmt.Errorf("age regression for %s: %w", category, err)
	}
	log.Info("age regression fitted",
		zap.String(logger.FieldCategory, category),
		zap.Float64("slope", regression.Slope),
		zap.Float64("r", regression.Correlation),
	)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vectors, err := m.Transform(users.Features())
	if err != nil {
		return nil, fmt.Errorf("vectorizing users: %w", err)
	}
	clustering, err := Cluster(vectors, k, cfg.Seed)
	if err != nil {
		return nil, fmt.Errorf("clustering: %w", err)
	}
	log.Info("users clustered",
		zap.Int("clusters", k),
		zap.Ints("sizes", clustering.Sizes),
		zap.Int("iterations", clustering.Iterations),
	)

	return &Report{
		Matrix:      matrix,
		Regression:  regression,
		Clustering:  clustering,
		heatmapRows: rows,
	}, nil
}

func (r *Report) Render() string {
	return strings.Join([]string{
		Heatmap(r.Matrix, r.heatmapRows),
		RenderRegression(r.Regression),
		RenderClusters(r.Clustering),
	}, "\n\n") + "\n"
}

// Export writes the CSV series for external plotting and returns the written paths.
func (r *Report) Export(dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating %q: %w", dir, err)
	}

	files := []struct {
		name  string
		table table.Writer
	}{
		{"heatmap.csv", heatmapTable(r.Matrix, len(r.Matrix.Rows), 6)},
		{"age_" + r.Regression.Category + ".csv", regressionTable(r.Regression)},
		{"clusters.csv", clustersTable(r.Clustering, r.Matrix.UserIDs)},
	}

	written := make([]string, 0, len(files))
	for _, f := range files {
		path := filepath.Join(dir, f.name)
		if err := os.WriteFile(path, []byte(f.table.RenderCSV()+"\n"), 0o644); err != nil {
			return written, fmt.Errorf("write %q: %w", path, err)
		}
		written = append(written, path)
	}

	return written, nil
}
