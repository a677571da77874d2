package cmd

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/ad-targeter/internal/dataset"
	"github.com/spigell/ad-targeter/internal/logger"
	"github.com/spigell/ad-targeter/internal/model"
	"github.com/spigell/ad-targeter/internal/training"
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train one classifier per ad category and save the model and vectorizer",
	Run: func(cmd *cobra.Command, _ []string) {
		train(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(trainCmd)

	trainCmd.Flags().Int("trees", 0, "trees per category forest")
	trainCmd.Flags().Int("max-features", 0, "vocabulary size of the vectorizer")
	trainCmd.Flags().Float64("test-size", 0, "share of rows held out for evaluation")
	trainCmd.Flags().Uint64("seed", 0, "random seed for the split and the forests")

	viper.BindPFlag("training.trees", trainCmd.Flags().Lookup("trees"))
	viper.BindPFlag("training.max-features", trainCmd.Flags().Lookup("max-features"))
	viper.BindPFlag("training.test-size", trainCmd.Flags().Lookup("test-size"))
	viper.BindPFlag("training.seed", trainCmd.Flags().Lookup("seed"))
}

func train(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the training", zap.String("version", version), zap.String("data", config.Data))

	users, err := dataset.Load(config.Data)
	if err != nil {
		logger.Fatal("loading users",
			zap.Error(err),
			zap.String("hint", "set 'data' in the configuration file or pass --data"),
		)
	}

	logger.Info("users loaded", zap.Int("count", users.Len()))

	result, err := training.Train(ctx, users, trainingConfig(config), logger)
	if err != nil {
		logger.Fatal("training failed", zap.Error(err))
	}

	fmt.Fprintln(os.Stdout, training.RenderEvaluation(result.Evaluation))

	if err := saveArtifacts(result.Model, config, logger); err != nil {
		logger.Fatal("saving artifacts", zap.Error(err))
	}

	logger.Info("training finished", zap.Duration("duration", result.Duration))
}

func trainingConfig(config *Config) *training.Config {
	cfg := &training.Config{Categories: config.Categories}
	if t := config.Training; t != nil {
		cfg.MaxFeatures = t.MaxFeatures
		cfg.Trees = t.Trees
		cfg.TestSize = t.TestSize
		cfg.Seed = t.Seed
		cfg.Workers = t.Workers
	}

	return cfg
}

func saveArtifacts(m *model.UnifiedAdModel, config *Config, log *zap.Logger) error {
	if err := m.Save(config.Model); err != nil {
		return err
	}
	log.Info("model saved", logger.ArtifactFields(m.ID, config.Model)...)

	if err := model.SaveVectorizer(config.Vectorizer, m.Vectorizer); err != nil {
		return err
	}
	log.Info("vectorizer saved", logger.ArtifactFields(m.ID, config.Vectorizer)...)

	return nil
}
