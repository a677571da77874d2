package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/ad-targeter/internal/ai"
	"github.com/spigell/ad-targeter/internal/ai/gemini"
	"github.com/spigell/ad-targeter/internal/logger"
	"github.com/spigell/ad-targeter/internal/recommend"
	"github.com/spigell/ad-targeter/internal/secrets"
	"github.com/spigell/ad-targeter/internal/viewer"
)

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Pick a user profile and show the ads it is most likely interested in",
	Run: func(cmd *cobra.Command, _ []string) {
		runRecommend(cmd)
	},
}

func init() {
	rootCmd.AddCommand(recommendCmd)

	recommendCmd.Flags().IntP("user", "u", 0, "render recommendations for one user id and exit")
	recommendCmd.Flags().Float64("min-probability", 0, "show only categories above this probability")
	recommendCmd.Flags().Int("limit", 0, "maximum number of categories shown")
	recommendCmd.Flags().StringSlice("exclude", nil, "categories never shown")
	recommendCmd.Flags().Bool("ai", false, "generate an ad pitch for the top categories")
	recommendCmd.Flags().Bool("all", false, "show every category above the threshold, ignoring the limit")

	viper.BindPFlag("recommend.min-probability", recommendCmd.Flags().Lookup("min-probability"))
	viper.BindPFlag("recommend.limit", recommendCmd.Flags().Lookup("limit"))
	viper.BindPFlag("recommend.exclude-categories", recommendCmd.Flags().Lookup("exclude"))
	viper.BindPFlag("ai.enabled", recommendCmd.Flags().Lookup("ai"))
}

func runRecommend(cmd *cobra.Command) {
	ctx := cmd.Context()
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

	resources := loadResources(config, logger)

	logger.Info("resources loaded",
		zap.Int("users", resources.Users.Len()),
		zap.String("model_id", resources.Model.ID),
		zap.Strings("categories", resources.Model.Categories),
	)

	showAll, _ := cmd.Flags().GetBool("all")
	pipeline, err := buildPipeline(config.Recommend, showAll, logger)
	if err != nil {
		logger.Fatal("invalid recommendation settings", zap.Error(err))
	}

	pitcher, err := newPitcher(ctx, config.AI, logger)
	if err != nil {
		logger.Warn("skipping ad pitches", zap.Error(err))
	}

	v := viewer.New(resources, pipeline, pitcher, os.Stdout, logger)

	if cmd.Flags().Changed("user") {
		userID, _ := cmd.Flags().GetInt("user")
		if err := v.Show(ctx, userID); err != nil {
			logger.Fatal("failed to generate recommendations", zap.Int("user_id", userID), zap.Error(err))
		}
		return
	}

	if !viewer.IsTerminal(os.Stdin) {
		logger.Fatal("interactive mode requires a terminal",
			zap.String("hint", "pass --user <id> to render a single profile"),
		)
	}

	selector := &viewer.PromptSelector{Label: "Select a user and press ENTER", Size: 10}
	if err := v.Run(ctx, selector); err != nil {
		logger.Fatal("exiting", zap.Error(err))
	}
}

// buildPipeline assembles the recommendation steps and validates them.
func buildPipeline(cfg *recommend.Config, showAll bool, logger *zap.Logger) (*recommend.Pipeline, error) {
	pipeline := recommend.New(recommend.DefaultSteps(cfg), logger)
	if showAll {
		pipeline.DisableByName("limit", "--all flag is set")
	}

	if err := pipeline.Validate(); err != nil {
		return nil, err
	}

	for _, status := range pipeline.Describe() {
		logger.Debug("recommendation step",
			zap.String("name", status.Name),
			zap.Bool("enabled", status.Enabled),
			zap.String("reason", status.Reason),
			zap.Any("details", status.Details),
		)
	}

	return pipeline, nil
}

// loadResources stops the program when any input file is missing or unreadable.
func loadResources(config *Config, logger *zap.Logger) *viewer.Resources {
	resources, err := viewer.LoadResources(viewer.Paths{
		Data:       config.Data,
		Model:      config.Model,
		Vectorizer: config.Vectorizer,
	})
	if err != nil {
		hint := "check the data, model and vectorizer paths in the configuration file"
		if errors.Is(err, fs.ErrNotExist) {
			hint = fmt.Sprintf("run '%s train' first to create %s and %s", app, config.Model, config.Vectorizer)
		}
		logger.Fatal("failed to load resources", zap.Error(err), zap.String("hint", hint))
	}

	return resources
}

// newPitcher returns a nil Pitcher when pitches are disabled.
func newPitcher(ctx context.Context, cfg *AIConfig, baseLogger *zap.Logger) (ai.Pitcher, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, nil
	}

	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider != "" && provider != "gemini" {
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}

	if cfg.Gemini == nil {
		return nil, errors.New("gemini configuration is required when ai is enabled")
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		File:  cfg.Gemini.APIKeyFile,
		Value: cfg.Gemini.APIKey,
		Env:   "GEMINI_API_KEY",
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set ai.gemini.api-key-file or GEMINI_API_KEY)", err)
	}

	generator, err := gemini.NewGenerator(ctx, apiKey, cfg.Gemini.Model, cfg.Gemini.MaxRetries, baseLogger)
	if err != nil {
		return nil, err
	}

	pitchLogger := baseLogger.With(zap.Int("ai_retry_attempts", cfg.Gemini.MaxRetries))

	return gemini.NewPitcher(generator, cfg.Gemini.MaxLogLength, logger.WithProviderFields(pitchLogger, "gemini", generator.Model())), nil
}
