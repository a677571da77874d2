package cmd

import (
	"errors"
	"log"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/ad-targeter/internal/analysis"
	"github.com/spigell/ad-targeter/internal/dataset"
	"github.com/spigell/ad-targeter/internal/forest"
	"github.com/spigell/ad-targeter/internal/recommend"
)

const (
	app = "ad-targeter"
)

type Config struct {
	Data       string            `mapstructure:"data"`
	Model      string            `mapstructure:"model"`
	Vectorizer string            `mapstructure:"vectorizer"`
	Categories []string          `mapstructure:"categories"`
	Training   *TrainingConfig   `mapstructure:"training"`
	Recommend  *recommend.Config `mapstructure:"recommend"`
	Analysis   *analysis.Config  `mapstructure:"analysis"`
	AI         *AIConfig         `mapstructure:"ai"`
}

type TrainingConfig struct {
	MaxFeatures int     `mapstructure:"max-features"`
	Trees       int     `mapstructure:"trees"`
	TestSize    float64 `mapstructure:"test-size"`
	Seed        uint64  `mapstructure:"seed"`
	Workers     int     `mapstructure:"workers"`
}

type AIConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Provider string        `mapstructure:"provider"`
	Gemini   *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKey       string `mapstructure:"api-key"`
	APIKeyFile   string `mapstructure:"api-key-file"`
	Model        string `mapstructure:"model"`
	MaxRetries   int    `mapstructure:"max-retries"`
	MaxLogLength int    `mapstructure:"max-log-length"`
}

var (
	envKeyReplacer = strings.NewReplacer("-", "_", ".", "_")

	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "ad-targeter trains a multi-label ad interest classifier and shows per-user recommendations",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is ad-targeter.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")
	rootCmd.PersistentFlags().String("data", "", "user table in CSV format")
	rootCmd.PersistentFlags().String("model", "", "model artifact path")
	rootCmd.PersistentFlags().String("vectorizer", "", "vectorizer artifact path")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	viper.BindPFlag("data", rootCmd.PersistentFlags().Lookup("data"))
	viper.BindPFlag("model", rootCmd.PersistentFlags().Lookup("model"))
	viper.BindPFlag("vectorizer", rootCmd.PersistentFlags().Lookup("vectorizer"))

	setDefaults(viper.GetViper())
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("data", "ad_users.csv")
	v.SetDefault("model", "ad_model.json")
	v.SetDefault("vectorizer", "ad_vectorizer.json")
	v.SetDefault("categories", dataset.DefaultCategories)

	v.SetDefault("training.max-features", 1000)
	v.SetDefault("training.trees", forest.DefaultNumTrees)
	v.SetDefault("training.test-size", 0.2)
	v.SetDefault("training.seed", forest.DefaultSeed)
	v.SetDefault("training.workers", 0)

	v.SetDefault("recommend.min-probability", recommend.DefaultMinProbability)
	v.SetDefault("recommend.limit", recommend.DefaultLimit)
	v.SetDefault("recommend.exclude-categories", []string{})

	v.SetDefault("analysis.heatmap-rows", analysis.DefaultHeatmapRows)
	v.SetDefault("analysis.category", analysis.DefaultCategory)
	v.SetDefault("analysis.clusters", analysis.DefaultClusters)
	v.SetDefault("analysis.seed", analysis.DefaultSeed)
	v.SetDefault("analysis.output-dir", "analysis")

	v.SetDefault("ai.enabled", false)
	v.SetDefault("ai.provider", "gemini")
	v.SetDefault("ai.gemini.api-key", "")
	v.SetDefault("ai.gemini.api-key-file", "")
	v.SetDefault("ai.gemini.model", "gemini-2.5-flash")
	v.SetDefault("ai.gemini.max-retries", 3)
	v.SetDefault("ai.gemini.max-log-length", 200)
}

func initConfig() {
	viper.SetEnvPrefix("AD_TARGETER")
	viper.SetEnvKeyReplacer(envKeyReplacer)
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// The config file is optional, defaults cover every key. A file that
	// exists but can't be parsed is still fatal.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	return config, nil
}
