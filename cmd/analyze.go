package cmd

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/ad-targeter/internal/analysis"
	"github.com/spigell/ad-targeter/internal/logger"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Render a probability heatmap, an age regression and user clusters",
	Run: func(cmd *cobra.Command, _ []string) {
		analyze(cmd)
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringP("category", "c", "", "category for the age regression")
	analyzeCmd.Flags().Int("rows", 0, "users shown in the heatmap")
	analyzeCmd.Flags().Int("clusters", 0, "number of k-means clusters")
	analyzeCmd.Flags().StringP("output-dir", "o", "", "directory for the CSV series")
	analyzeCmd.Flags().Bool("no-export", false, "do not write CSV series")

	viper.BindPFlag("analysis.category", analyzeCmd.Flags().Lookup("category"))
	viper.BindPFlag("analysis.heatmap-rows", analyzeCmd.Flags().Lookup("rows"))
	viper.BindPFlag("analysis.clusters", analyzeCmd.Flags().Lookup("clusters"))
	viper.BindPFlag("analysis.output-dir", analyzeCmd.Flags().Lookup("output-dir"))
}

func analyze(cmd *cobra.Command) {
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

	report, err := analysis.Analyze(ctx, resources.Model, resources.Users, config.Analysis, logger)
	if err != nil {
		logger.Fatal("analysis failed", zap.Error(err))
	}

	fmt.Fprint(os.Stdout, report.Render())

	if noExport, _ := cmd.Flags().GetBool("no-export"); noExport {
		return
	}

	paths, err := report.Export(config.Analysis.OutputDir)
	if err != nil {
		logger.Fatal("exporting csv series", zap.Error(err))
	}

	logger.Info("csv series written", zap.Strings("files", paths))
}
