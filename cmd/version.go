package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/spigell/ad-targeter/internal/model"
)

// Actual version can be specified in build command.
var version = "unknown"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version and the trained model it would use",
	Run: func(_ *cobra.Command, _ []string) {
		printVersion(os.Stdout, viper.GetString("model"))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func printVersion(w io.Writer, modelPath string) {
	fmt.Fprintf(w, "%s version: %s\n", app, version)

	m, err := model.Load(modelPath)
	if err != nil {
		fmt.Fprintf(w, "model: not available (%s)\n", modelPath)
		return
	}

	fmt.Fprintf(w, "model: %s trained %s, %d categories\n", m.ID, m.TrainedAt.Format("2006-01-02 15:04:05"), len(m.Categories))
}
