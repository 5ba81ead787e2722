package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"gonarrative/internal"
	"gonarrative/internal/config"
	"gonarrative/internal/container"
)

var (
	cfg     *config.Config
	cfgFile string
	restore = func() {}
)

var rootCmd = &cobra.Command{
	Use:   "narrate",
	Short: "Evidence-gated narratives for area statistics",
	Long:  "Computes metrics for a configured section, runs the insight rules and renders only the statements the evidence supports.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		_, undo, err := internal.InitGlobal(internal.ParseLogLevel(cfg.Log.Level), cfg.Log.Format)
		if err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
		restore = undo
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
		restore()
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./config.yaml)")
}

// initContainer wires the dataset and services from the loaded config
func initContainer() (*container.Container, error) {
	return container.New(cfg, zap.L())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
