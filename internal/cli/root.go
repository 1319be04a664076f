// Package cli implements the fet command tree.
package cli

import (
	"log/slog"
	"math/rand/v2"
	"os"

	"github.com/spf13/cobra"

	fet "github.com/ELISA-IE/bert-fet"
	"github.com/ELISA-IE/bert-fet/internal/config"
)

var rootCmd = &cobra.Command{
	Use:           "fet",
	Short:         "Fine-grained entity typing data tools",
	Long:          `Convert, sample, and extract fine-grained entity typing corpora in the CFET and BFET line formats.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var (
	cfgPath string
	cfg     config.Config
	verbose bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "Path to a TOML config file with shared defaults")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgPath)
		if err != nil {
			return err
		}

		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
			Level: level,
		})))
		return nil
	}
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// sampler builds a Sampler, seeded for reproducibility when seed is nonzero.
func sampler(seed int64) *fet.Sampler {
	if seed == 0 {
		return fet.NewSampler()
	}
	return fet.NewSampler(fet.WithRand(rand.New(rand.NewPCG(uint64(seed), 0))))
}

// openInput opens an input corpus file.
func openInput(path string) (*os.File, error) {
	return os.Open(path)
}

// createOutput creates an output corpus file, truncating any existing one.
func createOutput(path string) (*os.File, error) {
	return os.Create(path)
}
