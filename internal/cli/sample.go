package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	fet "github.com/ELISA-IE/bert-fet"
)

var countCmd = &cobra.Command{
	Use:   "count",
	Short: "Print the label frequency table of a CFET corpus",
	RunE:  runCount,
}

var downsampleCmd = &cobra.Command{
	Use:   "downsample",
	Short: "Downsample common-label instances of a CFET corpus",
	Long: `Keeps every instance whose rarest label occurs fewer than the threshold
times; the rest are kept with a sub-linearly decaying probability, so common
labels shrink without disappearing.`,
	RunE: runDownsample,
}

var splitCmd = &cobra.Command{
	Use:   "split",
	Short: "Split a CFET corpus into train and dev sets",
	Long: `Instances carrying a rare label always go to train; the rest go to dev
with the given rate via an independent draw per instance.`,
	RunE: runSplit,
}

var (
	countInput string

	downsampleInput     string
	downsampleOutput    string
	downsampleThreshold int
	downsampleSeed      int64

	splitInput     string
	splitTrain     string
	splitDev       string
	splitThreshold int
	splitRate      float64
	splitSeed      int64
)

func init() {
	countCmd.Flags().StringVarP(&countInput, "input", "i", "", "Path to the CFET input file")
	_ = countCmd.MarkFlagRequired("input")

	f := downsampleCmd.Flags()
	f.StringVarP(&downsampleInput, "input", "i", "", "Path to the CFET input file")
	f.StringVarP(&downsampleOutput, "output", "o", "", "Path to the output file")
	f.IntVarP(&downsampleThreshold, "threshold", "t", 0, "Label count below which instances are always kept")
	f.Int64Var(&downsampleSeed, "seed", 0, "Random seed (0 = time-based)")
	_ = downsampleCmd.MarkFlagRequired("input")
	_ = downsampleCmd.MarkFlagRequired("output")

	f = splitCmd.Flags()
	f.StringVarP(&splitInput, "input", "i", "", "Path to the CFET input file")
	f.StringVar(&splitTrain, "train", "", "Path to the train output file")
	f.StringVar(&splitDev, "dev", "", "Path to the dev output file")
	f.IntVarP(&splitThreshold, "threshold", "t", 0, "Label count below which instances are forced into train")
	f.Float64VarP(&splitRate, "rate", "r", 0, "Probability of assigning a non-rare instance to dev")
	f.Int64Var(&splitSeed, "seed", 0, "Random seed (0 = time-based)")
	_ = splitCmd.MarkFlagRequired("input")
	_ = splitCmd.MarkFlagRequired("train")
	_ = splitCmd.MarkFlagRequired("dev")

	rootCmd.AddCommand(countCmd)
	rootCmd.AddCommand(downsampleCmd)
	rootCmd.AddCommand(splitCmd)
}

// countLabelsFile runs one counting pass over the corpus at path.
func countLabelsFile(path string) (fet.LabelCount, error) {
	in, err := openInput(path)
	if err != nil {
		return nil, fmt.Errorf("opening input: %w", err)
	}
	defer in.Close()
	return fet.CountLabels(in)
}

func runCount(cmd *cobra.Command, args []string) error {
	counts, err := countLabelsFile(countInput)
	if err != nil {
		return err
	}
	for _, lf := range counts.MostCommon() {
		cmd.Printf("%s: %d\n", lf.Label, lf.Count)
	}
	return nil
}

func runDownsample(cmd *cobra.Command, args []string) error {
	threshold := downsampleThreshold
	if !cmd.Flags().Changed("threshold") {
		threshold = cfg.SampleThreshold
	}

	counts, err := countLabelsFile(downsampleInput)
	if err != nil {
		return err
	}

	in, err := openInput(downsampleInput)
	if err != nil {
		return fmt.Errorf("opening input: %w", err)
	}
	defer in.Close()

	out, err := createOutput(downsampleOutput)
	if err != nil {
		return fmt.Errorf("creating output: %w", err)
	}

	stats, err := sampler(downsampleSeed).Downsample(cmd.Context(), in, out, counts, threshold)
	if err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("closing output: %w", err)
	}

	cmd.Printf("#Total: %d\n", stats.Total)
	cmd.Printf("#Sample: %d\n", stats.Kept)
	return nil
}

func runSplit(cmd *cobra.Command, args []string) error {
	threshold := splitThreshold
	if !cmd.Flags().Changed("threshold") {
		threshold = cfg.RareThreshold
	}
	rate := splitRate
	if !cmd.Flags().Changed("rate") {
		rate = cfg.DevRate
	}

	counts, err := countLabelsFile(splitInput)
	if err != nil {
		return err
	}

	in, err := openInput(splitInput)
	if err != nil {
		return fmt.Errorf("opening input: %w", err)
	}
	defer in.Close()

	trainOut, err := createOutput(splitTrain)
	if err != nil {
		return fmt.Errorf("creating train output: %w", err)
	}
	devOut, err := createOutput(splitDev)
	if err != nil {
		trainOut.Close()
		return fmt.Errorf("creating dev output: %w", err)
	}

	stats, err := sampler(splitSeed).Split(cmd.Context(), in, trainOut, devOut, counts, threshold, rate)
	if err != nil {
		trainOut.Close()
		devOut.Close()
		return err
	}
	if err := trainOut.Close(); err != nil {
		return fmt.Errorf("closing train output: %w", err)
	}
	if err := devOut.Close(); err != nil {
		return fmt.Errorf("closing dev output: %w", err)
	}

	cmd.Printf("#Total: %d\n", stats.Total)
	cmd.Printf("#Train: %d\n", stats.Train)
	cmd.Printf("#Dev: %d\n", stats.Dev)
	return nil
}
