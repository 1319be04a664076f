package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	fet "github.com/ELISA-IE/bert-fet"
	"github.com/ELISA-IE/bert-fet/tokenizer"
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert a CFET corpus to BFET format",
	Long: `Rewrites token-indexed mention spans into word-piece-indexed spans and
attaches the encoded piece ids to each instance. Instances whose piece count
exceeds the length budget are dropped whole and counted.`,
	RunE: runConvert,
}

var (
	convertInput  string
	convertOutput string
	convertModel  string
	convertCache  string
	convertMaxLen int
)

func init() {
	f := convertCmd.Flags()
	f.StringVarP(&convertInput, "input", "i", "", "Path to the CFET input file")
	f.StringVarP(&convertOutput, "output", "o", "", "Path to the BFET output file")
	f.StringVarP(&convertModel, "model-name", "m", "", "Tokenizer model name (bert-* or roberta-*)")
	f.StringVarP(&convertCache, "cache-dir", "c", "", "Tokenizer cache directory")
	f.IntVarP(&convertMaxLen, "max-len", "l", 0, "Max sequence length, sentinel tokens included")
	_ = convertCmd.MarkFlagRequired("input")
	_ = convertCmd.MarkFlagRequired("output")

	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	model := convertModel
	if model == "" {
		model = cfg.ModelName
	}
	cacheDir := convertCache
	if cacheDir == "" {
		cacheDir = cfg.CacheDir
	}
	maxLen := convertMaxLen
	if !cmd.Flags().Changed("max-len") {
		maxLen = cfg.MaxLength
	}

	tok, err := tokenizer.New(model, cacheDir)
	if err != nil {
		return err
	}

	in, err := openInput(convertInput)
	if err != nil {
		return fmt.Errorf("opening input: %w", err)
	}
	defer in.Close()

	out, err := createOutput(convertOutput)
	if err != nil {
		return fmt.Errorf("creating output: %w", err)
	}

	conv := fet.NewConverter(tok, fet.WithMaxLength(maxLen))
	stats, err := conv.Convert(cmd.Context(), in, out)
	if err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("closing output: %w", err)
	}

	cmd.Printf("#Total: %d\n", stats.Total)
	cmd.Printf("#Written: %d\n", stats.Written)
	cmd.Printf("#Overlength: %d\n", stats.Overlength)
	return nil
}
