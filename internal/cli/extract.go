package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	fet "github.com/ELISA-IE/bert-fet"
	"github.com/ELISA-IE/bert-fet/internal/store"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract a CFET corpus from a wiki sentence store",
	Long: `Reads linked sentences from the SQLite sentence store, resolves entity
titles to type lists, restricts the types to the target ontology, and maps
link character offsets onto token indices. Each sentence with at least one
valid entity yields one CFET line.`,
	RunE: runExtract,
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Load a JSONL sentence dump into the sentence store",
	RunE:  runImport,
}

var (
	extractEntityTypes string
	extractOntology    string
	extractOutput      string
	extractDB          string
	extractTitleField  string

	importDB    string
	importInput string
)

func init() {
	f := extractCmd.Flags()
	f.StringVarP(&extractEntityTypes, "entity-type-file", "e", "", "Path to the entity title to type list JSON file")
	f.StringVarP(&extractOntology, "ontology", "n", "", "Path to the ontology file, one target type per line")
	f.StringVarP(&extractOutput, "output", "o", "", "Path to the CFET output file")
	f.StringVar(&extractDB, "db", "", "Path to the sentence store database")
	f.StringVarP(&extractTitleField, "title-field", "t", "", "Link field holding the entity title")
	_ = extractCmd.MarkFlagRequired("entity-type-file")
	_ = extractCmd.MarkFlagRequired("ontology")
	_ = extractCmd.MarkFlagRequired("output")

	f = importCmd.Flags()
	f.StringVar(&importDB, "db", "", "Path to the sentence store database")
	f.StringVarP(&importInput, "input", "i", "", "Path to the JSONL sentence dump")
	_ = importCmd.MarkFlagRequired("input")

	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(importCmd)
}

// storePath resolves the database path from the flag or the config file.
func storePath(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if cfg.DBPath != "" {
		return cfg.DBPath, nil
	}
	return "", errors.New("no sentence store: set --db or db_path in the config file")
}

func runExtract(cmd *cobra.Command, args []string) error {
	dbPath, err := storePath(extractDB)
	if err != nil {
		return err
	}
	titleField := extractTitleField
	if titleField == "" {
		titleField = cfg.TitleField
	}

	entityTypes, err := fet.LoadEntityTypes(extractEntityTypes)
	if err != nil {
		return err
	}
	ontology, err := fet.LoadOntology(extractOntology)
	if err != nil {
		return err
	}
	cmd.Printf("#Entities: %d\n", len(entityTypes))
	cmd.Printf("#Target Entity Types: %d\n", len(ontology))

	st, err := store.Open(dbPath, store.WithTitleField(titleField))
	if err != nil {
		return err
	}
	defer st.Close()

	out, err := createOutput(extractOutput)
	if err != nil {
		return fmt.Errorf("creating output: %w", err)
	}

	ext := fet.NewExtractor(st, entityTypes, ontology)
	stats, err := ext.Extract(cmd.Context(), out)
	if err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("closing output: %w", err)
	}

	cmd.Printf("#Processed: %d\n", stats.Processed)
	cmd.Printf("#Entities: %d\n", stats.WithEntities)
	cmd.Printf("#Valid: %d\n", stats.Valid)
	cmd.Printf("#NotMatched: %d\n", stats.NotMatched)
	cmd.Printf("#Titles: %d\n", stats.Titles)
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	dbPath, err := storePath(importDB)
	if err != nil {
		return err
	}

	in, err := openInput(importInput)
	if err != nil {
		return fmt.Errorf("opening dump: %w", err)
	}
	defer in.Close()

	st, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	n, err := st.ImportDump(cmd.Context(), in)
	if err != nil {
		return err
	}
	cmd.Printf("#Imported: %d\n", n)
	return nil
}
