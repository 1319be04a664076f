package fet

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Token is one word of a stored sentence with its character span in the
// sentence text.
type Token struct {
	Text  string `json:"text"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// Link is one entity link on a stored sentence. Title is the resolved entity
// title, empty when the stored link carries no title field.
type Link struct {
	Title string `json:"title"`
	Text  string `json:"text"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// Document is one stored sentence with its tokens and entity links.
type Document struct {
	ID     string
	Tokens []Token
	Links  []Link
}

// DocumentSource streams stored sentences that carry at least one link.
// store.Store implements it over SQLite.
type DocumentSource interface {
	Documents(ctx context.Context, fn func(doc *Document) error) error
}

// Extractor pulls CFET instances out of a document source: each stored
// sentence whose links resolve to at least one target ontology type becomes
// one output line.
type Extractor struct {
	source      DocumentSource
	entityTypes map[string][]string
	ontology    map[string]struct{}
	logger      *slog.Logger
}

// ExtractStats reports the outcome of one extraction pass.
type ExtractStats struct {
	Processed    int // documents seen
	Titles       int // links whose title resolved to a known entity
	WithEntities int // documents with at least one ontology-typed link
	Valid        int // documents that produced an output line
	NotMatched   int // links dropped because their span missed token boundaries
}

// NewExtractor creates an Extractor. entityTypes maps entity titles to type
// lists; ontology is the target type set labels are restricted to.
func NewExtractor(source DocumentSource, entityTypes map[string][]string, ontology map[string]struct{}, opts ...Option) *Extractor {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Extractor{
		source:      source,
		entityTypes: entityTypes,
		ontology:    ontology,
		logger:      cfg.logger,
	}
}

// Extract streams documents from the source and writes one CFET line per
// document that yields at least one annotation. Documents with zero valid
// entities produce no output.
func (e *Extractor) Extract(ctx context.Context, w io.Writer) (ExtractStats, error) {
	var stats ExtractStats
	bw := bufio.NewWriter(w)

	err := e.source.Documents(ctx, func(doc *Document) error {
		stats.Processed++

		inst := e.extractDocument(doc, &stats)
		if inst == nil {
			return nil
		}
		if err := WriteInstance(bw, inst); err != nil {
			return err
		}

		if stats.Processed%1000 == 0 {
			e.logger.Info("extracting",
				"processed", stats.Processed,
				"with_entities", stats.WithEntities,
				"valid", stats.Valid,
				"not_matched", stats.NotMatched,
				"titles", stats.Titles)
		}
		return nil
	})
	if err != nil {
		return stats, err
	}
	if err := bw.Flush(); err != nil {
		return stats, fmt.Errorf("flushing output: %w", err)
	}

	e.logger.Info("extraction complete",
		"processed", stats.Processed,
		"with_entities", stats.WithEntities,
		"valid", stats.Valid,
		"not_matched", stats.NotMatched,
		"titles", stats.Titles)
	return stats, nil
}

type candidate struct {
	text  string
	start int
	end   int
	types []string
}

// extractDocument converts one document into a CFET instance, or nil when
// the document yields no annotations.
func (e *Extractor) extractDocument(doc *Document, stats *ExtractStats) *Instance {
	var entities []candidate
	for _, link := range doc.Links {
		if link.Title == "" {
			continue
		}
		title := strings.ReplaceAll(link.Title, " ", "_")
		types, ok := e.entityTypes[title]
		if !ok {
			continue
		}
		stats.Titles++

		// Restrict labels to the target ontology. A link whose types
		// all fall outside it is skipped silently, counted neither as
		// matched nor as not-matched.
		var kept []string
		for _, t := range types {
			if _, ok := e.ontology[t]; ok {
				kept = append(kept, t)
			}
		}
		if len(kept) == 0 {
			continue
		}
		entities = append(entities, candidate{
			text:  link.Text,
			start: link.Start,
			end:   link.End,
			types: kept,
		})
	}
	if len(entities) == 0 {
		return nil
	}
	stats.WithEntities++

	// Map character offsets to token indices. Duplicate offsets overwrite,
	// last token wins.
	startIdx := make(map[int]int, len(doc.Tokens))
	endIdx := make(map[int]int, len(doc.Tokens))
	for i, tok := range doc.Tokens {
		startIdx[tok.Start] = i
		endIdx[tok.End] = i + 1
	}

	var annotations []Annotation
	mentionCount := 0
	for _, ent := range entities {
		start, okStart := startIdx[ent.start]
		end, okEnd := endIdx[ent.end]
		if !okStart || !okEnd {
			stats.NotMatched++
			continue
		}
		annotations = append(annotations, Annotation{
			Mention:   ent.text,
			MentionID: fmt.Sprintf("%s-%d", doc.ID, mentionCount),
			Start:     start,
			End:       end,
			Labels:    ent.types,
		})
		mentionCount++
	}
	if len(annotations) == 0 {
		return nil
	}
	stats.Valid++

	tokens := make([]string, len(doc.Tokens))
	for i, t := range doc.Tokens {
		tokens[i] = t.Text
	}
	return &Instance{Tokens: tokens, Annotations: annotations}
}

// LoadEntityTypes reads a JSON file mapping entity titles (spaces replaced
// by underscores) to type lists.
func LoadEntityTypes(path string) (map[string][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading entity types: %w", err)
	}
	var types map[string][]string
	if err := json.Unmarshal(data, &types); err != nil {
		return nil, fmt.Errorf("parsing entity types: %w", err)
	}
	return types, nil
}

// LoadOntology reads the target type set from a plain text file, one type
// per line, blank lines ignored.
func LoadOntology(path string) (map[string]struct{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading ontology: %w", err)
	}
	types := make(map[string]struct{})
	for _, line := range strings.Split(string(data), "\n") {
		t := strings.TrimSpace(line)
		if t == "" {
			continue
		}
		types[t] = struct{}{}
	}
	return types, nil
}
