// Package tokenizer provides word-piece tokenization for the BERT and
// RoBERTa model families, backed by HuggingFace tokenizer.json files.
package tokenizer

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tk "github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"
)

// Sentinel errors for conditions callers may need to handle differently.
var (
	// ErrUnsupportedModel indicates the model name belongs to neither
	// supported family (bert-* or roberta-*).
	ErrUnsupportedModel = errors.New("tokenizer: unsupported model family")

	// ErrModelNotFound indicates the tokenizer file does not exist.
	ErrModelNotFound = errors.New("tokenizer: tokenizer file not found")
)

// sentinel token strings per model family.
type family struct {
	bos string
	eos string
	unk string
}

var (
	bertFamily    = family{bos: "[CLS]", eos: "[SEP]", unk: "[UNK]"}
	robertaFamily = family{bos: "<s>", eos: "</s>", unk: "<unk>"}
)

// Tokenizer converts words to word pieces and piece sequences to ids,
// following the sentinel-token conventions of the underlying model family.
type Tokenizer struct {
	inner *tk.Tokenizer
	vocab map[string]int

	bosID int
	eosID int
	unkID int
}

// New loads the tokenizer for modelName from cacheDir, expecting the
// HuggingFace tokenizer.json at cacheDir/modelName/tokenizer.json. Only the
// bert-* and roberta-* model families are supported; any other name fails
// with ErrUnsupportedModel before touching the filesystem.
func New(modelName, cacheDir string) (*Tokenizer, error) {
	var fam family
	switch {
	case strings.HasPrefix(modelName, "bert"):
		fam = bertFamily
	case strings.HasPrefix(modelName, "roberta"):
		fam = robertaFamily
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedModel, modelName)
	}

	path := filepath.Join(cacheDir, modelName, "tokenizer.json")
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrModelNotFound, path)
		}
		return nil, fmt.Errorf("checking tokenizer file: %w", err)
	}

	inner, err := pretrained.FromFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading tokenizer %s: %w", path, err)
	}

	t := &Tokenizer{
		inner: inner,
		vocab: inner.GetVocab(true),
	}
	var ok bool
	if t.bosID, ok = t.vocab[fam.bos]; !ok {
		return nil, fmt.Errorf("vocabulary of %s missing %q", modelName, fam.bos)
	}
	if t.eosID, ok = t.vocab[fam.eos]; !ok {
		return nil, fmt.Errorf("vocabulary of %s missing %q", modelName, fam.eos)
	}
	if t.unkID, ok = t.vocab[fam.unk]; !ok {
		return nil, fmt.Errorf("vocabulary of %s missing %q", modelName, fam.unk)
	}
	return t, nil
}

// Tokenize converts a single word to its word pieces, without sentinel
// tokens. A word may produce zero pieces.
func (t *Tokenizer) Tokenize(word string) []string {
	enc, err := t.inner.EncodeSingle(word)
	if err != nil || enc == nil {
		return nil
	}
	return enc.Tokens
}

// Encode converts a piece sequence to ids. When truncation is set, pieces
// beyond maxLength-2 are cut so the result never exceeds maxLength once the
// two sentinel ids are added, one at each end. Pieces missing from the
// vocabulary map to the unknown id.
func (t *Tokenizer) Encode(pieces []string, truncation bool, maxLength int) []int {
	if truncation && maxLength >= 2 && len(pieces) > maxLength-2 {
		pieces = pieces[:maxLength-2]
	}

	ids := make([]int, 0, len(pieces)+2)
	ids = append(ids, t.bosID)
	for _, p := range pieces {
		id, ok := t.vocab[p]
		if !ok {
			id = t.unkID
		}
		ids = append(ids, id)
	}
	return append(ids, t.eosID)
}

// VocabSize returns the vocabulary size including added tokens.
func (t *Tokenizer) VocabSize() int {
	return len(t.vocab)
}
