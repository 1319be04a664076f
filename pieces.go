package fet

// PieceTokenizer converts words to word pieces and piece sequences to ids.
// tokenizer.Tokenizer implements it for the BERT and RoBERTa model families.
type PieceTokenizer interface {
	// Tokenize converts a single word to its word pieces. A word may
	// produce zero pieces.
	Tokenize(word string) []string

	// Encode converts a piece sequence to ids, truncating to maxLength
	// and adding the two sentinel ids, one at each end.
	Encode(pieces []string, truncation bool, maxLength int) []int
}

// PieceSpan is the half-open range [Begin, End) of piece indices produced by
// a single token.
type PieceSpan struct {
	Begin int
	End   int
}

// MapPieces tokenizes each token independently and in order, returning the
// flattened piece sequence and a table with one PieceSpan per input token.
// The spans are contiguous, non-overlapping, and jointly cover
// [0, len(pieces)): span i+1 begins where span i ends.
func MapPieces(tokens []string, tok PieceTokenizer) (pieces []string, table []PieceSpan) {
	table = make([]PieceSpan, len(tokens))
	offset := 0
	for i, t := range tokens {
		ps := tok.Tokenize(t)
		end := offset + len(ps)
		table[i] = PieceSpan{Begin: offset, End: end}
		offset = end
		pieces = append(pieces, ps...)
	}
	return pieces, table
}

// projectSpan maps a token-index range [start, end) to the corresponding
// piece-index range using endpoint lookups into the span table.
func projectSpan(table []PieceSpan, start, end int) (pieceStart, pieceEnd int, ok bool) {
	if start < 0 || end <= start || end > len(table) {
		return 0, 0, false
	}
	return table[start].Begin, table[end-1].End, true
}
