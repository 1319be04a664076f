// Package fet prepares fine-grained entity-typing data.
//
// It converts corpora between the CFET line format (token-indexed mention
// spans) and the BFET line format (word-piece-indexed spans), balances label
// frequency by downsampling and train/dev splitting, and extracts labeled
// (sentence, mention, types) triples from a stored wiki sentence collection.
//
// # Quick Start
//
//	tok, err := tokenizer.New("bert-large-cased", cacheDir)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	conv := fet.NewConverter(tok, fet.WithMaxLength(128))
//	stats, err := conv.Convert(ctx, in, out)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("kept %d of %d instances\n", stats.Written, stats.Total)
//
// # Streaming
//
// All engines process corpora one line at a time and write output
// incrementally, so corpora larger than memory are fine and every fully
// written output line is valid JSON even if a run fails midway.
package fet
