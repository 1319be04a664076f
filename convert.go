package fet

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
)

// Converter rewrites a CFET corpus into BFET format: every annotation's
// token span becomes the corresponding word-piece span, and the encoded
// piece ids are attached to each instance.
type Converter struct {
	tok    PieceTokenizer
	maxLen int
	logger *slog.Logger
}

// ConvertStats reports the outcome of one conversion pass.
type ConvertStats struct {
	Total      int // instances read
	Written    int // instances written
	Overlength int // instances dropped for exceeding the piece budget
}

// NewConverter creates a Converter using tok for word-piece tokenization.
func NewConverter(tok PieceTokenizer, opts ...Option) *Converter {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Converter{
		tok:    tok,
		maxLen: cfg.maxLen,
		logger: cfg.logger,
	}
}

// Convert streams CFET lines from r and writes BFET lines to w. Instances
// whose total piece count exceeds the budget (max length minus the two
// sentinel slots) are dropped whole and counted, never partially written.
func (c *Converter) Convert(ctx context.Context, r io.Reader, w io.Writer) (ConvertStats, error) {
	var stats ConvertStats
	bw := bufio.NewWriter(w)

	err := ForEachInstance(r, func(_ []byte, inst *Instance) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.Total++

		out, err := c.ConvertInstance(inst)
		if err != nil {
			return fmt.Errorf("instance %d: %w", stats.Total, err)
		}
		if out == nil {
			stats.Overlength++
			return nil
		}
		if err := WriteInstance(bw, out); err != nil {
			return err
		}
		stats.Written++
		return nil
	})
	if err != nil {
		return stats, err
	}
	if err := bw.Flush(); err != nil {
		return stats, fmt.Errorf("flushing output: %w", err)
	}

	c.logger.Info("conversion complete",
		"total", stats.Total,
		"written", stats.Written,
		"overlength", stats.Overlength)
	return stats, nil
}

// ConvertInstance projects one instance into piece coordinates in place and
// returns it. It returns nil with no error when the instance exceeds the
// piece budget; the instance is then dropped as a whole.
func (c *Converter) ConvertInstance(inst *Instance) (*Instance, error) {
	pieces, table := MapPieces(inst.Tokens, c.tok)

	// [CLS]/[SEP] (or <s>/</s>) take two of the maxLen slots.
	if len(pieces) > c.maxLen-2 {
		return nil, nil
	}

	inst.Pieces = c.tok.Encode(pieces, true, c.maxLen)

	for i := range inst.Annotations {
		a := &inst.Annotations[i]
		begin, end, ok := projectSpan(table, a.Start, a.End)
		if !ok {
			return nil, fmt.Errorf("%w: [%d, %d) over %d tokens",
				ErrSpanOutOfRange, a.Start, a.End, len(inst.Tokens))
		}
		a.PieceStart = &begin
		a.PieceEnd = &end
	}
	return inst, nil
}
