package fet

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
)

// Instance is one labeled example: an ordered token sequence with its
// entity mention annotations. Pieces is only present in BFET output, where
// it holds the encoded word-piece ids for the whole token sequence.
type Instance struct {
	Tokens      []string     `json:"tokens"`
	Annotations []Annotation `json:"annotations"`
	Pieces      []int        `json:"pieces,omitempty"`
}

// Annotation is one labeled entity mention within an Instance. Start and End
// form a half-open token-index range [Start, End) into the instance tokens.
type Annotation struct {
	Mention   string   `json:"mention"`
	MentionID string   `json:"mention_id"`
	Start     int      `json:"start"`
	End       int      `json:"end"`
	Labels    []string `json:"labels"`

	// Word-piece span, present only in BFET output.
	PieceStart *int `json:"piece_start,omitempty"`
	PieceEnd   *int `json:"piece_end,omitempty"`
}

// maxLineSize bounds a single corpus line. Wiki sentences with many links
// stay well under this.
const maxLineSize = 16 * 1024 * 1024

// ForEachInstance decodes one Instance per line from r and calls fn with the
// raw line bytes and the decoded instance. It holds at most one instance in
// memory at a time. A line that is not valid JSON stops the pass with an
// error wrapping ErrMalformedLine.
func ForEachInstance(r io.Reader, fn func(line []byte, inst *Instance) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()

		var inst Instance
		if err := json.Unmarshal(line, &inst); err != nil {
			return fmt.Errorf("%w: line %d: %v", ErrMalformedLine, lineNum, err)
		}
		if err := fn(line, &inst); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading corpus: %w", err)
	}
	return nil
}

// WriteInstance serializes inst as a single JSON line.
func WriteInstance(w io.Writer, inst *Instance) error {
	data, err := json.Marshal(inst)
	if err != nil {
		return fmt.Errorf("encoding instance: %w", err)
	}
	data = append(data, '\n')
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing instance: %w", err)
	}
	return nil
}

// writeLine writes raw line bytes back out with a trailing newline,
// preserving the input formatting byte for byte.
func writeLine(w io.Writer, line []byte) error {
	if _, err := w.Write(line); err != nil {
		return fmt.Errorf("writing line: %w", err)
	}
	if _, err := w.Write([]byte{'\n'}); err != nil {
		return fmt.Errorf("writing line: %w", err)
	}
	return nil
}
