package fet

import "errors"

// Sentinel errors for conditions callers may need to handle differently.
var (
	// ErrMalformedLine indicates a corpus line is not valid JSON.
	ErrMalformedLine = errors.New("fet: malformed corpus line")

	// ErrSpanOutOfRange indicates an annotation span does not fit its
	// instance's token sequence.
	ErrSpanOutOfRange = errors.New("fet: annotation span out of range")
)
