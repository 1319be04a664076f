package fet

import (
	"log/slog"
	"math/rand/v2"
	"time"
)

// Option configures an engine.
type Option func(*config)

type config struct {
	maxLen int
	logger *slog.Logger
	rng    *rand.Rand
}

func defaultConfig() config {
	return config{
		maxLen: 128,
		logger: slog.Default(),
		rng:    rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0)),
	}
}

// WithMaxLength sets the maximum encoded sequence length, including the two
// sentinel ids added by the tokenizer (default: 128).
func WithMaxLength(n int) Option {
	return func(c *config) {
		if n > 2 {
			c.maxLen = n
		}
	}
}

// WithLogger sets the logger (default: slog.Default()).
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithRand sets the random source used for sampling decisions (default: a
// time-seeded generator). Pass a fixed-seed generator for reproducible runs.
func WithRand(r *rand.Rand) Option {
	return func(c *config) {
		if r != nil {
			c.rng = r
		}
	}
}
