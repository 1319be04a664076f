package fet

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand/v2"
	"sort"
)

// LabelCount maps a type label to its occurrence count across a corpus.
// A label is counted once per annotation carrying it, so an instance with
// two annotations labeled "Person" contributes 2.
type LabelCount map[string]int

// CountLabels performs one streaming pass over a CFET corpus and returns the
// label frequency table.
func CountLabels(r io.Reader) (LabelCount, error) {
	counts := make(LabelCount)
	err := ForEachInstance(r, func(_ []byte, inst *Instance) error {
		for _, ann := range inst.Annotations {
			for _, label := range ann.Labels {
				counts[label]++
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return counts, nil
}

// LabelFreq is one entry of a sorted frequency table.
type LabelFreq struct {
	Label string
	Count int
}

// MostCommon returns the table entries sorted by descending count, ties
// broken by label.
func (c LabelCount) MostCommon() []LabelFreq {
	freqs := make([]LabelFreq, 0, len(c))
	for label, count := range c {
		freqs = append(freqs, LabelFreq{Label: label, Count: count})
	}
	sort.Slice(freqs, func(i, j int) bool {
		if freqs[i].Count != freqs[j].Count {
			return freqs[i].Count > freqs[j].Count
		}
		return freqs[i].Label < freqs[j].Label
	})
	return freqs
}

// minCount returns the smallest global count among all labels attached to
// any annotation of inst. ok is false when the instance carries no labels.
func (c LabelCount) minCount(inst *Instance) (min int, ok bool) {
	for _, ann := range inst.Annotations {
		for _, label := range ann.Labels {
			n := c[label]
			if !ok || n < min {
				min = n
				ok = true
			}
		}
	}
	return min, ok
}

// Sampler makes frequency-aware keep/drop and train/dev decisions. An
// instance's rarity is the minimum global frequency among all of its labels.
type Sampler struct {
	rng    *rand.Rand
	logger *slog.Logger
}

// NewSampler creates a Sampler. Use WithRand for reproducible decisions.
func NewSampler(opts ...Option) *Sampler {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Sampler{rng: cfg.rng, logger: cfg.logger}
}

// SampleStats reports the outcome of one downsampling pass.
type SampleStats struct {
	Total int
	Kept  int
}

// Downsample copies CFET lines from r to w, keeping every instance whose
// rarest label occurs fewer than threshold times, and keeping the rest with
// probability (threshold + (min-threshold)^0.55) / min. The decay is
// sub-linear, so common-label instances retain a vanishing but nonzero
// keep probability rather than hitting a hard cutoff. Kept lines are written
// byte for byte.
func (s *Sampler) Downsample(ctx context.Context, r io.Reader, w io.Writer, counts LabelCount, threshold int) (SampleStats, error) {
	var stats SampleStats
	bw := bufio.NewWriter(w)

	err := ForEachInstance(r, func(line []byte, inst *Instance) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.Total++

		min, ok := counts.minCount(inst)
		keep := true
		if ok && min >= threshold {
			ratio := float64(threshold) + math.Pow(float64(min-threshold), 0.55)
			keep = s.rng.Float64() < ratio/float64(min)
		}
		if !keep {
			return nil
		}
		if err := writeLine(bw, line); err != nil {
			return err
		}
		stats.Kept++
		return nil
	})
	if err != nil {
		return stats, err
	}
	if err := bw.Flush(); err != nil {
		return stats, fmt.Errorf("flushing output: %w", err)
	}

	s.logger.Info("downsampling complete",
		"total", stats.Total,
		"kept", stats.Kept,
		"threshold", threshold)
	return stats, nil
}

// SplitStats reports the outcome of one train/dev split pass.
type SplitStats struct {
	Total int
	Train int
	Dev   int
}

// Split partitions CFET lines from r into train and dev. Any instance
// carrying a label with fewer than rareThreshold global occurrences is
// forced into train so rare classes are never starved from training data;
// the rest go to dev with probability devRate via an independent Bernoulli
// draw per instance. The realized dev fraction is therefore approximate, not
// exact. Every input line lands in exactly one of the two outputs, byte for
// byte.
func (s *Sampler) Split(ctx context.Context, r io.Reader, train, dev io.Writer, counts LabelCount, rareThreshold int, devRate float64) (SplitStats, error) {
	infrequent := make(map[string]struct{})
	for label, count := range counts {
		if count < rareThreshold {
			infrequent[label] = struct{}{}
		}
	}

	var stats SplitStats
	trainW := bufio.NewWriter(train)
	devW := bufio.NewWriter(dev)

	err := ForEachInstance(r, func(line []byte, inst *Instance) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.Total++

		rare := false
	scan:
		for _, ann := range inst.Annotations {
			for _, label := range ann.Labels {
				if _, ok := infrequent[label]; ok {
					rare = true
					break scan
				}
			}
		}

		if rare || s.rng.Float64() >= devRate {
			stats.Train++
			return writeLine(trainW, line)
		}
		stats.Dev++
		return writeLine(devW, line)
	})
	if err != nil {
		return stats, err
	}
	if err := trainW.Flush(); err != nil {
		return stats, fmt.Errorf("flushing train output: %w", err)
	}
	if err := devW.Flush(); err != nil {
		return stats, fmt.Errorf("flushing dev output: %w", err)
	}

	s.logger.Info("split complete",
		"total", stats.Total,
		"train", stats.Train,
		"dev", stats.Dev,
		"rare_labels", len(infrequent))
	return stats, nil
}
