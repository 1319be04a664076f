package fet

import (
	"bytes"
	"context"
	"math/rand/v2"
	"strings"
	"testing"
)

const sampleCorpus = `{"tokens":["a"],"annotations":[{"mention":"a","mention_id":"d1-0","start":0,"end":1,"labels":["A","B"]}]}
{"tokens":["b"],"annotations":[{"mention":"b","mention_id":"d2-0","start":0,"end":1,"labels":["B"]}]}
`

func seededSampler(seed uint64) *Sampler {
	return NewSampler(WithRand(rand.New(rand.NewPCG(seed, 0))))
}

func TestCountLabels(t *testing.T) {
	counts, err := CountLabels(strings.NewReader(sampleCorpus))
	if err != nil {
		t.Fatalf("CountLabels failed: %v", err)
	}
	if len(counts) != 2 {
		t.Fatalf("got %d labels, want 2: %v", len(counts), counts)
	}
	if counts["A"] != 1 || counts["B"] != 2 {
		t.Errorf("counts = %v, want A:1 B:2", counts)
	}
}

func TestCountLabels_PerAnnotation(t *testing.T) {
	// Two annotations in one instance each contribute to the label count.
	input := `{"tokens":["a","b"],"annotations":[{"start":0,"end":1,"labels":["X"]},{"start":1,"end":2,"labels":["X"]}]}
`
	counts, err := CountLabels(strings.NewReader(input))
	if err != nil {
		t.Fatalf("CountLabels failed: %v", err)
	}
	if counts["X"] != 2 {
		t.Errorf("count X = %d, want 2", counts["X"])
	}
}

func TestLabelCount_MostCommon(t *testing.T) {
	counts := LabelCount{"A": 1, "B": 3, "C": 3}
	freqs := counts.MostCommon()

	want := []LabelFreq{{"B", 3}, {"C", 3}, {"A", 1}}
	if len(freqs) != len(want) {
		t.Fatalf("got %d entries, want %d", len(freqs), len(want))
	}
	for i, w := range want {
		if freqs[i] != w {
			t.Errorf("entry %d = %v, want %v", i, freqs[i], w)
		}
	}
}

func TestDownsample_RareAlwaysKept(t *testing.T) {
	counts := LabelCount{"A": 1, "B": 2}

	// min counts are below the threshold, so keeping is deterministic
	// regardless of the random source.
	var out bytes.Buffer
	stats, err := seededSampler(7).Downsample(context.Background(),
		strings.NewReader(sampleCorpus), &out, counts, 10)
	if err != nil {
		t.Fatalf("Downsample failed: %v", err)
	}

	if stats.Total != 2 || stats.Kept != 2 {
		t.Errorf("stats = %+v, want total 2, kept 2", stats)
	}
	if out.String() != sampleCorpus {
		t.Errorf("kept lines should be written byte for byte:\n%s", out.String())
	}
}

func TestDownsample_CommonMostlyDropped(t *testing.T) {
	// With min counts this large the keep probability is about 2^-22, so
	// both draws dropping is deterministic for practical purposes.
	counts := LabelCount{"A": 1 << 50, "B": 1 << 50}

	var out bytes.Buffer
	stats, err := seededSampler(7).Downsample(context.Background(),
		strings.NewReader(sampleCorpus), &out, counts, 1)
	if err != nil {
		t.Fatalf("Downsample failed: %v", err)
	}

	if stats.Total != 2 || stats.Kept != 0 {
		t.Errorf("stats = %+v, want total 2, kept 0", stats)
	}
	if out.Len() != 0 {
		t.Errorf("expected empty output, got:\n%s", out.String())
	}
}

func TestDownsample_Deterministic(t *testing.T) {
	counts := LabelCount{"A": 150, "B": 150}

	run := func() string {
		var out bytes.Buffer
		_, err := seededSampler(42).Downsample(context.Background(),
			strings.NewReader(sampleCorpus), &out, counts, 100)
		if err != nil {
			t.Fatalf("Downsample failed: %v", err)
		}
		return out.String()
	}

	if run() != run() {
		t.Error("same seed should give the same sample")
	}
}

func TestDownsample_NoLabelsKept(t *testing.T) {
	input := `{"tokens":["a"],"annotations":[]}
`
	var out bytes.Buffer
	stats, err := seededSampler(7).Downsample(context.Background(),
		strings.NewReader(input), &out, LabelCount{}, 10)
	if err != nil {
		t.Fatalf("Downsample failed: %v", err)
	}
	if stats.Kept != 1 {
		t.Errorf("instance without labels should be kept, stats = %+v", stats)
	}
}

const splitCorpus = `{"tokens":["a"],"annotations":[{"start":0,"end":1,"labels":["Rare"]}]}
{"tokens":["b"],"annotations":[{"start":0,"end":1,"labels":["Common"]}]}
{"tokens":["c"],"annotations":[{"start":0,"end":1,"labels":["Common"]}]}
{"tokens":["d"],"annotations":[{"start":0,"end":1,"labels":["Rare","Common"]}]}
`

func splitLines(s string) []string {
	s = strings.TrimRight(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

func TestSplit_RareForcedToTrain(t *testing.T) {
	counts := LabelCount{"Rare": 2, "Common": 3}

	// devRate 1.0 sends every non-rare instance to dev, making the
	// partition deterministic.
	var train, dev bytes.Buffer
	stats, err := seededSampler(7).Split(context.Background(),
		strings.NewReader(splitCorpus), &train, &dev, counts, 3, 1.0)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}

	if stats.Total != 4 || stats.Train != 2 || stats.Dev != 2 {
		t.Errorf("stats = %+v, want total 4, train 2, dev 2", stats)
	}

	for _, line := range splitLines(train.String()) {
		if !strings.Contains(line, "Rare") {
			t.Errorf("train should only hold rare-label instances: %s", line)
		}
	}
	for _, line := range splitLines(dev.String()) {
		if strings.Contains(line, "Rare") {
			t.Errorf("dev must never hold rare-label instances: %s", line)
		}
	}
}

func TestSplit_ZeroRateAllTrain(t *testing.T) {
	counts := LabelCount{"Rare": 2, "Common": 3}

	var train, dev bytes.Buffer
	stats, err := seededSampler(7).Split(context.Background(),
		strings.NewReader(splitCorpus), &train, &dev, counts, 3, 0.0)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}

	if stats.Train != 4 || stats.Dev != 0 {
		t.Errorf("stats = %+v, want everything in train", stats)
	}
	if dev.Len() != 0 {
		t.Errorf("expected empty dev output, got:\n%s", dev.String())
	}
}

func TestSplit_Disjoint(t *testing.T) {
	counts := LabelCount{"Rare": 2, "Common": 3}

	var train, dev bytes.Buffer
	stats, err := seededSampler(99).Split(context.Background(),
		strings.NewReader(splitCorpus), &train, &dev, counts, 3, 0.5)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}

	got := append(splitLines(train.String()), splitLines(dev.String())...)
	want := splitLines(splitCorpus)
	if len(got) != len(want) {
		t.Fatalf("train+dev hold %d lines, want %d", len(got), len(want))
	}
	if stats.Train+stats.Dev != stats.Total {
		t.Errorf("stats not disjoint: %+v", stats)
	}

	seen := make(map[string]int)
	for _, line := range got {
		seen[line]++
	}
	for _, line := range want {
		if seen[line] != 1 {
			t.Errorf("line appears %d times across train+dev: %s", seen[line], line)
		}
	}
}
