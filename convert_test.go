package fet

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

func TestConverter_ConvertInstance(t *testing.T) {
	conv := NewConverter(stubTok{}, WithMaxLength(10))
	inst := &Instance{
		Tokens: []string{"The", "cat-like", "thing"},
		Annotations: []Annotation{
			{Mention: "cat-like", MentionID: "d-0", Start: 1, End: 2, Labels: []string{"Animal"}},
			{Mention: "The cat-like thing", MentionID: "d-1", Start: 0, End: 3, Labels: []string{"Object"}},
		},
	}

	out, err := conv.ConvertInstance(inst)
	if err != nil {
		t.Fatalf("ConvertInstance failed: %v", err)
	}
	if out == nil {
		t.Fatal("instance unexpectedly dropped")
	}

	// Pieces: The | cat like | thing, encoded by stubTok as lengths with
	// sentinels 1 and 2.
	wantPieces := []int{1, 3, 3, 4, 5, 2}
	if len(out.Pieces) != len(wantPieces) {
		t.Fatalf("pieces = %v, want %v", out.Pieces, wantPieces)
	}
	for i, id := range wantPieces {
		if out.Pieces[i] != id {
			t.Fatalf("pieces = %v, want %v", out.Pieces, wantPieces)
		}
	}

	tests := []struct {
		idx       int
		wantBegin int
		wantEnd   int
	}{
		{0, 1, 3},
		{1, 0, 4},
	}
	for _, tt := range tests {
		ann := out.Annotations[tt.idx]
		if ann.PieceStart == nil || ann.PieceEnd == nil {
			t.Fatalf("annotation %d missing piece span", tt.idx)
		}
		if *ann.PieceStart != tt.wantBegin || *ann.PieceEnd != tt.wantEnd {
			t.Errorf("annotation %d projected to [%d, %d), want [%d, %d)",
				tt.idx, *ann.PieceStart, *ann.PieceEnd, tt.wantBegin, tt.wantEnd)
		}
		if *ann.PieceEnd <= *ann.PieceStart {
			t.Errorf("annotation %d has empty piece span", tt.idx)
		}
	}
}

func TestConverter_ConvertInstance_Overlength(t *testing.T) {
	// Budget is maxLen-2 = 3 pieces; the instance produces 4.
	conv := NewConverter(stubTok{}, WithMaxLength(5))
	inst := &Instance{
		Tokens:      []string{"The", "cat-like", "thing"},
		Annotations: []Annotation{{Start: 0, End: 1, Labels: []string{"X"}}},
	}

	out, err := conv.ConvertInstance(inst)
	if err != nil {
		t.Fatalf("ConvertInstance failed: %v", err)
	}
	if out != nil {
		t.Error("overlength instance should be dropped whole")
	}
}

func TestConverter_ConvertInstance_SpanOutOfRange(t *testing.T) {
	conv := NewConverter(stubTok{}, WithMaxLength(10))
	inst := &Instance{
		Tokens:      []string{"one"},
		Annotations: []Annotation{{Start: 0, End: 2, Labels: []string{"X"}}},
	}

	_, err := conv.ConvertInstance(inst)
	if !errors.Is(err, ErrSpanOutOfRange) {
		t.Errorf("expected ErrSpanOutOfRange, got: %v", err)
	}
}

func TestConverter_Convert(t *testing.T) {
	input := `{"tokens":["a","b"],"annotations":[{"mention":"a","mention_id":"d-0","start":0,"end":1,"labels":["A"]}]}
{"tokens":["one","two","three","four"],"annotations":[{"mention":"one","mention_id":"d-1","start":0,"end":1,"labels":["B"]}]}
`
	// Budget of maxLen-2 = 2 pieces: the first instance fits exactly, the
	// second is dropped whole.
	conv := NewConverter(stubTok{}, WithMaxLength(4))

	var out bytes.Buffer
	stats, err := conv.Convert(context.Background(), strings.NewReader(input), &out)
	if err != nil {
		t.Fatalf("Convert failed: %v", err)
	}

	if stats.Total != 2 || stats.Written != 1 || stats.Overlength != 1 {
		t.Errorf("stats = %+v, want total 2, written 1, overlength 1", stats)
	}

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d output lines, want 1", len(lines))
	}
	if !strings.Contains(lines[0], `"pieces"`) {
		t.Errorf("output line missing pieces: %s", lines[0])
	}
	if !strings.Contains(lines[0], `"piece_start"`) {
		t.Errorf("output line missing piece_start: %s", lines[0])
	}
}

func TestConverter_Convert_MalformedLine(t *testing.T) {
	conv := NewConverter(stubTok{})

	var out bytes.Buffer
	_, err := conv.Convert(context.Background(), strings.NewReader("garbage\n"), &out)
	if !errors.Is(err, ErrMalformedLine) {
		t.Errorf("expected ErrMalformedLine, got: %v", err)
	}
}

func TestConverter_Convert_ContextCancelled(t *testing.T) {
	conv := NewConverter(stubTok{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	_, err := conv.Convert(ctx, strings.NewReader("{\"tokens\":[]}\n"), &out)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got: %v", err)
	}
}
