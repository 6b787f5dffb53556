package chunker

import (
	"strings"
	"testing"
)

// reassemble drops the first `overlap` runes of every chunk after the
// first and concatenates the rest.
func reassemble(chunks []string, overlap int) string {
	var b strings.Builder
	for i, ch := range chunks {
		runes := []rune(ch)
		if i > 0 {
			runes = runes[overlap:]
		}
		b.WriteString(string(runes))
	}
	return b.String()
}

func TestNew_InvalidParams(t *testing.T) {
	if _, err := New(0, 0); err == nil {
		t.Error("expected error for zero size")
	}
	if _, err := New(100, 100); err == nil {
		t.Error("expected error for overlap == size")
	}
	if _, err := New(100, -1); err == nil {
		t.Error("expected error for negative overlap")
	}
}

func TestSplit_ShortText(t *testing.T) {
	c, err := New(100, 20)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	chunks := c.Split("short text")
	if len(chunks) != 1 || chunks[0] != "short text" {
		t.Fatalf("unexpected chunks: %#v", chunks)
	}
}

func TestSplit_Empty(t *testing.T) {
	c, err := New(100, 20)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if got := c.Split("   \n\t "); got != nil {
		t.Fatalf("expected nil for whitespace input, got %#v", got)
	}
}

func TestSplit_LosslessReconstruction(t *testing.T) {
	text := strings.Repeat("the quick brown fox jumps over the lazy dog. ", 40)
	cases := []struct{ size, overlap int }{
		{50, 10},
		{100, 0},
		{100, 99},
		{1000, 200},
		{7, 3},
	}
	for _, tc := range cases {
		c, err := New(tc.size, tc.overlap)
		if err != nil {
			t.Fatalf("New(%d,%d): %v", tc.size, tc.overlap, err)
		}
		chunks := c.Split(text)
		if got := reassemble(chunks, tc.overlap); got != text {
			t.Errorf("size=%d overlap=%d: reconstruction mismatch (%d chunks)", tc.size, tc.overlap, len(chunks))
		}
	}
}

func TestSplit_LosslessUnicode(t *testing.T) {
	text := strings.Repeat("héllo wörld ünïcode tëxt goes on and on ", 30)
	c, err := New(64, 16)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	chunks := c.Split(text)
	if got := reassemble(chunks, 16); got != text {
		t.Error("unicode reconstruction mismatch")
	}
}

func TestSplit_PrefersWhitespaceBoundary(t *testing.T) {
	text := strings.Repeat("word ", 100)
	c, err := New(23, 5)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	chunks := c.Split(text)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, ch := range chunks[:len(chunks)-1] {
		if !strings.HasSuffix(ch, " ") {
			t.Errorf("chunk %d does not end at a word boundary: %q", i, ch)
		}
	}
	if got := reassemble(chunks, 5); got != text {
		t.Error("reconstruction mismatch")
	}
}

func TestSplit_NoWhitespaceHardCut(t *testing.T) {
	text := strings.Repeat("x", 500)
	c, err := New(100, 20)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	chunks := c.Split(text)
	if len(chunks[0]) != 100 {
		t.Errorf("expected hard cut at size, got len %d", len(chunks[0]))
	}
	if got := reassemble(chunks, 20); got != text {
		t.Error("reconstruction mismatch")
	}
}

func TestSplit_OverlapRepeats(t *testing.T) {
	text := strings.Repeat("abcdefghij ", 50)
	c, err := New(40, 10)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	chunks := c.Split(text)
	for i := 1; i < len(chunks); i++ {
		prev := []rune(chunks[i-1])
		cur := []rune(chunks[i])
		tail := string(prev[len(prev)-10:])
		head := string(cur[:10])
		if tail != head {
			t.Fatalf("chunk %d head %q does not repeat previous tail %q", i, head, tail)
		}
	}
}
