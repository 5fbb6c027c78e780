package textsplit

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"
)

// words returns n distinct four-letter words joined by single spaces.
func words(n int) string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("w%03d", i)
	}
	return strings.Join(out, " ")
}

func TestNew_RejectsInvalidSizes(t *testing.T) {
	tests := []struct {
		size, overlap int
	}{
		{0, 0},
		{-5, 0},
		{100, 100},
		{100, 150},
		{100, -1},
	}
	for _, tt := range tests {
		if _, err := New(tt.size, tt.overlap); !errors.Is(err, ErrInvalidSize) {
			t.Errorf("New(%d, %d) error = %v, want ErrInvalidSize", tt.size, tt.overlap, err)
		}
	}
}

func TestSplitterReportsSettings(t *testing.T) {
	d := Default()
	if d.ChunkSize() != DefaultChunkSize || d.ChunkOverlap() != DefaultChunkOverlap {
		t.Errorf("Default() = %d/%d", d.ChunkSize(), d.ChunkOverlap())
	}
	s, err := New(300, 40)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if s.ChunkSize() != 300 || s.ChunkOverlap() != 40 {
		t.Errorf("New(300, 40) = %d/%d", s.ChunkSize(), s.ChunkOverlap())
	}
}

func TestSplit_EmptyText(t *testing.T) {
	s := Default()
	for _, text := range []string{"", "   ", "\n\n\t"} {
		if got := s.Split(text); len(got) != 0 {
			t.Errorf("Split(%q) = %v, want empty", text, got)
		}
	}
}

func TestSplit_ShortTextIsSingleChunk(t *testing.T) {
	got := Default().Split("  Hello there.\n\nGeneral Kenobi.  ")
	if len(got) != 1 {
		t.Fatalf("expected 1 chunk, got %d: %q", len(got), got)
	}
	if got[0] != "Hello there.\n\nGeneral Kenobi." {
		t.Errorf("unexpected chunk %q", got[0])
	}
}

func TestSplit_DefaultsOn2500Chars(t *testing.T) {
	text := words(500) + "e"
	if n := utf8.RuneCountInString(text); n != 2500 {
		t.Fatalf("fixture length = %d, want 2500", n)
	}

	chunks := Default().Split(text)
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if n := utf8.RuneCountInString(c); n > DefaultChunkSize {
			t.Errorf("chunk %d has %d chars, limit %d", i, n, DefaultChunkSize)
		}
	}
}

func TestSplit_ChunksRespectSizeAndTrim(t *testing.T) {
	text := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 80) +
		"\n\n" + strings.Repeat("Lorem ipsum dolor sit amet\n", 40)

	s, err := New(300, 50)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	chunks := s.Split(text)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if c == "" {
			t.Errorf("chunk %d is empty", i)
		}
		if c != strings.TrimSpace(c) {
			t.Errorf("chunk %d is not trimmed: %q", i, c)
		}
		if n := utf8.RuneCountInString(c); n > 300 {
			t.Errorf("chunk %d has %d chars", i, n)
		}
	}
}

func TestSplit_ConsecutiveChunksOverlap(t *testing.T) {
	s, err := New(100, 30)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	chunks := s.Split(words(200))
	if len(chunks) < 3 {
		t.Fatalf("expected several chunks, got %d", len(chunks))
	}
	for i := 1; i < len(chunks); i++ {
		prev, cur := chunks[i-1], chunks[i]
		shared := 0
		for k := utf8.RuneCountInString(cur); k > 0; k-- {
			if k <= len(prev) && strings.HasSuffix(prev, cur[:k]) {
				shared = k
				break
			}
		}
		if shared < 20 || shared > 30 {
			t.Errorf("chunks %d/%d share %d chars, want about 30", i-1, i, shared)
		}
	}
}

func TestSplit_HardCutsLongRuns(t *testing.T) {
	text := strings.Repeat("x", 250)
	s, err := New(100, 20)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	chunks := s.Split(text)
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if len(c) > 100 {
			t.Errorf("chunk %d has %d chars", i, len(c))
		}
	}
	// Content outside the overlaps is preserved in order.
	rebuilt := chunks[0]
	for _, c := range chunks[1:] {
		rebuilt += c[20:]
	}
	if rebuilt != text {
		t.Errorf("rebuilt text differs: got %d chars, want %d", len(rebuilt), len(text))
	}
}

func TestSplit_KeepsEveryWord(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 400; i++ {
		b.WriteString("w")
		b.WriteString(strings.Repeat("y", i%7))
		if i%25 == 24 {
			b.WriteString(".\n\n")
		} else {
			b.WriteString(" ")
		}
	}
	text := b.String()

	s, err := New(120, 25)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	joined := strings.Join(s.Split(text), " ")
	for _, w := range strings.Fields(text) {
		if !strings.Contains(joined, w) {
			t.Fatalf("word %q missing from chunks", w)
		}
	}
}

func TestSplit_PrefersParagraphBoundaries(t *testing.T) {
	para := strings.TrimSpace(strings.Repeat("sentence one. ", 5))
	text := para + "\n\n" + para + "\n\n" + para

	s, err := New(len(para)+5, 0)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	chunks := s.Split(text)
	if len(chunks) != 3 {
		t.Fatalf("expected one chunk per paragraph, got %d: %q", len(chunks), chunks)
	}
	for i, c := range chunks {
		if c != para {
			t.Errorf("chunk %d = %q, want %q", i, c, para)
		}
	}
}

func TestSplit_CountsRunesNotBytes(t *testing.T) {
	text := strings.Repeat("é", 150)
	s, err := New(100, 0)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	chunks := s.Split(text)
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if n := utf8.RuneCountInString(chunks[0]); n != 100 {
		t.Errorf("first chunk has %d runes, want 100", n)
	}
}
