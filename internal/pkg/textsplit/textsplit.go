// Package textsplit cuts document text into bounded, overlapping chunks.
//
// Splitting is recursive: the text is cut on the coarsest separator present
// (paragraph, line, sentence, whitespace) and any piece still too large is cut
// again on the next finer separator, down to single characters. The pieces are
// then merged back greedily into chunks of at most ChunkSize characters, with
// roughly ChunkOverlap characters repeated between neighbouring chunks.
package textsplit

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

// DefaultSeparators are tried in order; "" means a hard cut between characters.
var DefaultSeparators = []string{"\n\n", "\n", ". ", " ", ""}

var ErrInvalidSize = errors.New("invalid chunk size or overlap")

type Splitter struct {
	chunkSize    int
	chunkOverlap int
	separators   []string
}

// New returns a splitter producing chunks of at most size characters that
// overlap by about overlap characters. size must be positive and overlap must
// be in [0, size).
func New(size, overlap int) (*Splitter, error) {
	if size <= 0 || overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("%w: size=%d overlap=%d", ErrInvalidSize, size, overlap)
	}
	return &Splitter{
		chunkSize:    size,
		chunkOverlap: overlap,
		separators:   DefaultSeparators,
	}, nil
}

// Default returns a splitter with the 1000/200 defaults.
func Default() *Splitter {
	s, _ := New(DefaultChunkSize, DefaultChunkOverlap)
	return s
}

func (s *Splitter) ChunkSize() int    { return s.chunkSize }
func (s *Splitter) ChunkOverlap() int { return s.chunkOverlap }

// Split returns the chunks of text in source order. Empty or all-whitespace
// input yields no chunks.
func (s *Splitter) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return s.split(text, s.separators)
}

func (s *Splitter) split(text string, separators []string) []string {
	separator := separators[len(separators)-1]
	var finer []string
	for i, sep := range separators {
		if sep == "" {
			separator = sep
			break
		}
		if strings.Contains(text, sep) {
			separator = sep
			finer = separators[i+1:]
			break
		}
	}

	var (
		chunks []string
		small  []string
	)
	for _, piece := range splitKeepSeparator(text, separator) {
		if runeLen(piece) < s.chunkSize {
			small = append(small, piece)
			continue
		}
		if len(small) > 0 {
			chunks = append(chunks, s.merge(small)...)
			small = nil
		}
		if len(finer) == 0 {
			if trimmed := strings.TrimSpace(piece); trimmed != "" {
				chunks = append(chunks, trimmed)
			}
			continue
		}
		chunks = append(chunks, s.split(piece, finer)...)
	}
	if len(small) > 0 {
		chunks = append(chunks, s.merge(small)...)
	}
	return chunks
}

// merge packs pieces into chunks no longer than chunkSize. After a chunk is
// emitted, pieces are dropped from the front of the window until what remains
// fits inside the overlap budget; those remaining pieces open the next chunk.
func (s *Splitter) merge(pieces []string) []string {
	var (
		chunks  []string
		window  []string
		lengths []int
		total   int
	)
	for _, piece := range pieces {
		n := runeLen(piece)
		if total+n > s.chunkSize && len(window) > 0 {
			if chunk := strings.TrimSpace(strings.Join(window, "")); chunk != "" {
				chunks = append(chunks, chunk)
			}
			for len(window) > 0 && (total > s.chunkOverlap || total+n > s.chunkSize) {
				total -= lengths[0]
				window = window[1:]
				lengths = lengths[1:]
			}
		}
		window = append(window, piece)
		lengths = append(lengths, n)
		total += n
	}
	if chunk := strings.TrimSpace(strings.Join(window, "")); chunk != "" {
		chunks = append(chunks, chunk)
	}
	return chunks
}

// splitKeepSeparator cuts text on sep, keeping sep at the start of every piece
// after the first. An empty sep splits into single characters.
func splitKeepSeparator(text, sep string) []string {
	if sep == "" {
		out := make([]string, 0, utf8.RuneCountInString(text))
		for _, r := range text {
			out = append(out, string(r))
		}
		return out
	}
	parts := strings.Split(text, sep)
	out := make([]string, 0, len(parts))
	if parts[0] != "" {
		out = append(out, parts[0])
	}
	for _, p := range parts[1:] {
		out = append(out, sep+p)
	}
	return out
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
