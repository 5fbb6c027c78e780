package ai

import (
	"bufio"
	"encoding/json"
	"io"
	"strings"
	"sync"
)

// Stream is a single-pass iterator over the text increments of a streamed
// completion:
//
//	for s.Next() {
//		fmt.Print(s.Text())
//	}
//	if err := s.Err(); err != nil { ... }
//
// The connection is released when the terminator arrives, when reading
// fails, or when Close is called, whichever happens first.
type Stream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
	text    string
	err     error
	done    bool

	closeOnce sync.Once
	onClose   func(err error)
}

// NewStream wraps an SSE body of `data: {...}` frames ending in `data: [DONE]`.
func NewStream(body io.ReadCloser) *Stream {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 2*1024*1024)
	return &Stream{body: body, scanner: scanner}
}

// Next advances to the next non-empty increment. It returns false once the
// stream is exhausted, failed, or closed.
func (s *Stream) Next() bool {
	if s.done {
		return false
	}
	for s.scanner.Scan() {
		line := strings.TrimSpace(s.scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if payload == "[DONE]" {
			s.finish(nil)
			return false
		}

		var chunk struct {
			Choices []struct {
				Delta struct {
					Content string `json:"content"`
				} `json:"delta"`
			} `json:"choices"`
		}
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			continue
		}
		if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
			continue
		}
		s.text = chunk.Choices[0].Delta.Content
		return true
	}

	var err error
	if scanErr := s.scanner.Err(); scanErr != nil {
		err = classifyTransportError(scanErr)
	}
	s.finish(err)
	return false
}

// Text returns the increment produced by the last successful Next.
func (s *Stream) Text() string {
	return s.text
}

// Err returns the read error that ended the stream, if any. A stream ended
// by the terminator, by EOF, or by Close reports nil.
func (s *Stream) Err() error {
	return s.err
}

// Close releases the connection. It is safe to call more than once and at
// any point of the iteration.
func (s *Stream) Close() error {
	s.finish(nil)
	return nil
}

func (s *Stream) finish(err error) {
	s.closeOnce.Do(func() {
		s.done = true
		s.text = ""
		s.err = err
		_ = s.body.Close()
		if s.onClose != nil {
			s.onClose(err)
		}
	})
}
