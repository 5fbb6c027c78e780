// Package pdfextract pulls plain text out of PDF files page by page.
//
// Pages are read with ledongthuc/pdf; a file that library cannot open is
// retried with dslipak/pdf, which tolerates some malformed cross-reference
// tables. Both parsers panic on certain inputs, so every page is read under
// recover and a per-page timeout.
package pdfextract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	dspdf "github.com/dslipak/pdf"
	"github.com/ledongthuc/pdf"

	"docchat/internal/pkg/log"
)

const DefaultPageTimeout = 10 * time.Second

var ErrUnreadable = errors.New("unreadable pdf")

type Result struct {
	Text  string
	Pages int
}

type Extractor struct {
	PageTimeout time.Duration
}

func New() *Extractor {
	return &Extractor{PageTimeout: DefaultPageTimeout}
}

// Extract returns the text of every page, each followed by a blank line,
// with surrounding whitespace trimmed from the whole. Pages that fail to
// parse are skipped; a file neither parser can open is ErrUnreadable.
func (e *Extractor) Extract(ctx context.Context, data []byte) (Result, error) {
	if len(data) == 0 {
		return Result{}, fmt.Errorf("%w: empty file", ErrUnreadable)
	}

	pages, err := e.readLedongthuc(ctx, data)
	if err != nil {
		log.Warnw("primary pdf parser failed, trying fallback", "error", err)
		var fallbackErr error
		pages, fallbackErr = e.readDslipak(ctx, data)
		if fallbackErr != nil {
			return Result{}, fmt.Errorf("%w: %v", ErrUnreadable, errors.Join(err, fallbackErr))
		}
	}

	var b strings.Builder
	for _, text := range pages {
		b.WriteString(text)
		b.WriteString("\n\n")
	}
	return Result{Text: strings.TrimSpace(b.String()), Pages: len(pages)}, nil
}

func (e *Extractor) readLedongthuc(ctx context.Context, data []byte) (pages []string, err error) {
	defer recoverInto(&err)

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf failed: %w", err)
	}
	n := reader.NumPage()
	pages = make([]string, 0, n)
	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := e.protect(func() (string, error) { return page.GetPlainText(nil) })
		if err != nil {
			log.Warnw("skip unreadable pdf page", "page", i, "error", err)
		}
		pages = append(pages, text)
	}
	return pages, nil
}

func (e *Extractor) readDslipak(ctx context.Context, data []byte) (pages []string, err error) {
	defer recoverInto(&err)

	reader, err := dspdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf failed: %w", err)
	}
	n := reader.NumPage()
	pages = make([]string, 0, n)
	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := e.protect(func() (string, error) { return page.GetPlainText(nil) })
		if err != nil {
			log.Warnw("skip unreadable pdf page", "page", i, "error", err)
		}
		pages = append(pages, text)
	}
	return pages, nil
}

// protect runs one page extraction with a timeout and turns panics into errors.
func (e *Extractor) protect(extract func() (string, error)) (string, error) {
	type result struct {
		content string
		err     error
	}
	resChan := make(chan result, 1)

	go func() {
		var r result
		defer func() {
			if p := recover(); p != nil {
				r = result{err: fmt.Errorf("pdf parser panic: %v", p)}
			}
			resChan <- r
		}()
		r.content, r.err = extract()
	}()

	timeout := e.PageTimeout
	if timeout <= 0 {
		timeout = DefaultPageTimeout
	}
	select {
	case r := <-resChan:
		return r.content, r.err
	case <-time.After(timeout):
		return "", errors.New("page extraction timeout")
	}
}

func recoverInto(err *error) {
	if p := recover(); p != nil {
		*err = fmt.Errorf("pdf parser panic: %v", p)
	}
}
