// Package ingest reads raw log lines from a single producer and feeds
// them, parsed, into the log store.
package ingest

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charliek/logview/internal/constants"
)

// Source produces raw lines. Run calls emit once per line, in order,
// from a single goroutine, and returns when the input ends or ctx is
// canceled. End of input is not an error.
type Source interface {
	Run(ctx context.Context, emit func(line string)) error
}

// ReaderSource reads newline-delimited lines from a reader, typically stdin
type ReaderSource struct {
	R io.Reader
}

// NewReaderSource creates a source reading from r
func NewReaderSource(r io.Reader) *ReaderSource {
	return &ReaderSource{R: r}
}

// Run implements Source. A blocked read cannot be interrupted, so on
// cancel Run returns and the reading goroutine exits with the reader.
func (s *ReaderSource) Run(ctx context.Context, emit func(line string)) error {
	lines := make(chan string)
	errCh := make(chan error, 1)

	go func() {
		errCh <- scanLines(ctx, s.R, lines)
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line := <-lines:
			emit(line)
		case err := <-errCh:
			if err != nil {
				return fmt.Errorf("reading input: %w", err)
			}
			return nil
		}
	}
}

// scanLines sends every line of r to out until r ends or ctx is canceled
func scanLines(ctx context.Context, r io.Reader, out chan<- string) error {
	return eachLine(r, func(line string) bool {
		select {
		case out <- line:
			return true
		case <-ctx.Done():
			return false
		}
	})
}

// eachLine calls fn with every line of r, without its line ending, until
// r ends or fn returns false. Lines longer than ScannerMaxBufferSize are
// truncated and the rest of the line is dropped.
func eachLine(r io.Reader, fn func(line string) bool) error {
	br := bufio.NewReaderSize(r, constants.ScannerBufferSize)
	var buf []byte
	for {
		chunk, err := br.ReadSlice('\n')
		if room := constants.ScannerMaxBufferSize - len(buf); room > 0 {
			buf = append(buf, chunk[:min(len(chunk), room)]...)
		}

		switch {
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case err == nil:
			if !fn(trimEOL(buf)) {
				return nil
			}
			buf = buf[:0]
		case errors.Is(err, io.EOF):
			if len(buf) > 0 {
				fn(trimEOL(buf))
			}
			return nil
		default:
			return err
		}
	}
}

func trimEOL(b []byte) string {
	b = bytes.TrimSuffix(b, []byte("\n"))
	b = bytes.TrimSuffix(b, []byte("\r"))
	return string(b)
}
