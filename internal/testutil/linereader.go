package testutil

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

// ErrClosed is returned by LineReader once its input is exhausted.
var ErrClosed = errors.New("reader closed")

// LineReader serves lines and byte runs from an in-memory string, the way a
// client connection would.
type LineReader struct {
	r *bufio.Reader
}

// NewLineReader creates a reader over raw.
func NewLineReader(raw string) *LineReader {
	return &LineReader{r: bufio.NewReader(strings.NewReader(raw))}
}

func (l *LineReader) ReadLine() (string, error) {
	line, err := l.r.ReadString('\n')
	if err != nil {
		return "", ErrClosed
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (l *LineReader) ReadExact(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(l.r, buf); err != nil {
		return nil, ErrClosed
	}
	return buf, nil
}
