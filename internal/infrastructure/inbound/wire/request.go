// Package wire reads HTTP/1.x requests from a connection and writes
// responses back to it.
package wire

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sophialabs/stubhttp/internal/domain/request"
)

var (
	// ErrInvalidStatusLine is returned for a request line with fewer than
	// three tokens.
	ErrInvalidStatusLine = errors.New("invalid request line")
	// ErrInvalidChunk is returned for a malformed chunk size or a chunk not
	// followed by CRLF.
	ErrInvalidChunk = errors.New("invalid chunk")
)

// LineReader is the read side of a client connection.
type LineReader interface {
	// ReadLine returns the next line without its terminator.
	ReadLine() (string, error)
	// ReadExact returns exactly n bytes.
	ReadExact(n int) ([]byte, error)
}

// ReadRequest parses one request. The path is kept as sent; query keys and
// values are percent-decoded. Header names are canonicalised.
func ReadRequest(r LineReader) (*request.Request, error) {
	line, err := r.ReadLine()
	if err != nil {
		return nil, fmt.Errorf("failed to read request line: %w", err)
	}
	fields := strings.Fields(line)
	if len(fields) < 3 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatusLine, line)
	}

	path, rawQuery, _ := strings.Cut(fields[1], "?")
	req := &request.Request{
		Method: fields[0],
		Path:   path,
		Query:  ParseQuery(rawQuery),
		Proto:  fields[2],
	}

	req.Headers, err = readHeaders(r)
	if err != nil {
		return nil, err
	}

	req.Body, err = readBody(r, req)
	if err != nil {
		return nil, err
	}
	return req, nil
}

// ParseQuery splits a raw query string into ordered pairs. A segment without
// "=" yields an empty value. Undecodable text is kept as is.
func ParseQuery(raw string) request.Query {
	if raw == "" {
		return nil
	}
	var q request.Query
	for _, seg := range strings.Split(raw, "&") {
		if seg == "" {
			continue
		}
		k, v, _ := strings.Cut(seg, "=")
		q = append(q, request.Pair{Name: unescape(k), Value: unescape(v)})
	}
	return q
}

func unescape(s string) string {
	if out, err := url.PathUnescape(s); err == nil {
		return out
	}
	return s
}

func readHeaders(r LineReader) (request.Headers, error) {
	var h request.Headers
	for {
		line, err := r.ReadLine()
		if err != nil {
			return nil, fmt.Errorf("failed to read header: %w", err)
		}
		if line == "" {
			return h, nil
		}
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		h = append(h, request.Pair{
			Name:  CanonicalName(strings.TrimSpace(name)),
			Value: strings.TrimSpace(value),
		})
	}
}

// CanonicalName capitalises the first letter of every hyphen-separated
// segment and lower-cases the rest ("x-API-key" becomes "X-Api-Key").
func CanonicalName(name string) string {
	caser := cases.Title(language.Und)
	segs := strings.Split(name, "-")
	for i, s := range segs {
		segs[i] = caser.String(s)
	}
	return strings.Join(segs, "-")
}

func readBody(r LineReader, req *request.Request) ([]byte, error) {
	if cl, ok := req.Headers.Lookup("Content-Length"); ok {
		if n, err := strconv.Atoi(cl); err == nil {
			if n <= 0 {
				return []byte{}, nil
			}
			body, err := r.ReadExact(n)
			if err != nil {
				return nil, fmt.Errorf("failed to read body: %w", err)
			}
			return body, nil
		}
	}
	if strings.EqualFold(req.Headers.Get("Transfer-Encoding"), "chunked") {
		return readChunked(r, req)
	}
	return []byte{}, nil
}

func readChunked(r LineReader, req *request.Request) ([]byte, error) {
	body := []byte{}
	for {
		line, err := r.ReadLine()
		if err != nil {
			return nil, fmt.Errorf("failed to read chunk size: %w", err)
		}
		sizeText, _, _ := strings.Cut(line, ";")
		size, err := strconv.ParseUint(strings.TrimSpace(sizeText), 16, 31)
		if err != nil {
			return nil, fmt.Errorf("%w: bad size %q", ErrInvalidChunk, line)
		}
		if size == 0 {
			break
		}

		chunk, err := r.ReadExact(int(size))
		if err != nil {
			return nil, fmt.Errorf("failed to read chunk: %w", err)
		}
		body = append(body, chunk...)

		crlf, err := r.ReadExact(2)
		if err != nil {
			return nil, fmt.Errorf("failed to read chunk terminator: %w", err)
		}
		if string(crlf) != "\r\n" {
			return nil, fmt.Errorf("%w: missing CRLF after %d bytes", ErrInvalidChunk, size)
		}
	}

	footers, err := readHeaders(r)
	if err != nil {
		return nil, err
	}
	if len(footers) > 0 {
		req.Headers = req.Headers.Merge(footers)
	}
	return body, nil
}

// KeepAliveRequested reports whether the client asked to keep the
// connection open. HTTP/1.1 defaults to yes unless "Connection: close" is
// sent; older versions need an explicit "Connection: keep-alive".
func KeepAliveRequested(req *request.Request) bool {
	var closeTok, keepTok bool
	for _, v := range req.Headers.Values("Connection") {
		for _, tok := range strings.Split(v, ",") {
			switch strings.ToLower(strings.TrimSpace(tok)) {
			case "close":
				closeTok = true
			case "keep-alive":
				keepTok = true
			}
		}
	}
	if closeTok {
		return false
	}
	if req.Proto == "HTTP/1.1" {
		return true
	}
	return keepTok
}
