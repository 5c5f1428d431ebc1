package wire

import (
	"bufio"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/sophialabs/stubhttp/internal/domain/request"
)

// Response is a response ready to be written. Length is -1 when the body
// length is unknown or there is no body.
type Response struct {
	StatusCode int
	Headers    request.Headers
	Length     int
	// Body streams the body. nil writes no body.
	Body func(w io.Writer) error
}

// BytesBody returns a Body writing data.
func BytesBody(data []byte) func(io.Writer) error {
	return func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	}
}

// WriteResponse serialises resp to w. keepAlive is the negotiated keep-alive
// decision; the returned bool is whether the connection may carry another
// request. Header names are written as given. Content-Length and Connection
// are added unless the caller already set them.
func WriteResponse(w io.Writer, resp Response, keepAlive bool) (bool, error) {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "HTTP/1.1 %d %s\r\n", resp.StatusCode, http.StatusText(resp.StatusCode))

	if resp.Length >= 0 && !resp.Headers.Has("Content-Length") {
		writeHeader(bw, "Content-Length", strconv.Itoa(resp.Length))
	}

	alive := keepAlive && resp.Length >= 0
	if conn, ok := resp.Headers.Lookup("Connection"); ok {
		alive = alive && !strings.EqualFold(strings.TrimSpace(conn), "close")
	} else if alive {
		writeHeader(bw, "Connection", "keep-alive")
	} else {
		writeHeader(bw, "Connection", "close")
	}

	for _, p := range resp.Headers {
		writeHeader(bw, p.Name, p.Value)
	}
	bw.WriteString("\r\n")

	if resp.Body != nil {
		if err := resp.Body(bw); err != nil {
			return false, fmt.Errorf("failed to write body: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return false, fmt.Errorf("failed to write response: %w", err)
	}
	return alive, nil
}

func writeHeader(w *bufio.Writer, name, value string) {
	w.WriteString(name)
	w.WriteString(": ")
	w.WriteString(value)
	w.WriteString("\r\n")
}
