package wire_test

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/sophialabs/stubhttp/internal/domain/request"
	"github.com/sophialabs/stubhttp/internal/infrastructure/inbound/wire"
)

func write(t *testing.T, resp wire.Response, keepAlive bool) (string, bool) {
	t.Helper()
	var buf bytes.Buffer
	alive, err := wire.WriteResponse(&buf, resp, keepAlive)
	if err != nil {
		t.Fatalf("WriteResponse: %v", err)
	}
	return buf.String(), alive
}

func TestWriteResponse_KnownLength(t *testing.T) {
	got, alive := write(t, wire.Response{
		StatusCode: 201,
		Headers:    request.Headers{{Name: "x-custom", Value: "1"}, {Name: "X-Custom", Value: "2"}},
		Length:     5,
		Body:       wire.BytesBody([]byte("hello")),
	}, false)

	want := "HTTP/1.1 201 Created\r\n" +
		"Content-Length: 5\r\n" +
		"Connection: close\r\n" +
		"x-custom: 1\r\n" +
		"X-Custom: 2\r\n" +
		"\r\n" +
		"hello"
	if got != want {
		t.Errorf("got\n%q\nwant\n%q", got, want)
	}
	if alive {
		t.Error("expected close when keep-alive was not negotiated")
	}
}

func TestWriteResponse_KeepAlive(t *testing.T) {
	got, alive := write(t, wire.Response{StatusCode: 200, Length: 0, Body: wire.BytesBody(nil)}, true)

	want := "HTTP/1.1 200 OK\r\nContent-Length: 0\r\nConnection: keep-alive\r\n\r\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if !alive {
		t.Error("expected the connection to stay alive")
	}
}

func TestWriteResponse_UnknownLengthForcesClose(t *testing.T) {
	got, alive := write(t, wire.Response{StatusCode: 200, Length: -1}, true)

	want := "HTTP/1.1 200 OK\r\nConnection: close\r\n\r\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if alive {
		t.Error("unknown length must close the connection")
	}
}

func TestWriteResponse_CallerConnectionWins(t *testing.T) {
	got, alive := write(t, wire.Response{
		StatusCode: 200,
		Headers:    request.Headers{{Name: "connection", Value: "close"}},
		Length:     0,
	}, true)

	want := "HTTP/1.1 200 OK\r\nContent-Length: 0\r\nconnection: close\r\n\r\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if alive {
		t.Error("caller close must end the connection")
	}
}

func TestWriteResponse_UnknownStatus(t *testing.T) {
	got, _ := write(t, wire.Response{StatusCode: 599, Length: -1}, false)
	if want := "HTTP/1.1 599 \r\n"; got[:len(want)] != want {
		t.Errorf("status line = %q", got)
	}
}

func TestWriteResponse_BodyError(t *testing.T) {
	boom := errors.New("boom")
	_, err := wire.WriteResponse(io.Discard, wire.Response{
		StatusCode: 200,
		Length:     3,
		Body:       func(io.Writer) error { return boom },
	}, false)
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want boom", err)
	}
}
