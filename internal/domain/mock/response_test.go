package mock_test

import (
	"errors"
	"testing"

	"github.com/sophialabs/stubhttp/internal/domain/mock"
	"github.com/sophialabs/stubhttp/internal/domain/request"
)

func TestJSON_StringVerbatim(t *testing.T) {
	resp, err := mock.JSON(501, `{"greeting":"Moro"}`, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != 501 {
		t.Errorf("expected 501, got %d", resp.StatusCode)
	}
	if string(resp.Data) != `{"greeting":"Moro"}` {
		t.Errorf("unexpected body %q", resp.Data)
	}
	if len(resp.Headers) != 1 || resp.Headers[0].Name != "Content-Type" || resp.Headers[0].Value != "application/json" {
		t.Errorf("unexpected headers: %v", resp.Headers)
	}
}

func TestJSON_ObjectMarshalled(t *testing.T) {
	resp, err := mock.JSON(0, map[string]string{"greeting": "Moro"}, request.Headers{{Name: "X-Foo", Value: "bar"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Errorf("expected default 200, got %d", resp.StatusCode)
	}
	if string(resp.Data) != `{"greeting":"Moro"}` {
		t.Errorf("unexpected body %q", resp.Data)
	}
	if resp.Headers[0].Name != "Content-Type" || resp.Headers[1].Name != "X-Foo" {
		t.Errorf("expected Content-Type first, then caller headers: %v", resp.Headers)
	}
}

func TestJSON_CallerContentTypeWins(t *testing.T) {
	resp, err := mock.JSON(200, "{}", request.Headers{{Name: "content-type", Value: "application/vnd.api+json"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.Headers) != 1 {
		t.Fatalf("expected a single content type header, got %v", resp.Headers)
	}
	if got := resp.Headers.Get("Content-Type"); got != "application/vnd.api+json" {
		t.Errorf("expected caller content type, got %q", got)
	}
}

func TestJSON_NilValueHasNoBody(t *testing.T) {
	resp, err := mock.JSON(204, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Data != nil {
		t.Errorf("expected nil body, got %q", resp.Data)
	}
	if resp.Length() != -1 {
		t.Errorf("expected no content length, got %d", resp.Length())
	}
	if got := resp.Headers.Get("Content-Type"); got != "application/json" {
		t.Errorf("expected application/json, got %q", got)
	}
}

func TestJSON_UnencodableValue(t *testing.T) {
	if _, err := mock.JSON(200, make(chan int), nil); err == nil {
		t.Fatal("expected error for unencodable value")
	}
}

func TestResponse_LengthAndDecode(t *testing.T) {
	empty := mock.Response{StatusCode: 204, Data: []byte{}}
	if empty.Length() != 0 {
		t.Errorf("expected 0, got %d", empty.Length())
	}

	var v map[string]any
	if err := (mock.Response{}).DecodeJSON(&v); !errors.Is(err, mock.ErrNoBody) {
		t.Errorf("expected ErrNoBody, got %v", err)
	}
	if err := (mock.Response{Data: []byte(`{"a":1}`)}).DecodeJSON(&v); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v["a"] != float64(1) {
		t.Errorf("expected a=1, got %v", v)
	}
}

func TestResponse_CopyWithChanges(t *testing.T) {
	orig := mock.Response{StatusCode: 200, Data: []byte("x")}
	changed := orig.WithStatus(404).WithData([]byte("y")).WithHeaders(request.Headers{{Name: "A", Value: "1"}})

	if orig.StatusCode != 200 || string(orig.Data) != "x" || orig.Headers != nil {
		t.Errorf("original modified: %+v", orig)
	}
	if changed.StatusCode != 404 || string(changed.Data) != "y" || changed.Headers.Get("a") != "1" {
		t.Errorf("unexpected copy: %+v", changed)
	}
}
