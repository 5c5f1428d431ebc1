package request_test

import (
	"testing"

	"github.com/sophialabs/stubhttp/internal/domain/request"
)

func TestHeaders_CaseInsensitiveLookup(t *testing.T) {
	h := request.Headers{
		{Name: "X-Eka", Value: "eka"},
		{Name: "X-Toka", Value: "toka"},
	}

	tests := []struct {
		name string
		want string
	}{
		{"X-Eka", "eka"},
		{"x-eka", "eka"},
		{"X-TOKA", "toka"},
		{"X-Missing", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := h.Get(tt.name); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestHeaders_Duplicates(t *testing.T) {
	h := request.Headers{
		{Name: "Accept", Value: "a"},
		{Name: "Other", Value: "x"},
		{Name: "accept", Value: "b"},
	}

	if got := h.Get("Accept"); got != "a" {
		t.Errorf("expected first value a, got %q", got)
	}
	if got := h.Last("Accept"); got != "b" {
		t.Errorf("expected last value b, got %q", got)
	}
	vals := h.Values("ACCEPT")
	if len(vals) != 2 || vals[0] != "a" || vals[1] != "b" {
		t.Errorf("expected [a b], got %v", vals)
	}
	if !h.Has("other") {
		t.Error("expected Has(other) to be true")
	}
}

func TestHeaders_Merge(t *testing.T) {
	base := request.Headers{
		{Name: "Content-Type", Value: "text/plain"},
		{Name: "X-Keep", Value: "1"},
	}
	merged := base.Merge(request.Headers{{Name: "content-type", Value: "application/json"}})

	if len(merged) != 2 {
		t.Fatalf("expected 2 headers, got %d: %v", len(merged), merged)
	}
	if merged[0].Name != "X-Keep" {
		t.Errorf("expected X-Keep first, got %s", merged[0].Name)
	}
	if got := merged.Get("Content-Type"); got != "application/json" {
		t.Errorf("expected override, got %q", got)
	}
	if got := base.Get("Content-Type"); got != "text/plain" {
		t.Errorf("merge must not modify the receiver, got %q", got)
	}
}

func TestHeaders_With(t *testing.T) {
	base := request.Headers{{Name: "A", Value: "1"}}
	h := base.With("B", "2")
	if len(base) != 1 {
		t.Errorf("With must not modify the receiver")
	}
	if h.Get("B") != "2" {
		t.Errorf("expected B=2, got %v", h)
	}
}

func TestQuery_ExactLookupAndMap(t *testing.T) {
	q := request.Query{
		{Name: "a", Value: "1"},
		{Name: "A", Value: "upper"},
		{Name: "a", Value: "2"},
	}

	if got := q.Get("a"); got != "1" {
		t.Errorf("expected 1, got %q", got)
	}
	if got := q.Get("A"); got != "upper" {
		t.Errorf("expected upper, got %q", got)
	}
	if q.Has("b") {
		t.Error("expected b to be absent")
	}
	m := q.Map()
	if m["a"] != "2" {
		t.Errorf("expected last-wins value 2, got %q", m["a"])
	}
	if len(m) != 2 {
		t.Errorf("expected 2 keys, got %d", len(m))
	}
}

func TestRequest_Endpoint(t *testing.T) {
	r := &request.Request{Method: "GET", Path: "/foo/bar"}
	if got := r.Endpoint(); got != "GET /foo/bar" {
		t.Errorf("expected GET /foo/bar, got %q", got)
	}
}
