package services_test

import (
	"testing"

	"github.com/sophialabs/stubhttp/internal/infrastructure/services"
)

func TestInferContentType(t *testing.T) {
	tests := []struct {
		name     string
		bodyFile string
		body     []byte
		expected string
	}{
		{"json extension", "data.json", nil, "application/json"},
		{"extension beats body", "data.xml", []byte(`{"a":1}`), "application/xml"},
		{"yaml extension", "fixture.YML", nil, "application/yaml"},
		{"registered mime type", "page.html", nil, "text/html; charset=utf-8"},
		{"image by extension", "logo.png", nil, "image/png"},
		{"unknown extension sniffs body", "file.xyz-unknown", []byte(`{"a":1}`), "application/json"},
		{"json object body", "", []byte(`  {"key":"val"}`), "application/json"},
		{"json array body", "", []byte(`[1,2,3]`), "application/json"},
		{"broken json is text", "", []byte(`{"key":`), "text/plain; charset=utf-8"},
		{"html body", "", []byte(`<html><body>hi</body></html>`), "text/html; charset=utf-8"},
		{"plain body", "", []byte("hello"), "text/plain; charset=utf-8"},
		{"unknown extension with text body sniffs", "notes.xyz-unknown", []byte("just words"), "text/plain; charset=utf-8"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := services.InferContentType(tt.bodyFile, tt.body)
			if got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}
