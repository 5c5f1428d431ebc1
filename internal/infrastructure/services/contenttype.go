package services

import (
	"bytes"
	"encoding/json"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
)

// InferContentType picks a Content-Type for a fixture body: the body file's
// extension first, then the body itself. JSON is recognised before falling
// back to net/http sniffing.
func InferContentType(bodyFile string, body []byte) string {
	if ext := strings.ToLower(filepath.Ext(bodyFile)); ext != "" {
		switch ext {
		case ".json":
			return "application/json"
		case ".xml":
			return "application/xml"
		case ".yaml", ".yml":
			return "application/yaml"
		}
		if t := mime.TypeByExtension(ext); t != "" {
			return t
		}
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') && json.Valid(trimmed) {
		return "application/json"
	}
	return http.DetectContentType(body)
}
