package template

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/google/uuid"

	"github.com/sophialabs/stubhttp/internal/domain/mock"
	"github.com/sophialabs/stubhttp/internal/domain/request"
)

// vars builds the names visible to a template rendering rc. Both engines
// share it so a helper behaves the same in either.
func vars(rc mock.RenderContext) map[string]any {
	req := rc.Request
	if req == nil {
		req = &request.Request{}
	}
	params := rc.PathParams
	if params == nil {
		params = map[string]string{}
	}

	return map[string]any{
		"method":     req.Method,
		"path":       req.Path,
		"headers":    req.Headers.Map(),
		"query":      req.Query.Map(),
		"pathParams": params,

		"pathParam":  func(name string) string { return params[name] },
		"queryParam": func(name string) string { return req.Query.Get(name) },
		"header":     func(name string) string { return req.Headers.Get(name) },
		"body":       func() string { return string(req.Body) },
		"now":        func() string { return rc.Now.UTC().Format(time.RFC3339) },
		"nowFormat":  func(layout string) string { return rc.Now.UTC().Format(layout) },
		"uuid":       uuid.NewString,
		"randomInt":  randomInt,
		"seq":        seqInts,
		"toJSON":     toJSONString,
		"jsonPath":   func(expression string) string { return extractJSONPath(req.Body, expression) },
	}
}

func randomInt(lo, hi int) int {
	if lo >= hi {
		return lo
	}
	return lo + rand.IntN(hi-lo+1)
}

func seqInts(start, end int) []int {
	if end < start {
		return nil
	}
	s := make([]int, 0, end-start+1)
	for i := start; i <= end; i++ {
		s = append(s, i)
	}
	return s
}

func toJSONString(v any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Sprintf("%v", v)
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

// extractJSONPath returns strings unquoted and anything else as JSON. It
// returns "" when the body is not JSON or the path does not resolve.
func extractJSONPath(body []byte, expression string) string {
	var data any
	if err := json.Unmarshal(body, &data); err != nil {
		return ""
	}
	result, err := jsonpath.Get(expression, data)
	if err != nil {
		return ""
	}
	if s, ok := result.(string); ok {
		return s
	}
	return toJSONString(result)
}
