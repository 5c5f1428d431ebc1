package mock

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sophialabs/stubhttp/internal/domain/request"
)

// ErrNoBody is returned when decoding a response that carries no body.
var ErrNoBody = errors.New("response has no body")

// Response is a canned HTTP response. A nil Data means the response has no
// body at all, which is different from an explicitly empty one.
type Response struct {
	StatusCode int
	Data       []byte
	Headers    request.Headers
}

// Length is the serialised body length, or -1 when there is no body.
func (r Response) Length() int {
	if r.Data == nil {
		return -1
	}
	return len(r.Data)
}

// WithStatus returns a copy of r with a different status code.
func (r Response) WithStatus(code int) Response {
	r.StatusCode = code
	return r
}

// WithData returns a copy of r with a different body.
func (r Response) WithData(data []byte) Response {
	r.Data = data
	return r
}

// WithHeaders returns a copy of r with a different header list.
func (r Response) WithHeaders(h request.Headers) Response {
	r.Headers = h
	return r
}

// DecodeJSON unmarshals the body into v.
func (r Response) DecodeJSON(v any) error {
	if r.Data == nil {
		return ErrNoBody
	}
	if err := json.Unmarshal(r.Data, v); err != nil {
		return fmt.Errorf("failed to decode JSON body: %w", err)
	}
	return nil
}

// JSON builds a response with a JSON body. Strings, byte slices and
// json.RawMessage are used verbatim; a nil value leaves the body empty; any
// other value is marshalled. A
// Content-Type of application/json comes first unless headers already carry
// a Content-Type. A zero status means 200.
func JSON(status int, v any, headers request.Headers) (Response, error) {
	var data []byte
	switch body := v.(type) {
	case nil:
	case string:
		data = []byte(body)
	case []byte:
		data = append([]byte{}, body...)
	case json.RawMessage:
		data = append([]byte{}, body...)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return Response{}, fmt.Errorf("failed to encode JSON body: %w", err)
		}
		data = b
	}

	if status == 0 {
		status = 200
	}

	h := make(request.Headers, 0, len(headers)+1)
	if !headers.Has("Content-Type") {
		h = append(h, request.Pair{Name: "Content-Type", Value: "application/json"})
	}
	h = append(h, headers...)

	return Response{StatusCode: status, Data: data, Headers: h}, nil
}
