package request

import "time"

// Request is an HTTP request as read off the wire. It is built once by the
// codec and must not be modified after it has been handed to the engine.
type Request struct {
	Method  string
	Path    string // undecoded, query string stripped
	Query   Query  // percent-decoded, in wire order
	Headers Headers
	Body    []byte // never nil

	Proto      string
	RemoteAddr string
	ReceivedAt time.Time
}

// Endpoint returns "METHOD path".
func (r *Request) Endpoint() string {
	return r.Method + " " + r.Path
}
