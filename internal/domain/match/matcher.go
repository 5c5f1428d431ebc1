package match

import (
	"strings"

	"github.com/sophialabs/stubhttp/internal/domain/request"
)

// Matcher decides whether a mock configuration applies to a request.
type Matcher func(*request.Request) bool

// All requires every matcher to match. An empty list matches everything.
func All(matchers ...Matcher) Matcher {
	return func(r *request.Request) bool {
		for _, m := range matchers {
			if !m(r) {
				return false
			}
		}
		return true
	}
}

// Any requires at least one matcher to match. An empty list matches nothing.
func Any(matchers ...Matcher) Matcher {
	return func(r *request.Request) bool {
		for _, m := range matchers {
			if m(r) {
				return true
			}
		}
		return false
	}
}

// Not inverts m.
func Not(m Matcher) Matcher {
	return func(r *request.Request) bool { return !m(r) }
}

// Method matches the request method exactly.
func Method(method string) Matcher {
	return func(r *request.Request) bool { return r.Method == method }
}

// Path matches the request path exactly. The query string is not part of it.
func Path(path string) Matcher {
	return func(r *request.Request) bool { return r.Path == path }
}

// Endpoint compiles "METHOD" or "METHOD path" into a matcher. Without a path
// token every path matches.
func Endpoint(endpoint string) Matcher {
	parts := strings.Fields(endpoint)
	if len(parts) == 0 {
		return func(*request.Request) bool { return false }
	}
	if len(parts) == 1 {
		return Method(parts[0])
	}
	return All(Method(parts[0]), Path(parts[1]))
}

// Header matches when any value of the named header satisfies p.
func Header(name string, p Predicate) Matcher {
	return func(r *request.Request) bool {
		for _, v := range r.Headers.Values(name) {
			if p(v) {
				return true
			}
		}
		return false
	}
}

// Query matches when any value of the named query parameter satisfies p.
func Query(name string, p Predicate) Matcher {
	return func(r *request.Request) bool {
		for _, v := range r.Query.Values(name) {
			if p(v) {
				return true
			}
		}
		return false
	}
}

// Body matches the raw body text.
func Body(p Predicate) Matcher {
	return func(r *request.Request) bool { return p(string(r.Body)) }
}
