package stubhttp

import (
	"github.com/sophialabs/stubhttp/internal/domain/match"
	"github.com/sophialabs/stubhttp/internal/infrastructure/services"
)

// Equals is a predicate for the exact value.
func Equals(v string) Predicate { return match.Equals(v) }

// Contains is a predicate for values containing substr.
func Contains(substr string) Predicate { return match.Contains(substr) }

// Pattern compiles a regular expression predicate.
func Pattern(expr string) (Predicate, error) { return match.Pattern(expr) }

// MatchEndpoint matches "METHOD path", or any path for "METHOD".
func MatchEndpoint(endpoint string) Matcher { return match.Endpoint(endpoint) }

// MatchMethod matches the request method.
func MatchMethod(method string) Matcher { return match.Method(method) }

// MatchPath matches the path exactly, without the query string.
func MatchPath(path string) Matcher { return match.Path(path) }

// MatchRoute matches paths fitting a chi route pattern such as
// "/users/{id}" or "/files/*".
func MatchRoute(pattern string) (Matcher, error) {
	r, err := services.CompileRoute(pattern)
	if err != nil {
		return nil, err
	}
	return r.Matcher(), nil
}

// MatchHeader matches when any value of the header satisfies p.
func MatchHeader(name string, p Predicate) Matcher { return match.Header(name, p) }

// MatchQuery matches when any value of the query parameter satisfies p.
func MatchQuery(name string, p Predicate) Matcher { return match.Query(name, p) }

// MatchBody matches the body text.
func MatchBody(p Predicate) Matcher { return match.Body(p) }

// MatchJSONPath matches JSON bodies whose value at expr satisfies p.
func MatchJSONPath(expr string, p Predicate) Matcher { return services.JSONPath(expr, p) }

// MatchXPath matches XML bodies whose first node selected by expr has inner
// text satisfying p.
func MatchXPath(expr string, p Predicate) Matcher { return services.XPath(expr, p) }

// MatchExpr compiles a boolean expression over method, path, headers, query
// and body, for example `method == "POST" && header("X-Tenant") == "a"`.
func MatchExpr(source string) (Matcher, error) { return services.CompileExpression(source) }

// MatchAll requires every matcher.
func MatchAll(ms ...Matcher) Matcher { return match.All(ms...) }

// MatchAny requires at least one matcher.
func MatchAny(ms ...Matcher) Matcher { return match.Any(ms...) }

// MatchNot inverts m.
func MatchNot(m Matcher) Matcher { return match.Not(m) }
