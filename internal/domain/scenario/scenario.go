package scenario

import (
	"cmp"
	"slices"
)

// Scenario is a declarative mock definition loaded from a fixture file.
type Scenario struct {
	ID       string
	Name     string
	Priority int
	// When nil registers the scenario as an unconditional default.
	When     *WhenClause
	Response Response
	Policy   *Policy

	SourceFile  string
	SourceIndex int // -1 when the file holds a single scenario
}

// WhenClause defines the conditions for matching an incoming request.
// Header, query and body matcher strings use "=value" for exact comparison
// and are treated as regular expressions otherwise.
type WhenClause struct {
	Method  string
	Path    string
	Route   string // chi-style pattern, e.g. /users/{id}
	Headers map[string]string
	Query   map[string]string
	Body    *BodyClause
	Expr    string
}

// BodyClause represents conditions on the request body.
type BodyClause struct {
	ContentType string // "json", "xml" or "" for raw text
	Conditions  []BodyCondition
	All         []BodyClause
	Any         []BodyClause
	Not         *BodyClause
}

// BodyCondition is a single extraction + matching rule.
type BodyCondition struct {
	// Extractor is a JSONPath or XPath expression, ignored for raw bodies.
	Extractor string
	Matcher   string
}

// Response defines what the mock server returns.
type Response struct {
	Status      int
	Headers     map[string]string
	Body        string
	BodyFile    string
	ContentType string
	Engine      string // "" = static, "expr", "jinja2"
}

// Policy defines consumption, rate limiting and latency.
type Policy struct {
	Once      bool
	RateLimit *RateLimit
	Latency   *Latency
}

// RateLimit configures token-bucket rate limiting.
type RateLimit struct {
	Rate  float64
	Burst int
	Key   string
}

// Latency configures response delay simulation.
type Latency struct {
	FixedMs  int
	JitterMs int
}

// SortByPriority orders scenarios by descending priority, keeping load order
// among equal priorities.
func SortByPriority(scenarios []*Scenario) {
	slices.SortStableFunc(scenarios, func(a, b *Scenario) int {
		return cmp.Compare(b.Priority, a.Priority)
	})
}
