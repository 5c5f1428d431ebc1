package filesystem

// fixture is the YAML shape of one mock definition.
type fixture struct {
	ID       string          `yaml:"id"`
	Name     string          `yaml:"name"`
	Priority int             `yaml:"priority"`
	When     *fixtureWhen    `yaml:"when,omitempty"`
	Response fixtureResponse `yaml:"response"`
	Policy   *fixturePolicy  `yaml:"policy,omitempty"`
}

type fixtureWhen struct {
	Method  string            `yaml:"method,omitempty"`
	Path    string            `yaml:"path,omitempty"`
	Route   string            `yaml:"route,omitempty"`
	Headers map[string]string `yaml:"headers,omitempty"`
	Query   map[string]string `yaml:"query,omitempty"`
	Body    *fixtureBody      `yaml:"body,omitempty"`
	Expr    string            `yaml:"expr,omitempty"`
}

type fixtureBody struct {
	ContentType string             `yaml:"content_type,omitempty"`
	Conditions  []fixtureCondition `yaml:"conditions,omitempty"`
	All         []fixtureBody      `yaml:"all,omitempty"`
	Any         []fixtureBody      `yaml:"any,omitempty"`
	Not         *fixtureBody       `yaml:"not,omitempty"`
}

type fixtureCondition struct {
	Extractor string `yaml:"extractor,omitempty"`
	Matcher   string `yaml:"matcher"`
}

type fixtureResponse struct {
	Status      int               `yaml:"status,omitempty"`
	Headers     map[string]string `yaml:"headers,omitempty"`
	Body        string            `yaml:"body,omitempty"`
	BodyFile    string            `yaml:"body_file,omitempty"`
	ContentType string            `yaml:"content_type,omitempty"`
	Engine      string            `yaml:"engine,omitempty"`
}

type fixturePolicy struct {
	Once      bool              `yaml:"once,omitempty"`
	RateLimit *fixtureRateLimit `yaml:"rate_limit,omitempty"`
	Latency   *fixtureLatency   `yaml:"latency,omitempty"`
}

type fixtureRateLimit struct {
	Rate  float64 `yaml:"rate"`
	Burst int     `yaml:"burst"`
	Key   string  `yaml:"key,omitempty"`
}

type fixtureLatency struct {
	FixedMs  int `yaml:"fixed_ms,omitempty"`
	JitterMs int `yaml:"jitter_ms,omitempty"`
}
