package mock

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/sophialabs/stubhttp/internal/domain/request"
	"github.com/sophialabs/stubhttp/internal/domain/trace"
)

// BuiltIn is served when nothing else matches.
var BuiltIn = Response{StatusCode: 200}

// Resolution is the outcome of resolving one request.
type Resolution struct {
	Response Response
	// Config is nil for ad-hoc and built-in responses.
	Config   *Config
	Source   trace.Source
	Name     string
	Modifier Modifier
}

// Size reports how many entries each collection holds.
type Size struct {
	AdHoc    int
	Matchers int
	Defaults int
}

// Engine holds the mock configuration and the request log. Resolution,
// logging and observer notification for a request happen under one lock, so
// the log order is the order in which responses were chosen.
//
// Ad-hoc handlers and observers run while the lock is held and must not call
// back into the Engine.
type Engine struct {
	mu        sync.Mutex
	adHoc     []AdHocHandler
	matchers  []*Config
	defaults  []*Config
	observers []Observer
	modifier  Modifier
	log       *trace.Log
	seq       int
}

// NewEngine creates an engine that records requests into log.
func NewEngine(log *trace.Log) *Engine {
	return &Engine{log: log, modifier: Identity}
}

// Add registers a configuration. Entries with a matcher are appended to the
// matcher list. A permanent default replaces the existing permanent default
// in place; one-shot defaults are appended.
func (e *Engine) Add(c Config) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.seq++
	cfg := c
	if cfg.Matcher != nil {
		if cfg.Name == "" {
			cfg.Name = fmt.Sprintf("matcher#%d", e.seq)
		}
		e.matchers = append(e.matchers, &cfg)
		return
	}

	if cfg.Name == "" {
		cfg.Name = fmt.Sprintf("default#%d", e.seq)
	}
	if cfg.Permanent() {
		if i := slices.IndexFunc(e.defaults, (*Config).Permanent); i >= 0 {
			e.defaults[i] = &cfg
			return
		}
	}
	e.defaults = append(e.defaults, &cfg)
}

// AddAdHoc registers an ad-hoc handler. Handlers are tried before any
// configuration, in registration order, and are never consumed.
func (e *Engine) AddAdHoc(h AdHocHandler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.adHoc = append(e.adHoc, h)
}

// AddObserver registers a request observer.
func (e *Engine) AddObserver(o Observer) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.observers = append(e.observers, o)
}

// ClearObservers drops every observer.
func (e *Engine) ClearObservers() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.observers = nil
}

// SetModifier sets the common response modifier. nil restores Identity.
func (e *Engine) SetModifier(m Modifier) {
	if m == nil {
		m = Identity
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.modifier = m
}

// ClearResponses drops ad-hoc handlers, matcher configurations and defaults.
func (e *Engine) ClearResponses() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.clearResponsesLocked()
}

// ClearLog empties the request log.
func (e *Engine) ClearLog() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.log.Clear()
}

// Reset clears the request log and every response and restores the identity
// modifier. Observers are kept.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.clearResponsesLocked()
	e.log.Clear()
	e.modifier = Identity
}

func (e *Engine) clearResponsesLocked() {
	e.adHoc = nil
	e.matchers = nil
	e.defaults = nil
}

// Size returns the current collection sizes.
func (e *Engine) Size() Size {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Size{AdHoc: len(e.adHoc), Matchers: len(e.matchers), Defaults: len(e.defaults)}
}

// Resolve selects the response for req, records req in the log stamped with
// now and notifies observers. One-shot entries are consumed.
func (e *Engine) Resolve(req *request.Request, now time.Time) Resolution {
	e.mu.Lock()
	defer e.mu.Unlock()

	res, candidates := e.resolveLocked(req)
	res.Modifier = e.modifier

	e.log.Add(trace.Entry{
		Timestamp:  now,
		Request:    req,
		Endpoint:   req.Endpoint(),
		Source:     res.Source,
		MatchedBy:  res.Name,
		Candidates: candidates,
	})
	for _, o := range e.observers {
		o(req)
	}
	return res
}

func (e *Engine) resolveLocked(req *request.Request) (Resolution, []trace.CandidateResult) {
	for _, h := range e.adHoc {
		if resp := h(req); resp != nil {
			return Resolution{Response: *resp, Source: trace.SourceAdHoc}, nil
		}
	}

	var candidates []trace.CandidateResult
	for i, cfg := range e.matchers {
		ok := cfg.Matcher(req)
		candidates = append(candidates, trace.CandidateResult{Name: cfg.Name, Matched: ok})
		if !ok {
			continue
		}
		if cfg.OnlyOnce {
			e.matchers = slices.Delete(e.matchers, i, i+1)
		}
		return Resolution{Response: cfg.Response, Config: cfg, Source: trace.SourceMatcher, Name: cfg.Name}, candidates
	}

	if len(e.defaults) > 0 {
		cfg := e.defaults[0]
		if cfg.OnlyOnce {
			e.defaults = slices.Delete(e.defaults, 0, 1)
		}
		return Resolution{Response: cfg.Response, Config: cfg, Source: trace.SourceDefault, Name: cfg.Name}, candidates
	}

	return Resolution{Response: BuiltIn, Source: trace.SourceBuiltIn}, candidates
}
