package trace

import (
	"time"

	"github.com/sophialabs/stubhttp/internal/domain/request"
)

// Source identifies which mechanism produced a response.
type Source string

const (
	SourceAdHoc   Source = "adhoc"
	SourceMatcher Source = "matcher"
	SourceDefault Source = "default"
	SourceBuiltIn Source = "builtin"
)

// Entry is one received request together with how it was resolved.
type Entry struct {
	Timestamp  time.Time         `json:"timestamp"`
	Request    *request.Request  `json:"-"`
	Endpoint   string            `json:"endpoint"`
	Source     Source            `json:"source"`
	MatchedBy  string            `json:"matched_by,omitempty"`
	Candidates []CandidateResult `json:"candidates,omitempty"`
}

// CandidateResult records the outcome of one matcher-bearing configuration
// that was tried for a request.
type CandidateResult struct {
	Name    string `json:"name"`
	Matched bool   `json:"matched"`
}
