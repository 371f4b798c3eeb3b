package textextract

import (
	"time"

	"github.com/joseph-ayodele/rfp-agent/constants"
	"github.com/joseph-ayodele/rfp-agent/internal/common"
)

// Result is either Ok(Text) when Err is nil, or Failed(Err).
// Err always wraps one of the common extraction sentinels.
type Result struct {
	Text     string
	Kind     constants.Kind
	Method   string
	Pages    int
	Duration time.Duration
	Warnings []string
	Err      error
}

func (r Result) OK() bool { return r.Err == nil }

// Reason returns the taxonomy name of the failure, or "" on success.
func (r Result) Reason() string { return common.ReasonCode(r.Err) }

func ok(kind constants.Kind, method, text string) Result {
	return Result{Kind: kind, Method: method, Text: text}
}

func failed(kind constants.Kind, err error) Result {
	return Result{Kind: kind, Err: err}
}
