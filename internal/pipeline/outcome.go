package pipeline

import (
	"github.com/koustreak/askdb/internal/gateway"
	"github.com/koustreak/askdb/internal/statement"
)

// Stage is how far a request got.
type Stage int

const (
	StageIdle           Stage = iota // nothing generated yet
	StageClassified                  // statement generated and classified
	StageExecuting                   // handed to the gateway
	StageShortCircuited              // rejected without contacting the source
	StageDone                        // executed and finished
)

func (s Stage) String() string {
	switch s {
	case StageClassified:
		return "classified"
	case StageExecuting:
		return "executing"
	case StageShortCircuited:
		return "short_circuited"
	case StageDone:
		return "done"
	default:
		return "idle"
	}
}

// MarshalText encodes the stage by name.
func (s Stage) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Outcome records everything known about one request, including how far
// it got when it failed.
type Outcome struct {
	Source     string          `json:"database"`
	Query      string          `json:"query"`
	Transcript string          `json:"transcript,omitempty"`
	Statement  string          `json:"statement,omitempty"`
	Generated  string          `json:"generated,omitempty"` // set when Statement was edited
	Class      statement.Class `json:"class"`
	Stage      Stage           `json:"stage"`
	Result     *gateway.Result `json:"result,omitempty"`
}

// Edited reports whether the statement was changed during review.
func (o *Outcome) Edited() bool {
	return o.Generated != "" && o.Generated != o.Statement
}
