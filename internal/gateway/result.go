package gateway

import (
	"encoding/json"
	"time"

	"github.com/koustreak/askdb/internal/database"
)

// Kind tells which branch of Result is populated.
type Kind int

const (
	KindRowset          Kind = iota // read-only statement; Rowset is set
	KindAcknowledgement             // mutating statement; Message and RowsAffected are set
	KindRejected                    // not executed; Message explains why
)

func (k Kind) String() string {
	switch k {
	case KindRowset:
		return "rowset"
	case KindAcknowledgement:
		return "acknowledgement"
	default:
		return "rejected"
	}
}

const (
	// AcknowledgedMessage is reported for every committed mutating statement.
	AcknowledgedMessage = "Query executed successfully."

	// RejectedMessage is reported for statements outside the allow-list.
	RejectedMessage = "Only SELECT, SHOW, DESCRIBE, INSERT, UPDATE, and DELETE queries are allowed."

	// SyntheticColumn names the single column used when a read-only result
	// carries no column descriptor.
	SyntheticColumn = "Result"
)

// Result is the outcome of one Execute call.
type Result struct {
	Kind         Kind
	Rowset       *database.Rowset
	Message      string
	RowsAffected int64

	elapsed time.Duration
	timed   bool
}

// Duration returns the time spent running the statement. The second value
// is false for rejected statements, which never run.
func (r *Result) Duration() (time.Duration, bool) {
	return r.elapsed, r.timed
}

func (r *Result) setElapsed(d time.Duration) {
	r.elapsed = d
	r.timed = true
}

type resultJSON struct {
	Kind           string   `json:"kind"`
	Columns        []string `json:"columns,omitempty"`
	Rows           *[][]any `json:"rows,omitempty"`
	Message        string   `json:"message,omitempty"`
	RowsAffected   *int64   `json:"rows_affected,omitempty"`
	ElapsedSeconds *float64 `json:"elapsed_seconds,omitempty"`
}

// MarshalJSON flattens the populated branch.
func (r *Result) MarshalJSON() ([]byte, error) {
	out := resultJSON{Kind: r.Kind.String(), Message: r.Message}
	switch r.Kind {
	case KindRowset:
		if r.Rowset != nil {
			rows := r.Rowset.Rows
			if rows == nil {
				rows = [][]any{}
			}
			out.Columns = r.Rowset.Columns
			out.Rows = &rows
		}
	case KindAcknowledgement:
		n := r.RowsAffected
		out.RowsAffected = &n
	}
	if d, ok := r.Duration(); ok {
		s := d.Seconds()
		out.ElapsedSeconds = &s
	}
	return json.Marshal(out)
}
