// Package render writes rowsets, execution results and request outcomes
// to a terminal in one of several formats.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/koustreak/askdb/internal/database"
	"github.com/koustreak/askdb/internal/errs"
	"github.com/koustreak/askdb/internal/gateway"
	"github.com/koustreak/askdb/internal/pipeline"
	"github.com/koustreak/askdb/internal/schema"
)

// Format selects the output encoding.
type Format string

const (
	FormatTable    Format = "table"
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "md"
)

// Formats lists the accepted format names, for flag help and completion.
var Formats = []string{"table", "json", "csv", "md"}

// ParseFormat accepts a format name. "markdown" is an alias of "md" and an
// empty name selects the table format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "table":
		return FormatTable, nil
	case "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	default:
		return "", errs.New(errs.ErrKindInvalidInput,
			fmt.Sprintf("unknown output format %q (want one of %s)", s, strings.Join(Formats, ", ")))
	}
}

// Renderer writes to a single writer in a fixed format.
type Renderer struct {
	w      io.Writer
	format Format
}

// New returns a Renderer writing to w.
func New(w io.Writer, format Format) *Renderer {
	if format == "" {
		format = FormatTable
	}
	return &Renderer{w: w, format: format}
}

// Format returns the renderer's format.
func (r *Renderer) Format() Format {
	return r.format
}

// JSON writes v as indented JSON.
func (r *Renderer) JSON(v any) error {
	enc := json.NewEncoder(r.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Rowset writes a result set.
func (r *Renderer) Rowset(set *database.Rowset) error {
	if set == nil {
		set = &database.Rowset{Rows: [][]any{}}
	}
	if r.format == FormatJSON {
		return r.JSON(set)
	}
	if set.Len() == 0 && r.format != FormatCSV {
		_, _ = fmt.Fprintln(r.w, "(0 rows)")
		return nil
	}

	t := r.table(set.Columns)
	for _, row := range set.Rows {
		out := make(table.Row, len(row))
		for i, v := range row {
			out[i] = FormatValue(v)
		}
		t.AppendRow(out)
	}

	switch r.format {
	case FormatCSV:
		t.RenderCSV()
	case FormatMarkdown:
		t.RenderMarkdown()
	default:
		t.Render()
		_, _ = fmt.Fprintf(r.w, "(%d rows)\n", set.Len())
	}
	return nil
}

// Result writes the outcome of one statement execution followed by its
// execution time.
func (r *Renderer) Result(res *gateway.Result) error {
	if res == nil {
		return nil
	}
	if r.format == FormatJSON {
		return r.JSON(res)
	}

	switch res.Kind {
	case gateway.KindRowset:
		if err := r.Rowset(res.Rowset); err != nil {
			return err
		}
	case gateway.KindAcknowledgement:
		_, _ = fmt.Fprintf(r.w, "%s (%d rows affected)\n", res.Message, res.RowsAffected)
	default:
		_, _ = fmt.Fprintln(r.w, res.Message)
	}

	if d, ok := res.Duration(); ok && r.format == FormatTable {
		_, _ = fmt.Fprintln(r.w, ElapsedLine(d))
	}
	return nil
}

// Outcome writes a request outcome: the transcript for spoken input, the
// statement that ran and its result.
func (r *Renderer) Outcome(out *pipeline.Outcome) error {
	if out == nil {
		return nil
	}
	if r.format == FormatJSON {
		return r.JSON(out)
	}

	if r.format == FormatTable {
		if out.Transcript != "" {
			_, _ = fmt.Fprintf(r.w, "Heard: %s\n", out.Transcript)
		}
		if out.Statement != "" {
			_, _ = fmt.Fprintf(r.w, "Generated SQL: %s\n", out.Statement)
		}
		if out.Edited() {
			_, _ = fmt.Fprintf(r.w, "Edited from:   %s\n", out.Generated)
		}
		if out.Result != nil {
			_, _ = fmt.Fprintln(r.w)
		}
	}
	return r.Result(out.Result)
}

// List writes a single-column listing such as database or table names.
func (r *Renderer) List(header string, items []string) error {
	set := &database.Rowset{Columns: []string{header}, Rows: make([][]any, 0, len(items))}
	for _, it := range items {
		set.Rows = append(set.Rows, []any{it})
	}
	return r.Rowset(set)
}

// Snapshot writes a schema snapshot as a table of name and columns.
func (r *Renderer) Snapshot(snap *schema.Snapshot) error {
	if snap == nil {
		return nil
	}
	if r.format == FormatJSON {
		return r.JSON(snap)
	}
	set := &database.Rowset{Columns: []string{"table", "columns"}, Rows: make([][]any, 0, len(snap.Tables))}
	for _, td := range snap.Tables {
		set.Rows = append(set.Rows, []any{td.Name, strings.Join(td.Columns, ", ")})
	}
	return r.Rowset(set)
}

// Error writes err as a user-facing message.
func (r *Renderer) Error(err error) {
	if err == nil {
		return
	}
	if r.format == FormatJSON {
		_ = r.JSON(map[string]string{"error": errs.Display(err), "kind": errs.KindOf(err).String()})
		return
	}
	_, _ = fmt.Fprintf(r.w, "Error: %s\n", errs.Display(err))
}

func (r *Renderer) table(cols []string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(r.w)
	t.SetStyle(table.StyleLight)

	header := make(table.Row, len(cols))
	for i, col := range cols {
		header[i] = col
	}
	t.AppendHeader(header)
	return t
}

// ElapsedLine formats an execution time the way results report it.
func ElapsedLine(d time.Duration) string {
	return fmt.Sprintf("Execution time: %.4f seconds", d.Seconds())
}

// FormatValue renders a single cell. NULL stands in for nil.
func FormatValue(v any) string {
	if v == nil {
		return "NULL"
	}
	return fmt.Sprintf("%v", v)
}
