package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/koustreak/askdb/internal/errs"
	"github.com/koustreak/askdb/internal/pipeline"
	"github.com/koustreak/askdb/internal/render"
	"github.com/koustreak/askdb/internal/statement"
	"github.com/spf13/cobra"
)

const historyFileName = ".askdb_history"

func newREPLCommand(a *app) *cobra.Command {
	var noHistory bool

	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Ask questions interactively",
		Long: `Start an interactive session. Each line is a question for the selected
database; lines starting with a dot are commands (.help lists them).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			history := ""
			if !noHistory {
				if home, err := os.UserHomeDir(); err == nil {
					history = filepath.Join(home, historyFileName)
				}
			}
			return a.runREPL(cmd, history)
		},
	}

	cmd.Flags().BoolVar(&noHistory, "no-history", false, "do not read or write the history file")
	return cmd
}

// repl is the state of one interactive session.
type repl struct {
	a    *app
	out  io.Writer
	db   string
	edit bool

	// editor lets the user rewrite a statement, starting from stmt.
	editor func(stmt string) (string, error)
}

func (a *app) runREPL(cmd *cobra.Command, historyFile string) error {
	ctx := cmd.Context()
	r := &repl{a: a, out: cmd.OutOrStdout(), db: a.database}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          r.prompt(),
		HistoryFile:     historyFile,
		AutoComplete:    r.completer(ctx),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
		Stdout:          cmd.OutOrStdout(),
		Stderr:          cmd.ErrOrStderr(),
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	r.editor = func(stmt string) (string, error) {
		rl.SetPrompt("sql> ")
		defer rl.SetPrompt(r.prompt())
		return rl.ReadlineWithDefault(stmt)
	}

	_, _ = fmt.Fprintf(r.out, "askdb %s (%s@%s)\n", Version, a.cfg.Source.Driver, a.cfg.Source.Host)
	_, _ = fmt.Fprintln(r.out, "Type a question, .help for commands, .quit to exit")
	_, _ = fmt.Fprintln(r.out)

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		if quit := r.handle(ctx, line); quit {
			return nil
		}
		rl.SetPrompt(r.prompt())
	}
}

func (r *repl) prompt() string {
	if r.db == "" {
		return "askdb> "
	}
	return "askdb(" + r.db + ")> "
}

// handle runs one input line and reports whether the session should end.
func (r *repl) handle(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}

	if strings.HasPrefix(line, ".") {
		quit, err := r.dot(ctx, line)
		if err != nil {
			r.a.out.Error(err)
		}
		return quit
	}

	var review pipeline.ReviewFunc
	if r.edit && r.editor != nil {
		review = r.review
	}
	out, err := r.a.rt.Translator.Run(ctx, pipeline.Request{Source: r.db, Query: line, Review: review})
	r.finish(out, err)
	return false
}

func (r *repl) finish(out *pipeline.Outcome, err error) {
	if rerr := r.a.report(out, err); rerr != nil {
		r.a.out.Error(rerr)
	}
	_, _ = fmt.Fprintln(r.out)
}

func (r *repl) review(_ context.Context, stmt string, class statement.Class) (string, error) {
	_, _ = fmt.Fprintf(r.out, "Generated SQL (%s). Edit and press Enter to run, Ctrl-C to cancel.\n", class)
	edited, err := r.editor(stmt)
	if errors.Is(err, readline.ErrInterrupt) {
		return "", errors.New("cancelled")
	}
	return edited, err
}

func (r *repl) dot(ctx context.Context, line string) (bool, error) {
	parts := strings.Fields(line)
	command := strings.ToLower(parts[0])
	args := parts[1:]

	switch command {
	case ".quit", ".exit":
		return true, nil

	case ".help":
		printREPLHelp(r.out)

	case ".databases":
		dbs, err := r.a.rt.Translator.Databases(ctx)
		if err != nil {
			return false, err
		}
		return false, r.a.out.List("database", dbs)

	case ".use":
		if len(args) != 1 {
			return false, usage(".use <database>")
		}
		r.db = args[0]
		_, _ = fmt.Fprintf(r.out, "Using database %s\n", r.db)

	case ".tables":
		snap, err := r.a.rt.Translator.Schema(ctx, r.db)
		if err != nil {
			return false, err
		}
		names := make([]string, 0, len(snap.Tables))
		for _, t := range snap.Tables {
			names = append(names, t.Name)
		}
		return false, r.a.out.List("table", names)

	case ".schema":
		snap, err := r.a.rt.Translator.Schema(ctx, r.db)
		if err != nil {
			return false, err
		}
		return false, r.a.out.Snapshot(snap)

	case ".prompt":
		p, err := r.a.rt.Translator.Prompt(ctx, r.db)
		if err != nil {
			return false, err
		}
		_, _ = fmt.Fprintln(r.out, p.String())

	case ".preview":
		if len(args) < 1 || len(args) > 2 {
			return false, usage(".preview <table> [limit]")
		}
		limit := 0
		if len(args) == 2 {
			n, err := strconv.Atoi(args[1])
			if err != nil || n < 1 {
				return false, usage(".preview <table> [limit]")
			}
			limit = n
		}
		set, err := r.a.rt.Translator.Preview(ctx, r.db, args[0], r.a.previewLimit(limit))
		if err != nil {
			return false, err
		}
		return false, r.a.out.Rowset(set)

	case ".voice":
		if len(args) != 1 {
			return false, usage(".voice <file|s3://bucket/key>")
		}
		audio, err := r.a.rt.Loader.Load(ctx, args[0])
		if err != nil {
			return false, err
		}
		var review pipeline.ReviewFunc
		if r.edit && r.editor != nil {
			review = r.review
		}
		out, err := r.a.rt.Translator.RunSpoken(ctx, r.db, audio, review)
		r.finish(out, err)

	case ".edit":
		switch {
		case len(args) == 0:
			r.edit = !r.edit
		case strings.EqualFold(args[0], "on"):
			r.edit = true
		case strings.EqualFold(args[0], "off"):
			r.edit = false
		default:
			return false, usage(".edit [on|off]")
		}
		state := "off"
		if r.edit {
			state = "on"
		}
		_, _ = fmt.Fprintf(r.out, "Edit before run: %s\n", state)

	case ".format":
		if len(args) != 1 {
			return false, usage(".format <" + strings.Join(render.Formats, "|") + ">")
		}
		f, err := render.ParseFormat(args[0])
		if err != nil {
			return false, err
		}
		r.a.out = render.New(r.out, f)

	default:
		return false, errs.New(errs.ErrKindInvalidInput, fmt.Sprintf("unknown command %s (try .help)", command))
	}

	return false, nil
}

func (r *repl) completer(ctx context.Context) *readline.PrefixCompleter {
	databases := func(string) []string {
		dbs, _ := r.a.rt.Translator.Databases(ctx)
		return dbs
	}
	tables := func(string) []string {
		snap, err := r.a.rt.Translator.Schema(ctx, r.db)
		if err != nil {
			return nil
		}
		names := make([]string, 0, len(snap.Tables))
		for _, t := range snap.Tables {
			names = append(names, t.Name)
		}
		return names
	}

	formats := make([]readline.PrefixCompleterInterface, 0, len(render.Formats))
	for _, f := range render.Formats {
		formats = append(formats, readline.PcItem(f))
	}

	return readline.NewPrefixCompleter(
		readline.PcItem(".help"),
		readline.PcItem(".quit"),
		readline.PcItem(".exit"),
		readline.PcItem(".databases"),
		readline.PcItem(".use", readline.PcItemDynamic(databases)),
		readline.PcItem(".tables"),
		readline.PcItem(".schema"),
		readline.PcItem(".prompt"),
		readline.PcItem(".preview", readline.PcItemDynamic(tables)),
		readline.PcItem(".voice"),
		readline.PcItem(".edit", readline.PcItem("on"), readline.PcItem("off")),
		readline.PcItem(".format", formats...),
	)
}

func usage(s string) error {
	return errs.New(errs.ErrKindInvalidInput, "usage: "+s)
}

func printREPLHelp(w io.Writer) {
	help := `Commands:
  .databases                 List databases
  .use <database>            Switch database
  .tables                    List tables of the current database
  .schema                    Show tables and columns
  .prompt                    Show the generation prompt
  .preview <table> [limit]   Show the first rows of a table
  .voice <file|s3://b/key>   Ask with a recorded clip
  .edit [on|off]             Review generated SQL before it runs
  .format <fmt>              Output format: table, json, csv, md
  .help                      Show this help
  .quit                      Exit

Anything else is a question for the current database.`
	_, _ = fmt.Fprintln(w, help)
}
