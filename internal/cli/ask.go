package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/koustreak/askdb/internal/errs"
	"github.com/koustreak/askdb/internal/pipeline"
	"github.com/koustreak/askdb/internal/statement"
	"github.com/spf13/cobra"
)

type askOptions struct {
	audio string
	edit  bool
}

func newAskCommand(a *app) *cobra.Command {
	opts := &askOptions{}

	cmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "Translate a question into SQL and run it",
		Long: `Translate a question into SQL against the selected database and run it.

Read-only statements (SELECT, SHOW, DESCRIBE) print their rows. INSERT,
UPDATE and DELETE run in a transaction and print an acknowledgement. Anything
else is rejected without touching the database.`,
		Example: `  askdb ask -d shop "How many users signed up?"
  askdb ask -d shop --edit "Delete the user with id 4"
  askdb ask -d shop --audio question.wav
  askdb ask -d shop --audio s3://clips/2024/question.ogg`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runAsk(cmd, args, opts)
		},
	}

	cmd.Flags().StringVar(&opts.audio, "audio", "", "ask with a recorded clip: a local file or s3://bucket/key")
	cmd.Flags().BoolVar(&opts.edit, "edit", false, "review and optionally rewrite the generated SQL before it runs")

	return cmd
}

func (a *app) runAsk(cmd *cobra.Command, args []string, opts *askOptions) error {
	ctx := cmd.Context()
	question := strings.TrimSpace(strings.Join(args, " "))

	var review pipeline.ReviewFunc
	if opts.edit {
		review = lineReview(bufio.NewReader(cmd.InOrStdin()), cmd.ErrOrStderr())
	}

	if opts.audio != "" {
		if question != "" {
			return errs.New(errs.ErrKindInvalidInput, "give either a question or --audio, not both")
		}
		audio, err := a.rt.Loader.Load(ctx, opts.audio)
		if err != nil {
			return err
		}
		out, err := a.rt.Translator.RunSpoken(ctx, a.database, audio, review)
		return a.report(out, err)
	}

	if question == "" {
		return errs.New(errs.ErrKindInvalidInput, "a question is required")
	}
	out, err := a.rt.Translator.Run(ctx, pipeline.Request{Source: a.database, Query: question, Review: review})
	return a.report(out, err)
}

// report renders what the request produced. On failure only the
// statement is shown; the error itself is printed by the caller.
func (a *app) report(out *pipeline.Outcome, err error) error {
	if out != nil {
		shown := *out
		if err != nil {
			shown.Result = nil
		}
		if rerr := a.out.Outcome(&shown); rerr != nil {
			return rerr
		}
	}
	return err
}

// lineReview shows the generated statement and reads one line from r.
// An empty line keeps the statement.
func lineReview(r *bufio.Reader, w io.Writer) pipeline.ReviewFunc {
	return func(_ context.Context, stmt string, class statement.Class) (string, error) {
		_, _ = fmt.Fprintf(w, "Generated SQL (%s):\n  %s\n", class, stmt)
		_, _ = fmt.Fprint(w, "Press Enter to run it, or type a replacement: ")

		line, err := r.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", err
		}
		if line = strings.TrimSpace(line); line != "" {
			return line, nil
		}
		return stmt, nil
	}
}
