package cli

import (
	"fmt"
	"strconv"

	"github.com/koustreak/askdb/internal/database"
	"github.com/koustreak/askdb/internal/errs"
	"github.com/koustreak/askdb/internal/filestore"
	"github.com/spf13/cobra"
)

func newDatabasesCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "databases",
		Aliases: []string{"dbs"},
		Short:   "List the databases visible to the configured user",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dbs, err := a.rt.Translator.Databases(cmd.Context())
			if err != nil {
				return err
			}
			return a.out.List("database", dbs)
		},
	}
}

func newSchemaCommand(a *app) *cobra.Command {
	var showPrompt bool

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Show the live schema of the selected database",
		Long: `Show the tables and columns of the selected database exactly as they are
fed to the model. With --prompt, print the full prompt instead.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if showPrompt {
				p, err := a.rt.Translator.Prompt(cmd.Context(), a.database)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), p.String())
				return err
			}

			snap, err := a.rt.Translator.Schema(cmd.Context(), a.database)
			if err != nil {
				return err
			}
			return a.out.Snapshot(snap)
		},
	}

	cmd.Flags().BoolVar(&showPrompt, "prompt", false, "print the generation prompt built from the schema")
	return cmd
}

func newPreviewCommand(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "preview <table>",
		Short: "Show the first rows of a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			set, err := a.rt.Translator.Preview(cmd.Context(), a.database, args[0], a.previewLimit(limit))
			if err != nil {
				return err
			}
			return a.out.Rowset(set)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "number of rows (default: execution.preview_limit)")
	return cmd
}

func newClipsCommand(a *app) *cobra.Command {
	opts := filestore.ListOptions{}
	var bucket string

	cmd := &cobra.Command{
		Use:   "clips",
		Short: "List recorded voice clips in object storage",
		Example: `  askdb clips --prefix 2024/
  askdb ask -d shop --audio s3://clips/2024/question.wav`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.rt.Store == nil {
				return errs.New(errs.ErrKindInvalidInput, "object storage is not configured (set MINIO_ENDPOINT)")
			}
			if bucket == "" {
				bucket = a.cfg.Storage.Bucket
			}
			if bucket == "" {
				return errs.New(errs.ErrKindInvalidInput, "no bucket given (use --bucket or MINIO_BUCKET)")
			}

			objs, err := a.rt.Store.ListObjects(cmd.Context(), bucket, opts)
			if err != nil {
				return err
			}
			return a.out.Rowset(clipRowset(bucket, objs))
		},
	}

	cmd.Flags().StringVar(&bucket, "bucket", "", "bucket to list (default: storage.bucket)")
	cmd.Flags().StringVar(&opts.Prefix, "prefix", "", "only list keys with this prefix")
	cmd.Flags().IntVar(&opts.Limit, "limit", 100, "maximum number of clips")
	return cmd
}

func clipRowset(bucket string, objs []filestore.ObjectInfo) *database.Rowset {
	set := &database.Rowset{
		Columns: []string{"ref", "size", "content_type", "last_modified"},
		Rows:    make([][]any, 0, len(objs)),
	}
	for _, o := range objs {
		ref := filestore.Ref{Bucket: bucket, Key: o.Key}
		set.Rows = append(set.Rows, []any{
			ref.String(),
			strconv.FormatInt(o.Size, 10),
			o.ContentType,
			o.LastModified.UTC().Format("2006-01-02 15:04:05"),
		})
	}
	return set
}
