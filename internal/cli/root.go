// Package cli provides the askdb command-line interface.
package cli

import (
	"strings"

	"github.com/koustreak/askdb/internal/config"
	"github.com/koustreak/askdb/internal/errs"
	"github.com/koustreak/askdb/internal/logger"
	"github.com/koustreak/askdb/internal/render"
	"github.com/spf13/cobra"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
)

// app is the state shared by the root command and its subcommands.
type app struct {
	configFile string
	envFile    string
	database   string
	format     string
	logLevel   string

	build Builder
	cfg   *config.Config
	rt    *Runtime
	out   *render.Renderer
}

// Option customises the root command.
type Option func(*app)

// WithBuilder replaces the production runtime wiring.
func WithBuilder(b Builder) Option {
	return func(a *app) { a.build = b }
}

// NewRootCmd creates and returns the root command.
func NewRootCmd(opts ...Option) *cobra.Command {
	a := &app{build: BuildRuntime}
	for _, opt := range opts {
		opt(a)
	}

	rootCmd := &cobra.Command{
		Use:   "askdb",
		Short: "askdb - ask a database questions in plain language",
		Long: `askdb translates natural-language questions into SQL grounded on the live
schema of a MySQL or PostgreSQL database, checks the statement against an
allow-list and runs it.

Questions can be typed or spoken; both paths run the same pipeline.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if skipRuntime(cmd) {
				return nil
			}
			return a.setup(cmd)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
`)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&a.configFile, "config", "", "YAML config file")
	pf.StringVar(&a.envFile, "env-file", "", "credentials file (default: ./"+config.DefaultEnvFile+" when present)")
	pf.StringVarP(&a.database, "database", "d", "", "database to query (default: source.name)")
	pf.StringVarP(&a.format, "format", "f", "table", "output format: "+strings.Join(render.Formats, ", "))
	pf.StringVar(&a.logLevel, "log-level", "", "log level override: debug, info, warn, error")

	_ = rootCmd.RegisterFlagCompletionFunc("format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return render.Formats, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(newVersionCommand())
	rootCmd.AddCommand(newAskCommand(a))
	rootCmd.AddCommand(newREPLCommand(a))
	rootCmd.AddCommand(newServeCommand(a))
	rootCmd.AddCommand(newDatabasesCommand(a))
	rootCmd.AddCommand(newSchemaCommand(a))
	rootCmd.AddCommand(newPreviewCommand(a))
	rootCmd.AddCommand(newClipsCommand(a))

	// Cobra skips post-run hooks when RunE fails, so release the runtime here.
	for _, c := range rootCmd.Commands() {
		if c.RunE != nil {
			c.RunE = a.closing(c.RunE)
		}
	}

	return rootCmd
}

// closing wraps run so the runtime is released whether or not it fails.
func (a *app) closing(run func(*cobra.Command, []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		defer func() {
			if a.rt == nil {
				return
			}
			if cerr := a.rt.Close(); err == nil {
				err = cerr
			}
			a.rt = nil
		}()
		return run(cmd, args)
	}
}

func skipRuntime(cmd *cobra.Command) bool {
	switch cmd.Name() {
	case "help", "completion", "__complete", "version":
		return true
	}
	return false
}

// setup loads configuration and builds the runtime once per invocation.
func (a *app) setup(cmd *cobra.Command) error {
	format, err := render.ParseFormat(a.format)
	if err != nil {
		return err
	}
	a.out = render.New(cmd.OutOrStdout(), format)

	cfg, err := config.Load(config.Options{File: a.configFile, EnvFile: a.envFile})
	if err != nil {
		return errs.Wrap(errs.ErrKindInvalidInput, "cannot load configuration", err)
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if a.database == "" {
		a.database = cfg.Source.Name
	}
	a.cfg = cfg

	lc := cfg.Logger()
	lc.Output = cmd.ErrOrStderr()
	log := logger.New(lc)

	rt, err := a.build(cmd.Context(), cfg, log)
	if err != nil {
		return err
	}
	a.rt = rt
	return nil
}

// previewLimit picks the explicit limit or the configured default.
func (a *app) previewLimit(n int) int {
	if n > 0 {
		return n
	}
	return a.cfg.Execution.PreviewLimit
}
