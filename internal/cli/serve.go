package cli

import (
	"github.com/koustreak/askdb/internal/server"
	"github.com/spf13/cobra"
)

func newServeCommand(a *app) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Long: `Serve the question-answering pipeline over HTTP until interrupted.

Endpoints:
  GET  /healthz
  GET  /metrics
  GET  /v1/databases
  GET  /v1/databases/{db}/schema
  GET  /v1/databases/{db}/tables/{table}/preview?limit=n
  POST /v1/ask                   {"database": "...", "query": "..."}
  POST /v1/ask/voice?database=   raw audio body`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sc := a.cfg.Server
			if addr != "" {
				sc.Addr = addr
			}

			srv := server.New(a.rt.Translator, server.Config{
				Addr:            sc.Addr,
				ReadTimeout:     sc.ReadTimeout,
				WriteTimeout:    sc.WriteTimeout,
				ShutdownTimeout: sc.ShutdownTimeout,
				MaxAudioBytes:   sc.MaxAudioBytes,
				PreviewLimit:    a.cfg.Execution.PreviewLimit,
			}, a.rt.Log)

			return srv.Serve(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default: server.addr)")
	return cmd
}
