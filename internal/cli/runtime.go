package cli

import (
	"context"
	"fmt"

	"github.com/koustreak/askdb/internal/config"
	"github.com/koustreak/askdb/internal/database"
	"github.com/koustreak/askdb/internal/database/mysql"
	"github.com/koustreak/askdb/internal/database/postgres"
	"github.com/koustreak/askdb/internal/errs"
	"github.com/koustreak/askdb/internal/filestore"
	"github.com/koustreak/askdb/internal/filestore/minio"
	"github.com/koustreak/askdb/internal/gateway"
	"github.com/koustreak/askdb/internal/generation"
	"github.com/koustreak/askdb/internal/logger"
	"github.com/koustreak/askdb/internal/pipeline"
	"github.com/koustreak/askdb/internal/prompt"
	"github.com/koustreak/askdb/internal/schema"
	"github.com/koustreak/askdb/internal/speech"
	"google.golang.org/genai"
)

// Runtime holds the collaborators shared by every command.
type Runtime struct {
	Config     *config.Config
	Log        *logger.Logger
	Translator *pipeline.Translator
	Loader     *speech.Loader
	Store      filestore.Store // nil when storage is not configured
}

// Close releases the object storage client.
func (r *Runtime) Close() error {
	if r.Store == nil {
		return nil
	}
	return r.Store.Close()
}

// Builder constructs a Runtime from loaded configuration.
type Builder func(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Runtime, error)

// BuildRuntime wires the production collaborators. Without an API key
// the runtime still serves inspection commands; asking a question then
// fails with ErrKindInvalidInput.
func BuildRuntime(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Runtime, error) {
	connector, err := newConnector(cfg.Database())
	if err != nil {
		return nil, err
	}

	var client *genai.Client
	if cfg.Model.APIKey != "" {
		client, err = generation.NewClient(ctx, generation.ClientConfig{
			APIKey:  cfg.Model.APIKey,
			BaseURL: cfg.Model.BaseURL,
		})
		if err != nil {
			return nil, err
		}
	}

	var backend generation.Backend = missingKey{}
	var transcriber speech.Transcriber
	if client != nil {
		backend = generation.NewGenAI(client, cfg.Model.Name,
			generation.WithTimeout(cfg.Model.Timeout),
			generation.WithLogger(log),
		)
		if cfg.Speech.Enabled {
			transcriber = speech.NewGenAI(client, cfg.SpeechModel(), cfg.Speech.Timeout, log)
		}
	}

	var store filestore.Store
	if fc := cfg.FileStore(); fc.Enabled() {
		d, err := minio.New(ctx, fc)
		if err != nil {
			return nil, err
		}
		store = d
		log.With().Str("endpoint", fc.Endpoint).Str("bucket", fc.Bucket).Logger().Debug("object storage ready")
	}

	tr := pipeline.New(pipeline.Deps{
		Connector: connector,
		Schema:    schema.NewProvider(log),
		Backend:   backend,
		Gateway: gateway.New(gateway.Options{
			Strict:  cfg.Execution.Strict,
			Timeout: cfg.Execution.Timeout,
			Logger:  log,
		}),
		Transcriber: transcriber,
		Logger:      log,
	})

	return &Runtime{
		Config:     cfg,
		Log:        log,
		Translator: tr,
		Loader:     speech.NewLoader(store, cfg.Storage.Bucket),
		Store:      store,
	}, nil
}

func newConnector(cfg *database.Config) (database.Connector, error) {
	switch cfg.Driver {
	case database.DriverMySQL:
		return mysql.NewConnector(cfg), nil
	case database.DriverPostgres:
		return postgres.NewConnector(cfg), nil
	default:
		return nil, errs.New(errs.ErrKindInvalidInput, fmt.Sprintf("unsupported driver %q", cfg.Driver))
	}
}

// missingKey stands in for the generation backend when no API key is set.
type missingKey struct{}

func (missingKey) Generate(context.Context, prompt.Prompt, string) (string, error) {
	return "", errs.New(errs.ErrKindInvalidInput, "GOOGLE_API_KEY is not set")
}
