// Package pipeline runs the translate, classify and execute sequence for one
// natural-language request.
package pipeline

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/koustreak/askdb/internal/database"
	"github.com/koustreak/askdb/internal/errs"
	"github.com/koustreak/askdb/internal/gateway"
	"github.com/koustreak/askdb/internal/generation"
	"github.com/koustreak/askdb/internal/logger"
	"github.com/koustreak/askdb/internal/metrics"
	"github.com/koustreak/askdb/internal/prompt"
	"github.com/koustreak/askdb/internal/schema"
	"github.com/koustreak/askdb/internal/speech"
	"github.com/koustreak/askdb/internal/statement"
)

// ReviewFunc lets a human rewrite a generated statement before it runs.
// Returning the input unchanged keeps it. The result is classified again.
type ReviewFunc func(ctx context.Context, stmt string, class statement.Class) (string, error)

// Request is one natural-language question against one database.
type Request struct {
	Source string
	Query  string
	Review ReviewFunc // optional
}

// Deps are the collaborators of a Translator.
type Deps struct {
	Connector   database.Connector
	Schema      schema.Reader
	Backend     generation.Backend
	Gateway     *gateway.Gateway
	Transcriber speech.Transcriber // optional; required for RunSpoken
	Logger      *logger.Logger
}

// Translator is the single entry point shared by typed and spoken input.
// It holds no per-request state and is safe for concurrent use when its
// collaborators are.
type Translator struct {
	connector   database.Connector
	schema      schema.Reader
	backend     generation.Backend
	gateway     *gateway.Gateway
	transcriber speech.Transcriber
	log         *logger.Logger
}

// New creates a Translator.
func New(d Deps) *Translator {
	t := &Translator{
		connector:   d.Connector,
		schema:      d.Schema,
		backend:     d.Backend,
		gateway:     d.Gateway,
		transcriber: d.Transcriber,
		log:         d.Logger,
	}
	if t.log == nil {
		t.log = logger.Nop()
	}
	if t.schema == nil {
		t.schema = schema.NewProvider(t.log)
	}
	if t.gateway == nil {
		t.gateway = gateway.New(gateway.Options{Strict: true, Logger: t.log})
	}
	return t
}

// Run translates req.Query into a statement for req.Source and executes it.
//
// The returned Outcome is never nil and records how far the request got.
// A non-nil error carries exactly one of ErrKindInvalidInput,
// ErrKindSourceUnavailable, ErrKindBackend, ErrKindRejected or
// ErrKindExecution. Rejected statements also come back with a Result of
// kind gateway.KindRejected.
func (t *Translator) Run(ctx context.Context, req Request) (*Outcome, error) {
	out := &Outcome{Source: req.Source, Query: strings.TrimSpace(req.Query), Class: statement.Rejected}

	log := t.log.With().
		Str("request_id", uuid.NewString()).
		Str("source", req.Source).
		Logger()

	err := t.run(log.WithContext(ctx), req, out)
	t.observe(log, out, err)
	return out, err
}

func (t *Translator) run(ctx context.Context, req Request, out *Outcome) error {
	log := logger.FromContext(ctx)

	if out.Query == "" {
		return errs.New(errs.ErrKindInvalidInput, "question is empty")
	}
	if req.Source == "" {
		return errs.New(errs.ErrKindInvalidInput, "no database selected")
	}

	src, err := t.connector.Open(ctx, req.Source)
	if err != nil {
		return errs.Wrap(errs.ErrKindSourceUnavailable, "cannot connect to "+req.Source, err)
	}
	defer func() {
		if cerr := src.Close(); cerr != nil {
			log.With().Err(cerr).Logger().Warn("closing source failed")
		}
	}()

	snap, err := t.schema.Fetch(ctx, src)
	if err != nil {
		return asKind(errs.ErrKindSourceUnavailable, "schema fetch failed", err)
	}

	p := prompt.Build(snap)

	start := time.Now()
	stmt, err := t.backend.Generate(ctx, p, out.Query)
	metrics.ObserveGeneration(time.Since(start))
	if err != nil {
		return asKind(errs.ErrKindBackend, "generation failed", err)
	}

	out.Statement = strings.TrimSpace(stmt)
	out.Class = statement.Classify(out.Statement)
	out.Stage = StageClassified
	log.With().Str("class", out.Class.String()).Str("statement", out.Statement).Logger().Info("statement classified")

	if req.Review != nil {
		edited, err := req.Review(ctx, out.Statement, out.Class)
		if err != nil {
			return errs.Wrap(errs.ErrKindInvalidInput, "review cancelled", err)
		}
		edited = strings.TrimSpace(edited)
		if edited != out.Statement {
			out.Generated = out.Statement
			out.Statement = edited
			out.Class = statement.Classify(edited)
			log.With().Str("class", out.Class.String()).Logger().Info("edited statement reclassified")
		}
	}

	if out.Class == statement.Rejected {
		out.Stage = StageShortCircuited
	} else {
		out.Stage = StageExecuting
	}

	res, err := t.gateway.Execute(ctx, src, out.Statement, out.Class)
	if err != nil {
		return asKind(errs.ErrKindExecution, "execution failed", err)
	}
	out.Result = res

	if res.Kind == gateway.KindRejected {
		out.Stage = StageShortCircuited
		return errs.New(errs.ErrKindRejected, res.Message)
	}

	out.Stage = StageDone
	if d, ok := res.Duration(); ok {
		metrics.ObserveExecution(out.Class.String(), d)
	}
	return nil
}

// RunSpoken transcribes audio and runs the transcript like a typed
// question.
func (t *Translator) RunSpoken(ctx context.Context, source string, audio speech.Audio, review ReviewFunc) (*Outcome, error) {
	if t.transcriber == nil {
		out := &Outcome{Source: source, Class: statement.Rejected}
		return out, errs.New(errs.ErrKindInvalidInput, "voice input is not configured")
	}

	text, err := t.transcriber.Transcribe(ctx, audio)
	if err != nil {
		out := &Outcome{Source: source, Class: statement.Rejected}
		if errors.Is(err, speech.ErrUnintelligible) {
			return out, errs.Wrap(errs.ErrKindInvalidInput, "could not understand the audio", err)
		}
		return out, errs.Wrap(errs.ErrKindBackend, "transcription failed", err)
	}

	out, err := t.Run(ctx, Request{Source: source, Query: text, Review: review})
	out.Transcript = text
	return out, err
}

// Databases lists the databases visible to the configured user.
func (t *Translator) Databases(ctx context.Context) ([]string, error) {
	src, err := t.connector.Open(ctx, "")
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindSourceUnavailable, "cannot connect", err)
	}
	defer src.Close()

	dbs, err := src.ListDatabases(ctx)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindSourceUnavailable, "list databases failed", err)
	}
	return dbs, nil
}

// Schema fetches a snapshot of source without generating anything.
func (t *Translator) Schema(ctx context.Context, source string) (*schema.Snapshot, error) {
	src, err := t.open(ctx, source)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	snap, err := t.schema.Fetch(ctx, src)
	if err != nil {
		return nil, asKind(errs.ErrKindSourceUnavailable, "schema fetch failed", err)
	}
	return snap, nil
}

// Prompt returns the prompt that would be sent for source.
func (t *Translator) Prompt(ctx context.Context, source string) (prompt.Prompt, error) {
	snap, err := t.Schema(ctx, source)
	if err != nil {
		return prompt.Prompt{}, err
	}
	return prompt.Build(snap), nil
}

// Preview returns up to limit rows of table.
func (t *Translator) Preview(ctx context.Context, source, table string, limit int) (*database.Rowset, error) {
	src, err := t.open(ctx, source)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	set, err := database.Preview(ctx, src, table, limit)
	if err != nil {
		if errs.IsNotFound(err) || errs.IsInvalidInput(err) {
			return nil, err
		}
		return nil, asKind(errs.ErrKindExecution, "preview failed", err)
	}
	return set, nil
}

func (t *Translator) open(ctx context.Context, source string) (database.Source, error) {
	if source == "" {
		return nil, errs.New(errs.ErrKindInvalidInput, "no database selected")
	}
	src, err := t.connector.Open(ctx, source)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindSourceUnavailable, "cannot connect to "+source, err)
	}
	return src, nil
}

func (t *Translator) observe(log *logger.Logger, out *Outcome, err error) {
	class := "none"
	if out.Stage != StageIdle {
		class = out.Class.String()
	}

	switch {
	case err == nil:
		metrics.ObserveRequest(class, "ok")
		log.With().Str("class", class).Str("stage", out.Stage.String()).Logger().Info("request completed")
	case errs.IsRejected(err):
		metrics.ObserveRequest(class, "rejected")
		metrics.IncrementFailure(errs.KindOf(err).String())
		log.With().Str("class", class).Logger().Warn("statement rejected")
	default:
		metrics.ObserveRequest(class, "error")
		metrics.IncrementFailure(errs.KindOf(err).String())
		log.With().Str("class", class).Str("stage", out.Stage.String()).Err(err).Logger().Error("request failed")
	}
}

// asKind wraps err in kind unless it already carries it.
func asKind(kind errs.ErrKind, msg string, err error) error {
	if errs.KindOf(err) == kind {
		return err
	}
	return errs.Wrap(kind, msg, err)
}
