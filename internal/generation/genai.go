package generation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/koustreak/askdb/internal/errs"
	"github.com/koustreak/askdb/internal/logger"
	"github.com/koustreak/askdb/internal/prompt"
	"google.golang.org/genai"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.5-flash"

// ErrEmptyResponse is returned when the model answers with no text.
var ErrEmptyResponse = errors.New("model returned no text")

// ClientConfig holds the connection settings for the Gemini API.
type ClientConfig struct {
	APIKey  string
	BaseURL string // optional endpoint override
}

// NewClient creates a Gemini API client shared by generation and
// transcription.
func NewClient(ctx context.Context, cfg ClientConfig) (*genai.Client, error) {
	if cfg.APIKey == "" {
		return nil, errs.New(errs.ErrKindInvalidInput, "GenAI API key is required")
	}

	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindBackend, "failed to create GenAI client", err)
	}
	return client, nil
}

// GenAI implements Backend on the Gemini API. The prompt is sent as the
// system instruction and the question as the single user turn.
type GenAI struct {
	client  *genai.Client
	model   string
	timeout time.Duration
	log     *logger.Logger
}

var _ Backend = (*GenAI)(nil)

// Option configures a GenAI backend.
type Option func(*GenAI)

// WithTimeout bounds each Generate call.
func WithTimeout(d time.Duration) Option {
	return func(g *GenAI) { g.timeout = d }
}

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(g *GenAI) { g.log = l }
}

// NewGenAI creates a backend for model. An empty model selects DefaultModel.
func NewGenAI(client *genai.Client, model string, opts ...Option) *GenAI {
	if model == "" {
		model = DefaultModel
	}
	g := &GenAI{client: client, model: model, log: logger.Nop()}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Model returns the configured model name.
func (g *GenAI) Model() string { return g.model }

// Generate sends one request and returns the trimmed text of the answer.
func (g *GenAI) Generate(ctx context.Context, p prompt.Prompt, query string) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	contents := []*genai.Content{
		genai.NewContentFromText(query, genai.RoleUser),
	}
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(p.String(), genai.RoleUser),
		Temperature:       genai.Ptr[float32](0),
	}

	start := time.Now()
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return "", errs.Wrap(errs.ErrKindBackend, fmt.Sprintf("generation with %s failed", g.model), err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", errs.Wrap(errs.ErrKindBackend, "generation failed", ErrEmptyResponse)
	}

	g.log.With().
		Str("model", g.model).
		Dur("latency", time.Since(start)).
		Logger().
		Debug("statement generated")

	return text, nil
}
