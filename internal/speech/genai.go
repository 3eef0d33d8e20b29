package speech

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/koustreak/askdb/internal/logger"
	"google.golang.org/genai"
)

// DefaultModel is used when no transcription model is configured.
const DefaultModel = "gemini-2.5-flash"

// unintelligibleMarker is what the model is told to answer when it hears no
// speech.
const unintelligibleMarker = "UNINTELLIGIBLE"

const instruction = "Transcribe the spoken question in this audio clip verbatim. " +
	"Return only the transcript text. If no speech can be recognised, return exactly " + unintelligibleMarker + "."

// GenAI implements Transcriber with a multimodal Gemini model.
type GenAI struct {
	client  *genai.Client
	model   string
	timeout time.Duration
	log     *logger.Logger
}

var _ Transcriber = (*GenAI)(nil)

// NewGenAI creates a transcriber. An empty model selects DefaultModel.
func NewGenAI(client *genai.Client, model string, timeout time.Duration, log *logger.Logger) *GenAI {
	if model == "" {
		model = DefaultModel
	}
	if log == nil {
		log = logger.Nop()
	}
	return &GenAI{client: client, model: model, timeout: timeout, log: log}
}

// Transcribe sends the clip inline and returns the trimmed transcript.
func (g *GenAI) Transcribe(ctx context.Context, audio Audio) (string, error) {
	if len(audio.Data) == 0 {
		return "", fmt.Errorf("%w: empty audio", ErrUnintelligible)
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromText(instruction),
			genai.NewPartFromBytes(audio.Data, audio.MIMEType),
		}, genai.RoleUser),
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](0),
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" || strings.EqualFold(strings.Trim(text, "."), unintelligibleMarker) {
		return "", ErrUnintelligible
	}

	g.log.With().Str("model", g.model).Int("chars", len(text)).Logger().Debug("audio transcribed")
	return text, nil
}
