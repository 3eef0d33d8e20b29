// Package speech turns recorded audio into the question text fed to the
// translation pipeline.
package speech

import (
	"context"
	"errors"
)

var (
	// ErrUnintelligible means the audio was received but no speech could be
	// recognised.
	ErrUnintelligible = errors.New("speech could not be understood")

	// ErrServiceUnavailable means the transcription service could not be
	// reached or refused the request.
	ErrServiceUnavailable = errors.New("speech service unavailable")
)

// Audio is one recorded clip.
type Audio struct {
	Data     []byte
	MIMEType string
}

// Transcriber converts audio to text. Failures wrap ErrUnintelligible or
// ErrServiceUnavailable.
type Transcriber interface {
	Transcribe(ctx context.Context, audio Audio) (string, error)
}

// TranscriberFunc adapts a function to the Transcriber interface.
type TranscriberFunc func(ctx context.Context, audio Audio) (string, error)

func (f TranscriberFunc) Transcribe(ctx context.Context, audio Audio) (string, error) {
	return f(ctx, audio)
}
