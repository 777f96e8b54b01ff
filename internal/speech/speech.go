// Package speech wraps the external speech-to-text and text-to-speech services.
package speech

//go:generate mockgen -source=speech.go -destination=mocks/mock_speech.go -package=mocks

import "context"

// TranscribeOptions configures transcription.
type TranscribeOptions struct {
	SampleRate int    // Hz, e.g. 16000
	Encoding   string // e.g. LINEAR16
	Language   string // BCP-47, e.g. en-US
}

// SynthesizeOptions configures synthesis.
type SynthesizeOptions struct {
	Voice    string
	Format   string // wav, mp3, pcm
	Language string
}

// Transcriber converts audio to text. Failures wrap domain.ErrTranscriptionUnavailable.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, opts TranscribeOptions) (string, error)
}

// Synthesizer converts text to audio. Failures wrap domain.ErrSynthesisUnavailable.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string, opts SynthesizeOptions) ([]byte, error)
}

type Adapter interface {
	Transcriber
	Synthesizer
}
