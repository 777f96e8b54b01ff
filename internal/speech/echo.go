package speech

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/cwrk-planet/meeting-service/internal/domain"
)

// EchoAdapter treats audio as UTF-8 text. Used for local runs without a
// speech backend.
type EchoAdapter struct{}

func (EchoAdapter) Transcribe(_ context.Context, audio []byte, _ TranscribeOptions) (string, error) {
	if !utf8.Valid(audio) {
		return "", fmt.Errorf("%w: echo adapter needs utf-8 input", domain.ErrTranscriptionUnavailable)
	}
	return strings.TrimSpace(string(audio)), nil
}

func (EchoAdapter) Synthesize(_ context.Context, text string, _ SynthesizeOptions) ([]byte, error) {
	return []byte(text), nil
}
