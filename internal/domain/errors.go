package domain

import "errors"

var (
	ErrInvalidTransition = errors.New("transition not allowed in current status")
	ErrSessionEnded      = errors.New("session has ended")
	ErrInvalidInput      = errors.New("invalid input")

	ErrDuplicateID       = errors.New("element id already exists")
	ErrNotFound          = errors.New("element not found")
	ErrDanglingReference = errors.New("element is referenced by a connector")
	ErrInvalidElement    = errors.New("invalid element")

	ErrTranscriptionUnavailable = errors.New("transcription unavailable")
	ErrSynthesisUnavailable     = errors.New("speech synthesis unavailable")
)
