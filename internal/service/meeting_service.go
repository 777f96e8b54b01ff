package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cwrk-planet/meeting-service/internal/broadcast"
	"github.com/cwrk-planet/meeting-service/internal/domain"
	"github.com/cwrk-planet/meeting-service/internal/engine"
	"github.com/cwrk-planet/meeting-service/internal/session"
	"github.com/cwrk-planet/meeting-service/internal/speech"
	"github.com/cwrk-planet/meeting-service/internal/whiteboard"
)

// Transcript is the outcome of one ingested utterance.
type Transcript struct {
	Text     string           `json:"transcript"`
	Speaker  string           `json:"speaker,omitempty"`
	Elements []domain.Element `json:"elements"`
	Version  uint64           `json:"version"`
}

// Status summarises the running meeting for health and status endpoints.
type Status struct {
	SessionID string           `json:"session_id"`
	State     domain.Status    `json:"status"`
	Version   uint64           `json:"version"`
	Speaker   string           `json:"current_speaker,omitempty"`
	Board     whiteboard.Stats `json:"whiteboard"`
	Broadcast broadcast.Stats  `json:"broadcast"`
}

type MeetingService struct {
	engine *engine.Engine
	hub    *broadcast.Hub
	speech speech.Adapter
	log    *slog.Logger

	transcribeOpts speech.TranscribeOptions
	synthesizeOpts speech.SynthesizeOptions
}

func NewMeetingService(eng *engine.Engine, hub *broadcast.Hub, adapter speech.Adapter, log *slog.Logger) *MeetingService {
	if log == nil {
		log = slog.Default()
	}
	return &MeetingService{
		engine:         eng,
		hub:            hub,
		speech:         adapter,
		log:            log,
		transcribeOpts: speech.TranscribeOptions{SampleRate: 16000, Encoding: "LINEAR16", Language: "en-US"},
		synthesizeOpts: speech.SynthesizeOptions{Format: "wav", Language: "en-US"},
	}
}

// SetSpeechDefaults overrides the options used when a request leaves them empty.
func (s *MeetingService) SetSpeechDefaults(t speech.TranscribeOptions, syn speech.SynthesizeOptions) {
	s.transcribeOpts = mergeTranscribe(t, s.transcribeOpts)
	s.synthesizeOpts = mergeSynthesize(syn, s.synthesizeOpts)
}

func (s *MeetingService) State() session.Snapshot {
	return s.engine.State()
}

func (s *MeetingService) Start(ctx context.Context) (session.Snapshot, error) {
	return s.engine.Start(ctx)
}

func (s *MeetingService) Next(ctx context.Context) (session.Snapshot, error) {
	return s.engine.AdvanceTurn(ctx)
}

func (s *MeetingService) End(ctx context.Context) (session.Snapshot, error) {
	return s.engine.End(ctx)
}

func (s *MeetingService) AddNote(ctx context.Context, text string) (session.Snapshot, error) {
	return s.engine.AddNote(ctx, text)
}

// SubmitSpeech transcribes audio and ingests the text for the current
// speaker. Transcription happens before any state is touched, so an adapter
// failure leaves the session as it was.
func (s *MeetingService) SubmitSpeech(ctx context.Context, audio []byte, opts speech.TranscribeOptions) (Transcript, error) {
	if len(audio) == 0 {
		return Transcript{}, fmt.Errorf("%w: empty audio", domain.ErrInvalidInput)
	}
	text, err := s.speech.Transcribe(ctx, audio, mergeTranscribe(opts, s.transcribeOpts))
	if err != nil {
		s.log.Error("transcription failed", "err", err, "bytes", len(audio))
		return Transcript{}, err
	}
	return s.SubmitTranscript(ctx, text)
}

// SubmitTranscript ingests text that was already transcribed. Blank text
// commits nothing and returns the current version.
func (s *MeetingService) SubmitTranscript(ctx context.Context, text string) (Transcript, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		snap := s.engine.State()
		if snap.Status == domain.StatusEnded {
			return Transcript{}, domain.ErrSessionEnded
		}
		return Transcript{Speaker: snap.SpeakerName(), Elements: []domain.Element{}, Version: snap.Version}, nil
	}

	snap, emitted, err := s.engine.IngestTranscript(ctx, text)
	if err != nil {
		return Transcript{}, err
	}
	if len(emitted) > 0 {
		s.log.Info("transcript produced whiteboard elements", "count", len(emitted), "version", snap.Version)
	}
	return Transcript{
		Text:     text,
		Speaker:  snap.SpeakerName(),
		Elements: emitted,
		Version:  snap.Version,
	}, nil
}

// Announce synthesizes a prompt naming the participant who holds the turn.
func (s *MeetingService) Announce(ctx context.Context) ([]byte, string, error) {
	snap := s.engine.State()
	if snap.Status != domain.StatusActive {
		if snap.Status == domain.StatusEnded {
			return nil, "", domain.ErrSessionEnded
		}
		return nil, "", fmt.Errorf("%w: meeting has not started", domain.ErrInvalidTransition)
	}
	name := snap.SpeakerName()
	if name == "" {
		return nil, "", fmt.Errorf("%w: no current speaker", domain.ErrInvalidTransition)
	}

	audio, err := s.speech.Synthesize(ctx, fmt.Sprintf("%s, it's your turn to speak.", name), s.synthesizeOpts)
	if err != nil {
		s.log.Error("synthesis failed", "err", err)
		return nil, "", err
	}
	return audio, s.synthesizeOpts.Format, nil
}

// Subscribe registers a live viewer. The initial snapshot is taken under the
// engine lock, so the first update the viewer receives is strictly newer.
func (s *MeetingService) Subscribe() (*broadcast.Subscription, error) {
	var sub *broadcast.Subscription
	err := s.engine.Observe(func(snap session.Snapshot) (err error) {
		sub, err = s.hub.Subscribe(snap)
		return err
	})
	if err != nil {
		return nil, err
	}
	return sub, nil
}

func (s *MeetingService) Unsubscribe(sub *broadcast.Subscription) {
	s.hub.Unsubscribe(sub)
}

func (s *MeetingService) Status() Status {
	snap := s.engine.State()
	st := Status{
		SessionID: snap.ID,
		State:     snap.Status,
		Version:   snap.Version,
		Speaker:   snap.SpeakerName(),
		Board:     s.engine.Stats(),
		Broadcast: s.hub.Stats(),
	}
	return st
}

func mergeTranscribe(o, def speech.TranscribeOptions) speech.TranscribeOptions {
	if o.SampleRate == 0 {
		o.SampleRate = def.SampleRate
	}
	if o.Encoding == "" {
		o.Encoding = def.Encoding
	}
	if o.Language == "" {
		o.Language = def.Language
	}
	return o
}

func mergeSynthesize(o, def speech.SynthesizeOptions) speech.SynthesizeOptions {
	if o.Voice == "" {
		o.Voice = def.Voice
	}
	if o.Format == "" {
		o.Format = def.Format
	}
	if o.Language == "" {
		o.Language = def.Language
	}
	return o
}
