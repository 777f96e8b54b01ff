package session

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/cwrk-planet/meeting-service/internal/domain"
)

// Guard fails unless the session is in one of the allowed statuses.
// An ended session always reports ErrSessionEnded.
func (s *Session) Guard(allowed ...domain.Status) error {
	if s.Status == domain.StatusEnded {
		return domain.ErrSessionEnded
	}
	if !slices.Contains(allowed, s.Status) {
		return fmt.Errorf("%w: session is %s", domain.ErrInvalidTransition, s.Status)
	}
	return nil
}

// Start opens the meeting and hands the turn to the first participant.
func (s *Session) Start(now time.Time) error {
	if err := s.Guard(domain.StatusNotStarted); err != nil {
		return err
	}
	s.Status = domain.StatusActive
	s.CurrentSpeaker = s.Participants[0].ID
	s.StartedAt = now
	return nil
}

// AdvanceTurn moves the turn round-robin in participant order. When the
// current speaker is unset or unknown the turn falls back to the first
// participant and fellBack is true.
func (s *Session) AdvanceTurn() (fellBack bool, err error) {
	if err := s.Guard(domain.StatusActive); err != nil {
		return false, err
	}

	i := s.speakerIndex()
	if i < 0 {
		s.CurrentSpeaker = s.Participants[0].ID
		return true, nil
	}
	s.CurrentSpeaker = s.Participants[(i+1)%len(s.Participants)].ID
	return false, nil
}

// End closes the meeting. Legal while active, or before start as an abort.
func (s *Session) End(now time.Time) error {
	if err := s.Guard(domain.StatusActive, domain.StatusNotStarted); err != nil {
		return err
	}
	s.Status = domain.StatusEnded
	s.EndedAt = now
	return nil
}

// Rule produces one element for a matching transcript.
type Rule interface {
	Element(speaker domain.Participant, transcript, suffix string) domain.Element
}

// Ingest records text for the current speaker and appends one element per
// matching rule. suffix must return a fresh value on every call.
func (s *Session) Ingest(text string, rules []Rule, suffix func() string) ([]domain.Element, error) {
	if err := s.Guard(domain.StatusActive); err != nil {
		return nil, err
	}
	speaker, ok := s.Speaker()
	if !ok {
		return nil, fmt.Errorf("%w: no current speaker", domain.ErrInvalidTransition)
	}

	s.Memory[speaker.ID] = text
	s.Notes = append(s.Notes, speaker.Name+": "+text)

	emitted := make([]domain.Element, 0, len(rules))
	for _, r := range rules {
		el, err := s.Board.Append(r.Element(speaker, text, suffix()))
		if err != nil {
			return nil, err
		}
		emitted = append(emitted, el)
	}
	return emitted, nil
}

// AddNote appends a free-form entry to the meeting log.
func (s *Session) AddNote(text string) error {
	if err := s.Guard(domain.StatusNotStarted, domain.StatusActive); err != nil {
		return err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("%w: empty note", domain.ErrInvalidInput)
	}
	s.Notes = append(s.Notes, text)
	return nil
}

// EditBoard runs fn against the whiteboard unless the meeting has ended.
func (s *Session) EditBoard(fn func() error) error {
	if err := s.Guard(domain.StatusNotStarted, domain.StatusActive); err != nil {
		return err
	}
	return fn()
}
