// Package session holds the authoritative state of one meeting.
//
// A Session is plain data plus transition methods. It performs no locking:
// the engine serializes access and applies every transition to a Clone so a
// failed transition never leaves partial changes behind.
package session

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/cwrk-planet/meeting-service/internal/domain"
	"github.com/cwrk-planet/meeting-service/internal/whiteboard"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var validate = validator.New()

var ErrNoParticipants = errors.New("session needs at least one participant")

type Options struct {
	Participants []domain.Participant `validate:"unique=ID,dive"`
	Agenda       []string
	// Elements seed the board before the meeting starts.
	Elements []domain.Element
}

type Session struct {
	ID             string
	Status         domain.Status
	Participants   []domain.Participant
	CurrentSpeaker string // participant id, empty when unset
	Agenda         []string
	Notes          []string
	Board          *whiteboard.Store
	Memory         map[string]string // participant id -> latest transcript
	Version        uint64
	StartedAt      time.Time
	EndedAt        time.Time
}

func New(opts Options) (*Session, error) {
	if len(opts.Participants) == 0 {
		return nil, ErrNoParticipants
	}
	if err := validate.Struct(opts); err != nil {
		return nil, fmt.Errorf("invalid participants: %w", err)
	}

	board := whiteboard.New()
	if err := board.Replace(opts.Elements); err != nil {
		return nil, fmt.Errorf("initial board: %w", err)
	}

	return &Session{
		ID:           uuid.NewString(),
		Status:       domain.StatusNotStarted,
		Participants: slices.Clone(opts.Participants),
		Agenda:       append([]string{}, opts.Agenda...),
		Notes:        []string{},
		Board:        board,
		Memory:       make(map[string]string),
	}, nil
}

func (s *Session) Clone() *Session {
	c := *s
	c.Participants = slices.Clone(s.Participants)
	c.Agenda = slices.Clone(s.Agenda)
	c.Notes = slices.Clone(s.Notes)
	c.Board = s.Board.Clone()
	c.Memory = maps.Clone(s.Memory)
	return &c
}

// speakerIndex returns the position of the current speaker, or -1.
func (s *Session) speakerIndex() int {
	return slices.IndexFunc(s.Participants, func(p domain.Participant) bool {
		return p.ID == s.CurrentSpeaker
	})
}

// Speaker returns the participant holding the turn.
func (s *Session) Speaker() (domain.Participant, bool) {
	i := s.speakerIndex()
	if i < 0 {
		return domain.Participant{}, false
	}
	return s.Participants[i], true
}
