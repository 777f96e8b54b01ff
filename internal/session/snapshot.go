package session

import (
	"maps"
	"slices"
	"time"

	"github.com/cwrk-planet/meeting-service/internal/domain"
)

// Snapshot is a consistent, detached copy of a Session.
type Snapshot struct {
	ID             string                `json:"id"`
	Version        uint64                `json:"version"`
	Status         domain.Status         `json:"status"`
	Participants   []domain.Participant  `json:"participants"`
	CurrentSpeaker *string               `json:"current_speaker"`
	Agenda         []string              `json:"agenda"`
	Notes          []string              `json:"notes"`
	Whiteboard     domain.WhiteboardData `json:"whiteboard"`
	Memory         map[string]string     `json:"memory"`
	StartedAt      *time.Time            `json:"started_at,omitempty"`
	EndedAt        *time.Time            `json:"ended_at,omitempty"`
}

func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		ID:           s.ID,
		Version:      s.Version,
		Status:       s.Status,
		Participants: slices.Clone(s.Participants),
		Agenda:       slices.Clone(s.Agenda),
		Notes:        slices.Clone(s.Notes),
		Whiteboard:   domain.WhiteboardData{Elements: s.Board.Elements()},
		Memory:       maps.Clone(s.Memory),
	}
	if s.CurrentSpeaker != "" {
		id := s.CurrentSpeaker
		snap.CurrentSpeaker = &id
	}
	if !s.StartedAt.IsZero() {
		t := s.StartedAt
		snap.StartedAt = &t
	}
	if !s.EndedAt.IsZero() {
		t := s.EndedAt
		snap.EndedAt = &t
	}
	return snap
}

// SpeakerName resolves the current speaker's display name, or "".
func (s Snapshot) SpeakerName() string {
	if s.CurrentSpeaker == nil {
		return ""
	}
	for _, p := range s.Participants {
		if p.ID == *s.CurrentSpeaker {
			return p.Name
		}
	}
	return ""
}
