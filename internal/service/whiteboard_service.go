package service

import (
	"context"
	"strings"

	"github.com/cwrk-planet/meeting-service/internal/domain"
	"github.com/cwrk-planet/meeting-service/internal/engine"
	"github.com/cwrk-planet/meeting-service/internal/session"
	"github.com/cwrk-planet/meeting-service/internal/whiteboard"
)

// WhiteboardService exposes direct board edits. Every edit is a session
// transition and reaches subscribers like any other.
type WhiteboardService struct {
	engine *engine.Engine
}

func NewWhiteboardService(eng *engine.Engine) *WhiteboardService {
	return &WhiteboardService{engine: eng}
}

func (s *WhiteboardService) Board() domain.WhiteboardData {
	return s.engine.State().Whiteboard
}

func (s *WhiteboardService) Get(id string) (domain.Element, error) {
	return s.engine.FindElement(id)
}

func (s *WhiteboardService) Add(ctx context.Context, el domain.Element) (domain.Element, error) {
	el.ID = strings.TrimSpace(el.ID)
	added, _, err := s.engine.AddElement(ctx, el)
	return added, err
}

func (s *WhiteboardService) Update(ctx context.Context, id string, patch domain.ElementPatch) (domain.Element, error) {
	updated, _, err := s.engine.UpdateElement(ctx, id, patch)
	return updated, err
}

func (s *WhiteboardService) Remove(ctx context.Context, id string) error {
	_, err := s.engine.RemoveElement(ctx, id)
	return err
}

func (s *WhiteboardService) Connect(ctx context.Context, connectorID, targetID string) error {
	_, err := s.engine.Connect(ctx, connectorID, targetID)
	return err
}

func (s *WhiteboardService) Disconnect(ctx context.Context, connectorID, targetID string) error {
	_, err := s.engine.Disconnect(ctx, connectorID, targetID)
	return err
}

func (s *WhiteboardService) Clear(ctx context.Context) (session.Snapshot, error) {
	return s.engine.ClearBoard(ctx)
}

func (s *WhiteboardService) Replace(ctx context.Context, data domain.WhiteboardData) (session.Snapshot, error) {
	return s.engine.ReplaceBoard(ctx, data.Elements)
}

func (s *WhiteboardService) Search(query string) []domain.Element {
	return s.engine.Search(query)
}

func (s *WhiteboardService) Stats() whiteboard.Stats {
	return s.engine.Stats()
}
