package mcpx

import (
	"context"
	"fmt"
	"time"

	"github.com/cwrk-planet/meeting-service/internal/domain"
	"github.com/cwrk-planet/meeting-service/internal/session"
	"github.com/cwrk-planet/meeting-service/internal/whiteboard"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// EmptyInput is the input of tools that take no arguments.
type EmptyInput struct{}

// BoardResult lists whiteboard elements in display order.
type BoardResult struct {
	Elements []domain.Element `json:"elements" jsonschema:"elements in display order"`
}

// ElementResult wraps a single element.
type ElementResult struct {
	Element domain.Element `json:"element" jsonschema:"the element"`
}

// ElementIDInput addresses one element.
type ElementIDInput struct {
	ID string `json:"id" jsonschema:"element identifier"`
}

type StickyNoteInput struct {
	ID    string  `json:"id,omitempty" jsonschema:"optional element identifier, generated when empty"`
	Text  string  `json:"text" jsonschema:"text content of the sticky note"`
	X     float64 `json:"x" jsonschema:"X coordinate"`
	Y     float64 `json:"y" jsonschema:"Y coordinate"`
	Color string  `json:"color,omitempty" jsonschema:"note color, yellow when empty"`
}

type ShapeInput struct {
	ID    string  `json:"id,omitempty" jsonschema:"optional element identifier, generated when empty"`
	Label string  `json:"label" jsonschema:"label text"`
	Shape string  `json:"shape,omitempty" jsonschema:"rectangle, diamond, circle or ellipse"`
	X     float64 `json:"x" jsonschema:"X coordinate"`
	Y     float64 `json:"y" jsonschema:"Y coordinate"`
}

type DiagramInput struct {
	ID          string  `json:"id,omitempty" jsonschema:"optional element identifier, generated when empty"`
	MermaidCode string  `json:"mermaidCode" jsonschema:"mermaid diagram source"`
	X           float64 `json:"x" jsonschema:"X coordinate"`
	Y           float64 `json:"y" jsonschema:"Y coordinate"`
}

type LinkInput struct {
	ID        string  `json:"id,omitempty" jsonschema:"optional element identifier, generated when empty"`
	URL       string  `json:"url" jsonschema:"URL to embed"`
	EmbedType string  `json:"embedType,omitempty" jsonschema:"iframe or video"`
	X         float64 `json:"x" jsonschema:"X coordinate"`
	Y         float64 `json:"y" jsonschema:"Y coordinate"`
}

type ConnectInput struct {
	FromID string `json:"fromId" jsonschema:"source element; when it is a connector the target is added to it"`
	ToID   string `json:"toId" jsonschema:"target element"`
}

type ConnectResult struct {
	ConnectorID string `json:"connectorId" jsonschema:"connector that now links the elements"`
}

type UpdateElementInput struct {
	ID    string              `json:"id" jsonschema:"element identifier"`
	Patch domain.ElementPatch `json:"updates" jsonschema:"fields to change, omitted fields are kept"`
}

type StatusResult struct {
	Status string `json:"status"`
}

type SearchInput struct {
	Query string `json:"query" jsonschema:"text to search for in element content"`
}

// MeetingStateResult is the turn-taking view of the meeting.
type MeetingStateResult struct {
	SessionID      string   `json:"session_id"`
	Status         string   `json:"status" jsonschema:"not_started, active or ended"`
	Version        uint64   `json:"version"`
	CurrentSpeaker string   `json:"current_speaker,omitempty" jsonschema:"display name of the participant holding the turn"`
	Participants   []string `json:"participants" jsonschema:"display names in turn order"`
	Agenda         []string `json:"agenda"`
	Notes          []string `json:"notes"`
	StartedAt      string   `json:"started_at,omitempty" jsonschema:"RFC3339 start time"`
}

func getWhiteboardTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "get_whiteboard",
		Description: "Returns every element on the whiteboard in display order.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}
}

func getElementTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "get_element",
		Description: "Returns one whiteboard element by id.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}
}

func createStickyNoteTool() *mcp.Tool {
	return &mcp.Tool{Name: "create_sticky_note", Description: "Creates a sticky note on the whiteboard."}
}

func createShapeTool() *mcp.Tool {
	return &mcp.Tool{Name: "create_shape", Description: "Creates a labelled flow chart shape on the whiteboard."}
}

func createDiagramTool() *mcp.Tool {
	return &mcp.Tool{Name: "create_diagram", Description: "Creates a Mermaid diagram on the whiteboard."}
}

func createLinkTool() *mcp.Tool {
	return &mcp.Tool{Name: "create_link", Description: "Embeds a link or video on the whiteboard."}
}

func connectElementsTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "connect_elements",
		Description: "Connects two elements. Extends an existing connector, or draws a new one between two elements.",
	}
}

func updateElementTool() *mcp.Tool {
	return &mcp.Tool{Name: "update_element", Description: "Changes fields of an existing element. The id and type never change."}
}

func removeElementTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "remove_element",
		Description: "Removes an element. Fails while a connector still references it.",
	}
}

func clearWhiteboardTool() *mcp.Tool {
	return &mcp.Tool{Name: "clear_whiteboard", Description: "Removes every element from the whiteboard."}
}

func searchElementsTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "search_elements",
		Description: "Finds elements whose text, label, diagram code or URL contains the query, ignoring case.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}
}

func whiteboardStatsTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "whiteboard_stats",
		Description: "Counts whiteboard elements by type and the total number of connections.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}
}

func meetingStateTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "meeting_state",
		Description: "Reports meeting status, the current speaker, the agenda and the running notes.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}
}

func nextSpeakerTool() *mcp.Tool {
	return &mcp.Tool{Name: "next_speaker", Description: "Hands the turn to the next participant."}
}

func (s *Server) getWhiteboard(_ context.Context, _ *mcp.CallToolRequest, _ EmptyInput) (*mcp.CallToolResult, BoardResult, error) {
	return nil, BoardResult{Elements: s.boardSvc.Board().Elements}, nil
}

func (s *Server) getElement(_ context.Context, _ *mcp.CallToolRequest, in ElementIDInput) (*mcp.CallToolResult, ElementResult, error) {
	el, err := s.boardSvc.Get(in.ID)
	if err != nil {
		return nil, ElementResult{}, err
	}
	return nil, ElementResult{Element: el}, nil
}

func (s *Server) add(ctx context.Context, el domain.Element) (*mcp.CallToolResult, ElementResult, error) {
	added, err := s.boardSvc.Add(ctx, el)
	if err != nil {
		return nil, ElementResult{}, err
	}
	return nil, ElementResult{Element: added}, nil
}

func (s *Server) createStickyNote(ctx context.Context, _ *mcp.CallToolRequest, in StickyNoteInput) (*mcp.CallToolResult, ElementResult, error) {
	return s.add(ctx, domain.Element{ID: in.ID, Kind: domain.KindSticky, X: in.X, Y: in.Y, Text: in.Text, Color: in.Color})
}

func (s *Server) createShape(ctx context.Context, _ *mcp.CallToolRequest, in ShapeInput) (*mcp.CallToolResult, ElementResult, error) {
	return s.add(ctx, domain.Element{ID: in.ID, Kind: domain.KindShape, X: in.X, Y: in.Y, Label: in.Label, Shape: domain.ShapeKind(in.Shape)})
}

func (s *Server) createDiagram(ctx context.Context, _ *mcp.CallToolRequest, in DiagramInput) (*mcp.CallToolResult, ElementResult, error) {
	return s.add(ctx, domain.Element{ID: in.ID, Kind: domain.KindDiagram, X: in.X, Y: in.Y, DiagramCode: in.MermaidCode})
}

func (s *Server) createLink(ctx context.Context, _ *mcp.CallToolRequest, in LinkInput) (*mcp.CallToolResult, ElementResult, error) {
	return s.add(ctx, domain.Element{ID: in.ID, Kind: domain.KindLink, X: in.X, Y: in.Y, URL: in.URL, EmbedType: domain.EmbedType(in.EmbedType)})
}

func (s *Server) connectElements(ctx context.Context, _ *mcp.CallToolRequest, in ConnectInput) (*mcp.CallToolResult, ConnectResult, error) {
	from, err := s.boardSvc.Get(in.FromID)
	if err != nil {
		return nil, ConnectResult{}, err
	}
	if from.Kind == domain.KindConnector {
		if err := s.boardSvc.Connect(ctx, from.ID, in.ToID); err != nil {
			return nil, ConnectResult{}, err
		}
		return nil, ConnectResult{ConnectorID: from.ID}, nil
	}

	to, err := s.boardSvc.Get(in.ToID)
	if err != nil {
		return nil, ConnectResult{}, err
	}
	conn, err := s.boardSvc.Add(ctx, domain.Element{
		Kind:        domain.KindConnector,
		X:           (from.X + to.X) / 2,
		Y:           (from.Y + to.Y) / 2,
		Connections: []string{from.ID, to.ID},
	})
	if err != nil {
		return nil, ConnectResult{}, err
	}
	return nil, ConnectResult{ConnectorID: conn.ID}, nil
}

func (s *Server) updateElement(ctx context.Context, _ *mcp.CallToolRequest, in UpdateElementInput) (*mcp.CallToolResult, ElementResult, error) {
	el, err := s.boardSvc.Update(ctx, in.ID, in.Patch)
	if err != nil {
		return nil, ElementResult{}, err
	}
	return nil, ElementResult{Element: el}, nil
}

func (s *Server) removeElement(ctx context.Context, _ *mcp.CallToolRequest, in ElementIDInput) (*mcp.CallToolResult, StatusResult, error) {
	if err := s.boardSvc.Remove(ctx, in.ID); err != nil {
		return nil, StatusResult{}, err
	}
	return nil, StatusResult{Status: "removed"}, nil
}

func (s *Server) clearWhiteboard(ctx context.Context, _ *mcp.CallToolRequest, _ EmptyInput) (*mcp.CallToolResult, StatusResult, error) {
	if _, err := s.boardSvc.Clear(ctx); err != nil {
		return nil, StatusResult{}, err
	}
	return nil, StatusResult{Status: "cleared"}, nil
}

func (s *Server) searchElements(_ context.Context, _ *mcp.CallToolRequest, in SearchInput) (*mcp.CallToolResult, BoardResult, error) {
	return nil, BoardResult{Elements: s.boardSvc.Search(in.Query)}, nil
}

func (s *Server) whiteboardStats(_ context.Context, _ *mcp.CallToolRequest, _ EmptyInput) (*mcp.CallToolResult, whiteboard.Stats, error) {
	return nil, s.boardSvc.Stats(), nil
}

func (s *Server) meetingState(_ context.Context, _ *mcp.CallToolRequest, _ EmptyInput) (*mcp.CallToolResult, MeetingStateResult, error) {
	return nil, stateResult(s.meetingSvc.State()), nil
}

func (s *Server) nextSpeaker(ctx context.Context, _ *mcp.CallToolRequest, _ EmptyInput) (*mcp.CallToolResult, MeetingStateResult, error) {
	snap, err := s.meetingSvc.Next(ctx)
	if err != nil {
		return nil, MeetingStateResult{}, fmt.Errorf("next speaker: %w", err)
	}
	return nil, stateResult(snap), nil
}

func stateResult(snap session.Snapshot) MeetingStateResult {
	res := MeetingStateResult{
		SessionID:      snap.ID,
		Status:         string(snap.Status),
		Version:        snap.Version,
		CurrentSpeaker: snap.SpeakerName(),
		Participants:   make([]string, 0, len(snap.Participants)),
		Agenda:         append([]string{}, snap.Agenda...),
		Notes:          append([]string{}, snap.Notes...),
	}
	for _, p := range snap.Participants {
		res.Participants = append(res.Participants, p.Name)
	}
	if snap.StartedAt != nil {
		res.StartedAt = snap.StartedAt.Format(time.RFC3339)
	}
	return res
}
