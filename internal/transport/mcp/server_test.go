package mcpx

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/cwrk-planet/meeting-service/internal/broadcast"
	"github.com/cwrk-planet/meeting-service/internal/domain"
	"github.com/cwrk-planet/meeting-service/internal/engine"
	"github.com/cwrk-planet/meeting-service/internal/rules"
	"github.com/cwrk-planet/meeting-service/internal/service"
	"github.com/cwrk-planet/meeting-service/internal/session"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"
)

func connect(t *testing.T) (*mcp.ClientSession, *service.MeetingService) {
	t.Helper()
	sess, err := session.New(session.Options{
		Participants: []domain.Participant{{ID: "1", Name: "Alice"}, {ID: "2", Name: "Bob"}},
		Agenda:       []string{"Updates"},
	})
	require.NoError(t, err)
	table, err := rules.NewTable(rules.Defaults())
	require.NoError(t, err)

	hub := broadcast.NewHub(broadcast.Config{}, slog.Default())
	eng := engine.New(engine.Deps{Session: sess, Rules: table, Publisher: hub})
	meeting := service.NewMeetingService(eng, hub, nil, slog.Default())
	srv := NewServer(meeting, service.NewWhiteboardService(eng), "test")

	ctx := context.Background()
	serverTransport, clientTransport := mcp.NewInMemoryTransports()
	ss, err := srv.MCP().Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ss.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "client", Version: "v0.0.1"}, nil)
	cs, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = cs.Close() })
	return cs, meeting
}

func call[T any](t *testing.T, cs *mcp.ClientSession, name string, args map[string]any) (T, *mcp.CallToolResult) {
	t.Helper()
	if args == nil {
		args = map[string]any{}
	}
	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)

	var out T
	if !res.IsError {
		raw, err := json.Marshal(res.StructuredContent)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return out, res
}

func TestListTools(t *testing.T) {
	cs, _ := connect(t)
	res, err := cs.ListTools(context.Background(), nil)
	require.NoError(t, err)

	names := make([]string, 0, len(res.Tools))
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	require.ElementsMatch(t, []string{
		"get_whiteboard", "get_element", "create_sticky_note", "create_shape", "create_diagram",
		"create_link", "connect_elements", "update_element", "remove_element", "clear_whiteboard",
		"search_elements", "whiteboard_stats", "meeting_state", "next_speaker",
	}, names)
}

func TestWhiteboardTools(t *testing.T) {
	req := require.New(t)
	cs, _ := connect(t)

	note, res := call[ElementResult](t, cs, "create_sticky_note", map[string]any{"text": "Ship it", "x": 10, "y": 10})
	req.False(res.IsError)
	req.Equal("yellow", note.Element.Color)

	shape, res := call[ElementResult](t, cs, "create_shape", map[string]any{"id": "db", "label": "Database", "shape": "circle", "x": 200, "y": 10})
	req.False(res.IsError)
	req.Equal("db", shape.Element.ID)

	_, res = call[ElementResult](t, cs, "create_diagram", map[string]any{"mermaidCode": "graph TD; A-->B", "x": 0, "y": 300})
	req.False(res.IsError)
	_, res = call[ElementResult](t, cs, "create_link", map[string]any{"url": "https://example.com/demo", "embedType": "video", "x": 400, "y": 300})
	req.False(res.IsError)

	link, res := call[ConnectResult](t, cs, "connect_elements", map[string]any{"fromId": note.Element.ID, "toId": "db"})
	req.False(res.IsError)
	req.NotEmpty(link.ConnectorID)

	_, res = call[StatusResult](t, cs, "remove_element", map[string]any{"id": "db"})
	req.True(res.IsError, "db is still referenced")

	updated, res := call[ElementResult](t, cs, "update_element", map[string]any{"id": "db", "updates": map[string]any{"label": "Postgres"}})
	req.False(res.IsError)
	req.Equal("Postgres", updated.Element.Label)

	found, _ := call[BoardResult](t, cs, "search_elements", map[string]any{"query": "postgres"})
	req.Len(found.Elements, 1)

	stats, _ := call[map[string]int](t, cs, "whiteboard_stats", nil)
	req.Equal(5, stats["totalElements"])
	req.Equal(2, stats["connections"])

	board, _ := call[BoardResult](t, cs, "get_whiteboard", nil)
	req.Len(board.Elements, 5)

	_, res = call[ElementResult](t, cs, "get_element", map[string]any{"id": "missing"})
	req.True(res.IsError)

	_, res = call[StatusResult](t, cs, "clear_whiteboard", nil)
	req.False(res.IsError)
	board, _ = call[BoardResult](t, cs, "get_whiteboard", nil)
	req.Empty(board.Elements)
}

func TestMeetingTools(t *testing.T) {
	req := require.New(t)
	cs, meeting := connect(t)

	state, _ := call[MeetingStateResult](t, cs, "meeting_state", nil)
	req.Equal("not_started", state.Status)
	req.Equal([]string{"Alice", "Bob"}, state.Participants)

	_, res := call[MeetingStateResult](t, cs, "next_speaker", nil)
	req.True(res.IsError)

	_, err := meeting.Start(context.Background())
	req.NoError(err)

	state, res = call[MeetingStateResult](t, cs, "next_speaker", nil)
	req.False(res.IsError)
	req.Equal("Bob", state.CurrentSpeaker)
	req.NotEmpty(state.StartedAt)
}
