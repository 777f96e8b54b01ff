// Package mcpx exposes the whiteboard and meeting turn controls as MCP tools.
package mcpx

import (
	"net/http"

	"github.com/cwrk-planet/meeting-service/internal/service"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverName = "meeting-whiteboard"

type Server struct {
	mcpServer  *mcp.Server
	meetingSvc *service.MeetingService
	boardSvc   *service.WhiteboardService
}

func NewServer(meeting *service.MeetingService, board *service.WhiteboardService, version string) *Server {
	s := &Server{
		mcpServer:  mcp.NewServer(&mcp.Implementation{Name: serverName, Version: version}, nil),
		meetingSvc: meeting,
		boardSvc:   board,
	}
	s.registerTools()
	return s
}

// MCP returns the underlying server, e.g. to connect an in-process transport.
func (s *Server) MCP() *mcp.Server { return s.mcpServer }

// Handler serves the streamable HTTP transport.
func (s *Server) Handler() http.Handler {
	return mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return s.mcpServer }, nil)
}

func (s *Server) registerTools() {
	mcp.AddTool(s.mcpServer, getWhiteboardTool(), s.getWhiteboard)
	mcp.AddTool(s.mcpServer, getElementTool(), s.getElement)
	mcp.AddTool(s.mcpServer, createStickyNoteTool(), s.createStickyNote)
	mcp.AddTool(s.mcpServer, createShapeTool(), s.createShape)
	mcp.AddTool(s.mcpServer, createDiagramTool(), s.createDiagram)
	mcp.AddTool(s.mcpServer, createLinkTool(), s.createLink)
	mcp.AddTool(s.mcpServer, connectElementsTool(), s.connectElements)
	mcp.AddTool(s.mcpServer, updateElementTool(), s.updateElement)
	mcp.AddTool(s.mcpServer, removeElementTool(), s.removeElement)
	mcp.AddTool(s.mcpServer, clearWhiteboardTool(), s.clearWhiteboard)
	mcp.AddTool(s.mcpServer, searchElementsTool(), s.searchElements)
	mcp.AddTool(s.mcpServer, whiteboardStatsTool(), s.whiteboardStats)
	mcp.AddTool(s.mcpServer, meetingStateTool(), s.meetingState)
	mcp.AddTool(s.mcpServer, nextSpeakerTool(), s.nextSpeaker)
}
