package ws

import (
	"github.com/cwrk-planet/meeting-service/internal/session"
)

// Message types pushed to viewers.
const (
	TypeSession        = "session"        // full session snapshot
	TypeWhiteboardData = "whiteboardData" // board only
)

type Message struct {
	Type    string `json:"type"`
	Version uint64 `json:"version"`
	Data    any    `json:"data"`
}

func sessionMessage(snap session.Snapshot) Message {
	return Message{Type: TypeSession, Version: snap.Version, Data: snap}
}

func whiteboardMessage(snap session.Snapshot) Message {
	return Message{Type: TypeWhiteboardData, Version: snap.Version, Data: snap.Whiteboard}
}
