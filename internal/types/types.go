package types

import "github.com/Martig3/valorant-matchbot/internal/engine"

const (
	MsgSnapshot = "StateSnapshot"
	MsgError    = "Error"
	MsgRefresh  = "Refresh"
)

type ClientMessage struct {
	Type string `json:"type"` // "Refresh"
}

type ServerMessage struct {
	Type    string       `json:"type"` // "StateSnapshot" | "Error"
	Version int          `json:"version,omitempty"`
	Session *engine.View `json:"session,omitempty"`
	Error   string       `json:"error,omitempty"`
}

func Snapshot(version int, s engine.State) ServerMessage {
	view := s.View()
	return ServerMessage{Type: MsgSnapshot, Version: version, Session: &view}
}
