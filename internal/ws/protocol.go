package ws

import (
	"github.com/cringo/cringo/internal/draw"
	"github.com/cringo/cringo/internal/history"
	"github.com/cringo/cringo/internal/session"
)

type MessageType string

const (
	MsgSnapshot MessageType = "snapshot"
	MsgState    MessageType = "state"
	MsgDraw     MessageType = "draw"
	MsgFinished MessageType = "finished"
)

type WSMessage struct {
	Type    MessageType `json:"type"`
	Payload interface{} `json:"payload"`
}

type SnapshotPayload struct {
	Session *session.Snapshot `json:"session"`
	Stats   *history.Stats    `json:"stats,omitempty"`
}

type StatePayload struct {
	SessionID string        `json:"sessionId,omitempty"`
	State     session.State `json:"state"`
	Connected bool          `json:"connected"`
}

type DrawPayload struct {
	SessionID string    `json:"sessionId"`
	Seed      draw.Seed `json:"seed"`
	Sequence  int       `json:"sequence"`
	Value     int       `json:"value"`
}

type FinishedPayload struct {
	SessionID string          `json:"sessionId"`
	Outcome   session.Outcome `json:"outcome"`
	Draws     int             `json:"draws"`
}
