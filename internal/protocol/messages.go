// Package protocol is the websocket wire format shared by the server and the
// terminal client. Messages are flat JSON objects keyed by "type".
package protocol

import (
	"github.com/yourusername/pitchside/internal/game"
)

// MessageType defines the type of websocket message
type MessageType string

const (
	// Client -> Server
	MsgJoin        MessageType = "join"
	MsgPitch       MessageType = "pitch"
	MsgSwing       MessageType = "swing"
	MsgField       MessageType = "field"
	MsgRun         MessageType = "run"
	MsgSyncRequest MessageType = "sync-request"
	MsgPing        MessageType = "ping"

	// Both directions
	MsgChat MessageType = "chat"

	// Server -> Client
	MsgConnected      MessageType = "connected"
	MsgPlayerJoined   MessageType = "player-joined"
	MsgPlayerLeft     MessageType = "player-left"
	MsgPitchThrown    MessageType = "pitch-thrown"
	MsgSwingResult    MessageType = "swing-result"
	MsgBallHit        MessageType = "ball-hit"
	MsgBallCaught     MessageType = "ball-caught"
	MsgBallThrown     MessageType = "ball-thrown"
	MsgRunnerAdvanced MessageType = "runner-advanced"
	MsgRunScored      MessageType = "run-scored"
	MsgStrikeout      MessageType = "strikeout"
	MsgWalk           MessageType = "walk"
	MsgInningEnded    MessageType = "inning-ended"
	MsgGameEnded      MessageType = "game-ended"
	MsgGameReset      MessageType = "game-reset"
	MsgActionRejected MessageType = "action-rejected"
	MsgSyncResponse   MessageType = "sync-response"
	MsgPong           MessageType = "pong"
)

// IsInbound reports whether clients may send t.
func (t MessageType) IsInbound() bool {
	switch t {
	case MsgJoin, MsgPitch, MsgSwing, MsgField, MsgRun, MsgChat, MsgSyncRequest, MsgPing:
		return true
	}
	return false
}

// IsGameplay reports whether t is an action checked by the resolver.
func (t MessageType) IsGameplay() bool {
	switch t {
	case MsgPitch, MsgSwing, MsgField, MsgRun:
		return true
	}
	return false
}

// Location is a point relative to the strike zone center.
type Location struct {
	X float64 `json:"x" validate:"gte=-3,lte=3"`
	Y float64 `json:"y" validate:"gte=-3,lte=3"`
}

// JoinPayload renames the sending peer.
type JoinPayload struct {
	DisplayName string `json:"displayName" validate:"required,max=256"`
}

// PitchPayload is sent by the fielding side to throw a pitch.
type PitchPayload struct {
	Kind   string   `json:"kind" validate:"omitempty,oneof=fastball curveball slider changeup sinker knuckleball"`
	Speed  float64  `json:"speed" validate:"gte=0,lte=110"` // mph, 0 picks the default
	Target Location `json:"target"`
}

// SwingPayload is the batting side's decision on the pending pitch. Timestamp
// is informational only; the server times swings with its own clock.
type SwingPayload struct {
	Take      bool     `json:"take"`
	Location  Location `json:"location"`
	Timestamp int64    `json:"timestamp,omitempty"`
}

// FieldPayload is a fielding play while the ball is live.
type FieldPayload struct {
	Action   string `json:"action" validate:"required,oneof=catch throw return"`
	Position string `json:"position" validate:"omitempty,oneof=P C 1B 2B 3B SS LF CF RF"`
	Base     int    `json:"base" validate:"gte=0,lte=4,required_if=Action throw"`
}

// RunPayload moves a runner. From 0 is the batter-runner at home plate; To 0
// or 4 is home.
type RunPayload struct {
	From int `json:"from" validate:"gte=0,lte=3"`
	To   int `json:"to" validate:"gte=0,lte=4"`
}

// ChatPayload is an inbound chat line.
type ChatPayload struct {
	Message string `json:"message" validate:"required,max=4096"`
}

// PeerInfo describes one connected participant.
type PeerInfo struct {
	ConnectionID string    `json:"connectionId"`
	DisplayName  string    `json:"displayName"`
	Side         game.Side `json:"side"`
	IsHost       bool      `json:"isHost"`
}

// ConnectedPayload greets a new connection with its assignment.
type ConnectedPayload struct {
	RoomID string     `json:"roomId"`
	You    PeerInfo   `json:"you"`
	Peers  []PeerInfo `json:"peers"`
}

// PlayerJoinedPayload announces a new or renamed peer.
type PlayerJoinedPayload struct {
	Peer      PeerInfo `json:"peer"`
	PeerCount int      `json:"peerCount"`
	Renamed   bool     `json:"renamed,omitempty"`
}

// PlayerLeftPayload announces a departure and any host handover.
type PlayerLeftPayload struct {
	Peer      PeerInfo `json:"peer"`
	PeerCount int      `json:"peerCount"`
	NewHost   string   `json:"newHost,omitempty"`
}

// PlayPayload carries the result of one gameplay action.
type PlayPayload struct {
	Play          game.Play        `json:"play"`
	Actor         game.Side        `json:"actor,omitempty"`
	Pitch         *game.Pitch      `json:"pitch,omitempty"`
	ArrivalMs     int64            `json:"arrivalMs,omitempty"`
	Swung         bool             `json:"swung,omitempty"`
	InZone        *bool            `json:"inZone,omitempty"`
	TimingErrorMs *int64           `json:"timingErrorMs,omitempty"`
	Timeout       bool             `json:"timeout,omitempty"`
	Trajectory    *game.Trajectory `json:"trajectory,omitempty"`
	Position      game.Position    `json:"position,omitempty"`
	CatchChance   float64          `json:"catchChance,omitempty"`
	Caught        *bool            `json:"caught,omitempty"`
	Base          int              `json:"base,omitempty"`
	From          *int             `json:"from,omitempty"`
	To            int              `json:"to,omitempty"`
	Runs          int              `json:"runs,omitempty"`
	OutsRecorded  int              `json:"outsRecorded,omitempty"`
	InningEnded   bool             `json:"inningEnded,omitempty"`
	GameEnded     bool             `json:"gameEnded,omitempty"`
	Winner        game.Side        `json:"winner,omitempty"`
	Score         *game.Score      `json:"finalScore,omitempty"`
}

// GameResetPayload explains why the game went back to its starting state.
type GameResetPayload struct {
	Reason string `json:"reason"` // game-over, idle or operator
}

// RejectedPayload is sent only to the peer whose message was refused.
type RejectedPayload struct {
	Reason  game.Code   `json:"reason"`
	Message string      `json:"message"`
	Action  MessageType `json:"action,omitempty"`
}

// ChatMessage is one line of room chat.
type ChatMessage struct {
	From    string    `json:"from"`
	Side    game.Side `json:"side"`
	Message string    `json:"message"`
	At      int64     `json:"at"`
}

// SyncResponsePayload lets a client rebuild its mirror.
type SyncResponsePayload struct {
	You   PeerInfo      `json:"you"`
	Peers []PeerInfo    `json:"peers"`
	Chat  []ChatMessage `json:"chat"`
}
