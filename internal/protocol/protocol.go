// Package protocol defines the JSON frames exchanged with game clients.
//
// Every WebSocket text frame carries one envelope:
//
//	{"type": "fire", "payload": {"x": 3, "y": 7}}
package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/zjx20/seabattlehub/internal/board"
)

// Inbound event types.
const (
	PlayerReady = "player-ready"
	Fire        = "fire"
)

// Outbound event types.
const (
	Session      = "session"
	StatusUpdate = "status-update"
	SetupPhase   = "setup-phase"
	GameStart    = "game-start"
	FireResult   = "fire-result"
	EnemyFire    = "enemy-fire"
	TurnChange   = "turn-change"
	GameOver     = "game-over"
	Error        = "error"
)

// OpponentLeft is the game-over winner reported when the other player disconnects.
const OpponentLeft = "OPPONENT_LEFT"

var ErrBadMessage = errors.New("bad message")

// Message is the envelope of every frame.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type SessionPayload struct {
	ID string `json:"id"`
}

type FirePayload struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// UnmarshalJSON requires both coordinates to be present.
func (p *FirePayload) UnmarshalJSON(data []byte) error {
	var raw struct {
		X *int `json:"x"`
		Y *int `json:"y"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.X == nil || raw.Y == nil {
		return errors.New("x and y are required")
	}
	p.X, p.Y = *raw.X, *raw.Y
	return nil
}

type GameStartPayload struct {
	Turn bool `json:"turn"`
}

// ShotPayload is shared by fire-result and enemy-fire. SunkCoords is null
// unless Result is killed.
type ShotPayload struct {
	X          int           `json:"x"`
	Y          int           `json:"y"`
	Result     board.Result  `json:"result"`
	SunkCoords []board.Coord `json:"sunkCoords"`
}

type GameOverPayload struct {
	Winner string `json:"winner"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Encode builds a frame. A nil payload is omitted.
func Encode(typ string, payload any) ([]byte, error) {
	msg := Message{Type: typ}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode %s payload: %w", typ, err)
		}
		msg.Payload = raw
	}
	return json.Marshal(msg)
}

// Decode parses a frame envelope.
func Decode(data []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrBadMessage, err)
	}
	if msg.Type == "" {
		return Message{}, fmt.Errorf("%w: missing type", ErrBadMessage)
	}
	return msg, nil
}

// DecodePayload unmarshals the payload of msg into v.
func DecodePayload(msg Message, v any) error {
	if len(msg.Payload) == 0 || bytes.Equal(bytes.TrimSpace(msg.Payload), []byte("null")) {
		return fmt.Errorf("%w: %s without payload", ErrBadMessage, msg.Type)
	}
	if err := json.Unmarshal(msg.Payload, v); err != nil {
		return fmt.Errorf("%w: %s payload: %v", ErrBadMessage, msg.Type, err)
	}
	return nil
}

// NewShotPayload converts a resolved shot into its wire form.
func NewShotPayload(target board.Coord, result board.Result, sunk []board.Coord) ShotPayload {
	p := ShotPayload{X: target.X, Y: target.Y, Result: result}
	if result == board.Killed {
		p.SunkCoords = sunk
	}
	return p
}
