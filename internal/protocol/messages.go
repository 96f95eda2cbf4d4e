// Package protocol translates between the XML frames of the game server
// protocol and typed messages.
package protocol

import (
	"time"

	"github.com/iamasit07/blokus-client/internal/domain"
)

const (
	DefaultGameType = "swc_2021_blokus"

	// Opening is written once by the client right after connecting.
	Opening = "<protocol>"
	Closing = "</protocol>"
)

type Kind int

const (
	KindJoin Kind = iota
	KindJoined
	KindMemberJoined
	KindMemberLeft
	KindWelcome
	KindStateUpdate
	KindMoveRequest
	KindMoveResponse
	KindResult
	KindError
)

var kindNames = [...]string{
	KindJoin:         "Join",
	KindJoined:       "Joined",
	KindMemberJoined: "MemberJoined",
	KindMemberLeft:   "MemberLeft",
	KindWelcome:      "Welcome",
	KindStateUpdate:  "StateUpdate",
	KindMoveRequest:  "MoveRequest",
	KindMoveResponse: "MoveResponse",
	KindResult:       "Result",
	KindError:        "Error",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "Unknown"
	}
	return kindNames[k]
}

// Message is one decoded frame. The set of implementations is closed.
type Message interface {
	Kind() Kind
}

// Join asks the server for a seat. With a reservation it joins a prepared game.
type Join struct {
	GameType    string
	Reservation string
}

type Joined struct {
	GameID      string
	Reservation string
}

type MemberJoined struct {
	GameID      string
	DisplayName string
}

type MemberLeft struct {
	GameID      string
	DisplayName string
}

// Welcome tells the client its own team and the full roster.
type Welcome struct {
	GameID  string
	Team    domain.Team
	Players []domain.Player
}

type StateUpdate struct {
	GameID   string
	Snapshot domain.Snapshot
}

// MoveRequest carries the legal moves for the client's turn. A zero
// TimeLimit means the server did not send one.
type MoveRequest struct {
	GameID     string
	LegalMoves []domain.Move
	TimeLimit  time.Duration
}

type MoveResponse struct {
	GameID string
	Move   domain.Move
}

// Result ends the game. Winner is nil on a draw.
type Result struct {
	GameID string
	Scores []domain.Score
	Winner *domain.Player
}

// ServerError is an error frame. GameID is empty when it is not room scoped.
type ServerError struct {
	GameID string
	Code   string
	Text   string
}

func (Join) Kind() Kind         { return KindJoin }
func (Joined) Kind() Kind       { return KindJoined }
func (MemberJoined) Kind() Kind { return KindMemberJoined }
func (MemberLeft) Kind() Kind   { return KindMemberLeft }
func (Welcome) Kind() Kind      { return KindWelcome }
func (StateUpdate) Kind() Kind  { return KindStateUpdate }
func (MoveRequest) Kind() Kind  { return KindMoveRequest }
func (MoveResponse) Kind() Kind { return KindMoveResponse }
func (Result) Kind() Kind       { return KindResult }
func (ServerError) Kind() Kind  { return KindError }

// WinnerName returns the winner's display name or "draw".
func (r Result) WinnerName() string {
	if r.Winner == nil {
		return "draw"
	}
	return r.Winner.DisplayName
}
