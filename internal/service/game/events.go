package game

import (
	"context"
	"errors"
	"time"

	"github.com/iamasit07/blokus-client/internal/domain"
)

type EventType string

const (
	EventState    EventType = "state"
	EventJoined   EventType = "joined"
	EventMember   EventType = "member"
	EventWelcome  EventType = "welcome"
	EventSnapshot EventType = "snapshot"
	EventMoveSent EventType = "move"
	EventResult   EventType = "result"
	EventFailure  EventType = "failure"
)

// Event is what observers learn about a running session. Every field is
// a copy; observers may keep events around.
type Event struct {
	Type     EventType          `json:"type"`
	RunID    string             `json:"runId"`
	GameID   string             `json:"gameId,omitempty"`
	State    string             `json:"state,omitempty"`
	Team     domain.Team        `json:"team,omitempty"`
	Players  []domain.Player    `json:"players,omitempty"`
	Snapshot *domain.Snapshot   `json:"snapshot,omitempty"`
	Board    []string           `json:"board,omitempty"`
	Move     *domain.Move       `json:"move,omitempty"`
	Source   string             `json:"source,omitempty"`
	Record   *domain.GameRecord `json:"record,omitempty"`
	Message  string             `json:"message,omitempty"`
	At       time.Time          `json:"at"`
}

// Observer receives engine events on the engine goroutine. OnEvent must
// not block.
type Observer interface {
	OnEvent(Event)
}

type ObserverFunc func(Event)

func (f ObserverFunc) OnEvent(e Event) {
	f(e)
}

// ResultRecorder stores a finished game.
type ResultRecorder interface {
	RecordResult(ctx context.Context, record domain.GameRecord) error
}

// MultiRecorder records to every recorder and joins their errors.
type MultiRecorder []ResultRecorder

func (m MultiRecorder) RecordResult(ctx context.Context, record domain.GameRecord) error {
	var errs []error
	for _, r := range m {
		if err := r.RecordResult(ctx, record); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
