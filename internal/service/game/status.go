package game

import (
	"sync"
	"time"

	"github.com/iamasit07/blokus-client/internal/domain"
)

// Status is a point in time view of the session for the watch surface.
type Status struct {
	RunID     string             `json:"runId"`
	GameID    string             `json:"gameId,omitempty"`
	State     string             `json:"state"`
	Team      domain.Team        `json:"team,omitempty"`
	Players   []domain.Player    `json:"players,omitempty"`
	Snapshot  *domain.Snapshot   `json:"snapshot,omitempty"`
	Board     []string           `json:"board,omitempty"`
	LastMove  *domain.Move       `json:"lastMove,omitempty"`
	MovesSent int                `json:"movesSent"`
	Record    *domain.GameRecord `json:"record,omitempty"`
	Failure   string             `json:"failure,omitempty"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// StatusTracker is an Observer that keeps the latest Status.
type StatusTracker struct {
	mu     sync.RWMutex
	status Status
}

func NewStatusTracker(runID string) *StatusTracker {
	return &StatusTracker{status: Status{RunID: runID, State: StateConnecting.String()}}
}

func (t *StatusTracker) OnEvent(e Event) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := &t.status
	if e.GameID != "" {
		s.GameID = e.GameID
	}
	switch e.Type {
	case EventState:
		s.State = e.State
	case EventWelcome:
		s.Team = e.Team
		s.Players = e.Players
	case EventSnapshot:
		s.Snapshot = e.Snapshot
		s.Board = e.Board
		if len(e.Players) > 0 {
			s.Players = e.Players
		}
	case EventMoveSent:
		s.LastMove = e.Move
		s.MovesSent++
	case EventResult:
		s.Record = e.Record
	case EventFailure:
		s.Failure = e.Message
	}
	s.UpdatedAt = e.At
}

// Status returns a copy that is safe to hand to another goroutine.
func (t *StatusTracker) Status() Status {
	t.mu.RLock()
	defer t.mu.RUnlock()

	s := t.status
	s.Players = append([]domain.Player(nil), s.Players...)
	if s.Snapshot != nil {
		snap := s.Snapshot.Clone()
		s.Snapshot = &snap
	}
	return s
}
