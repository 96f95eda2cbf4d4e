package session

import (
	"fmt"
	"time"

	"github.com/iamasit07/blokus-client/internal/domain"
)

// State is the client's authoritative view of one game. It is owned by a
// single goroutine and is not safe for concurrent use; readers get copies.
type State struct {
	GameID      string
	Reservation string
	Team        domain.Team
	JoinedAt    time.Time

	players     []domain.Player
	snapshot    domain.Snapshot
	hasSnapshot bool
	terminal    bool
}

// New starts the state of a game the server has just assigned.
func New(gameID, reservation string) *State {
	return &State{
		GameID:      gameID,
		Reservation: reservation,
		JoinedAt:    time.Now(),
	}
}

func violation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", domain.ErrProtocolViolation, fmt.Sprintf(format, args...))
}

// Welcome records the own team and, when the server sends it along, the
// roster. Otherwise the roster is taken from the first snapshot that
// names both players.
func (s *State) Welcome(team domain.Team, players []domain.Player) error {
	if s.terminal {
		return violation("welcome after the game ended")
	}
	if team != domain.TeamOne && team != domain.TeamTwo {
		return violation("own team %s", team)
	}
	if len(players) > 0 {
		if err := s.setRoster(players); err != nil {
			return err
		}
	}
	s.Team = team
	return nil
}

// RosterKnown reports whether both players are known.
func (s *State) RosterKnown() bool {
	return len(s.players) == 2
}

func (s *State) setRoster(players []domain.Player) error {
	if len(players) != 2 {
		return violation("roster has %d players, want 2", len(players))
	}
	if players[0].Team == players[1].Team {
		return violation("both players are team %s", players[0].Team)
	}
	s.players = append([]domain.Player(nil), players...)
	return nil
}

// Apply replaces the current snapshot. After the first snapshot every
// update must advance the turn by exactly one.
func (s *State) Apply(next domain.Snapshot) error {
	if s.terminal {
		return violation("state update after the game ended")
	}
	if s.hasSnapshot && next.Turn != s.snapshot.Turn+1 {
		return violation("turn %d after turn %d", next.Turn, s.snapshot.Turn)
	}
	if roster, ok := next.Roster(); ok && !s.RosterKnown() {
		if err := s.setRoster(roster); err != nil {
			return err
		}
	}
	s.snapshot = next.Clone()
	s.hasSnapshot = true
	return nil
}

// Snapshot returns a copy of the current snapshot.
func (s *State) Snapshot() (domain.Snapshot, bool) {
	return s.snapshot.Clone(), s.hasSnapshot
}

// Turn is the turn of the current snapshot, 0 before the first one.
func (s *State) Turn() int {
	return s.snapshot.Turn
}

func (s *State) Players() []domain.Player {
	return append([]domain.Player(nil), s.players...)
}

// Own returns the roster entry of the client's team.
func (s *State) Own() (domain.Player, bool) {
	for _, p := range s.players {
		if p.Team == s.Team {
			return p, true
		}
	}
	return domain.Player{}, false
}

// IsOwnTurn reports whether the current color belongs to the client.
func (s *State) IsOwnTurn() bool {
	return s.hasSnapshot && s.Team != domain.TeamNone && s.snapshot.CurrentTeam() == s.Team
}

func (s *State) MarkTerminal() {
	s.terminal = true
}

func (s *State) Terminal() bool {
	return s.terminal
}
