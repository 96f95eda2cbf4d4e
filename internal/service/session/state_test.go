package session

import (
	"errors"
	"testing"

	"github.com/iamasit07/blokus-client/internal/domain"
)

var roster = []domain.Player{
	{Team: domain.TeamOne, DisplayName: "Alice"},
	{Team: domain.TeamTwo, DisplayName: "Bob"},
}

func snapshotAt(turn int) domain.Snapshot {
	return domain.Snapshot{
		Turn:          turn,
		OrderedColors: []domain.Color{domain.Blue, domain.Yellow, domain.Red, domain.Green},
		StartPiece:    "MONO",
	}
}

func TestTurnsAdvanceByOne(t *testing.T) {
	s := New("g1", "")
	if err := s.Welcome(domain.TeamOne, roster); err != nil {
		t.Fatalf("welcome: %v", err)
	}
	for turn := 0; turn < 4; turn++ {
		if err := s.Apply(snapshotAt(turn)); err != nil {
			t.Fatalf("apply turn %d: %v", turn, err)
		}
	}
	if s.Turn() != 3 {
		t.Fatalf("turn = %d, want 3", s.Turn())
	}

	if err := s.Apply(snapshotAt(3)); !errors.Is(err, domain.ErrProtocolViolation) {
		t.Fatalf("repeated turn: got %v", err)
	}
	if err := s.Apply(snapshotAt(5)); !errors.Is(err, domain.ErrProtocolViolation) {
		t.Fatalf("skipped turn: got %v", err)
	}
	if s.Turn() != 3 {
		t.Fatalf("rejected update changed the turn to %d", s.Turn())
	}
}

func TestFirstSnapshotMayStartLate(t *testing.T) {
	s := New("g1", "")
	if err := s.Apply(snapshotAt(12)); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if err := s.Apply(snapshotAt(13)); err != nil {
		t.Fatalf("apply: %v", err)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	s := New("g1", "")
	snap := snapshotAt(0)
	if err := s.Apply(snap); err != nil {
		t.Fatalf("apply: %v", err)
	}
	snap.OrderedColors[0] = domain.Green

	got, ok := s.Snapshot()
	if !ok || got.OrderedColors[0] != domain.Blue {
		t.Fatalf("state shares memory with the applied snapshot")
	}
	got.OrderedColors[1] = domain.Green
	again, _ := s.Snapshot()
	if again.OrderedColors[1] != domain.Yellow {
		t.Fatalf("state shares memory with a returned snapshot")
	}
}

func TestWelcomeRoster(t *testing.T) {
	s := New("g1", "r1")
	if err := s.Welcome(domain.TeamOne, roster[:1]); !errors.Is(err, domain.ErrProtocolViolation) {
		t.Fatalf("short roster: got %v", err)
	}
	if err := s.Welcome(domain.TeamTwo, roster); err != nil {
		t.Fatalf("welcome: %v", err)
	}
	own, ok := s.Own()
	if !ok || own.DisplayName != "Bob" {
		t.Fatalf("own player %v %v", own, ok)
	}
	if len(s.Players()) != 2 {
		t.Fatalf("players %v", s.Players())
	}
}

func TestIsOwnTurn(t *testing.T) {
	s := New("g1", "")
	s.Welcome(domain.TeamTwo, roster)
	if s.IsOwnTurn() {
		t.Fatalf("own turn without a snapshot")
	}
	snap := snapshotAt(0)
	snap.CurrentColorIndex = 1
	s.Apply(snap)
	if !s.IsOwnTurn() {
		t.Fatalf("YELLOW belongs to team TWO")
	}
}

func TestTerminalRejectsUpdates(t *testing.T) {
	s := New("g1", "")
	s.MarkTerminal()
	if !s.Terminal() {
		t.Fatalf("terminal flag not set")
	}
	if err := s.Apply(snapshotAt(0)); !errors.Is(err, domain.ErrProtocolViolation) {
		t.Fatalf("got %v", err)
	}
	if err := s.Welcome(domain.TeamOne, roster); !errors.Is(err, domain.ErrProtocolViolation) {
		t.Fatalf("got %v", err)
	}
}

func TestRosterFromFirstSnapshot(t *testing.T) {
	s := New("g1", "")
	if err := s.Welcome(domain.TeamTwo, nil); err != nil {
		t.Fatalf("welcome without roster: %v", err)
	}
	if s.RosterKnown() {
		t.Fatalf("roster known before any snapshot")
	}

	// a snapshot without players leaves the roster open
	if err := s.Apply(snapshotAt(0)); err != nil {
		t.Fatalf("apply: %v", err)
	}
	snap := snapshotAt(1)
	snap.First, snap.Second = &roster[0], &roster[1]
	if err := s.Apply(snap); err != nil {
		t.Fatalf("apply: %v", err)
	}
	own, ok := s.Own()
	if !s.RosterKnown() || !ok || own.DisplayName != "Bob" {
		t.Fatalf("roster %v own %v %v", s.Players(), own, ok)
	}
}

func TestRosterFromSnapshotMustHaveBothTeams(t *testing.T) {
	s := New("g1", "")
	s.Welcome(domain.TeamOne, nil)
	snap := snapshotAt(0)
	snap.First, snap.Second = &roster[0], &roster[0]
	if err := s.Apply(snap); !errors.Is(err, domain.ErrProtocolViolation) {
		t.Fatalf("got %v", err)
	}
	if _, ok := s.Snapshot(); ok {
		t.Fatalf("rejected snapshot was applied")
	}
}
