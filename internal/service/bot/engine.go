package bot

import (
	"context"
	"strings"
	"time"

	"github.com/iamasit07/blokus-client/internal/domain"
)

const (
	PolicyRandom = "random"
	PolicyGreedy = "greedy"
	PolicyFirst  = "first"
)

const ErrNoMoves domain.Error = "no legal moves to choose from"

// Policy picks one of the legal moves. It must return before the deadline
// and must return an element of legal.
type Policy interface {
	Choose(ctx context.Context, legal []domain.Move, snapshot domain.Snapshot, deadline time.Time) (domain.Move, error)
}

// PartialPolicy can hand out the best move found so far while Choose is
// still running.
type PartialPolicy interface {
	Policy
	BestSoFar() (domain.Move, bool)
}

// New selects a policy by name. Unknown names get the random policy.
func New(name string, seed int64) Policy {
	switch strings.ToLower(name) {
	case PolicyGreedy:
		return NewGreedy()
	case PolicyFirst:
		return First{}
	case PolicyRandom:
		return NewRandom(seed)
	default:
		return NewRandom(seed)
	}
}

func IsKnown(name string) bool {
	switch strings.ToLower(name) {
	case PolicyRandom, PolicyGreedy, PolicyFirst:
		return true
	}
	return false
}

// First always answers with the first legal move.
type First struct{}

func (First) Choose(ctx context.Context, legal []domain.Move, _ domain.Snapshot, _ time.Time) (domain.Move, error) {
	if len(legal) == 0 {
		return domain.Move{}, ErrNoMoves
	}
	return legal[0], nil
}
