package bot

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/iamasit07/blokus-client/internal/domain"
)

const (
	SQUARE_WEIGHT = 100
	CHECK_EVERY   = 64
)

// Greedy prefers the set move covering the most squares and breaks ties by
// closeness to the board center. Skip moves are taken only when nothing
// else is legal.
type Greedy struct {
	mu        sync.Mutex
	gen       uint64
	best      domain.Move
	bestScore int
	hasBest   bool
}

func NewGreedy() *Greedy {
	return &Greedy{}
}

func scoreMove(m domain.Move) int {
	if m.IsSkip() {
		return math.MinInt32
	}
	center := domain.BoardSize - 1
	dx := 2*m.Piece.Position.X - center
	dy := 2*m.Piece.Position.Y - center
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}
	return m.Squares()*SQUARE_WEIGHT - (dx + dy)
}

func (g *Greedy) Choose(ctx context.Context, legal []domain.Move, _ domain.Snapshot, deadline time.Time) (domain.Move, error) {
	if len(legal) == 0 {
		return domain.Move{}, ErrNoMoves
	}

	g.mu.Lock()
	g.gen++
	gen := g.gen
	g.hasBest = false
	g.mu.Unlock()

	for i, m := range legal {
		if i > 0 && i%CHECK_EVERY == 0 {
			if err := ctx.Err(); err != nil {
				return domain.Move{}, err
			}
			if !deadline.IsZero() && time.Now().After(deadline) {
				return domain.Move{}, context.DeadlineExceeded
			}
		}
		g.offer(gen, m, scoreMove(m))
	}

	best, ok := g.BestSoFar()
	if !ok {
		return domain.Move{}, ErrNoMoves
	}
	return best, nil
}

// offer drops the candidate when a newer Choose call has started.
func (g *Greedy) offer(gen uint64, m domain.Move, score int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if gen != g.gen {
		return
	}
	if !g.hasBest || score > g.bestScore {
		g.best = m
		g.bestScore = score
		g.hasBest = true
	}
}

func (g *Greedy) BestSoFar() (domain.Move, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.best, g.hasBest
}
