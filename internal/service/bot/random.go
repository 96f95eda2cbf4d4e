package bot

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/iamasit07/blokus-client/internal/domain"
)

// Random picks uniformly among the legal moves.
type Random struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandom seeds from the clock when seed is 0.
func NewRandom(seed int64) *Random {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Random{rng: rand.New(rand.NewSource(seed))}
}

func (r *Random) Choose(ctx context.Context, legal []domain.Move, _ domain.Snapshot, _ time.Time) (domain.Move, error) {
	if len(legal) == 0 {
		return domain.Move{}, ErrNoMoves
	}
	if err := ctx.Err(); err != nil {
		return domain.Move{}, err
	}

	r.mu.Lock()
	i := r.rng.Intn(len(legal))
	r.mu.Unlock()
	return legal[i], nil
}
