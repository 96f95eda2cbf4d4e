package game

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/iamasit07/blokus-client/internal/domain"
	"github.com/iamasit07/blokus-client/internal/protocol"
	"github.com/iamasit07/blokus-client/internal/service/bot"
)

const (
	sourcePolicy   = "policy"
	sourcePartial  = "partial"
	sourceFallback = "fallback"
	sourcePass     = "pass"
)

type choice struct {
	move domain.Move
	err  error
}

// ends reports whether in stops the current game.
func ends(in inbound) bool {
	if in.err != nil {
		return true
	}
	switch in.msg.(type) {
	case protocol.Result, protocol.ServerError:
		return true
	}
	return false
}

// supersededByPending reports whether a queued message makes the request
// being taken off the queue stale.
func (e *Engine) supersededByPending() bool {
	for _, in := range e.pending {
		if ends(in) {
			return true
		}
		if _, ok := in.msg.(protocol.MoveRequest); ok {
			return true
		}
	}
	return false
}

// serve answers one move request. While the policy thinks the engine keeps
// reading: a newer request or the end of the game abandons the current
// request without a response, anything else waits in pending.
func (e *Engine) serve(ctx context.Context, req protocol.MoveRequest) error {
	log := e.logger.With(zap.String("game_id", e.gameID), zap.Int("turn", e.session.Turn()))
	snap, _ := e.session.Snapshot()

	if len(req.LegalMoves) == 0 {
		if e.opts.Pass == nil {
			return violation("move request without legal moves")
		}
		m, ok := e.opts.Pass(snap)
		if !ok {
			return violation("move request without legal moves and no pass move for %s", snap.CurrentColor())
		}
		return e.sendMove(req, m, sourcePass)
	}

	limit := req.TimeLimit
	if limit <= 0 {
		limit = e.opts.DefaultTimeLimit
	}
	budget := limit - e.opts.TimeMargin
	if budget <= 0 {
		budget = limit / 2
	}
	deadline := time.Now().Add(budget)

	choiceCtx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	results := make(chan choice, 1)
	go func() {
		m, err := e.policy.Choose(choiceCtx, req.LegalMoves, snap, deadline)
		results <- choice{move: m, err: err}
	}()

	for {
		select {
		case c := <-results:
			m, source := e.pick(req, c, log)
			return e.sendMove(req, m, source)

		case <-choiceCtx.Done():
			if ctx.Err() != nil {
				return fmt.Errorf("%w: %v", domain.ErrConnectionClosed, context.Cause(ctx))
			}
			select {
			case c := <-results:
				m, source := e.pick(req, c, log)
				return e.sendMove(req, m, source)
			default:
			}
			log.Warn("policy missed the deadline", zap.Duration("budget", budget))
			m, source := e.afterDeadline(req)
			return e.sendMove(req, m, source)

		case in := <-e.inbox:
			e.pending = append(e.pending, in)
			if ends(in) {
				log.Info("game ended while choosing a move")
				return nil
			}
			if _, ok := in.msg.(protocol.MoveRequest); ok {
				log.Info("move request superseded")
				return nil
			}
		}
	}
}

// pick validates the policy's answer and falls back when it is unusable.
func (e *Engine) pick(req protocol.MoveRequest, c choice, log *zap.Logger) (domain.Move, string) {
	if c.err != nil {
		if errors.Is(c.err, context.DeadlineExceeded) {
			return e.afterDeadline(req)
		}
		log.Warn("policy failed, using fallback", zap.Error(c.err))
		return req.LegalMoves[0], sourceFallback
	}
	if !domain.ContainsMove(req.LegalMoves, c.move) {
		log.Warn("policy chose an illegal move, using fallback", zap.Stringer("move", c.move))
		return req.LegalMoves[0], sourceFallback
	}
	return c.move, sourcePolicy
}

func (e *Engine) afterDeadline(req protocol.MoveRequest) (domain.Move, string) {
	if p, ok := e.policy.(bot.PartialPolicy); ok {
		if m, ok := p.BestSoFar(); ok && domain.ContainsMove(req.LegalMoves, m) {
			return m, sourcePartial
		}
	}
	return req.LegalMoves[0], sourceFallback
}

func (e *Engine) sendMove(req protocol.MoveRequest, m domain.Move, source string) error {
	if e.State() == StateFinished || e.session.Terminal() {
		return nil
	}
	frame, err := protocol.EncodeMove(req.GameID, m)
	if err != nil {
		return err
	}
	if err := e.send(frame); err != nil {
		return err
	}
	e.movesSent++
	e.logger.Info("move sent",
		zap.String("game_id", e.gameID),
		zap.Int("turn", e.session.Turn()),
		zap.Stringer("move", m),
		zap.String("source", source))
	e.publish(Event{Type: EventMoveSent, Move: &m, Source: source})
	return nil
}
