// Package game runs one client session against the game server: the
// handshake, state tracking and the move request cycle.
package game

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/iamasit07/blokus-client/internal/domain"
	"github.com/iamasit07/blokus-client/internal/protocol"
	"github.com/iamasit07/blokus-client/internal/service/bot"
	"github.com/iamasit07/blokus-client/internal/service/session"
)

type State int32

const (
	StateConnecting State = iota
	StateJoining
	StateInGame
	StateFinished
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateJoining:
		return "joining"
	case StateInGame:
		return "in_game"
	case StateFinished:
		return "finished"
	}
	return "unknown"
}

// Transport is the frame level connection the engine drives.
type Transport interface {
	ReceiveFrame() ([]byte, error)
	SendFrame(frame []byte) error
	WriteOpening() error
	Close() error
}

// PassFunc builds the move sent for a request without legal moves.
type PassFunc func(snapshot domain.Snapshot) (domain.Move, bool)

// SkipOnEmpty passes with a skip of the color whose turn it is.
func SkipOnEmpty(snapshot domain.Snapshot) (domain.Move, bool) {
	c := snapshot.CurrentColor()
	if !c.Valid() {
		return domain.Move{}, false
	}
	return domain.NewSkipMove(c), true
}

const (
	DefaultTimeLimit  = 2 * time.Second
	DefaultTimeMargin = 200 * time.Millisecond
	DefaultInboxSize  = 16

	recordTimeout = 5 * time.Second
)

type Options struct {
	RunID            string
	GameType         string
	Reservation      string
	DefaultTimeLimit time.Duration
	TimeMargin       time.Duration
	InboxSize        int
	Pass             PassFunc
}

// Outcome summarizes a finished run.
type Outcome struct {
	State     State
	GameID    string
	Result    *protocol.Result
	Turns     int
	MovesSent int
}

type inbound struct {
	msg protocol.Message
	err error
}

type Engine struct {
	transport Transport
	policy    bot.Policy
	opts      Options
	logger    *zap.Logger
	observers []Observer
	recorder  ResultRecorder

	state     atomic.Int32
	session   *session.State
	gameID    string
	result    *protocol.Result
	movesSent int
	startedAt time.Time

	inbox   chan inbound
	pending []inbound
	done    chan struct{}
}

func NewEngine(t Transport, policy bot.Policy, opts Options, logger *zap.Logger) *Engine {
	if opts.GameType == "" && opts.Reservation == "" {
		opts.GameType = protocol.DefaultGameType
	}
	if opts.DefaultTimeLimit <= 0 {
		opts.DefaultTimeLimit = DefaultTimeLimit
	}
	if opts.TimeMargin < 0 {
		opts.TimeMargin = 0
	}
	if opts.InboxSize <= 0 {
		opts.InboxSize = DefaultInboxSize
	}
	return &Engine{
		transport: t,
		policy:    policy,
		opts:      opts,
		logger:    logger.Named("engine").With(zap.String("run_id", opts.RunID)),
	}
}

// AddObserver must be called before Run.
func (e *Engine) AddObserver(o Observer) {
	e.observers = append(e.observers, o)
}

func (e *Engine) SetRecorder(r ResultRecorder) {
	e.recorder = r
}

// State may be called from any goroutine.
func (e *Engine) State() State {
	return State(e.state.Load())
}

func (e *Engine) setState(s State) {
	prev := State(e.state.Swap(int32(s)))
	if prev == s {
		return
	}
	e.logger.Info("state changed", zap.Stringer("from", prev), zap.Stringer("to", s), zap.String("game_id", e.gameID))
	e.publish(Event{Type: EventState, State: s.String()})
}

func (e *Engine) publish(ev Event) {
	ev.RunID = e.opts.RunID
	if ev.GameID == "" {
		ev.GameID = e.gameID
	}
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	for _, o := range e.observers {
		o.OnEvent(ev)
	}
}

func violation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", domain.ErrProtocolViolation, fmt.Sprintf(format, args...))
}

// Run plays one session to the end. The transport is closed when Run
// returns. The error is nil only when the server delivered a result.
func (e *Engine) Run(ctx context.Context) (Outcome, error) {
	e.startedAt = time.Now()
	e.inbox = make(chan inbound, e.opts.InboxSize)
	e.done = make(chan struct{})

	stop := context.AfterFunc(ctx, func() {
		e.transport.Close()
	})
	defer stop()
	defer e.transport.Close()
	defer close(e.done)

	err := e.run(ctx)

	e.setState(StateFinished)
	if e.session != nil {
		e.session.MarkTerminal()
	}

	out := Outcome{
		State:     e.State(),
		GameID:    e.gameID,
		Result:    e.result,
		MovesSent: e.movesSent,
	}
	if e.session != nil {
		out.Turns = e.session.Turn()
	}

	if err != nil {
		e.logger.Error("session failed", zap.String("game_id", e.gameID), zap.Error(err))
		e.publish(Event{Type: EventFailure, Message: err.Error()})
		return out, err
	}
	e.logger.Info("session finished",
		zap.String("game_id", e.gameID),
		zap.Int("turn", out.Turns),
		zap.Int("moves", out.MovesSent))
	return out, nil
}

func (e *Engine) run(ctx context.Context) error {
	if err := e.transport.WriteOpening(); err != nil {
		return err
	}
	join, err := protocol.Encode(protocol.Join{GameType: e.opts.GameType, Reservation: e.opts.Reservation})
	if err != nil {
		return err
	}
	if err := e.send(join); err != nil {
		return err
	}
	e.setState(StateJoining)

	go e.readLoop()

	for {
		in := e.next(ctx)
		finished, err := e.handle(ctx, in)
		if err != nil || finished {
			return err
		}
	}
}

// readLoop feeds decoded messages into the inbox until the first error.
func (e *Engine) readLoop() {
	dec := protocol.NewDecoder(e.transport)
	for {
		msg, err := dec.Next()
		select {
		case e.inbox <- inbound{msg: msg, err: err}:
		case <-e.done:
			return
		}
		if err != nil {
			return
		}
	}
}

func (e *Engine) next(ctx context.Context) inbound {
	if len(e.pending) > 0 {
		in := e.pending[0]
		e.pending = e.pending[1:]
		return in
	}
	select {
	case in := <-e.inbox:
		return in
	case <-ctx.Done():
		return inbound{err: fmt.Errorf("%w: %v", domain.ErrConnectionClosed, context.Cause(ctx))}
	}
}

func (e *Engine) handle(ctx context.Context, in inbound) (bool, error) {
	if in.err != nil {
		if errors.Is(in.err, io.EOF) {
			return true, fmt.Errorf("%w: server ended the stream before a result", domain.ErrConnectionClosed)
		}
		return true, in.err
	}

	if err := e.checkGame(in.msg); err != nil {
		return true, err
	}

	switch m := in.msg.(type) {
	case protocol.Joined:
		if e.State() != StateJoining || e.session != nil {
			return true, violation("joined %s while %s", m.GameID, e.State())
		}
		e.gameID = m.GameID
		e.session = session.New(m.GameID, m.Reservation)
		e.logger.Info("joined game", zap.String("game_id", m.GameID))
		e.publish(Event{Type: EventJoined})

	case protocol.MemberJoined:
		e.logger.Info("member joined", zap.String("game_id", m.GameID), zap.String("name", m.DisplayName))
		e.publish(Event{Type: EventMember, Message: m.DisplayName + " joined"})

	case protocol.MemberLeft:
		e.logger.Info("member left", zap.String("game_id", m.GameID), zap.String("name", m.DisplayName))
		e.publish(Event{Type: EventMember, Message: m.DisplayName + " left"})

	case protocol.Welcome:
		if e.session == nil || e.State() != StateJoining {
			return true, violation("welcome while %s", e.State())
		}
		if err := e.session.Welcome(m.Team, m.Players); err != nil {
			return true, err
		}
		e.logger.Info("welcome", zap.String("game_id", e.gameID), zap.Stringer("team", m.Team))
		e.setState(StateInGame)
		e.publish(Event{Type: EventWelcome, Team: m.Team, Players: e.session.Players()})

	case protocol.StateUpdate:
		if e.State() != StateInGame {
			return true, violation("state update while %s", e.State())
		}
		if err := e.session.Apply(m.Snapshot); err != nil {
			return true, err
		}
		snap, _ := e.session.Snapshot()
		e.logger.Debug("state applied", zap.Int("turn", snap.Turn), zap.Stringer("color", snap.CurrentColor()))
		e.publish(Event{Type: EventSnapshot, Snapshot: &snap, Board: snap.Board.Rows(), Players: e.session.Players()})

	case protocol.MoveRequest:
		if e.State() != StateInGame {
			return true, violation("move request while %s", e.State())
		}
		if e.supersededByPending() {
			e.logger.Info("dropping superseded move request", zap.String("game_id", e.gameID))
			return false, nil
		}
		if err := e.serve(ctx, m); err != nil {
			return true, err
		}

	case protocol.Result:
		e.finishWithResult(ctx, m)
		return true, nil

	case protocol.ServerError:
		return true, fmt.Errorf("%w: code %q: %s", domain.ErrServerError, m.Code, m.Text)

	default:
		return true, violation("unexpected %s from server", in.msg.Kind())
	}
	return false, nil
}

// checkGame rejects room scoped messages of another game.
func (e *Engine) checkGame(msg protocol.Message) error {
	if e.gameID == "" {
		return nil
	}
	var id string
	switch m := msg.(type) {
	case protocol.Joined:
		id = m.GameID
	case protocol.MemberJoined:
		id = m.GameID
	case protocol.MemberLeft:
		id = m.GameID
	case protocol.Welcome:
		id = m.GameID
	case protocol.StateUpdate:
		id = m.GameID
	case protocol.MoveRequest:
		id = m.GameID
	case protocol.Result:
		id = m.GameID
	case protocol.ServerError:
		id = m.GameID
	default:
		return nil
	}
	if id != "" && id != e.gameID {
		return violation("%s for game %s while playing %s", msg.Kind(), id, e.gameID)
	}
	return nil
}

func (e *Engine) finishWithResult(ctx context.Context, m protocol.Result) {
	e.result = &m
	if e.session != nil {
		e.session.MarkTerminal()
	}
	e.setState(StateFinished)

	record := e.record(m)
	e.logger.Info("game over",
		zap.String("game_id", e.gameID),
		zap.String("winner", m.WinnerName()),
		zap.Bool("won", record.Won()))
	e.publish(Event{Type: EventResult, Record: &record})

	if e.recorder == nil {
		return
	}
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()
	if err := e.recorder.RecordResult(rctx, record); err != nil {
		e.logger.Warn("failed to record result", zap.String("game_id", e.gameID), zap.Error(err))
	}
}

func (e *Engine) record(m protocol.Result) domain.GameRecord {
	r := domain.GameRecord{
		RunID:       e.opts.RunID,
		GameID:      e.gameID,
		Reservation: e.opts.Reservation,
		Scores:      m.Scores,
		Winner:      m.Winner,
		MovesSent:   e.movesSent,
		StartedAt:   e.startedAt,
		FinishedAt:  time.Now(),
	}
	if e.session != nil {
		r.Team = e.session.Team
		r.Players = e.session.Players()
		r.Turns = e.session.Turn()
	}
	return r
}

func (e *Engine) send(frame []byte) error {
	err := e.transport.SendFrame(frame)
	if errors.Is(err, domain.ErrIO) {
		e.logger.Warn("send failed, retrying", zap.Error(err))
		err = e.transport.SendFrame(frame)
	}
	return err
}
