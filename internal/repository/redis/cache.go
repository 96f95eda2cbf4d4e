package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iamasit07/blokus-client/internal/domain"
	"github.com/iamasit07/blokus-client/internal/service/game"
)

const (
	snapshotKeyPrefix = "blokus:snapshot:"
	resultKeyPrefix   = "blokus:result:"

	writeTimeout = 2 * time.Second
)

func SnapshotKey(gameID string) string { return snapshotKeyPrefix + gameID }
func ResultKey(gameID string) string   { return resultKeyPrefix + gameID }

// liveSnapshot is stored under SnapshotKey while a game runs.
type liveSnapshot struct {
	RunID    string          `json:"runId"`
	GameID   string          `json:"gameId"`
	Snapshot domain.Snapshot `json:"snapshot"`
	Board    []string        `json:"board"`
	At       time.Time       `json:"at"`
}

// store is the slice of redis the cache writes through.
type store interface {
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, error)
	Del(ctx context.Context, key string) error
}

type clientStore struct{ client *redis.Client }

func (s clientStore) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	return s.client.Set(ctx, key, data, ttl).Err()
}

func (s clientStore) Get(ctx context.Context, key string) ([]byte, error) {
	return s.client.Get(ctx, key).Bytes()
}

func (s clientStore) Del(ctx context.Context, key string) error {
	return s.client.Del(ctx, key).Err()
}

// cacheJob is either a snapshot event or a final record. Both go through
// one queue so a result never lands before a snapshot queued ahead of it.
type cacheJob struct {
	event  game.Event
	record *domain.GameRecord
	ctx    context.Context
	reply  chan error
}

// SessionCache mirrors the running game into redis. It is an engine
// Observer; writes happen on its own goroutine so OnEvent never blocks.
type SessionCache struct {
	store  store
	ttl    time.Duration
	logger *zap.Logger

	mu     sync.Mutex
	closed bool
	queue  chan cacheJob
	done   chan struct{}
}

func NewSessionCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *SessionCache {
	return newSessionCache(clientStore{client}, ttl, logger)
}

func newSessionCache(s store, ttl time.Duration, logger *zap.Logger) *SessionCache {
	c := &SessionCache{
		store:  s,
		ttl:    ttl,
		logger: logger,
		queue:  make(chan cacheJob, 64),
		done:   make(chan struct{}),
	}
	go c.run()
	return c
}

// OnEvent queues snapshot events. When the queue is full the event is
// dropped; the next snapshot replaces it anyway.
func (c *SessionCache) OnEvent(e game.Event) {
	if e.Type != game.EventSnapshot || e.Snapshot == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.queue <- cacheJob{event: e}:
	default:
		c.logger.Debug("snapshot dropped, cache queue full", zap.String("game_id", e.GameID))
	}
}

func (c *SessionCache) run() {
	defer close(c.done)
	for job := range c.queue {
		if job.record != nil {
			job.reply <- c.writeResult(job.ctx, *job.record)
			continue
		}
		e := job.event
		live := liveSnapshot{RunID: e.RunID, GameID: e.GameID, Snapshot: *e.Snapshot, Board: e.Board, At: e.At}
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		if err := c.setJSON(ctx, SnapshotKey(e.GameID), live); err != nil {
			c.logger.Warn("failed to cache snapshot", zap.String("game_id", e.GameID), zap.Error(err))
		}
		cancel()
	}
}

func (c *SessionCache) writeResult(ctx context.Context, rec domain.GameRecord) error {
	if err := c.setJSON(ctx, ResultKey(rec.GameID), rec); err != nil {
		return err
	}
	return c.store.Del(ctx, SnapshotKey(rec.GameID))
}

// RecordResult stores the record under ResultKey and drops the live
// snapshot. Snapshots queued before the call are written first.
func (c *SessionCache) RecordResult(ctx context.Context, rec domain.GameRecord) error {
	job := cacheJob{record: &rec, ctx: ctx, reply: make(chan error, 1)}
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return c.writeResult(ctx, rec)
	}
	select {
	case c.queue <- job:
	case <-ctx.Done():
		c.mu.Unlock()
		return ctx.Err()
	}
	c.mu.Unlock()

	select {
	case err := <-job.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// LoadResult returns the cached record and false when none is stored.
func (c *SessionCache) LoadResult(ctx context.Context, gameID string) (domain.GameRecord, bool, error) {
	var rec domain.GameRecord
	ok, err := c.getJSON(ctx, ResultKey(gameID), &rec)
	return rec, ok, err
}

// LoadSnapshot returns the last cached turn of a running game.
func (c *SessionCache) LoadSnapshot(ctx context.Context, gameID string) (domain.Snapshot, bool, error) {
	var live liveSnapshot
	ok, err := c.getJSON(ctx, SnapshotKey(gameID), &live)
	if !ok || err != nil {
		return domain.Snapshot{}, ok, err
	}
	board, err := domain.BoardFromRows(live.Board)
	if err != nil {
		return domain.Snapshot{}, false, fmt.Errorf("cached board for %s: %w", gameID, err)
	}
	live.Snapshot.Board = board
	return live.Snapshot, true, nil
}

// Stop drains queued snapshots. The client stays open.
func (c *SessionCache) Stop() {
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		close(c.queue)
	}
	c.mu.Unlock()
	<-c.done
}

func (c *SessionCache) setJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	return c.store.Set(ctx, key, data, c.ttl)
}

func (c *SessionCache) getJSON(ctx context.Context, key string, v any) (bool, error) {
	data, err := c.store.Get(ctx, key)
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return true, nil
}
